package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coding_documenty/internal/common"
	"coding_documenty/internal/domain/model"
)

type AdminRepository interface {
	Create(ctx context.Context, admin *model.Admin) error
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)
	FindByUsername(ctx context.Context, username string) (*model.Admin, error)
	FindByID(ctx context.Context, id string) (*model.Admin, error)
	Count(ctx context.Context) (int64, error)

	SetResetToken(ctx context.Context, adminID, digest string, expires time.Time) error
	// FindByResetToken only matches tokens whose expiry is after now.
	FindByResetToken(ctx context.Context, digest string, now time.Time) (*model.Admin, error)
	// ConsumeResetToken swaps the password hash and clears the token pair in one
	// conditional write. Returns ErrNotFound when no unexpired token matched.
	ConsumeResetToken(ctx context.Context, digest string, now time.Time, passwordHash string) (string, error)
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type pgAdminRepository struct {
	db *sql.DB
}

func NewPgAdminRepository(db *sql.DB) AdminRepository {
	return &pgAdminRepository{db: db}
}

const adminColumns = `id, full_name, email, username, password_hash, reset_password_token, reset_password_expires, created_at`

func scanAdmin(row rowScanner) (*model.Admin, error) {
	admin := &model.Admin{}
	var token sql.NullString
	var expires sql.NullTime
	err := row.Scan(&admin.ID, &admin.FullName, &admin.Email, &admin.Username, &admin.PasswordHash, &token, &expires, &admin.CreatedAt)
	if err != nil {
		return nil, err
	}
	if token.Valid && expires.Valid {
		admin.ResetPasswordToken = &token.String
		admin.ResetPasswordExpires = &expires.Time
	}
	return admin, nil
}

func (r *pgAdminRepository) Create(ctx context.Context, admin *model.Admin) error {
	query := `INSERT INTO admins (id, full_name, email, username, password_hash, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, admin.ID, admin.FullName, admin.Email, admin.Username, admin.PasswordHash, admin.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("admin with given username or email already exists: %w", common.ErrConflict)
		}
		return wrapStoreErr("pgAdminRepository.Create", err)
	}
	return nil
}

func (r *pgAdminRepository) findOne(ctx context.Context, op, where string, args ...any) (*model.Admin, error) {
	admin, err := scanAdmin(r.db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admins WHERE `+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, wrapStoreErr(op, err)
	}
	return admin, nil
}

func (r *pgAdminRepository) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return r.findOne(ctx, "pgAdminRepository.FindByEmail", `email = $1`, email)
}

func (r *pgAdminRepository) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	return r.findOne(ctx, "pgAdminRepository.FindByUsername", `username = $1`, username)
}

func (r *pgAdminRepository) FindByID(ctx context.Context, id string) (*model.Admin, error) {
	return r.findOne(ctx, "pgAdminRepository.FindByID", `id = $1`, id)
}

func (r *pgAdminRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&n); err != nil {
		return 0, wrapStoreErr("pgAdminRepository.Count", err)
	}
	return n, nil
}

func (r *pgAdminRepository) SetResetToken(ctx context.Context, adminID, digest string, expires time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE admins SET reset_password_token = $1, reset_password_expires = $2 WHERE id = $3`,
		digest, expires, adminID)
	if err != nil {
		return wrapStoreErr("pgAdminRepository.SetResetToken", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgAdminRepository) FindByResetToken(ctx context.Context, digest string, now time.Time) (*model.Admin, error) {
	return r.findOne(ctx, "pgAdminRepository.FindByResetToken",
		`reset_password_token = $1 AND reset_password_expires > $2`, digest, now)
}

func (r *pgAdminRepository) ConsumeResetToken(ctx context.Context, digest string, now time.Time, passwordHash string) (string, error) {
	query := `UPDATE admins
	          SET password_hash = $1, reset_password_token = NULL, reset_password_expires = NULL
	          WHERE reset_password_token = $2 AND reset_password_expires > $3
	          RETURNING id`
	var id string
	if err := r.db.QueryRowContext(ctx, query, passwordHash, digest, now).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrNotFound
		}
		return "", wrapStoreErr("pgAdminRepository.ConsumeResetToken", err)
	}
	return id, nil
}

func (r *pgAdminRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE admins SET reset_password_token = NULL, reset_password_expires = NULL
		 WHERE reset_password_expires IS NOT NULL AND reset_password_expires <= $1`, now)
	if err != nil {
		return 0, wrapStoreErr("pgAdminRepository.ClearExpiredResetTokens", err)
	}
	return res.RowsAffected()
}
