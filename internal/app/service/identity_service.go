package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coding_documenty/internal/common"
	"coding_documenty/internal/common/security"
	"coding_documenty/internal/domain/model"
	"coding_documenty/internal/domain/repository"

	"github.com/google/uuid"
)

const MinPasswordLength = 8

type IdentityService struct {
	adminRepo repository.AdminRepository
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewIdentityService(adminRepo repository.AdminRepository, tokenTTL time.Duration) *IdentityService {
	return &IdentityService{adminRepo: adminRepo, tokenTTL: tokenTTL, now: time.Now}
}

type CreateAdminRequest struct {
	FullName string
	Email    string
	Username string
	Password string
}

func (s *IdentityService) Create(ctx context.Context, req CreateAdminRequest) (*model.Admin, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	if req.FullName == "" || req.Email == "" || req.Username == "" || req.Password == "" {
		return nil, common.Userf(common.ErrValidation, "All fields are required.")
	}
	if !strings.Contains(req.Email, "@") {
		return nil, common.Userf(common.ErrValidation, "Please enter a valid email address.")
	}
	if len(req.Password) < MinPasswordLength {
		return nil, common.Userf(common.ErrValidation, "Password must be at least %d characters.", MinPasswordLength)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.Admin{
		ID:           uuid.NewString(),
		FullName:     req.FullName,
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hashedPassword,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	admin.PasswordHash = ""
	return admin, nil
}

// VerifyCredentials accepts a username or an email. A missing account and a
// wrong password both yield ok == false with a nil error.
func (s *IdentityService) VerifyCredentials(ctx context.Context, identifier, password string) (*model.Admin, bool, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, false, nil
	}

	admin, err := s.adminRepo.FindByUsername(ctx, identifier)
	if errors.Is(err, common.ErrNotFound) {
		admin, err = s.adminRepo.FindByEmail(ctx, strings.ToLower(identifier))
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to find admin: %w", err)
	}

	if !security.CheckPasswordHash(password, admin.PasswordHash) {
		return nil, false, nil
	}
	admin.PasswordHash = ""
	return admin, true, nil
}

// IssueResetToken stores the digest of a new token on the admin with the given
// email and returns the plaintext for mailing.
func (s *IdentityService) IssueResetToken(ctx context.Context, email string) (string, *model.Admin, error) {
	admin, err := s.adminRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, err
	}

	token, err := security.NewResetToken()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate reset token: %w", err)
	}
	expires := s.now().UTC().Add(s.tokenTTL)
	if err := s.adminRepo.SetResetToken(ctx, admin.ID, security.HashToken(token), expires); err != nil {
		return "", nil, fmt.Errorf("failed to store reset token: %w", err)
	}
	admin.PasswordHash = ""
	return token, admin, nil
}

func (s *IdentityService) ValidateResetToken(ctx context.Context, token string) (*model.Admin, error) {
	if token == "" {
		return nil, common.ErrTokenInvalid
	}
	admin, err := s.adminRepo.FindByResetToken(ctx, security.HashToken(token), s.now().UTC())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrTokenInvalid
		}
		return nil, err
	}
	admin.PasswordHash = ""
	return admin, nil
}

// ConsumeResetToken sets a new password and invalidates the token. Two
// concurrent calls with the same token cannot both succeed.
func (s *IdentityService) ConsumeResetToken(ctx context.Context, token, newPassword string) (string, error) {
	if token == "" {
		return "", common.ErrTokenInvalid
	}
	if len(newPassword) < MinPasswordLength {
		return "", common.Userf(common.ErrValidation, "Password must be at least %d characters.", MinPasswordLength)
	}
	hashedPassword, err := security.HashPassword(newPassword)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.adminRepo.ConsumeResetToken(ctx, security.HashToken(token), s.now().UTC(), hashedPassword)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrTokenInvalid
		}
		return "", err
	}
	return id, nil
}

func (s *IdentityService) Count(ctx context.Context) (int64, error) {
	return s.adminRepo.Count(ctx)
}

func (s *IdentityService) ClearExpiredResetTokens(ctx context.Context) (int64, error) {
	return s.adminRepo.ClearExpiredResetTokens(ctx, s.now().UTC())
}
