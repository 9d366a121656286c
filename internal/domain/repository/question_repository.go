package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"coding_documenty/internal/common"
	"coding_documenty/internal/domain/model"

	"github.com/jackc/pgx/v5/pgtype"
)

type ListOrder int

const (
	OrderNewestFirst  ListOrder = iota // dashboard
	OrderChapterTitle                  // sidebar, search
)

type QuestionRepository interface {
	Create(ctx context.Context, q *model.Question) error
	FindByID(ctx context.Context, id string) (*model.Question, error)
	FindByChapterAndTitle(ctx context.Context, chapter, title string) (*model.Question, error)
	List(ctx context.Context, order ListOrder) ([]model.Question, error)
	// FindFirstByTitle returns the first question, in chapter/title order, whose
	// title contains fragment ignoring case.
	FindFirstByTitle(ctx context.Context, fragment string) (*model.Question, error)
	Update(ctx context.Context, q *model.Question) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type pgQuestionRepository struct {
	db   *sql.DB
	tmap *pgtype.Map
}

func NewPgQuestionRepository(db *sql.DB) QuestionRepository {
	return &pgQuestionRepository{db: db, tmap: pgtype.NewMap()}
}

const questionColumns = `id, chapter, title, code, output, difficulty, language, explanation, tags, file_name, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *pgQuestionRepository) scan(row rowScanner) (*model.Question, error) {
	q := &model.Question{}
	var tags []string
	err := row.Scan(
		&q.ID, &q.Chapter, &q.Title, &q.Code, &q.Output, &q.Difficulty, &q.Language,
		&q.Explanation, r.tmap.SQLScanner(&tags), &q.FileName, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	q.Tags = tags
	return q, nil
}

// tagsParam keeps a nil slice from being sent as NULL.
func tagsParam(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func (r *pgQuestionRepository) Create(ctx context.Context, q *model.Question) error {
	query := `INSERT INTO questions (` + questionColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.ExecContext(ctx, query,
		q.ID, q.Chapter, q.Title, q.Code, q.Output, q.Difficulty, q.Language,
		q.Explanation, tagsParam(q.Tags), q.FileName, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("question with this id already exists: %w", common.ErrConflict)
		}
		return wrapStoreErr("pgQuestionRepository.Create", err)
	}
	return nil
}

func (r *pgQuestionRepository) FindByID(ctx context.Context, id string) (*model.Question, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	q, err := r.scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, wrapStoreErr("pgQuestionRepository.FindByID", err)
	}
	return q, nil
}

func (r *pgQuestionRepository) FindByChapterAndTitle(ctx context.Context, chapter, title string) (*model.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE chapter = $1 AND title = $2 LIMIT 1`
	q, err := r.scan(r.db.QueryRowContext(ctx, query, chapter, title))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, wrapStoreErr("pgQuestionRepository.FindByChapterAndTitle", err)
	}
	return q, nil
}

func (r *pgQuestionRepository) List(ctx context.Context, order ListOrder) ([]model.Question, error) {
	orderBy := "created_at DESC, id"
	if order == OrderChapterTitle {
		orderBy = "chapter ASC, title ASC"
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY `+orderBy)
	if err != nil {
		return nil, wrapStoreErr("pgQuestionRepository.List query", err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("pgQuestionRepository.List scan: %w", err)
		}
		questions = append(questions, *q)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapStoreErr("pgQuestionRepository.List rows.Err", err)
	}
	return questions, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *pgQuestionRepository) FindFirstByTitle(ctx context.Context, fragment string) (*model.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions
	          WHERE title ILIKE $1 ESCAPE '\'
	          ORDER BY chapter ASC, title ASC
	          LIMIT 1`
	q, err := r.scan(r.db.QueryRowContext(ctx, query, "%"+likeEscaper.Replace(fragment)+"%"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, wrapStoreErr("pgQuestionRepository.FindFirstByTitle", err)
	}
	return q, nil
}

func (r *pgQuestionRepository) Update(ctx context.Context, q *model.Question) error {
	query := `UPDATE questions SET
                chapter = $1, title = $2, code = $3, output = $4, difficulty = $5,
                language = $6, explanation = $7, tags = $8, file_name = $9, updated_at = $10
              WHERE id = $11`
	res, err := r.db.ExecContext(ctx, query,
		q.Chapter, q.Title, q.Code, q.Output, q.Difficulty,
		q.Language, q.Explanation, tagsParam(q.Tags), q.FileName, q.UpdatedAt, q.ID,
	)
	if err != nil {
		return wrapStoreErr("pgQuestionRepository.Update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgQuestionRepository.Update rows: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgQuestionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return wrapStoreErr("pgQuestionRepository.Delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgQuestionRepository.Delete rows: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgQuestionRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, wrapStoreErr("pgQuestionRepository.DeleteMany", err)
	}
	return res.RowsAffected()
}

func (r *pgQuestionRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM questions`)
	if err != nil {
		return 0, wrapStoreErr("pgQuestionRepository.DeleteAll", err)
	}
	return res.RowsAffected()
}

func (r *pgQuestionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		return 0, wrapStoreErr("pgQuestionRepository.Count", err)
	}
	return n, nil
}
