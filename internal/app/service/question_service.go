package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"coding_documenty/internal/common"
	"coding_documenty/internal/domain/model"
	"coding_documenty/internal/domain/repository"
	"coding_documenty/internal/platform/metrics"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// DeleteAllConfirmation must be typed by the admin to wipe every question.
const DeleteAllConfirmation = "DELETE"

type QuestionService struct {
	questionRepo repository.QuestionRepository
	now          func() time.Time
}

func NewQuestionService(questionRepo repository.QuestionRepository) *QuestionService {
	return &QuestionService{questionRepo: questionRepo, now: time.Now}
}

type QuestionInput struct {
	Chapter     string
	Title       string
	Code        string
	Output      string
	Difficulty  string
	Language    string
	Explanation string
	Tags        []string
	FileName    string
}

// QuestionPatch only overwrites the fields that are non-nil.
type QuestionPatch struct {
	Chapter     *string
	Title       *string
	Code        *string
	Output      *string
	Difficulty  *string
	Language    *string
	Explanation *string
	Tags        *[]string
	FileName    *string
}

type ImportItem struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Output   string `json:"output"`
	Language string `json:"language"`
}

// ImportPayload maps chapter name to its questions.
type ImportPayload map[string][]ImportItem

type ImportResult struct {
	Created int
	Skipped int
	Invalid int
	Errors  []string
}

type Download struct {
	FileName    string
	ContentType string
	Body        []byte
}

// NormalizeTags trims, drops empties and removes duplicates keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ParseTags splits a comma separated form value.
func ParseTags(raw string) []string {
	return NormalizeTags(strings.Split(raw, ","))
}

var languageAliases = map[string]model.QuestionLanguage{
	"c++":        model.LanguageCpp,
	"js":         model.LanguageJavaScript,
	"py":         model.LanguagePython,
	"python3":    model.LanguagePython,
	"node":       model.LanguageJavaScript,
	"typescript": model.LanguageJavaScript,
}

func parseDifficulty(raw string) (model.QuestionDifficulty, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.DifficultyMedium, nil
	}
	for _, d := range model.Difficulties {
		if strings.EqualFold(raw, string(d)) {
			return d, nil
		}
	}
	return "", common.Userf(common.ErrValidation, "Difficulty must be one of Easy, Medium or Hard.")
}

func parseLanguage(raw string) (model.QuestionLanguage, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return model.LanguageCpp, nil
	}
	if l := model.QuestionLanguage(raw); l.Valid() {
		return l, nil
	}
	if l, ok := languageAliases[raw]; ok {
		return l, nil
	}
	return "", common.Userf(common.ErrValidation, "Language must be one of cpp, java, python or javascript.")
}

func validateRequired(q *model.Question) error {
	var missing []string
	if q.Chapter == "" {
		missing = append(missing, "chapter")
	}
	if q.Title == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(q.Code) == "" {
		missing = append(missing, "code")
	}
	if len(missing) > 0 {
		return common.Userf(common.ErrValidation, "Missing required fields: %s.", strings.Join(missing, ", "))
	}
	return nil
}

func (s *QuestionService) build(in QuestionInput) (*model.Question, error) {
	difficulty, err := parseDifficulty(in.Difficulty)
	if err != nil {
		return nil, err
	}
	language, err := parseLanguage(in.Language)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	q := &model.Question{
		ID:          uuid.NewString(),
		Chapter:     strings.TrimSpace(in.Chapter),
		Title:       strings.TrimSpace(in.Title),
		Code:        in.Code,
		Output:      in.Output,
		Difficulty:  difficulty,
		Language:    language,
		Explanation: in.Explanation,
		Tags:        NormalizeTags(in.Tags),
		FileName:    strings.TrimSpace(in.FileName),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateRequired(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) Add(ctx context.Context, in QuestionInput) (*model.Question, error) {
	q, err := s.build(in)
	if err != nil {
		return nil, err
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	metrics.QuestionMutations.WithLabelValues("create").Inc()
	return q, nil
}

func (s *QuestionService) Get(ctx context.Context, id string) (*model.Question, error) {
	if strings.TrimSpace(id) == "" {
		return nil, common.ErrNotFound
	}
	return s.questionRepo.FindByID(ctx, id)
}

// List returns every question, newest first.
func (s *QuestionService) List(ctx context.Context) ([]model.Question, error) {
	return s.questionRepo.List(ctx, repository.OrderNewestFirst)
}

// ListByChapter returns every question in chapter/title order.
func (s *QuestionService) ListByChapter(ctx context.Context) ([]model.Question, error) {
	return s.questionRepo.List(ctx, repository.OrderChapterTitle)
}

func (s *QuestionService) Edit(ctx context.Context, id string, patch QuestionPatch) (*model.Question, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Chapter != nil {
		q.Chapter = strings.TrimSpace(*patch.Chapter)
	}
	if patch.Title != nil {
		q.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Code != nil {
		q.Code = *patch.Code
	}
	if patch.Output != nil {
		q.Output = *patch.Output
	}
	if patch.Difficulty != nil {
		if q.Difficulty, err = parseDifficulty(*patch.Difficulty); err != nil {
			return nil, err
		}
	}
	if patch.Language != nil {
		if q.Language, err = parseLanguage(*patch.Language); err != nil {
			return nil, err
		}
	}
	if patch.Explanation != nil {
		q.Explanation = *patch.Explanation
	}
	if patch.Tags != nil {
		q.Tags = NormalizeTags(*patch.Tags)
	}
	if patch.FileName != nil {
		q.FileName = strings.TrimSpace(*patch.FileName)
	}
	if err := validateRequired(q); err != nil {
		return nil, err
	}

	q.UpdatedAt = s.now().UTC()
	if err := s.questionRepo.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	metrics.QuestionMutations.WithLabelValues("update").Inc()
	return q, nil
}

func (s *QuestionService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return common.ErrNotFound
	}
	if err := s.questionRepo.Delete(ctx, id); err != nil {
		return err
	}
	metrics.QuestionMutations.WithLabelValues("delete").Inc()
	return nil
}

// DeleteSelected removes the given ids and reports how many actually existed.
func (s *QuestionService) DeleteSelected(ctx context.Context, ids []string) (int64, error) {
	set := NormalizeTags(ids)
	if len(set) == 0 {
		return 0, common.Userf(common.ErrValidation, "No questions selected.")
	}
	n, err := s.questionRepo.DeleteMany(ctx, set)
	if err != nil {
		return 0, fmt.Errorf("failed to delete questions: %w", err)
	}
	metrics.QuestionMutations.WithLabelValues("delete").Add(float64(n))
	return n, nil
}

func (s *QuestionService) CountAll(ctx context.Context) (int64, error) {
	return s.questionRepo.Count(ctx)
}

// DeleteAll wipes every question once confirm equals DeleteAllConfirmation.
func (s *QuestionService) DeleteAll(ctx context.Context, confirm string) (int64, error) {
	if strings.TrimSpace(confirm) != DeleteAllConfirmation {
		return 0, common.Userf(common.ErrValidation, "Type %s to confirm deleting all questions.", DeleteAllConfirmation)
	}
	n, err := s.questionRepo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete all questions: %w", err)
	}
	metrics.QuestionMutations.WithLabelValues("delete").Add(float64(n))
	log.Printf("WARN: all questions deleted (%d)", n)
	return n, nil
}

// Search returns the first question, in chapter/title order, whose title
// contains q ignoring case.
func (s *QuestionService) Search(ctx context.Context, q string) (*model.Question, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, common.ErrNotFound
	}
	return s.questionRepo.FindFirstByTitle(ctx, q)
}

// Import adds questions from payload, skipping chapter/title pairs that already exist.
func (s *QuestionService) Import(ctx context.Context, payload ImportPayload) (ImportResult, error) {
	var result ImportResult
	if len(payload) == 0 {
		return result, common.Userf(common.ErrValidation, "The import file contains no chapters.")
	}

	chapters := make([]string, 0, len(payload))
	for chapter := range payload {
		chapters = append(chapters, chapter)
	}
	sort.Strings(chapters)

	for _, chapter := range chapters {
		for i, item := range payload[chapter] {
			q, err := s.build(QuestionInput{
				Chapter:  chapter,
				Title:    item.Name,
				Code:     item.Code,
				Output:   item.Output,
				Language: item.Language,
			})
			if err != nil {
				result.Invalid++
				result.Errors = append(result.Errors, fmt.Sprintf("%s #%d: %s", chapter, i+1, common.UserDetail(err)))
				continue
			}

			_, err = s.questionRepo.FindByChapterAndTitle(ctx, q.Chapter, q.Title)
			if err == nil {
				result.Skipped++
				continue
			}
			if !errors.Is(err, common.ErrNotFound) {
				return result, fmt.Errorf("failed to check existing question: %w", err)
			}
			if err := s.questionRepo.Create(ctx, q); err != nil {
				return result, fmt.Errorf("failed to import question: %w", err)
			}
			result.Created++
		}
	}
	metrics.QuestionMutations.WithLabelValues("import").Add(float64(result.Created))
	log.Printf("INFO: import finished: %d created, %d skipped, %d invalid", result.Created, result.Skipped, result.Invalid)
	return result, nil
}

// Download returns the question code as a source file.
func (s *QuestionService) Download(ctx context.Context, id string) (*Download, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name := q.FileName
	if name == "" {
		base := slug.Make(q.Title)
		if base == "" {
			base = "solution"
		}
		name = base + q.Language.Extension()
	}
	return &Download{
		FileName:    name,
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(q.Code),
	}, nil
}
