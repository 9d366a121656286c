package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"coding_documenty/internal/common"
	"coding_documenty/internal/domain/model"
)

func strPtr(s string) *string { return &s }

func TestAddAppliesDefaults(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	q, err := env.question.Add(ctx, QuestionInput{
		Chapter: " Arrays ",
		Title:   "Two Sum",
		Code:    "int main() {}",
		Tags:    []string{" hash ", "array", "hash", ""},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if q.Difficulty != model.DifficultyMedium || q.Language != model.LanguageCpp {
		t.Fatalf("expected Medium/cpp defaults, got %s/%s", q.Difficulty, q.Language)
	}
	if q.Output != "" || q.Chapter != "Arrays" {
		t.Fatalf("unexpected normalization: output=%q chapter=%q", q.Output, q.Chapter)
	}
	if len(q.Tags) != 2 || q.Tags[0] != "hash" || q.Tags[1] != "array" {
		t.Fatalf("unexpected tags %v", q.Tags)
	}

	got, err := env.question.Get(ctx, q.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Two Sum" || got.Code != "int main() {}" || got.CreatedAt.IsZero() {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestAddValidation(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	cases := []struct {
		name string
		in   QuestionInput
	}{
		{"missing chapter", QuestionInput{Title: "t", Code: "c"}},
		{"missing title", QuestionInput{Chapter: "c", Code: "c"}},
		{"blank code", QuestionInput{Chapter: "c", Title: "t", Code: "   "}},
		{"bad difficulty", QuestionInput{Chapter: "c", Title: "t", Code: "c", Difficulty: "Insane"}},
		{"bad language", QuestionInput{Chapter: "c", Title: "t", Code: "c", Language: "cobol"}},
	}
	for _, tc := range cases {
		if _, err := env.question.Add(ctx, tc.in); !errors.Is(err, common.ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
	if n, _ := env.question.CountAll(ctx); n != 0 {
		t.Fatalf("invalid input must not be stored, have %d", n)
	}
}

func TestLanguageAliasesAndCase(t *testing.T) {
	env := newTestEnv(t, "")
	q, err := env.question.Add(context.Background(), QuestionInput{
		Chapter: "c", Title: "t", Code: "x", Difficulty: "hard", Language: "Py",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if q.Difficulty != model.DifficultyHard || q.Language != model.LanguagePython {
		t.Fatalf("got %s/%s", q.Difficulty, q.Language)
	}
}

func TestEditPatchesOnlyGivenFields(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	q, _ := env.question.Add(ctx, QuestionInput{Chapter: "Arrays", Title: "Two Sum", Code: "v1", Output: "[0,1]"})

	edited, err := env.question.Edit(ctx, q.ID, QuestionPatch{Code: strPtr("v2"), Difficulty: strPtr("Easy")})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Code != "v2" || edited.Difficulty != model.DifficultyEasy {
		t.Fatalf("patch not applied: %+v", edited)
	}
	if edited.Output != "[0,1]" || edited.Title != "Two Sum" {
		t.Fatalf("untouched fields changed: %+v", edited)
	}

	if _, err := env.question.Edit(ctx, q.ID, QuestionPatch{Title: strPtr("  ")}); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected ErrValidation when blanking title, got %v", err)
	}
	stored, _ := env.question.Get(ctx, q.ID)
	if stored.Title != "Two Sum" {
		t.Fatalf("failed edit must not mutate, title=%q", stored.Title)
	}
}

func TestEditAndDeleteMissing(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	env.question.Add(ctx, QuestionInput{Chapter: "Arrays", Title: "Two Sum", Code: "x"})

	if _, err := env.question.Edit(ctx, "nope", QuestionPatch{Code: strPtr("y")}); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on edit, got %v", err)
	}
	if err := env.question.Delete(ctx, "nope"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
	if n, _ := env.question.CountAll(ctx); n != 1 {
		t.Fatalf("store mutated: %d questions", n)
	}
}

func TestDeleteSelectedCountsRemoved(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	a, _ := env.question.Add(ctx, QuestionInput{Chapter: "c", Title: "a", Code: "x"})

	n, err := env.question.DeleteSelected(ctx, []string{a.ID, "b", "c", a.ID, " "})
	if err != nil {
		t.Fatalf("delete selected: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 removed, got %d", n)
	}
	if _, err := env.question.DeleteSelected(ctx, []string{" ", ""}); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty selection, got %v", err)
	}
}

func TestDeleteAllNeedsConfirmation(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	env.question.Add(ctx, QuestionInput{Chapter: "c", Title: "a", Code: "x"})
	env.question.Add(ctx, QuestionInput{Chapter: "c", Title: "b", Code: "x"})

	if _, err := env.question.DeleteAll(ctx, "yes"); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if n, _ := env.question.CountAll(ctx); n != 2 {
		t.Fatalf("unconfirmed wipe removed data")
	}
	n, err := env.question.DeleteAll(ctx, "DELETE")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 removed, got %d (%v)", n, err)
	}
}

func TestSearchPicksFirstInChapterTitleOrder(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	env.question.Add(ctx, QuestionInput{Chapter: "Strings", Title: "Two Pointers Palindrome", Code: "x"})
	want, _ := env.question.Add(ctx, QuestionInput{Chapter: "Arrays", Title: "Two Sum", Code: "x"})
	env.question.Add(ctx, QuestionInput{Chapter: "Arrays", Title: "Three Sum", Code: "x"})

	got, err := env.question.Search(ctx, "TWO")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got.ID != want.ID {
		t.Fatalf("expected %q, got %q", want.Title, got.Title)
	}
	if _, err := env.question.Search(ctx, "  "); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("empty query should be ErrNotFound, got %v", err)
	}
	if _, err := env.question.Search(ctx, "graph"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("no match should be ErrNotFound, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	env.question.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) }

	first, _ := env.question.Add(ctx, QuestionInput{Chapter: "c", Title: "first", Code: "x"})
	second, _ := env.question.Add(ctx, QuestionInput{Chapter: "c", Title: "second", Code: "x"})

	list, err := env.question.List(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("list: %v (%d)", err, len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("expected newest first")
	}
}

func TestImportSkipsExisting(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	env.question.Add(ctx, QuestionInput{Chapter: "Arrays", Title: "Two Sum", Code: "x"})

	res, err := env.question.Import(ctx, ImportPayload{
		"Arrays": {
			{Name: "Two Sum", Code: "dup"},
			{Name: "Kadane", Code: "y", Output: "6", Language: "java"},
		},
		"Strings": {
			{Name: "Reverse", Code: "z"},
			{Name: "", Code: "broken"},
		},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Created != 2 || res.Skipped != 1 || res.Invalid != 1 || len(res.Errors) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	k, err := env.questions.FindByChapterAndTitle(ctx, "Arrays", "Kadane")
	if err != nil || k.Language != model.LanguageJava || k.Output != "6" {
		t.Fatalf("imported question mismatch: %+v (%v)", k, err)
	}

	again, _ := env.question.Import(ctx, ImportPayload{"Arrays": {{Name: "Kadane", Code: "y"}}})
	if again.Created != 0 || again.Skipped != 1 {
		t.Fatalf("re-import should skip, got %+v", again)
	}
}

func TestDownloadFileName(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	plain, _ := env.question.Add(ctx, QuestionInput{Chapter: "c", Title: "Two Sum!", Code: "print(1)", Language: "python"})
	named, _ := env.question.Add(ctx, QuestionInput{Chapter: "c", Title: "x", Code: "y", FileName: "main.cpp"})

	d, err := env.question.Download(ctx, plain.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if d.FileName != "two-sum.py" || string(d.Body) != "print(1)" {
		t.Fatalf("unexpected download %q %q", d.FileName, d.Body)
	}
	d, _ = env.question.Download(ctx, named.ID)
	if d.FileName != "main.cpp" {
		t.Fatalf("expected explicit file name, got %q", d.FileName)
	}
}

func TestGroupByChapter(t *testing.T) {
	qs := []model.Question{
		{ID: "1", Chapter: "Arrays", Title: "A"},
		{ID: "2", Chapter: "Arrays", Title: "B"},
		{ID: "3", Chapter: "Linked Lists", Title: "C"},
	}
	groups := GroupByChapter(qs)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Name != "Arrays" || len(groups[0].Questions) != 2 || groups[0].Questions[1].ID != "2" {
		t.Fatalf("unexpected first group %+v", groups[0])
	}
	if groups[1].Slug != "linked-lists" {
		t.Fatalf("unexpected slug %q", groups[1].Slug)
	}
	if got := GroupByChapter(nil); len(got) != 0 {
		t.Fatalf("expected empty sidebar")
	}
}
