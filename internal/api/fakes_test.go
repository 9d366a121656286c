package api

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"coding_documenty/internal/common"
	"coding_documenty/internal/domain/model"
	"coding_documenty/internal/domain/repository"
)

type memQuestions struct {
	mu   sync.Mutex
	byID map[string]model.Question
}

func (r *memQuestions) Create(_ context.Context, q *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[q.ID] = *q
	return nil
}

func (r *memQuestions) FindByID(_ context.Context, id string) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &q, nil
}

func (r *memQuestions) FindByChapterAndTitle(ctx context.Context, chapter, title string) (*model.Question, error) {
	all, _ := r.List(ctx, repository.OrderChapterTitle)
	for _, q := range all {
		if q.Chapter == chapter && q.Title == title {
			return &q, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memQuestions) List(_ context.Context, order repository.ListOrder) ([]model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Question, 0, len(r.byID))
	for _, q := range r.byID {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if order == repository.OrderChapterTitle {
			if out[i].Chapter != out[j].Chapter {
				return out[i].Chapter < out[j].Chapter
			}
			return out[i].Title < out[j].Title
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memQuestions) FindFirstByTitle(ctx context.Context, fragment string) (*model.Question, error) {
	all, _ := r.List(ctx, repository.OrderChapterTitle)
	for _, q := range all {
		if strings.Contains(strings.ToLower(q.Title), strings.ToLower(fragment)) {
			return &q, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memQuestions) Update(_ context.Context, q *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[q.ID]; !ok {
		return common.ErrNotFound
	}
	r.byID[q.ID] = *q
	return nil
}

func (r *memQuestions) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memQuestions) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if r.Delete(ctx, id) == nil {
			n++
		}
	}
	return n, nil
}

func (r *memQuestions) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.byID))
	r.byID = map[string]model.Question{}
	return n, nil
}

func (r *memQuestions) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byID)), nil
}

// memAdmins only needs what signup and login touch.
type memAdmins struct {
	mu   sync.Mutex
	byID map[string]model.Admin
}

func (r *memAdmins) Create(_ context.Context, a *model.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == a.Email || existing.Username == a.Username {
			return common.ErrConflict
		}
	}
	r.byID[a.ID] = *a
	return nil
}

func (r *memAdmins) find(match func(model.Admin) bool) (*model.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if match(a) {
			return &a, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memAdmins) FindByEmail(_ context.Context, email string) (*model.Admin, error) {
	return r.find(func(a model.Admin) bool { return a.Email == email })
}

func (r *memAdmins) FindByUsername(_ context.Context, username string) (*model.Admin, error) {
	return r.find(func(a model.Admin) bool { return a.Username == username })
}

func (r *memAdmins) FindByID(_ context.Context, id string) (*model.Admin, error) {
	return r.find(func(a model.Admin) bool { return a.ID == id })
}

func (r *memAdmins) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byID)), nil
}

func (r *memAdmins) SetResetToken(context.Context, string, string, time.Time) error {
	return nil
}

func (r *memAdmins) FindByResetToken(context.Context, string, time.Time) (*model.Admin, error) {
	return nil, common.ErrNotFound
}

func (r *memAdmins) ConsumeResetToken(context.Context, string, time.Time, string) (string, error) {
	return "", common.ErrNotFound
}

func (r *memAdmins) ClearExpiredResetTokens(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type discardMailer struct{}

func (discardMailer) Send(context.Context, string, string, string) error { return nil }
