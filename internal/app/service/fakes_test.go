package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"coding_documenty/internal/common"
	"coding_documenty/internal/domain/model"
	"coding_documenty/internal/domain/repository"
	"coding_documenty/internal/platform/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type memQuestionRepo struct {
	mu   sync.Mutex
	byID map[string]model.Question
	err  error // returned by every call when set
}

func newMemQuestionRepo() *memQuestionRepo {
	return &memQuestionRepo{byID: map[string]model.Question{}}
}

func (r *memQuestionRepo) Create(_ context.Context, q *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.byID[q.ID]; ok {
		return common.ErrConflict
	}
	r.byID[q.ID] = *q
	return nil
}

func (r *memQuestionRepo) FindByID(_ context.Context, id string) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	q, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &q, nil
}

func (r *memQuestionRepo) FindByChapterAndTitle(_ context.Context, chapter, title string) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, q := range r.byID {
		if q.Chapter == chapter && q.Title == title {
			return &q, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memQuestionRepo) List(_ context.Context, order repository.ListOrder) ([]model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
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
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memQuestionRepo) FindFirstByTitle(ctx context.Context, fragment string) (*model.Question, error) {
	all, err := r.List(ctx, repository.OrderChapterTitle)
	if err != nil {
		return nil, err
	}
	for _, q := range all {
		if strings.Contains(strings.ToLower(q.Title), strings.ToLower(fragment)) {
			return &q, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memQuestionRepo) Update(_ context.Context, q *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.byID[q.ID]; !ok {
		return common.ErrNotFound
	}
	r.byID[q.ID] = *q
	return nil
}

func (r *memQuestionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memQuestionRepo) DeleteMany(_ context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	var n int64
	for _, id := range ids {
		if _, ok := r.byID[id]; ok {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

func (r *memQuestionRepo) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	n := int64(len(r.byID))
	r.byID = map[string]model.Question{}
	return n, nil
}

func (r *memQuestionRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	return int64(len(r.byID)), nil
}

type memAdminRepo struct {
	mu   sync.Mutex
	byID map[string]model.Admin
}

func newMemAdminRepo() *memAdminRepo {
	return &memAdminRepo{byID: map[string]model.Admin{}}
}

func (r *memAdminRepo) Create(_ context.Context, a *model.Admin) error {
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

func (r *memAdminRepo) find(match func(model.Admin) bool) (*model.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if match(a) {
			return &a, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memAdminRepo) FindByEmail(_ context.Context, email string) (*model.Admin, error) {
	return r.find(func(a model.Admin) bool { return a.Email == email })
}

func (r *memAdminRepo) FindByUsername(_ context.Context, username string) (*model.Admin, error) {
	return r.find(func(a model.Admin) bool { return a.Username == username })
}

func (r *memAdminRepo) FindByID(_ context.Context, id string) (*model.Admin, error) {
	return r.find(func(a model.Admin) bool { return a.ID == id })
}

func (r *memAdminRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byID)), nil
}

func (r *memAdminRepo) SetResetToken(_ context.Context, id, digest string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	a.ResetPasswordToken = &digest
	a.ResetPasswordExpires = &expires
	r.byID[id] = a
	return nil
}

func tokenLive(a model.Admin, digest string, now time.Time) bool {
	return a.ResetPasswordToken != nil && *a.ResetPasswordToken == digest &&
		a.ResetPasswordExpires != nil && a.ResetPasswordExpires.After(now)
}

func (r *memAdminRepo) FindByResetToken(_ context.Context, digest string, now time.Time) (*model.Admin, error) {
	return r.find(func(a model.Admin) bool { return tokenLive(a, digest, now) })
}

func (r *memAdminRepo) ConsumeResetToken(_ context.Context, digest string, now time.Time, hash string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, a := range r.byID {
		if tokenLive(a, digest, now) {
			a.PasswordHash = hash
			a.ResetPasswordToken = nil
			a.ResetPasswordExpires = nil
			r.byID[id] = a
			return id, nil
		}
	}
	return "", common.ErrNotFound
}

func (r *memAdminRepo) ClearExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, a := range r.byID {
		if a.ResetPasswordExpires != nil && !a.ResetPasswordExpires.After(now) {
			a.ResetPasswordToken = nil
			a.ResetPasswordExpires = nil
			r.byID[id] = a
			n++
		}
	}
	return n, nil
}

type sentMail struct {
	To, Subject, Body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return m.err
}

func (m *recordingMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}
	}
	return m.sent[len(m.sent)-1]
}

type testEnv struct {
	mr        *miniredis.Miniredis
	admins    *memAdminRepo
	questions *memQuestionRepo
	mailer    *recordingMailer
	identity  *IdentityService
	sessions  *SessionService
	auth      *AuthService
	question  *QuestionService
}

func newTestEnv(t *testing.T, signupSecret string) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	env := &testEnv{
		mr:        mr,
		admins:    newMemAdminRepo(),
		questions: newMemQuestionRepo(),
		mailer:    &recordingMailer{},
	}
	env.identity = NewIdentityService(env.admins, time.Hour)
	env.sessions = NewSessionService(repository.NewRedisSessionRepository(rdb), 14*24*time.Hour)
	env.auth = NewAuthService(env.identity, env.sessions, cache.NewLocker(rdb, 30*time.Second), env.mailer, signupSecret)
	env.question = NewQuestionService(env.questions)
	return env
}
