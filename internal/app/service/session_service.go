package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"coding_documenty/internal/common"
	"coding_documenty/internal/domain/model"
	"coding_documenty/internal/domain/repository"

	"github.com/google/uuid"
)

const (
	LoginPath        = "/admin/login"
	LoginRequiredMsg = "Please log in to view this resource"
)

type SessionService struct {
	repo repository.SessionRepository
	ttl  time.Duration
	now  func() time.Time
}

func NewSessionService(repo repository.SessionRepository, ttl time.Duration) *SessionService {
	return &SessionService{repo: repo, ttl: ttl, now: time.Now}
}

// GateResult is the outcome of an admin check. A denied gate is not an error.
type GateResult struct {
	Allowed    bool
	Reason     string
	RedirectTo string
}

func (s *SessionService) newSession() *model.Session {
	now := s.now().UTC()
	return &model.Session{
		ID:        uuid.NewString(),
		Flashes:   map[string][]string{},
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
}

// Resolve returns the stored session for sid, or a fresh anonymous one that is
// not written anywhere until something saves it.
func (s *SessionService) Resolve(ctx context.Context, sid string) *model.Session {
	if sid == "" {
		return s.newSession()
	}
	sess, err := s.repo.Get(ctx, sid)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			log.Printf("WARN: session lookup failed, continuing anonymous: %v", err)
		}
		return s.newSession()
	}
	if sess.Expired(s.now()) {
		return s.newSession()
	}
	if sess.Flashes == nil {
		sess.Flashes = map[string][]string{}
	}
	return sess
}

// Elevate marks sess as an admin session under a new id. The old key is dropped
// and the new state is stored before returning.
func (s *SessionService) Elevate(ctx context.Context, sess *model.Session, adminID string) error {
	oldID, wasPersisted := sess.ID, sess.Persisted

	now := s.now().UTC()
	sess.ID = uuid.NewString()
	sess.IsAdmin = true
	sess.AdminID = adminID
	sess.CreatedAt = now
	sess.ExpiresAt = now.Add(s.ttl)
	sess.Persisted = false

	if err := s.repo.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to persist elevated session: %w", err)
	}
	if wasPersisted {
		if err := s.repo.Delete(ctx, oldID); err != nil {
			log.Printf("WARN: failed to drop pre-login session %s: %v", oldID, err)
		}
	}
	return nil
}

// Destroy removes sess from the store and resets it to an anonymous session.
// Destroying an unknown or already destroyed session is not an error.
func (s *SessionService) Destroy(ctx context.Context, sess *model.Session) error {
	var err error
	if sess.Persisted {
		err = s.repo.Delete(ctx, sess.ID)
	}
	*sess = *s.newSession()
	return err
}

func (s *SessionService) AddFlash(sess *model.Session, kind, message string) {
	if sess.Flashes == nil {
		sess.Flashes = map[string][]string{}
	}
	sess.Flashes[kind] = append(sess.Flashes[kind], message)
}

// PopFlashes returns and clears pending flashes, writing the cleared state back
// when the session is stored.
func (s *SessionService) PopFlashes(ctx context.Context, sess *model.Session) map[string][]string {
	if len(sess.Flashes) == 0 {
		return nil
	}
	flashes := sess.Flashes
	sess.Flashes = map[string][]string{}
	if sess.Persisted {
		if err := s.repo.Save(ctx, sess); err != nil {
			log.Printf("WARN: failed to clear flashes for session %s: %v", sess.ID, err)
		}
	}
	return flashes
}

func (s *SessionService) Save(ctx context.Context, sess *model.Session) error {
	return s.repo.Save(ctx, sess)
}

func (s *SessionService) Gate(sess *model.Session) GateResult {
	if sess != nil && sess.IsAdmin {
		return GateResult{Allowed: true}
	}
	return GateResult{Reason: LoginRequiredMsg, RedirectTo: LoginPath}
}
