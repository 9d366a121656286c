package model

import "time"

const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Session is the server-side state of one browser.
type Session struct {
	ID        string              `json:"id"`
	IsAdmin   bool                `json:"is_admin"`
	AdminID   string              `json:"admin_id,omitempty"` // lookup only, the admin may be gone
	Flashes   map[string][]string `json:"flashes,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	ExpiresAt time.Time           `json:"expires_at"`

	// Persisted is false until the session has been written to the store once.
	Persisted bool `json:"-"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
