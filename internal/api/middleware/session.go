package middleware

import (
	"context"
	"log"
	"net/http"

	"coding_documenty/internal/app/service"
	"coding_documenty/internal/common/security"
	"coding_documenty/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	SessionCtxKey contextKey = "session"
	SidebarCtxKey contextKey = "sidebar"
)

// SessionManager ties the signed session cookie to the server-side session.
type SessionManager struct {
	sessions   *service.SessionService
	auth       *jwtauth.JWTAuth
	cookieName string
	secure     bool
}

func NewSessionManager(sessions *service.SessionService, auth *jwtauth.JWTAuth, cookieName string, secure bool) *SessionManager {
	return &SessionManager{sessions: sessions, auth: auth, cookieName: cookieName, secure: secure}
}

func (m *SessionManager) Sessions() *service.SessionService { return m.sessions }

func (m *SessionManager) tokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Verifier checks the cookie signature and expiry and stores the result for Load.
func (m *SessionManager) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verify(m.auth, m.tokenFromCookie)
}

// Load resolves the session for the request. A missing, forged or expired
// cookie yields an anonymous session.
func (m *SessionManager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sid string
		token, claims, err := jwtauth.FromContext(r.Context())
		if err == nil && token != nil {
			sid, _ = security.GetSessionIDFromClaims(claims)
		}
		sess := m.sessions.Resolve(r.Context(), sid)
		ctx := context.WithValue(r.Context(), SessionCtxKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func SessionFromContext(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(SessionCtxKey).(*model.Session)
	return sess
}

// Commit stores sess and points the cookie at it.
func (m *SessionManager) Commit(w http.ResponseWriter, r *http.Request, sess *model.Session) error {
	if err := m.sessions.Save(r.Context(), sess); err != nil {
		return err
	}
	return m.SetCookie(w, sess)
}

func (m *SessionManager) SetCookie(w http.ResponseWriter, sess *model.Session) error {
	token, err := security.GenerateSessionToken(m.auth, sess.ID, sess.ExpiresAt)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite(),
	})
	return nil
}

func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite(),
	})
}

func (m *SessionManager) sameSite() http.SameSite {
	if m.secure {
		return http.SameSiteStrictMode
	}
	return http.SameSiteLaxMode
}

// Flash queues a one-shot message on the request's session.
func (m *SessionManager) Flash(w http.ResponseWriter, r *http.Request, kind, message string) {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		return
	}
	m.sessions.AddFlash(sess, kind, message)
	if err := m.Commit(w, r, sess); err != nil {
		log.Printf("WARN: could not store flash %q: %v", message, err)
	}
}

// Redirect sends a flash followed by a 302 to target.
func (m *SessionManager) Redirect(w http.ResponseWriter, r *http.Request, kind, message, target string) {
	if message != "" {
		m.Flash(w, r, kind, message)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// AdminOnly lets admin sessions through and sends everyone else to the login page.
func (m *SessionManager) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gate := m.sessions.Gate(SessionFromContext(r.Context()))
		if !gate.Allowed {
			m.Redirect(w, r, model.FlashError, gate.Reason, gate.RedirectTo)
			return
		}
		next.ServeHTTP(w, r)
	})
}
