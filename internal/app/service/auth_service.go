package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"coding_documenty/internal/common"
	"coding_documenty/internal/domain/model"
	"coding_documenty/internal/platform/cache"
	"coding_documenty/internal/platform/mail"
	"coding_documenty/internal/platform/metrics"
)

const (
	ForgotPasswordNotice = "If an account with that email exists, a password reset link has been sent."
	mailTimeout          = 15 * time.Second
)

// Locker serializes a critical section across replicas.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type AuthService struct {
	identity     *IdentityService
	sessions     *SessionService
	locker       Locker
	mailer       mail.Sender
	signupSecret string
}

func NewAuthService(identity *IdentityService, sessions *SessionService, locker Locker, mailer mail.Sender, signupSecret string) *AuthService {
	return &AuthService{
		identity:     identity,
		sessions:     sessions,
		locker:       locker,
		mailer:       mailer,
		signupSecret: signupSecret,
	}
}

type LoginRequest struct {
	Username string // username or email
	Password string
}

type SignupRequest struct {
	SecretKey       string
	FullName        string
	Email           string
	Username        string
	Password        string
	ConfirmPassword string
}

type ForgotResult struct {
	// Admin is nil when no account matched; callers show the same notice either way.
	Admin   *model.Admin
	Link    string
	MailErr error
}

// Login checks the credentials and elevates sess. Bad credentials give
// ErrUnauthorized without saying which part was wrong.
func (s *AuthService) Login(ctx context.Context, sess *model.Session, req LoginRequest) (*model.Admin, error) {
	admin, ok, err := s.identity.VerifyCredentials(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.AuthEvents.WithLabelValues("login_failed").Inc()
		return nil, common.ErrUnauthorized
	}
	if err := s.sessions.Elevate(ctx, sess, admin.ID); err != nil {
		return nil, err
	}
	metrics.AuthEvents.WithLabelValues("login").Inc()
	log.Printf("INFO: admin %s logged in", admin.Username)
	return admin, nil
}

func (s *AuthService) Logout(ctx context.Context, sess *model.Session) error {
	metrics.AuthEvents.WithLabelValues("logout").Inc()
	return s.sessions.Destroy(ctx, sess)
}

// BootstrapOpen reports whether first-run signup is still possible.
func (s *AuthService) BootstrapOpen(ctx context.Context) (bool, error) {
	n, err := s.identity.Count(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Signup creates the first admin. It is refused once any admin exists.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*model.Admin, error) {
	if s.signupSecret != "" && subtle.ConstantTimeCompare([]byte(req.SecretKey), []byte(s.signupSecret)) != 1 {
		return nil, common.Userf(common.ErrForbidden, "Invalid Secret Key! Access Denied.")
	}
	if req.Password != req.ConfirmPassword {
		return nil, common.Userf(common.ErrValidation, "Passwords do not match.")
	}

	var admin *model.Admin
	err := s.locker.WithLock(ctx, cache.SignupLockKey, func(ctx context.Context) error {
		open, err := s.BootstrapOpen(ctx)
		if err != nil {
			return err
		}
		if !open {
			return common.Userf(common.ErrForbidden, "Admin initialization already complete. Please log in.")
		}
		admin, err = s.identity.Create(ctx, CreateAdminRequest{
			FullName: req.FullName,
			Email:    req.Email,
			Username: req.Username,
			Password: req.Password,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.AuthEvents.WithLabelValues("signup").Inc()
	log.Printf("INFO: first admin %s created", admin.Username)
	return admin, nil
}

// CreateAdmin adds another admin on behalf of a logged-in one.
func (s *AuthService) CreateAdmin(ctx context.Context, sess *model.Session, req CreateAdminRequest) (*model.Admin, error) {
	if !s.sessions.Gate(sess).Allowed {
		return nil, common.ErrUnauthorized
	}
	admin, err := s.identity.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: admin %s created by %s", admin.Username, sess.AdminID)
	return admin, nil
}

// ForgotPassword issues a reset token and mails the link. A mail failure is
// reported in the result and leaves the token in place.
func (s *AuthService) ForgotPassword(ctx context.Context, email, baseURL string) (ForgotResult, error) {
	if strings.TrimSpace(email) == "" {
		return ForgotResult{}, common.Userf(common.ErrValidation, "Please enter your email address.")
	}

	token, admin, err := s.identity.IssueResetToken(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return ForgotResult{}, nil
		}
		return ForgotResult{}, err
	}

	link := strings.TrimRight(baseURL, "/") + "/admin/reset-password/" + token
	body := fmt.Sprintf("Hello %s,\n\n"+
		"You are receiving this because a password reset was requested for your admin account.\n\n"+
		"Open the following link to choose a new password:\n\n%s\n\n"+
		"The link expires in %s. If you did not request this, ignore this email and your password will stay unchanged.\n",
		admin.FullName, link, s.identity.tokenTTL)

	mailCtx, cancel := context.WithTimeout(ctx, mailTimeout)
	defer cancel()
	result := ForgotResult{Admin: admin, Link: link}
	if err := s.mailer.Send(mailCtx, admin.Email, "Password Reset", body); err != nil {
		log.Printf("ERROR: failed to send reset mail to %s: %v", admin.Email, err)
		result.MailErr = err
	}
	metrics.AuthEvents.WithLabelValues("reset_requested").Inc()
	return result, nil
}

func (s *AuthService) CheckResetToken(ctx context.Context, token string) error {
	_, err := s.identity.ValidateResetToken(ctx, token)
	return err
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if password != confirm {
		return common.Userf(common.ErrValidation, "Passwords do not match.")
	}
	id, err := s.identity.ConsumeResetToken(ctx, token, password)
	if err != nil {
		return err
	}
	metrics.AuthEvents.WithLabelValues("password_reset").Inc()
	log.Printf("INFO: password reset for admin %s", id)
	return nil
}
