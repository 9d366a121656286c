package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden access")
	ErrConflict           = errors.New("resource conflict") // e.g., username already exists
	ErrValidation         = errors.New("validation failed")
	ErrTokenInvalid       = errors.New("password reset token is invalid or has expired")
	ErrServiceUnavailable = errors.New("service unavailable") // backing store unreachable
	ErrLockNotAcquired    = errors.New("failed to acquire lock")
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrTokenInvalid) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrLockNotAcquired) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrServiceUnavailable) {
		return http.StatusServiceUnavailable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // Unique violation
			return http.StatusConflict
		}
	}
	if mongo.IsDuplicateKeyError(err) {
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// FlashMessage picks the text shown to the user for a workflow error.
// Validation errors carry their own detail; everything else gets a fixed sentence.
func FlashMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTokenInvalid):
		return "Password reset token is invalid or has expired."
	case errors.Is(err, ErrValidation), errors.Is(err, ErrForbidden), errors.Is(err, ErrConflict):
		return UserDetail(err)
	case errors.Is(err, ErrUnauthorized):
		return "Invalid username or password"
	case errors.Is(err, ErrNotFound):
		return "Question not found"
	case errors.Is(err, ErrServiceUnavailable):
		return "The service is temporarily unavailable. Please try again."
	case errors.Is(err, ErrLockNotAcquired):
		return "Another request is in progress. Please try again."
	default:
		return "Server error"
	}
}

// UserError marks an error whose Detail is safe to show to the user.
type UserError struct {
	Detail string
	Kind   error
}

func (e *UserError) Error() string { return e.Detail + ": " + e.Kind.Error() }
func (e *UserError) Unwrap() error { return e.Kind }

// Userf builds a UserError of the given kind.
func Userf(kind error, format string, args ...interface{}) error {
	return &UserError{Detail: fmt.Sprintf(format, args...), Kind: kind}
}

// UserDetail returns the user-facing part of err if it carries one.
func UserDetail(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Detail
	}
	switch {
	case errors.Is(err, ErrConflict):
		return "Username or Email already exists."
	case errors.Is(err, ErrForbidden):
		return "Access denied."
	default:
		return "Please check the submitted fields."
	}
}
