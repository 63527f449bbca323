package service

import (
	"errors"
	"strings"

	"github.com/samber/oops"
)

var (
	// ErrInvalidCredentials is the only failure callers see for an unknown
	// account or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked due to too many failed attempts")
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrUnauthenticated    = errors.New("not authenticated")
)

// Failure reasons attached to ErrInvalidCredentials. They are for logs only.
const (
	ReasonNotFound         = "not_found"
	ReasonPasswordMismatch = "password_mismatch"
)

func invalidCredentials(reason string) error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").
		With("reason", reason).
		Wrap(ErrInvalidCredentials)
}

// FailureReason returns the internal reason behind an ErrInvalidCredentials
// error, or "" if err carries none.
func FailureReason(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	reason, _ := oopsErr.Context()["reason"].(string)
	return reason
}

// FieldErrors maps form fields to validation messages.
type FieldErrors map[string]string

// ValidationError reports malformed input. It matches ErrValidation.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range []string{"email", "password"} {
		if msg, ok := e.Fields[field]; ok {
			parts = append(parts, msg)
		}
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
