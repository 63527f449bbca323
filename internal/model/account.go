package model

import (
	"log/slog"
	"strings"
	"time"
)

// Account is a login identity. Email is the identifier and is unique
// regardless of case.
type Account struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	FailedAttempts int        `json:"-"`
	LockedUntil    *time.Time `json:"-"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsLockedAt reports whether the account is locked out at t.
func (a *Account) IsLockedAt(t time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(t)
}

// LogValue keeps the password hash out of structured logs.
func (a *Account) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("id", a.ID),
		slog.String("email", a.Email),
	)
}

// NormalizeEmail returns the canonical form used for lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
