package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Session is a server-side record of a successful login. Only the SHA-256
// of the token handed to the client is kept.
type Session struct {
	ID        ulid.ULID
	AccountID int64
	TokenHash string
	UserAgent string
	IPAddress string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// IsExpiredAt returns true if the session would be expired at the given time.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// IsActiveAt returns true if the session is neither revoked nor expired at t.
func (s *Session) IsActiveAt(t time.Time) bool {
	return s.RevokedAt == nil && !s.IsExpiredAt(t)
}
