package model

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"user@example.com", "user@example.com"},
		{"  User@Example.COM ", "user@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEmail(tt.in))
	}
}

func TestAccount_IsLockedAt(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Minute)

	assert.False(t, (&Account{}).IsLockedAt(now))
	assert.True(t, (&Account{LockedUntil: &later}).IsLockedAt(now))
	assert.False(t, (&Account{LockedUntil: &later}).IsLockedAt(later.Add(time.Second)))
}

func TestAccount_LogValueOmitsHash(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logger.Info("login", "account", &Account{ID: 7, Email: "a@b.c", PasswordHash: "$2a$12$secret"})

	assert.Contains(t, buf.String(), `"email":"a@b.c"`)
	assert.NotContains(t, buf.String(), "secret")
}

func TestSession_IsActiveAt(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now.Add(time.Hour)}

	assert.True(t, s.IsActiveAt(now))
	assert.False(t, s.IsActiveAt(now.Add(time.Hour)))

	revoked := now
	s.RevokedAt = &revoked
	assert.False(t, s.IsActiveAt(now))
}
