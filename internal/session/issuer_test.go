package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Stewz00/go-login-service/internal/interfaces"
	"github.com/Stewz00/go-login-service/internal/test"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	token, hash, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, token, TokenBytes*2)
	assert.Equal(t, HashToken(token), hash)
	assert.NotEqual(t, token, hash)
}

func TestIssuer_Issue(t *testing.T) {
	repo := test.NewMockSessionRepository()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer(repo, time.Hour, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	s, token, err := issuer.Issue(ctx, 1, interfaces.SessionMeta{UserAgent: "ua", IPAddress: "10.0.0.1"})
	require.NoError(t, err)

	assert.NotEmpty(t, token)
	assert.Equal(t, HashToken(token), s.TokenHash)
	assert.Equal(t, int64(1), s.AccountID)
	assert.Equal(t, now.Add(time.Hour), s.ExpiresAt)
	assert.Equal(t, "ua", s.UserAgent)

	resolved, err := issuer.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, s.ID, resolved.ID)

	byID, err := issuer.ResolveID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.TokenHash, byID.TokenHash)
}

func TestIssuer_IssueDistinctTokens(t *testing.T) {
	issuer := NewIssuer(test.NewMockSessionRepository(), 0)
	seen := make(map[string]bool)

	for i := 0; i < 20; i++ {
		_, token, err := issuer.Issue(context.Background(), 1, interfaces.SessionMeta{})
		require.NoError(t, err)
		assert.False(t, seen[token], "token reused")
		seen[token] = true
	}
	assert.Equal(t, DefaultTTL, issuer.TTL())
}

func TestIssuer_IssueErrors(t *testing.T) {
	repo := test.NewMockSessionRepository()
	issuer := NewIssuer(repo, time.Hour)

	_, _, err := issuer.Issue(context.Background(), 0, interfaces.SessionMeta{})
	assert.Error(t, err)

	repo.CreateErr = errors.New("disk full")
	_, _, err = issuer.Issue(context.Background(), 1, interfaces.SessionMeta{})
	assert.ErrorContains(t, err, "disk full")
}

func TestIssuer_Resolve(t *testing.T) {
	repo := test.NewMockSessionRepository()
	now := time.Now()
	clock := now
	issuer := NewIssuer(repo, time.Hour, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	_, token, err := issuer.Issue(ctx, 1, interfaces.SessionMeta{})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		at    time.Time
		errIs error
	}{
		{name: "valid", token: token, at: now},
		{name: "empty token", token: "", at: now, errIs: ErrSessionInvalid},
		{name: "unknown token", token: "deadbeef", at: now, errIs: ErrSessionInvalid},
		{name: "expired", token: token, at: now.Add(time.Hour), errIs: ErrSessionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock = tt.at
			_, err := issuer.Resolve(ctx, tt.token)
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
				return
			}
			assert.NoError(t, err)
		})
	}

	_, err = issuer.ResolveID(ctx, ulid.Make())
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestIssuer_Revoke(t *testing.T) {
	repo := test.NewMockSessionRepository()
	issuer := NewIssuer(repo, time.Hour)
	ctx := context.Background()

	_, token, err := issuer.Issue(ctx, 1, interfaces.SessionMeta{})
	require.NoError(t, err)
	_, other, err := issuer.Issue(ctx, 1, interfaces.SessionMeta{})
	require.NoError(t, err)

	require.NoError(t, issuer.Revoke(ctx, token))

	_, err = issuer.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
	assert.ErrorIs(t, issuer.Revoke(ctx, token), ErrSessionInvalid)

	// Revoking one session leaves the others alone.
	_, err = issuer.Resolve(ctx, other)
	assert.NoError(t, err)

	n, err := issuer.RevokeAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = issuer.Resolve(ctx, other)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}
