package token

import (
	"testing"
	"time"

	"github.com/Stewz00/go-login-service/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_SignParse(t *testing.T) {
	signer := NewSigner("test-secret")
	now := time.Now()
	session := &model.Session{
		ID:        ulid.Make(),
		AccountID: 42,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}

	signed, err := signer.Sign(session)
	require.NoError(t, err)

	claims, err := signer.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, session.ID, claims.SessionID)
	assert.Equal(t, int64(42), claims.AccountID)
	assert.WithinDuration(t, session.ExpiresAt, claims.ExpiresAt, time.Second)
}

func TestSigner_ParseErrors(t *testing.T) {
	signer := NewSigner("test-secret")
	now := time.Now()

	expired, err := signer.Sign(&model.Session{
		ID:        ulid.Make(),
		AccountID: 1,
		CreatedAt: now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	})
	require.NoError(t, err)

	otherKey, err := NewSigner("other-secret").Sign(&model.Session{
		ID:        ulid.Make(),
		AccountID: 1,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)

	badJTI, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "1",
		ID:        "not-a-ulid",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  issuer,
		Subject: "1",
		ID:      ulid.Make().String(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		errIs error
	}{
		{name: "expired token", token: expired, errIs: ErrTokenExpired},
		{name: "wrong key", token: otherKey, errIs: ErrInvalidToken},
		{name: "garbage", token: "invalid.token.string", errIs: ErrInvalidToken},
		{name: "bad session id", token: badJTI, errIs: ErrInvalidToken},
		{name: "missing expiry", token: noExpiry, errIs: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := signer.Parse(tt.token)
			assert.ErrorIs(t, err, tt.errIs)
		})
	}
}
