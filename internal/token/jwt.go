// Package token wraps sessions in signed JWTs for API clients.
//
// The JWT is only an envelope: its jti names a server-side session, which must
// still be active for the bearer to be accepted.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/Stewz00/go-login-service/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

const issuer = "go-login-service"

// Claims identifies the session behind a bearer token.
type Claims struct {
	SessionID ulid.ULID
	AccountID int64
	ExpiresAt time.Time
}

// Signer signs and verifies HS256 tokens.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns a JWT for s that expires with the session.
func (s *Signer) Sign(session *model.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatInt(session.AccountID, 10),
		ID:        session.ID.String(),
		IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates tokenString and returns its claims.
func (s *Signer) Parse(tokenString string) (*Claims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	sessionID, err := ulid.Parse(claims.ID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	accountID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Claims{
		SessionID: sessionID,
		AccountID: accountID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
