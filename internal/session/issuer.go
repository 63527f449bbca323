package session

import (
	"context"
	"errors"
	"time"

	"github.com/Stewz00/go-login-service/internal/interfaces"
	"github.com/Stewz00/go-login-service/internal/metrics"
	"github.com/Stewz00/go-login-service/internal/model"
	"github.com/Stewz00/go-login-service/internal/repository"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultTTL is the session lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

var (
	ErrSessionInvalid = errors.New("invalid session")
	ErrSessionExpired = errors.New("session has expired")
)

// Issuer implements interfaces.SessionIssuer on top of a SessionRepository.
type Issuer struct {
	sessions interfaces.SessionRepository
	ttl      time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

var _ interfaces.SessionIssuer = (*Issuer)(nil)

// Option configures an Issuer.
type Option func(*Issuer)

// WithMetrics records issued and revoked sessions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Issuer) { i.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer creates an Issuer. A non-positive ttl uses DefaultTTL.
func NewIssuer(sessions interfaces.SessionRepository, ttl time.Duration, opts ...Option) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	i := &Issuer{sessions: sessions, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// TTL returns the fixed expiry window applied to new sessions.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue creates a session for the account and returns it with the plaintext
// token. Each call produces a new token.
func (i *Issuer) Issue(ctx context.Context, accountID int64, meta interfaces.SessionMeta) (*model.Session, string, error) {
	if accountID <= 0 {
		return nil, "", oops.Code("SESSION_INVALID_ACCOUNT").Errorf("account ID must be positive")
	}

	token, hash, err := GenerateToken()
	if err != nil {
		return nil, "", err
	}

	now := i.now()
	s := &model.Session{
		ID:        ulid.Make(),
		AccountID: accountID,
		TokenHash: hash,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
		ExpiresAt: now.Add(i.ttl),
		CreatedAt: now,
	}
	if err := i.sessions.CreateSession(ctx, s); err != nil {
		return nil, "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session").
			With("account_id", accountID).
			Wrap(err)
	}

	i.metrics.SessionIssued()
	return s, token, nil
}

// Resolve returns the active session for token.
func (i *Issuer) Resolve(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, oops.Code("SESSION_INVALID").Wrap(ErrSessionInvalid)
	}
	s, err := i.sessions.FindByTokenHash(ctx, HashToken(token))
	return i.check(s, err)
}

// ResolveID returns the active session with the given ID.
func (i *Issuer) ResolveID(ctx context.Context, id ulid.ULID) (*model.Session, error) {
	s, err := i.sessions.FindSessionByID(ctx, id)
	return i.check(s, err)
}

func (i *Issuer) check(s *model.Session, err error) (*model.Session, error) {
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, oops.Code("SESSION_INVALID").Wrap(ErrSessionInvalid)
		}
		return nil, oops.Code("SESSION_LOOKUP_FAILED").Wrap(err)
	}
	if s.RevokedAt != nil {
		return nil, oops.Code("SESSION_INVALID").With("session_id", s.ID.String()).Wrap(ErrSessionInvalid)
	}
	if s.IsExpiredAt(i.now()) {
		return nil, oops.Code("SESSION_EXPIRED").With("session_id", s.ID.String()).Wrap(ErrSessionExpired)
	}
	return s, nil
}

// Revoke ends the session identified by token.
func (i *Issuer) Revoke(ctx context.Context, token string) error {
	s, err := i.Resolve(ctx, token)
	if err != nil {
		return err
	}
	return i.revoke(ctx, s.ID)
}

// RevokeID ends the session with the given ID.
func (i *Issuer) RevokeID(ctx context.Context, id ulid.ULID) error {
	return i.revoke(ctx, id)
}

func (i *Issuer) revoke(ctx context.Context, id ulid.ULID) error {
	if err := i.sessions.RevokeSession(ctx, id, i.now()); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return oops.Code("SESSION_INVALID").With("session_id", id.String()).Wrap(ErrSessionInvalid)
		}
		return oops.Code("SESSION_REVOKE_FAILED").With("session_id", id.String()).Wrap(err)
	}
	i.metrics.SessionRevoked()
	return nil
}

// RevokeAll ends every live session of an account and returns the count.
func (i *Issuer) RevokeAll(ctx context.Context, accountID int64) (int64, error) {
	n, err := i.sessions.RevokeByAccount(ctx, accountID, i.now())
	if err != nil {
		return 0, oops.Code("SESSION_REVOKE_FAILED").With("account_id", accountID).Wrap(err)
	}
	return n, nil
}
