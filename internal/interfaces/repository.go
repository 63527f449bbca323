package interfaces

import (
	"context"
	"time"

	"github.com/Stewz00/go-login-service/internal/model"
	"github.com/oklog/ulid/v2"
)

// AccountStore is the read path used by the credential verifier.
type AccountStore interface {
	// FindByIdentifier looks an account up by email, ignoring case.
	FindByIdentifier(ctx context.Context, identifier string) (*model.Account, error)
}

// AccountRepository defines the interface for account-related database operations
type AccountRepository interface {
	AccountStore
	CreateAccount(ctx context.Context, email, passwordHash string) (*model.Account, error)
	FindByID(ctx context.Context, id int64) (*model.Account, error)
	// RecordFailedAttempt increments the failure counter and locks the account
	// until lockUntil once threshold is reached. A threshold of 0 never locks.
	// If a previous lock expired at or before now the count restarts at 1.
	RecordFailedAttempt(ctx context.Context, id int64, threshold int, now, lockUntil time.Time) (int, error)
	// RecordLogin stamps the last login and clears failures and lockout.
	RecordLogin(ctx context.Context, id int64) error
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
}

// SessionRepository defines session persistence.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error)
	FindSessionByID(ctx context.Context, id ulid.ULID) (*model.Session, error)
	RevokeSession(ctx context.Context, id ulid.ULID, at time.Time) error
	RevokeByAccount(ctx context.Context, accountID int64, at time.Time) (int64, error)
	// DeleteExpired removes sessions that expired before the given time and
	// returns how many were deleted.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// SessionMeta is request information recorded with a new session.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// SessionIssuer creates and destroys authenticated sessions.
type SessionIssuer interface {
	Issue(ctx context.Context, accountID int64, meta SessionMeta) (*model.Session, string, error)
	Revoke(ctx context.Context, token string) error
	RevokeID(ctx context.Context, id ulid.ULID) error
	Resolve(ctx context.Context, token string) (*model.Session, error)
	ResolveID(ctx context.Context, id ulid.ULID) (*model.Session, error)
	RevokeAll(ctx context.Context, accountID int64) (int64, error)
}
