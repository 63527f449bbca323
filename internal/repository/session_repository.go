package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Stewz00/go-login-service/internal/database"
	"github.com/Stewz00/go-login-service/internal/interfaces"
	"github.com/Stewz00/go-login-service/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
)

// SessionRepositoryImpl implements the SessionRepository interface on PostgreSQL
type SessionRepositoryImpl struct {
	db database.Querier
}

var _ interfaces.SessionRepository = (*SessionRepositoryImpl)(nil)

// NewSessionRepository creates a new SessionRepository instance
func NewSessionRepository(db database.Querier) *SessionRepositoryImpl {
	return &SessionRepositoryImpl{db: db}
}

const sessionColumns = `id, account_id, token_hash, user_agent, ip_address, expires_at, created_at, revoked_at`

func scanSession(row pgx.Row) (*model.Session, error) {
	var (
		s  model.Session
		id string
	)
	err := row.Scan(&id, &s.AccountID, &s.TokenHash, &s.UserAgent, &s.IPAddress, &s.ExpiresAt, &s.CreatedAt, &s.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if s.ID, err = ulid.Parse(id); err != nil {
		return nil, fmt.Errorf("session %q: %w", id, err)
	}
	return &s, nil
}

// CreateSession stores a new session
func (r *SessionRepositoryImpl) CreateSession(ctx context.Context, s *model.Session) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sessions (id, account_id, token_hash, user_agent, ip_address, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID.String(), s.AccountID, s.TokenHash, s.UserAgent, s.IPAddress, s.ExpiresAt, s.CreatedAt)
	return err
}

// FindByTokenHash retrieves a session by the hash of its token
func (r *SessionRepositoryImpl) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	return scanSession(r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token_hash = $1`,
		tokenHash))
}

// FindSessionByID retrieves a session by ID
func (r *SessionRepositoryImpl) FindSessionByID(ctx context.Context, id ulid.ULID) (*model.Session, error) {
	return scanSession(r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`,
		id.String()))
}

// RevokeSession marks a session as revoked
func (r *SessionRepositoryImpl) RevokeSession(ctx context.Context, id ulid.ULID, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE sessions
		 SET revoked_at = $2
		 WHERE id = $1 AND revoked_at IS NULL`,
		id.String(), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// RevokeByAccount revokes every live session belonging to an account
func (r *SessionRepositoryImpl) RevokeByAccount(ctx context.Context, accountID int64, at time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE sessions
		 SET revoked_at = $2
		 WHERE account_id = $1 AND revoked_at IS NULL`,
		accountID, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteExpired removes sessions that expired before the given time
func (r *SessionRepositoryImpl) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM sessions WHERE expires_at < $1`,
		before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
