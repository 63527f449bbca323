package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Stewz00/go-login-service/internal/database"
	"github.com/Stewz00/go-login-service/internal/interfaces"
	"github.com/Stewz00/go-login-service/internal/model"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// AccountRepositoryImpl implements the AccountRepository interface on PostgreSQL
type AccountRepositoryImpl struct {
	db database.Querier
}

// Verify that AccountRepositoryImpl implements AccountRepository interface
var _ interfaces.AccountRepository = (*AccountRepositoryImpl)(nil)

// NewAccountRepository creates a new AccountRepository instance
func NewAccountRepository(db database.Querier) *AccountRepositoryImpl {
	return &AccountRepositoryImpl{db: db}
}

const accountColumns = `id, email, password_hash, failed_attempts, locked_until, last_login_at, created_at`

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FailedAttempts, &a.LockedUntil, &a.LastLoginAt, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAccount inserts a new account. The email is stored normalized.
func (r *AccountRepositoryImpl) CreateAccount(ctx context.Context, email, passwordHash string) (*model.Account, error) {
	var a model.Account
	err := r.db.QueryRow(ctx,
		`INSERT INTO accounts (email, password_hash)
		 VALUES ($1, $2)
		 RETURNING id, email, created_at`,
		model.NormalizeEmail(email), passwordHash).Scan(&a.ID, &a.Email, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	a.PasswordHash = passwordHash
	return &a, nil
}

// FindByIdentifier retrieves an account by email, ignoring case
func (r *AccountRepositoryImpl) FindByIdentifier(ctx context.Context, identifier string) (*model.Account, error) {
	return scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+`
		 FROM accounts
		 WHERE lower(email) = lower($1)`,
		model.NormalizeEmail(identifier)))
}

// FindByID retrieves an account by primary key
func (r *AccountRepositoryImpl) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	return scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+`
		 FROM accounts
		 WHERE id = $1`,
		id))
}

// RecordFailedAttempt increments the failed login counter and sets the lockout
// once the threshold is reached. A lockout that has already expired at now
// starts a fresh count.
func (r *AccountRepositoryImpl) RecordFailedAttempt(ctx context.Context, id int64, threshold int, now, lockUntil time.Time) (int, error) {
	var attempts int
	err := r.db.QueryRow(ctx,
		`UPDATE accounts
		 SET failed_attempts = CASE WHEN locked_until IS NOT NULL AND locked_until <= $3::timestamptz
		                            THEN 1 ELSE failed_attempts + 1 END,
		     locked_until = CASE
		         WHEN $2::int > 0 AND (CASE WHEN locked_until IS NOT NULL AND locked_until <= $3::timestamptz
		                                    THEN 1 ELSE failed_attempts + 1 END) >= $2::int
		             THEN $4::timestamptz
		         WHEN locked_until IS NOT NULL AND locked_until <= $3::timestamptz
		             THEN NULL
		         ELSE locked_until END
		 WHERE id = $1
		 RETURNING failed_attempts`,
		id, threshold, now, lockUntil).Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	return attempts, err
}

// RecordLogin updates the last login time and resets failed attempts
func (r *AccountRepositoryImpl) RecordLogin(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts
		 SET last_login_at = CURRENT_TIMESTAMP,
		     failed_attempts = 0,
		     locked_until = NULL
		 WHERE id = $1`,
		id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// UpdatePasswordHash replaces the stored hash, used when upgrading legacy hashes
func (r *AccountRepositoryImpl) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET password_hash = $2 WHERE id = $1`,
		id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}
