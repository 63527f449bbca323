package test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Stewz00/go-login-service/internal/interfaces"
	"github.com/Stewz00/go-login-service/internal/model"
	"github.com/Stewz00/go-login-service/internal/repository"
	"github.com/oklog/ulid/v2"
)

// MockDB implements an in-memory database for testing
type MockDB struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[string]*model.Account // keyed by normalized email
	sessions map[ulid.ULID]*model.Session
}

func NewMockDB() *MockDB {
	return &MockDB{
		accounts: make(map[string]*model.Account),
		sessions: make(map[ulid.ULID]*model.Session),
	}
}

// MockAccountRepository implements the interfaces.AccountRepository interface
type MockAccountRepository struct {
	db *MockDB

	// FindErr, when set, is returned by every lookup.
	FindErr error
}

// Verify that MockAccountRepository implements AccountRepository interface
var _ interfaces.AccountRepository = (*MockAccountRepository)(nil)

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{db: NewMockDB()}
}

// CreateAccount mocks creating a new account
func (r *MockAccountRepository) CreateAccount(ctx context.Context, email, passwordHash string) (*model.Account, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := model.NormalizeEmail(email)
	if _, exists := r.db.accounts[key]; exists {
		return nil, repository.ErrDuplicateEmail
	}

	r.db.nextID++
	account := &model.Account{
		ID:           r.db.nextID,
		Email:        key,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	r.db.accounts[key] = account
	copied := *account
	return &copied, nil
}

// FindByIdentifier mocks retrieving an account by email
func (r *MockAccountRepository) FindByIdentifier(ctx context.Context, identifier string) (*model.Account, error) {
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	account, exists := r.db.accounts[model.NormalizeEmail(identifier)]
	if !exists {
		return nil, repository.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

// FindByID mocks retrieving an account by ID
func (r *MockAccountRepository) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	account, err := r.byID(id)
	if err != nil {
		return nil, err
	}
	copied := *account
	return &copied, nil
}

func (r *MockAccountRepository) byID(id int64) (*model.Account, error) {
	for _, a := range r.db.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

// RecordFailedAttempt mocks incrementing failed login attempts
func (r *MockAccountRepository) RecordFailedAttempt(ctx context.Context, id int64, threshold int, now, lockUntil time.Time) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	account, err := r.byID(id)
	if err != nil {
		return 0, err
	}
	if account.LockedUntil != nil && !account.LockedUntil.After(now) {
		account.FailedAttempts = 0
		account.LockedUntil = nil
	}
	account.FailedAttempts++
	if threshold > 0 && account.FailedAttempts >= threshold {
		until := lockUntil
		account.LockedUntil = &until
	}
	return account.FailedAttempts, nil
}

// RecordLogin mocks resetting failed attempts on success
func (r *MockAccountRepository) RecordLogin(ctx context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	account, err := r.byID(id)
	if err != nil {
		return err
	}
	now := time.Now()
	account.FailedAttempts = 0
	account.LockedUntil = nil
	account.LastLoginAt = &now
	return nil
}

// UpdatePasswordHash mocks replacing an account's hash
func (r *MockAccountRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	account, err := r.byID(id)
	if err != nil {
		return err
	}
	account.PasswordHash = passwordHash
	return nil
}

// SetPasswordHash stores a raw hash for an existing account, bypassing the hasher.
func (r *MockAccountRepository) SetPasswordHash(email, hash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	account, ok := r.db.accounts[model.NormalizeEmail(email)]
	if !ok {
		return repository.ErrAccountNotFound
	}
	account.PasswordHash = hash
	return nil
}

// MockSessionRepository implements the interfaces.SessionRepository interface
type MockSessionRepository struct {
	db *MockDB

	// CreateErr, when set, is returned by CreateSession.
	CreateErr error
}

var _ interfaces.SessionRepository = (*MockSessionRepository)(nil)

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{db: NewMockDB()}
}

// CreateSession mocks creating a new session
func (r *MockSessionRepository) CreateSession(ctx context.Context, s *model.Session) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.sessions {
		if existing.TokenHash == s.TokenHash {
			return errors.New("duplicate token hash")
		}
	}
	copied := *s
	r.db.sessions[s.ID] = &copied
	return nil
}

// FindByTokenHash mocks looking a session up by token hash
func (r *MockSessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, s := range r.db.sessions {
		if s.TokenHash == tokenHash {
			copied := *s
			return &copied, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

// FindSessionByID mocks looking a session up by ID
func (r *MockSessionRepository) FindSessionByID(ctx context.Context, id ulid.ULID) (*model.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

// RevokeSession mocks revoking a session
func (r *MockSessionRepository) RevokeSession(ctx context.Context, id ulid.ULID, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[id]
	if !ok || s.RevokedAt != nil {
		return repository.ErrSessionNotFound
	}
	s.RevokedAt = &at
	return nil
}

// RevokeByAccount mocks revoking every session of an account
func (r *MockSessionRepository) RevokeByAccount(ctx context.Context, accountID int64, at time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for _, s := range r.db.sessions {
		if s.AccountID == accountID && s.RevokedAt == nil {
			revokedAt := at
			s.RevokedAt = &revokedAt
			n++
		}
	}
	return n, nil
}

// DeleteExpired mocks purging expired sessions
func (r *MockSessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for id, s := range r.db.sessions {
		if s.ExpiresAt.Before(before) {
			delete(r.db.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions.
func (r *MockSessionRepository) Len() int {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.sessions)
}
