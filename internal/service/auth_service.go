package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/mail"
	"time"

	"github.com/Stewz00/go-login-service/internal/interfaces"
	"github.com/Stewz00/go-login-service/internal/logging"
	"github.com/Stewz00/go-login-service/internal/metrics"
	"github.com/Stewz00/go-login-service/internal/model"
	"github.com/Stewz00/go-login-service/internal/password"
	"github.com/Stewz00/go-login-service/internal/repository"
	"github.com/Stewz00/go-login-service/internal/session"
	"github.com/Stewz00/go-login-service/internal/token"
	"github.com/samber/oops"
)

const (
	// MinPasswordLength applies to new accounts only.
	MinPasswordLength = 8

	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 15 * time.Minute
)

// Result is returned by a successful Verify.
type Result struct {
	Account *model.Account
	Session *model.Session
	// Token is the plaintext session token; it is not stored anywhere.
	Token string
}

// Principal is an authenticated account and the session proving it.
type Principal struct {
	Account *model.Account
	Session *model.Session
}

type AuthService struct {
	accounts  interfaces.AccountRepository
	sessions  interfaces.SessionIssuer
	hasher    password.Hasher
	signer    *token.Signer
	logger    *slog.Logger
	metrics   *metrics.Metrics
	threshold int
	lockout   time.Duration
	now       func() time.Time

	// dummyHash is compared against when the account does not exist so both
	// failure paths cost one hash comparison.
	dummyHash string
}

// Option configures an AuthService.
type Option func(*AuthService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *AuthService) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AuthService) { s.metrics = m }
}

// WithLockout sets how many consecutive failures lock an account and for how
// long. A threshold of 0 disables lockout.
func WithLockout(threshold int, duration time.Duration) Option {
	return func(s *AuthService) {
		s.threshold = threshold
		s.lockout = duration
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// NewAuthService creates a new authentication service
func NewAuthService(accounts interfaces.AccountRepository, sessions interfaces.SessionIssuer, hasher password.Hasher, signer *token.Signer, opts ...Option) (*AuthService, error) {
	s := &AuthService{
		accounts:  accounts,
		sessions:  sessions,
		hasher:    hasher,
		signer:    signer,
		logger:    slog.Default(),
		threshold: DefaultLockoutThreshold,
		lockout:   DefaultLockoutDuration,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.threshold < 0 {
		s.threshold = 0
	}
	if s.lockout <= 0 {
		s.lockout = DefaultLockoutDuration
	}

	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return nil, oops.Code("AUTH_INIT_FAILED").Wrap(err)
	}
	dummy, err := hasher.Hash(hex.EncodeToString(seed))
	if err != nil {
		return nil, oops.Code("AUTH_INIT_FAILED").With("operation", "hash dummy password").Wrap(err)
	}
	s.dummyHash = dummy

	return s, nil
}

// Register creates a new account with a hashed password
func (s *AuthService) Register(ctx context.Context, email, plaintext string) (*model.Account, error) {
	email = model.NormalizeEmail(email)
	if err := validateCredentials(email, plaintext); err != nil {
		return nil, err
	}
	if len(plaintext) < MinPasswordLength {
		return nil, &ValidationError{Fields: FieldErrors{
			"password": "The password must be at least 8 characters.",
		}}
	}
	if len(plaintext) > password.MaxLength {
		return nil, &ValidationError{Fields: FieldErrors{
			"password": "The password may not be greater than 72 bytes.",
		}}
	}

	hashed, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}

	account, err := s.accounts.CreateAccount(ctx, email, hashed)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, oops.Code("AUTH_DUPLICATE_EMAIL").Wrap(ErrDuplicateEmail)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "create account").Wrap(err)
	}

	logging.FromContext(ctx, s.logger).InfoContext(ctx, "account registered", "account", account)
	return account, nil
}

// Verify checks identifier and password and, on success, issues a new session.
//
// An unknown identifier and a wrong password produce the same error value and
// message, and both perform one password hash comparison. The distinction is
// only kept in logs and via FailureReason.
func (s *AuthService) Verify(ctx context.Context, identifier, plaintext string, meta interfaces.SessionMeta) (*Result, error) {
	log := logging.FromContext(ctx, s.logger)
	email := model.NormalizeEmail(identifier)

	if err := validateCredentials(email, plaintext); err != nil {
		s.metrics.LoginAttempt(metrics.ResultInvalid)
		return nil, err
	}

	account, lookupErr := s.accounts.FindByIdentifier(ctx, email)
	targetHash := s.dummyHash
	exists := false
	switch {
	case lookupErr == nil:
		targetHash = account.PasswordHash
		exists = true
	case !errors.Is(lookupErr, repository.ErrAccountNotFound):
		s.metrics.LoginAttempt(metrics.ResultError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "find account").
			Wrap(lookupErr)
	}

	match, compareErr := s.hasher.Compare(targetHash, plaintext)
	if !exists {
		s.recordFailure(ctx, log, nil, email)
		s.metrics.LoginAttempt(metrics.ResultFailure)
		return nil, invalidCredentials(ReasonNotFound)
	}
	if compareErr != nil {
		s.metrics.LoginAttempt(metrics.ResultError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "compare password").
			With("account_id", account.ID).
			Wrap(compareErr)
	}

	if !match {
		s.recordFailure(ctx, log, account, email)
		s.metrics.LoginAttempt(metrics.ResultFailure)
		return nil, invalidCredentials(ReasonPasswordMismatch)
	}

	// The lock is only revealed to someone who already knows the password.
	if account.IsLockedAt(s.now()) {
		log.WarnContext(ctx, "login refused", "reason", "locked", "account", account, "locked_until", account.LockedUntil)
		s.metrics.LoginAttempt(metrics.ResultLocked)
		return nil, oops.Code("AUTH_ACCOUNT_LOCKED").
			With("locked_until", *account.LockedUntil).
			Wrap(ErrAccountLocked)
	}

	if err := s.accounts.RecordLogin(ctx, account.ID); err != nil {
		log.WarnContext(ctx, "failed to record login", "account", account, "error", err)
	}
	if s.hasher.NeedsRehash(account.PasswordHash) {
		s.rehash(ctx, log, account, plaintext)
	}

	sess, tok, err := s.sessions.Issue(ctx, account.ID, meta)
	if err != nil {
		s.metrics.LoginAttempt(metrics.ResultError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue session").
			With("account_id", account.ID).
			Wrap(err)
	}

	s.metrics.LoginAttempt(metrics.ResultSuccess)
	log.InfoContext(ctx, "login succeeded", "account", account, "session_id", sess.ID.String())
	return &Result{Account: account, Session: sess, Token: tok}, nil
}

// recordFailure bumps the failure counter. An unknown account goes through
// the same store write against an ID no row has, so both failure paths make
// the same round trips.
func (s *AuthService) recordFailure(ctx context.Context, log *slog.Logger, account *model.Account, email string) {
	var id int64
	if account != nil {
		id = account.ID
	}
	now := s.now()
	attempts, err := s.accounts.RecordFailedAttempt(ctx, id, s.threshold, now, now.Add(s.lockout))

	if account == nil {
		if err != nil && !errors.Is(err, repository.ErrAccountNotFound) {
			log.WarnContext(ctx, "failed to record failed attempt", "email", email, "error", err)
		}
		log.InfoContext(ctx, "login failed", "reason", ReasonNotFound, "email", email)
		return
	}
	if err != nil {
		log.WarnContext(ctx, "failed to record failed attempt", "account", account, "error", err)
	}
	log.InfoContext(ctx, "login failed",
		"reason", ReasonPasswordMismatch,
		"account", account,
		"failed_attempts", attempts)
}

func (s *AuthService) rehash(ctx context.Context, log *slog.Logger, account *model.Account, plaintext string) {
	upgraded, err := s.hasher.Hash(plaintext)
	if err == nil {
		err = s.accounts.UpdatePasswordHash(ctx, account.ID, upgraded)
	}
	if err != nil {
		log.WarnContext(ctx, "failed to upgrade password hash", "account", account, "error", err)
		return
	}
	account.PasswordHash = upgraded
	log.InfoContext(ctx, "upgraded password hash", "account", account)
}

// Authenticate resolves a session token to its account.
func (s *AuthService) Authenticate(ctx context.Context, sessionToken string) (*Principal, error) {
	sess, err := s.sessions.Resolve(ctx, sessionToken)
	if err != nil {
		return nil, unauthenticated(err)
	}
	return s.principal(ctx, sess)
}

// Logout revokes the session behind sessionToken.
func (s *AuthService) Logout(ctx context.Context, sessionToken string) error {
	if err := s.sessions.Revoke(ctx, sessionToken); err != nil {
		return unauthenticated(err)
	}
	return nil
}

// IssueBearer wraps a session in a signed JWT for API clients.
func (s *AuthService) IssueBearer(sess *model.Session) (string, error) {
	signed, err := s.signer.Sign(sess)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").With("session_id", sess.ID.String()).Wrap(err)
	}
	return signed, nil
}

// AuthenticateBearer validates a JWT and the session it names.
func (s *AuthService) AuthenticateBearer(ctx context.Context, bearer string) (*Principal, error) {
	claims, err := s.signer.Parse(bearer)
	if err != nil {
		return nil, unauthenticated(err)
	}
	sess, err := s.sessions.ResolveID(ctx, claims.SessionID)
	if err != nil {
		return nil, unauthenticated(err)
	}
	if sess.AccountID != claims.AccountID {
		return nil, unauthenticated(token.ErrInvalidToken)
	}
	return s.principal(ctx, sess)
}

// LogoutBearer revokes the session named by a JWT.
func (s *AuthService) LogoutBearer(ctx context.Context, bearer string) error {
	p, err := s.AuthenticateBearer(ctx, bearer)
	if err != nil {
		return err
	}
	if err := s.sessions.RevokeID(ctx, p.Session.ID); err != nil {
		return unauthenticated(err)
	}
	return nil
}

// LogoutAll revokes every live session of the account and returns how many
// were ended.
func (s *AuthService) LogoutAll(ctx context.Context, accountID int64) (int64, error) {
	n, err := s.sessions.RevokeAll(ctx, accountID)
	if err != nil {
		return 0, oops.Code("AUTH_LOGOUT_FAILED").With("account_id", accountID).Wrap(err)
	}
	logging.FromContext(ctx, s.logger).InfoContext(ctx, "revoked all sessions", "account_id", accountID, "count", n)
	return n, nil
}

func (s *AuthService) principal(ctx context.Context, sess *model.Session) (*Principal, error) {
	account, err := s.accounts.FindByID(ctx, sess.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, unauthenticated(err)
		}
		return nil, oops.Code("AUTH_LOOKUP_FAILED").With("account_id", sess.AccountID).Wrap(err)
	}
	return &Principal{Account: account, Session: sess}, nil
}

// unauthenticated keeps infrastructure failures distinguishable from a bad
// or expired credential.
func unauthenticated(err error) error {
	switch {
	case errors.Is(err, session.ErrSessionInvalid),
		errors.Is(err, session.ErrSessionExpired),
		errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, token.ErrTokenExpired),
		errors.Is(err, repository.ErrAccountNotFound):
		return oops.Code("AUTH_UNAUTHENTICATED").With("cause", err.Error()).Wrap(ErrUnauthenticated)
	}
	return oops.Code("AUTH_SESSION_FAILED").Wrap(err)
}

func validateCredentials(email, plaintext string) error {
	fields := FieldErrors{}
	if email == "" {
		fields["email"] = "The email field is required."
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		fields["email"] = "The email must be a valid email address."
	}
	if plaintext == "" {
		fields["password"] = "The password field is required."
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
