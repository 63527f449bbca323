package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/Stewz00/go-login-service/internal/config"
	"github.com/Stewz00/go-login-service/internal/database"
	"github.com/Stewz00/go-login-service/internal/logging"
	"github.com/Stewz00/go-login-service/internal/metrics"
	"github.com/Stewz00/go-login-service/internal/password"
	"github.com/Stewz00/go-login-service/internal/repository"
	"github.com/Stewz00/go-login-service/internal/service"
	"github.com/Stewz00/go-login-service/internal/session"
	"github.com/Stewz00/go-login-service/internal/token"
	"github.com/samber/oops"
)

// app holds the wired dependencies shared by the subcommands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *database.DB
	metrics  *metrics.Metrics
	sessions *repository.SessionRepositoryImpl
	auth     *service.AuthService
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// newApp connects to the database, applies migrations and builds the service.
func newApp(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := database.New(ctx, cfg.DbURL)
	if err != nil {
		return nil, oops.Code("STARTUP_FAILED").With("operation", "connect database").Wrap(err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, oops.Code("STARTUP_FAILED").With("operation", "migrate").Wrap(err)
	}

	m := metrics.New()
	accounts := repository.NewAccountRepository(db.Pool)
	sessions := repository.NewSessionRepository(db.Pool)
	issuer := session.NewIssuer(sessions, cfg.SessionTTL, session.WithMetrics(m))

	auth, err := service.NewAuthService(accounts, issuer,
		password.NewBcryptHasher(cfg.BcryptCost),
		token.NewSigner(cfg.JwtSecret),
		service.WithLogger(logger),
		service.WithMetrics(m),
		service.WithLockout(cfg.LockoutThreshold, cfg.LockoutDuration),
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		metrics:  m,
		sessions: sessions,
		auth:     auth,
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}
