package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Stewz00/go-login-service/internal/handler"
	"github.com/Stewz00/go-login-service/internal/session"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sweeper := session.NewSweeper(a.sessions, a.cfg.SessionSweepInterval, a.logger, a.metrics)
	sweepDone := sweeper.Start(ctx)

	authHandler := handler.NewAuthHandler(a.auth, handler.CookieConfig{
		Name:   a.cfg.CookieName,
		Secure: a.cfg.CookieSecure,
	}, a.logger)
	r := handler.NewRouter(handler.RouterConfig{
		Auth:      authHandler,
		Metrics:   a.metrics,
		Logger:    a.logger,
		RateLimit: true,
	})

	// Create server with timeouts
	srv := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", "port", a.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			a.logger.Error("server failed to start", "error", err)
			stop()
			<-sweepDone
			return err
		}
	case <-ctx.Done():
	}

	a.logger.Info("server is shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server forced to shutdown", "error", err)
		return err
	}
	<-sweepDone

	a.logger.Info("server exited properly")
	return nil
}
