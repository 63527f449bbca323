package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/Stewz00/go-login-service/internal/interfaces"
	"github.com/Stewz00/go-login-service/internal/metrics"
)

// DefaultSweepInterval is how often expired sessions are purged.
const DefaultSweepInterval = 10 * time.Minute

// Sweeper periodically deletes expired sessions.
type Sweeper struct {
	sessions interfaces.SessionRepository
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewSweeper creates a Sweeper. A non-positive interval uses DefaultSweepInterval.
func NewSweeper(sessions interfaces.SessionRepository, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{sessions: sessions, interval: interval, logger: logger, metrics: m}
}

// Start runs the sweep loop until ctx is cancelled. The returned channel is
// closed once the loop has exited.
func (s *Sweeper) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
	return done
}

// Sweep deletes sessions that have already expired.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	n, err := s.sessions.DeleteExpired(ctx, time.Now())
	if err != nil {
		if ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "failed to delete expired sessions", "error", err)
		}
		return 0
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "deleted expired sessions", "count", n)
	}
	s.metrics.SessionsDeleted(n)
	return n
}
