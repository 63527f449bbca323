package session

import (
	"context"
	"testing"
	"time"

	"github.com/Stewz00/go-login-service/internal/interfaces"
	"github.com/Stewz00/go-login-service/internal/logging"
	"github.com/Stewz00/go-login-service/internal/metrics"
	"github.com/Stewz00/go-login-service/internal/test"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestSweeper_Sweep(t *testing.T) {
	repo := test.NewMockSessionRepository()
	past := time.Now().Add(-2 * time.Hour)
	expired := NewIssuer(repo, time.Hour, WithClock(func() time.Time { return past }))
	live := NewIssuer(repo, time.Hour)

	for i := 0; i < 3; i++ {
		_, _, err := expired.Issue(context.Background(), 1, interfaces.SessionMeta{})
		require.NoError(t, err)
	}
	_, _, err := live.Issue(context.Background(), 1, interfaces.SessionMeta{})
	require.NoError(t, err)

	m := metrics.New()
	sweeper := NewSweeper(repo, time.Minute, logging.Discard(), m)

	assert.Equal(t, int64(3), sweeper.Sweep(context.Background()))
	assert.Equal(t, 1, repo.Len())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsSwept))
}

func TestSweeper_StartStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := test.NewMockSessionRepository()
	past := time.Now().Add(-2 * time.Hour)
	_, _, err := NewIssuer(repo, time.Hour, WithClock(func() time.Time { return past })).
		Issue(context.Background(), 1, interfaces.SessionMeta{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := NewSweeper(repo, 5*time.Millisecond, logging.Discard(), nil).Start(ctx)

	assert.Eventually(t, func() bool { return repo.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
