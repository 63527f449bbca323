package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.LoginAttempt(ResultSuccess)
	m.LoginAttempt(ResultFailure)
	m.LoginAttempt(ResultFailure)
	m.SessionIssued()
	m.SessionRevoked()
	m.SessionsDeleted(3)
	m.SessionsDeleted(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues(ResultFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsIssued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsRevoked))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsSwept))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.LoginAttempt(ResultSuccess)
		m.SessionIssued()
		m.SessionRevoked()
		m.SessionsDeleted(1)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.SessionIssued()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "sessions_issued_total 1")
}
