// Package metrics holds the Prometheus collectors for the login service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login attempt results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultLocked  = "locked"
	ResultInvalid = "invalid_request"
	ResultError   = "error"
)

// Metrics contains the service's custom collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	LoginAttempts   *prometheus.CounterVec
	SessionsIssued  prometheus.Counter
	SessionsRevoked prometheus.Counter
	SessionsSwept   prometheus.Counter
}

// New creates a registry with Go and process collectors plus the service's
// own metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Count of credential verifications by result",
		}, []string{"result"}),
		SessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sessions_issued_total",
			Help: "Count of sessions created after a successful login",
		}),
		SessionsRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sessions_revoked_total",
			Help: "Count of sessions revoked by logout",
		}),
		SessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sessions_swept_total",
			Help: "Count of expired sessions deleted by the sweeper",
		}),
	}
	registry.MustRegister(m.LoginAttempts, m.SessionsIssued, m.SessionsRevoked, m.SessionsSwept)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) LoginAttempt(result string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) SessionIssued() {
	if m == nil {
		return
	}
	m.SessionsIssued.Inc()
}

func (m *Metrics) SessionRevoked() {
	if m == nil {
		return
	}
	m.SessionsRevoked.Inc()
}

func (m *Metrics) SessionsDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsSwept.Add(float64(n))
}
