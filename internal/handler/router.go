package handler

import (
	"log/slog"
	"net/http"

	"github.com/Stewz00/go-login-service/internal/metrics"
	"github.com/Stewz00/go-login-service/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Auth    *AuthHandler
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	// RateLimit enables per-IP rate limiting. Tests usually turn it off.
	RateLimit bool
}

// NewRouter builds the service's chi router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	h := cfg.Auth
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimiddleware.Recoverer)
	if cfg.RateLimit {
		r.Use(middleware.RateLimiter())
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	// Credential endpoints with strict rate limiting
	r.Group(func(r chi.Router) {
		if cfg.RateLimit {
			r.Use(middleware.StrictRateLimiter())
		}
		r.Post(loginPath, h.LoginSubmit)
		r.Post("/api/register", h.Register)
		r.Post("/api/login", h.Login)
	})

	r.Get(loginPath, h.LoginForm)
	r.Post("/logout", h.LogoutSubmit)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(h.authService, h.cookie.Name, loginPath))
		r.Get(dashboardPath, h.Dashboard)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireBearer(h.authService))
		r.Get("/api/me", h.Me)
		r.Post("/api/logout-all", h.LogoutAll)
	})
	r.Post("/api/logout", h.Logout)

	return r
}
