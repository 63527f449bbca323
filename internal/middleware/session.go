package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Stewz00/go-login-service/internal/logging"
	"github.com/Stewz00/go-login-service/internal/service"
)

// Authenticator resolves credentials presented on a request.
type Authenticator interface {
	Authenticate(ctx context.Context, sessionToken string) (*service.Principal, error)
	AuthenticateBearer(ctx context.Context, bearer string) (*service.Principal, error)
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *service.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the authenticated principal, or nil.
func PrincipalFrom(ctx context.Context) *service.Principal {
	p, _ := ctx.Value(principalKey{}).(*service.Principal)
	return p
}

// RequireSession only lets requests through that carry a valid session
// cookie. A missing or rejected cookie is redirected to loginPath; a failure
// to check it is a 500.
func RequireSession(auth Authenticator, cookieName, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			p, err := auth.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, service.ErrUnauthenticated) {
					authFailed(w, r, err)
					return
				}
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireBearer only lets requests through that carry a valid bearer token.
func RequireBearer(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearer := BearerToken(r)
			if bearer == "" {
				unauthorized(w)
				return
			}
			p, err := auth.AuthenticateBearer(r.Context(), bearer)
			if err != nil {
				if !errors.Is(err, service.ErrUnauthenticated) {
					authFailed(w, r, err)
					return
				}
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	scheme, tok, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "not authenticated"})
}

func authFailed(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context(), slog.Default()).ErrorContext(r.Context(), "authentication check failed", "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
