package handler

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/Stewz00/go-login-service/internal/interfaces"
	"github.com/Stewz00/go-login-service/internal/logging"
	"github.com/Stewz00/go-login-service/internal/middleware"
	"github.com/Stewz00/go-login-service/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// CookieConfig controls the session cookie written after a form login.
type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	authService *service.AuthService
	cookie      CookieConfig
	logger      *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, cookie CookieConfig, logger *slog.Logger) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "session"
	}
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
		logger:      logger,
	}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token  string            `json:"token,omitempty"`
	Error  string            `json:"error,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Register handles account registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	account, err := h.authService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			sendJSON(w, http.StatusBadRequest, AuthResponse{Error: service.ErrValidation.Error(), Fields: verr.Fields})
		case errors.Is(err, service.ErrDuplicateEmail):
			sendJSONError(w, service.ErrDuplicateEmail.Error(), http.StatusConflict)
		default:
			h.internalError(w, r, err, "register")
		}
		return
	}

	sendJSON(w, http.StatusCreated, map[string]string{"message": "Account registered successfully", "email": account.Email})
}

// Login handles API authentication and returns a bearer token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.authService.Verify(r.Context(), req.Email, req.Password, sessionMeta(r))
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			sendJSON(w, http.StatusBadRequest, AuthResponse{Error: service.ErrValidation.Error(), Fields: verr.Fields})
		case errors.Is(err, service.ErrInvalidCredentials):
			sendJSONError(w, service.ErrInvalidCredentials.Error(), http.StatusUnauthorized)
		case errors.Is(err, service.ErrAccountLocked):
			sendJSONError(w, service.ErrAccountLocked.Error(), http.StatusTooManyRequests)
		default:
			h.internalError(w, r, err, "login")
		}
		return
	}

	bearer, err := h.authService.IssueBearer(res.Session)
	if err != nil {
		h.internalError(w, r, err, "login")
		return
	}
	sendJSON(w, http.StatusOK, AuthResponse{Token: bearer})
}

// Logout handles API logout by revoking the session behind the bearer token
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	bearer := middleware.BearerToken(r)
	if bearer == "" {
		sendJSONError(w, "No token provided", http.StatusUnauthorized)
		return
	}

	if err := h.authService.LogoutBearer(r.Context(), bearer); err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			sendJSONError(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		h.internalError(w, r, err, "logout")
		return
	}

	sendJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// LogoutAll revokes every session of the bearer's account
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())
	n, err := h.authService.LogoutAll(r.Context(), p.Account.ID)
	if err != nil {
		h.internalError(w, r, err, "logout all")
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"message": "Logged out everywhere", "revoked": n})
}

// Me returns the account behind the bearer token
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())
	sendJSON(w, http.StatusOK, map[string]any{
		"account":            p.Account,
		"session_expires_at": p.Session.ExpiresAt,
	})
}

func (h *AuthHandler) internalError(w http.ResponseWriter, r *http.Request, err error, op string) {
	logging.FromContext(r.Context(), h.logger).ErrorContext(r.Context(), "request failed", "operation", op, "error", err)
	sendJSONError(w, "Internal server error", http.StatusInternalServerError)
}

func sessionMeta(r *http.Request) interfaces.SessionMeta {
	return interfaces.SessionMeta{
		UserAgent: r.UserAgent(),
		IPAddress: r.RemoteAddr,
	}
}

func sendJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// Helper function to send JSON error responses
func sendJSONError(w http.ResponseWriter, message string, code int) {
	sendJSON(w, code, AuthResponse{Error: message})
}
