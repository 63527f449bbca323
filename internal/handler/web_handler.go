package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/Stewz00/go-login-service/internal/logging"
	"github.com/Stewz00/go-login-service/internal/middleware"
	"github.com/Stewz00/go-login-service/internal/service"
)

const (
	loginPath     = "/login"
	dashboardPath = "/dashboard"

	// msgInvalidCredentials is shown for both an unknown email and a wrong password.
	msgInvalidCredentials = "These credentials do not match our records."
	msgLocked             = "Too many login attempts. Please try again later."
	msgServerError        = "Something went wrong. Please try again."
)

type loginPage struct {
	Email   string
	Message string
	Errors  service.FieldErrors
}

type dashboardPage struct {
	Email     string
	ExpiresAt time.Time
}

// LoginForm renders the login page, or sends an already signed-in user on to
// the dashboard.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.cookie.Name); err == nil && c.Value != "" {
		if _, err := h.authService.Authenticate(r.Context(), c.Value); err == nil {
			http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
			return
		}
	}
	h.render(w, r, http.StatusOK, "login.html", loginPage{Errors: service.FieldErrors{}})
}

// LoginSubmit handles the login form. Success sets the session cookie and
// redirects to the dashboard; any failure re-renders the form.
func (h *AuthHandler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "login.html", loginPage{Errors: service.FieldErrors{}, Message: "Invalid form submission."})
		return
	}
	email := r.PostFormValue("email")
	page := loginPage{Email: email, Errors: service.FieldErrors{}}

	res, err := h.authService.Verify(r.Context(), email, r.PostFormValue("password"), sessionMeta(r))
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			page.Errors = verr.Fields
			h.render(w, r, http.StatusUnprocessableEntity, "login.html", page)
		case errors.Is(err, service.ErrInvalidCredentials):
			page.Errors["email"] = msgInvalidCredentials
			h.render(w, r, http.StatusUnprocessableEntity, "login.html", page)
		case errors.Is(err, service.ErrAccountLocked):
			page.Message = msgLocked
			h.render(w, r, http.StatusTooManyRequests, "login.html", page)
		default:
			logging.FromContext(r.Context(), h.logger).ErrorContext(r.Context(), "login failed", "error", err)
			page.Message = msgServerError
			h.render(w, r, http.StatusInternalServerError, "login.html", page)
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.Session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}

// Dashboard shows the signed-in account. It sits behind RequireSession.
func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())
	h.render(w, r, http.StatusOK, "dashboard.html", dashboardPage{
		Email:     p.Account.Email,
		ExpiresAt: p.Session.ExpiresAt,
	})
}

// LogoutSubmit revokes the cookie's session and clears the cookie.
func (h *AuthHandler) LogoutSubmit(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.cookie.Name); err == nil && c.Value != "" {
		if err := h.authService.Logout(r.Context(), c.Value); err != nil && !errors.Is(err, service.ErrUnauthenticated) {
			logging.FromContext(r.Context(), h.logger).ErrorContext(r.Context(), "logout failed", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func (h *AuthHandler) render(w http.ResponseWriter, r *http.Request, code int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		logging.FromContext(r.Context(), h.logger).ErrorContext(r.Context(), "render failed", "template", name, "error", err)
	}
}
