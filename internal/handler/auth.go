package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/yogabook/internal/auth"
	"github.com/dukerupert/yogabook/internal/middleware"
	"github.com/dukerupert/yogabook/internal/store"
)

const (
	msgDuplicateEmail     = "Email already registered."
	msgInvalidCredentials = "Invalid credentials."
	msgMissingFields      = "Email and password are required."
)

type AuthHandler struct {
	userStore     *store.UserStore
	gate          *auth.Gate
	templates     *template.Template
	secureCookies bool
	logger        *slog.Logger
}

func NewAuthHandler(us *store.UserStore, gate *auth.Gate, tmpl *template.Template, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userStore:     us,
		gate:          gate,
		templates:     tmpl,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	render(w, h.templates, h.logger, "signup.html", map[string]any{"Title": "Sign Up"})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	// Emails are matched exactly, so only surrounding whitespace is dropped.
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	user, err := h.userStore.Register(r.Context(), email, password)
	switch {
	case errors.Is(err, store.ErrDuplicateEmail):
		message(w, http.StatusConflict, msgDuplicateEmail)
		return
	case errors.Is(err, store.ErrInvalidInput):
		message(w, http.StatusBadRequest, msgMissingFields)
		return
	case err != nil:
		h.logger.Error("register user", "error", err)
		http.Error(w, "failed to register", http.StatusInternalServerError)
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	render(w, h.templates, h.logger, "login.html", map[string]any{"Title": "Login"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	user, err := h.userStore.Authenticate(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) || errors.Is(err, store.ErrInvalidInput) {
			message(w, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}
		h.logger.Error("authenticate", "error", err)
		http.Error(w, "failed to log in", http.StatusInternalServerError)
		return
	}

	token, err := h.gate.IssueToken(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("issue token", "user_id", user.ID, "error", err)
		http.Error(w, "failed to log in", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies || r.TLS != nil,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		if err := h.gate.Revoke(r.Context(), cookie.Value); err != nil {
			h.logger.Error("revoke token", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
