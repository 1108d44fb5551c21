package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/dukerupert/yogabook/internal/auth"
	"github.com/dukerupert/yogabook/internal/policy"
	"github.com/dukerupert/yogabook/internal/store"
)

const msgSessionFull = "Session full."

// BookingHandler serves the member-facing pages.
type BookingHandler struct {
	sessionStore     *store.SessionStore
	reservationStore *store.ReservationStore
	templates        *template.Template
	logger           *slog.Logger
}

func NewBookingHandler(ss *store.SessionStore, rs *store.ReservationStore, tmpl *template.Template, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		sessionStore:     ss,
		reservationStore: rs,
		templates:        tmpl,
		logger:           logger,
	}
}

func (h *BookingHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	render(w, h.templates, h.logger, "home.html", map[string]any{
		"Title": "Yoga Studio",
		"User":  auth.User(r.Context()),
	})
}

// Sessions lists every session with seats remaining. Routed behind
// middleware.RequireUser.
func (h *BookingHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	user := auth.User(r.Context())

	sessions, err := h.sessionStore.List(r.Context())
	if err != nil {
		h.logger.Error("list sessions", "error", err)
		http.Error(w, "failed to load sessions", http.StatusInternalServerError)
		return
	}
	avail, err := h.reservationStore.Availability(r.Context(), sessions, user.ID)
	if err != nil {
		h.logger.Error("load availability", "user_id", user.ID, "error", err)
		http.Error(w, "failed to load sessions", http.StatusInternalServerError)
		return
	}

	render(w, h.templates, h.logger, "sessions.html", map[string]any{
		"Title":    "Yoga Sessions",
		"User":     user,
		"Sessions": avail,
	})
}

// Reserve books a seat for the caller. Everything except a full session
// ends on the sessions page; a repeated reservation is not an error.
func (h *BookingHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	user := auth.User(r.Context())
	if policy.Authorize(user, policy.Reserve) == policy.Deny {
		http.Redirect(w, r, "/sessions", http.StatusSeeOther)
		return
	}

	sessionID, err := parseIDParam(r)
	if err != nil {
		http.Redirect(w, r, "/sessions", http.StatusSeeOther)
		return
	}

	_, err = h.reservationStore.Reserve(r.Context(), sessionID, user.ID)
	switch {
	case err == nil:
		h.logger.Info("reservation created", "session_id", sessionID, "user_id", user.ID)
	case errors.Is(err, store.ErrSessionFull):
		message(w, http.StatusConflict, msgSessionFull)
		return
	case errors.Is(err, store.ErrAlreadyReserved),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrNotVerified):
		h.logger.Debug("reservation skipped", "session_id", sessionID, "user_id", user.ID, "reason", err)
	default:
		h.logger.Error("reserve", "session_id", sessionID, "user_id", user.ID, "error", err)
		http.Error(w, "failed to reserve", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/sessions", http.StatusSeeOther)
}
