package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/yogabook/internal/store"
)

// SessionNotifier is told about sessions after they are created.
type SessionNotifier interface {
	SessionCreated(sessionID int64, capacity int)
}

// AdminHandler serves the admin dashboard. Every route is expected to sit
// behind middleware.RequireAdmin.
type AdminHandler struct {
	userStore        *store.UserStore
	sessionStore     *store.SessionStore
	reservationStore *store.ReservationStore
	notifier         SessionNotifier
	templates        *template.Template
	logger           *slog.Logger
}

func NewAdminHandler(us *store.UserStore, ss *store.SessionStore, rs *store.ReservationStore, n SessionNotifier, tmpl *template.Template, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		userStore:        us,
		sessionStore:     ss,
		reservationStore: rs,
		notifier:         n,
		templates:        tmpl,
		logger:           logger,
	}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	unverified, err := h.userStore.ListUnverified(r.Context())
	if err != nil {
		h.logger.Error("list unverified users", "error", err)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	sessions, err := h.sessionStore.List(r.Context())
	if err != nil {
		h.logger.Error("list sessions", "error", err)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	avail, err := h.reservationStore.Availability(r.Context(), sessions, 0)
	if err != nil {
		h.logger.Error("load availability", "error", err)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	render(w, h.templates, h.logger, "admin.html", map[string]any{
		"Title":      "Admin Dashboard",
		"Unverified": unverified,
		"Sessions":   avail,
	})
}

func (h *AdminHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		message(w, http.StatusBadRequest, "Title is required.")
		return
	}
	scheduledAt, err := store.ParseScheduledAt(strings.TrimSpace(r.FormValue("date")))
	if err != nil {
		message(w, http.StatusBadRequest, "Date must look like YYYY-MM-DD HH:MM.")
		return
	}
	capacity, err := strconv.Atoi(strings.TrimSpace(r.FormValue("capacity")))
	if err != nil {
		message(w, http.StatusBadRequest, "Capacity must be a whole number.")
		return
	}

	sess, err := h.sessionStore.Create(r.Context(), title, scheduledAt, capacity)
	switch {
	case errors.Is(err, store.ErrInvalidCapacity):
		message(w, http.StatusBadRequest, "Capacity must be at least 1.")
		return
	case errors.Is(err, store.ErrInvalidInput):
		message(w, http.StatusBadRequest, "Title and date are required.")
		return
	case err != nil:
		h.logger.Error("create session", "error", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	h.logger.Info("session created", "session_id", sess.ID, "capacity", sess.Capacity)
	if h.notifier != nil {
		h.notifier.SessionCreated(sess.ID, sess.Capacity)
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *AdminHandler) VerifyUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	if err := h.userStore.Verify(r.Context(), id); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.Error("verify user", "user_id", id, "error", err)
			http.Error(w, "failed to verify user", http.StatusInternalServerError)
			return
		}
	} else {
		h.logger.Info("user verified", "user_id", id)
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}
