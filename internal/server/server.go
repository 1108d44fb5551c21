package server

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukerupert/yogabook/internal/auth"
	"github.com/dukerupert/yogabook/internal/handler"
	"github.com/dukerupert/yogabook/internal/middleware"
	"github.com/dukerupert/yogabook/internal/store"
	"github.com/dukerupert/yogabook/internal/web"
	ws "github.com/dukerupert/yogabook/internal/websocket"
)

// Options carries the settings handlers need from the configuration.
type Options struct {
	BcryptCost    int
	SecureCookies bool
}

type Server struct {
	db        *sql.DB
	hub       *ws.Hub
	gate      *auth.Gate
	userStore *store.UserStore
	authH     *handler.AuthHandler
	bookingH  *handler.BookingHandler
	adminH    *handler.AdminHandler
	logger    *slog.Logger
}

func New(db *sql.DB, gate *auth.Gate, opts Options, logger *slog.Logger) (*Server, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db, opts.BcryptCost)
	sessionStore := store.NewSessionStore(db)
	reservationStore := store.NewReservationStore(db)
	reservationStore.SetNotifier(hub)

	return &Server{
		db:        db,
		hub:       hub,
		gate:      gate,
		userStore: userStore,
		authH:     handler.NewAuthHandler(userStore, gate, tmpl, opts.SecureCookies, logger.With("component", "auth")),
		bookingH:  handler.NewBookingHandler(sessionStore, reservationStore, tmpl, logger.With("component", "booking")),
		adminH:    handler.NewAdminHandler(userStore, sessionStore, reservationStore, hub, tmpl, logger.With("component", "admin")),
		logger:    logger,
	}, nil
}

// UserStore returns the user store for startup bootstrapping.
func (s *Server) UserStore() *store.UserStore {
	return s.userStore
}

// Hub returns the live availability hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /", s.bookingH.Home)
	mux.HandleFunc("GET /signup", s.authH.SignupPage)
	mux.HandleFunc("POST /signup", s.authH.Signup)
	mux.HandleFunc("GET /login", s.authH.LoginPage)
	mux.HandleFunc("POST /login", s.authH.Login)
	mux.HandleFunc("GET /logout", s.authH.Logout)
	mux.HandleFunc("GET /health", handler.Health(s.db, s.logger.With("component", "health")))

	// Members. Reserve does its own policy check so refusals land on /sessions.
	mux.Handle("GET /sessions", middleware.RequireUser(http.HandlerFunc(s.bookingH.Sessions)))
	mux.HandleFunc("GET /reserve/{id}", s.bookingH.Reserve)
	mux.Handle("GET /ws", middleware.RequireUser(ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"))))

	// Admin
	mux.Handle("GET /admin", middleware.RequireAdmin(http.HandlerFunc(s.adminH.Dashboard)))
	mux.Handle("POST /create_session", middleware.RequireAdmin(http.HandlerFunc(s.adminH.CreateSession)))
	mux.Handle("GET /verify_user/{id}", middleware.RequireAdmin(http.HandlerFunc(s.adminH.VerifyUser)))

	var h http.Handler = mux
	h = middleware.LoadUser(s.gate, s.userStore, s.logger.With("component", "auth"))(h)
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	return middleware.RequestID(h)
}
