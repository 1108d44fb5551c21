package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/yogabook/internal/auth"
	"github.com/dukerupert/yogabook/internal/database"
	"github.com/dukerupert/yogabook/internal/model"
	"github.com/dukerupert/yogabook/internal/store"
	"golang.org/x/crypto/bcrypt"
)

func setupAuthMiddleware(t *testing.T) (*auth.Gate, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return auth.NewGate(auth.NewMemoryTokenStore()), store.NewUserStore(db, bcrypt.MinCost)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func captureUser(got **model.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = auth.User(r.Context())
	})
}

func TestLoadUserNoCookie(t *testing.T) {
	gate, us := setupAuthMiddleware(t)

	called := false
	handler := LoadUser(gate, us, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if auth.User(r.Context()) != nil {
			t.Error("expected anonymous request")
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if !called {
		t.Fatal("handler not reached")
	}
}

func TestLoadUserUnknownToken(t *testing.T) {
	gate, us := setupAuthMiddleware(t)

	var got *model.User
	handler := LoadUser(gate, us, discardLogger())(captureUser(&got))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "invalid-token"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != nil {
		t.Errorf("user = %+v, want nil", got)
	}
}

func TestLoadUserValidToken(t *testing.T) {
	gate, us := setupAuthMiddleware(t)
	ctx := context.Background()

	user, err := us.Register(ctx, "a@example.com", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	token, err := gate.IssueToken(ctx, user.ID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	var got *model.User
	handler := LoadUser(gate, us, discardLogger())(captureUser(&got))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected user in context")
	}
	if got.ID != user.ID {
		t.Errorf("user id = %d, want %d", got.ID, user.ID)
	}
}

func TestLoadUserRevokedToken(t *testing.T) {
	gate, us := setupAuthMiddleware(t)
	ctx := context.Background()

	user, _ := us.Register(ctx, "a@example.com", "pw")
	token, _ := gate.IssueToken(ctx, user.ID)
	if err := gate.Revoke(ctx, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	var got *model.User
	handler := LoadUser(gate, us, discardLogger())(captureUser(&got))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != nil {
		t.Error("revoked token should be anonymous")
	}
}

func TestLoadUserTokenForMissingUser(t *testing.T) {
	gate, us := setupAuthMiddleware(t)

	token, _ := gate.IssueToken(context.Background(), 999)

	var got *model.User
	handler := LoadUser(gate, us, discardLogger())(captureUser(&got))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != nil {
		t.Error("token for a missing user should be anonymous")
	}
}

func withUser(r *http.Request, u *model.User) *http.Request {
	return r.WithContext(auth.WithAuth(r.Context(), auth.AuthContext{User: u, Token: "t"}))
}

func TestRequireUser(t *testing.T) {
	reached := false
	handler := RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/sessions", nil))
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want %q", loc, "/login")
	}
	if reached {
		t.Fatal("anonymous request reached handler")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withUser(httptest.NewRequest("GET", "/sessions", nil), &model.User{ID: 1}))
	if !reached {
		t.Error("unverified user should still see sessions")
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name    string
		user    *model.User
		allowed bool
	}{
		{"anonymous", nil, false},
		{"member", &model.User{ID: 1, Verified: true}, false},
		{"admin", &model.User{ID: 2, IsAdmin: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
			}))

			req := httptest.NewRequest("GET", "/admin", nil)
			if tt.user != nil {
				req = withUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if reached != tt.allowed {
				t.Fatalf("reached = %v, want %v", reached, tt.allowed)
			}
			if !tt.allowed {
				if rec.Code != http.StatusSeeOther {
					t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
				}
				if loc := rec.Header().Get("Location"); loc != "/" {
					t.Errorf("Location = %q, want %q", loc, "/")
				}
			}
		})
	}
}

func TestRequireUserHTMXRedirect(t *testing.T) {
	handler := RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/sessions", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("HX-Redirect"); got != "/login" {
		t.Errorf("HX-Redirect = %q, want %q", got, "/login")
	}
}
