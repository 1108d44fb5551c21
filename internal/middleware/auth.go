package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/yogabook/internal/auth"
	"github.com/dukerupert/yogabook/internal/model"
	"github.com/dukerupert/yogabook/internal/policy"
	"github.com/dukerupert/yogabook/internal/store"
)

// SessionCookieName holds the login token. It is unrelated to bookable sessions.
const SessionCookieName = "yogabook_session"

// UserLookup loads a user by id; *store.UserStore satisfies it.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// LoadUser resolves the login cookie and, when it names a live user, attaches
// an AuthContext. Anonymous requests pass through untouched; handlers and
// the Require* middleware decide what anonymous callers may see.
func LoadUser(gate *auth.Gate, users UserLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, ok, err := gate.Resolve(r.Context(), cookie.Value)
			if err != nil {
				logger.Error("resolve token", "error", err)
			}
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					logger.Error("load user", "user_id", userID, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{User: user, Token: cookie.Value})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require lets a request through when the policy allows action for the
// caller and otherwise redirects to redirectTo without explaining why.
func Require(action policy.Action, redirectTo string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if policy.Authorize(auth.User(r.Context()), action) == policy.Deny {
				redirect(w, r, redirectTo)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser sends anonymous callers to the login page.
func RequireUser(next http.Handler) http.Handler {
	return Require(policy.ViewSessions, "/login")(next)
}

// RequireAdmin sends non-admins home rather than answering 403.
func RequireAdmin(next http.Handler) http.Handler {
	return Require(policy.AdminAction, "/")(next)
}

// HX-Request callers get an HX-Redirect header instead of a 303.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
