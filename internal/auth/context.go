package auth

import (
	"context"

	"github.com/dukerupert/yogabook/internal/model"
)

type contextKey struct{}

// AuthContext is the authenticated caller attached to a request.
type AuthContext struct {
	User  *model.User
	Token string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	if !ok || ac.User == nil {
		return AuthContext{}, false
	}
	return ac, true
}

// User returns the authenticated user, or nil for anonymous requests.
func User(ctx context.Context) *model.User {
	ac, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return ac.User
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.User.ID
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.User.IsAdmin
}
