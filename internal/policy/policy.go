// Package policy decides which authenticated users may perform which actions.
package policy

import (
	"errors"

	"github.com/dukerupert/yogabook/internal/model"
	"github.com/dukerupert/yogabook/internal/store"
)

type Action int

const (
	ViewSessions Action = iota
	Reserve
	AdminAction
)

func (a Action) String() string {
	switch a {
	case ViewSessions:
		return "view_sessions"
	case Reserve:
		return "reserve"
	case AdminAction:
		return "admin"
	default:
		return "unknown"
	}
}

type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

var ErrUnauthorized = errors.New("unauthorized")

// Authorize decides whether user, nil when anonymous, may perform action.
func Authorize(user *model.User, action Action) Decision {
	return Decision(Reason(user, action) == nil)
}

// Reason returns nil when action is allowed, store.ErrNotVerified when only
// verification is missing, and ErrUnauthorized otherwise.
func Reason(user *model.User, action Action) error {
	if user == nil {
		return ErrUnauthorized
	}
	switch action {
	case ViewSessions:
		return nil
	case Reserve:
		if !user.Verified {
			return store.ErrNotVerified
		}
		return nil
	case AdminAction:
		if !user.IsAdmin {
			return ErrUnauthorized
		}
		return nil
	default:
		return ErrUnauthorized
	}
}
