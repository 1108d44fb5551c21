package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const tokenBytes = 32

// TokenStore maps opaque login tokens to user ids. Implementations must be
// safe for concurrent use. Tokens never expire on their own.
type TokenStore interface {
	Put(ctx context.Context, token string, userID int64) error
	// Get reports false, with a nil error, for unknown tokens.
	Get(ctx context.Context, token string) (int64, bool, error)
	// Delete is a no-op for unknown tokens.
	Delete(ctx context.Context, token string) error
}

// Gate issues, resolves and revokes login tokens.
type Gate struct {
	store TokenStore
}

func NewGate(store TokenStore) *Gate {
	return &Gate{store: store}
}

// IssueToken creates a 256-bit random token for the user.
func (g *Gate) IssueToken(ctx context.Context, userID int64) (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(b)
	if err := g.store.Put(ctx, token, userID); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

// Resolve returns the user id behind token. An unknown or empty token is
// reported as false, not as an error.
func (g *Gate) Resolve(ctx context.Context, token string) (int64, bool, error) {
	if token == "" {
		return 0, false, nil
	}
	id, ok, err := g.store.Get(ctx, token)
	if err != nil {
		return 0, false, fmt.Errorf("resolve token: %w", err)
	}
	return id, ok, nil
}

func (g *Gate) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := g.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
