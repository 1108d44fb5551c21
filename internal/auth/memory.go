package auth

import (
	"context"
	"sync"
)

// MemoryTokenStore keeps tokens in process memory. It starts empty and loses
// every token on restart.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]int64
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]int64)}
}

func (s *MemoryTokenStore) Put(_ context.Context, token string, userID int64) error {
	s.mu.Lock()
	s.tokens[token] = userID
	s.mu.Unlock()
	return nil
}

func (s *MemoryTokenStore) Get(_ context.Context, token string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tokens[token]
	return id, ok, nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
	return nil
}

// Len returns the number of live tokens.
func (s *MemoryTokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
