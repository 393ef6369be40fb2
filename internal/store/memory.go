package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory TokenStore. It backs tests and local runs
// without a DATABASE_URL; tokens do not survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[string]Credential // key: email
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[string]Credential)}
}

// Upsert replaces the whole record under the write lock, so a concurrent
// Lookup sees either the old pair or the new pair, never a mix.
func (s *MemoryStore) Upsert(ctx context.Context, email, accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds[email] = Credential{
		Email:        email,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	return nil
}

// Lookup retrieves a credential by identity.
func (s *MemoryStore) Lookup(ctx context.Context, email string) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, exists := s.creds[email]
	if !exists {
		return Credential{}, ErrNotFound
	}
	return cred, nil
}

// ListIdentities returns all identities in lexicographic order.
func (s *MemoryStore) ListIdentities(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emails := make([]string, 0, len(s.creds))
	for email := range s.creds {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails, nil
}
