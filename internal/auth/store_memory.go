package auth

import (
	"context"
	"sync"
)

// MemStore keeps staff accounts for local runs and tests.
type MemStore struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemStore() *MemStore {
	return &MemStore{users: make(map[string]User)}
}

func (s *MemStore) Ping(context.Context) error { return nil }

func (s *MemStore) Create(_ context.Context, email, password, role, id string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	u := User{ID: id, Email: normalizeEmail(email), Hash: hash, Role: role}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.users[u.Email]; taken {
		return ErrEmailExists
	}
	s.users[u.Email] = u
	return nil
}

func (s *MemStore) Verify(_ context.Context, email, password string) (User, error) {
	s.mu.RLock()
	u := s.users[normalizeEmail(email)]
	s.mu.RUnlock()

	if err := checkPassword(u.Hash, password); err != nil {
		return User{}, err
	}
	return u, nil
}
