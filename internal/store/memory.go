package store

import (
	"context"
	"sync"
	"time"

	"github.com/mathtutor/apiserver/types"
)

// MemoryStore is an in-process UserStore for tests and local runs.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]types.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]types.User)}
}

func (s *MemoryStore) Put(_ context.Context, user types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UID] = cloneUser(user)
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, uid string) (types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[uid]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return cloneUser(user), nil
}

func (s *MemoryStore) GetByEmail(_ context.Context, email string) (types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return types.User{}, ErrNotFound
}

func (s *MemoryStore) UpdateLastLogin(_ context.Context, uid string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[uid]
	if !ok {
		return ErrNotFound
	}
	stamp := at
	user.LastLoginAt = &stamp
	s.users[uid] = user
	return nil
}

// cloneUser copies the record so callers cannot mutate stored state
// through the shared timestamp pointer.
func cloneUser(user types.User) types.User {
	if user.LastLoginAt != nil {
		stamp := *user.LastLoginAt
		user.LastLoginAt = &stamp
	}
	return user
}
