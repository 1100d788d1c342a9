package repositories

import (
	"context"
	"strings"
	"sync"

	"chat-relay/domain"
)

// MemoryUserStore keeps name/password pairs in memory. An unknown name
// registers on first use; a known name must present the same password.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[string]string
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]string)}
}

func (s *MemoryUserStore) Authenticate(_ context.Context, info domain.AuthInfo) (string, error) {
	name := strings.ToLower(strings.TrimSpace(info.Name))
	if name == "" {
		return "", nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	password, ok := s.users[name]
	if !ok {
		s.users[name] = info.Password
		return name, nil
	}
	if password != info.Password {
		return "", nil
	}
	return name, nil
}
