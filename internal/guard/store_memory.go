package guard

import (
	"context"
	"sync"

	"canopy/pkg/domain"
	"canopy/pkg/platform/sentinel"
)

// InMemoryAdminStore keeps admins in a map. Safe for concurrent use.
type InMemoryAdminStore struct {
	mu     sync.RWMutex
	admins map[string]domain.Principal
}

func NewInMemoryAdminStore() *InMemoryAdminStore {
	return &InMemoryAdminStore{admins: make(map[string]domain.Principal)}
}

func (s *InMemoryAdminStore) Init(_ context.Context, subsystem string, admin domain.Principal) (domain.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.admins[subsystem]; ok {
		return current, nil
	}
	s.admins[subsystem] = admin
	return admin, nil
}

func (s *InMemoryAdminStore) Get(_ context.Context, subsystem string) (domain.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	admin, ok := s.admins[subsystem]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return admin, nil
}

func (s *InMemoryAdminStore) CompareAndSet(_ context.Context, subsystem string, expected, next domain.Principal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.admins[subsystem] != expected {
		return false, nil
	}
	s.admins[subsystem] = next
	return true, nil
}
