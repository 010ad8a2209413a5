package store

import (
	"context"
	"sync"

	"canopy/internal/project/models"
	"canopy/pkg/domain"
	"canopy/pkg/platform/sentinel"
)

// Error aliases for backward compatibility with callers using store.ErrNotFound.
var ErrNotFound = sentinel.ErrNotFound

// InMemoryStore keeps projects in insertion order; ids are slice index + 1.
type InMemoryStore struct {
	mu       sync.RWMutex
	projects []models.Project
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Create assigns the next id and stores a copy of p.
func (s *InMemoryStore) Create(_ context.Context, p *models.Project) (domain.ProjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := domain.ProjectID(len(s.projects) + 1)
	p.ID = id
	s.projects = append(s.projects, *p)
	return id, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.ProjectID) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id == 0 || uint64(id) > uint64(len(s.projects)) {
		return nil, ErrNotFound
	}
	p := s.projects[id-1]
	return &p, nil
}

func (s *InMemoryStore) FindByIDForUpdate(ctx context.Context, id domain.ProjectID) (*models.Project, error) {
	return s.FindByID(ctx, id)
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, id domain.ProjectID, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 || uint64(id) > uint64(len(s.projects)) {
		return ErrNotFound
	}
	s.projects[id-1].Status = status
	return nil
}

func (s *InMemoryStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.projects)), nil
}
