package store

import (
	"context"
	"sync"

	"canopy/internal/report/models"
	"canopy/pkg/domain"
	"canopy/pkg/platform/sentinel"
)

var ErrNotFound = sentinel.ErrNotFound

// InMemoryStore holds reports and per-project summaries under one lock.
type InMemoryStore struct {
	mu        sync.RWMutex
	reports   []models.Report
	summaries map[domain.ProjectID]models.ProjectSummary
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{summaries: make(map[domain.ProjectID]models.ProjectSummary)}
}

func (s *InMemoryStore) Create(_ context.Context, r *models.Report) (domain.ReportID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := domain.ReportID(len(s.reports) + 1)
	r.ID = id
	s.reports = append(s.reports, *r)
	s.summaries[r.ProjectID] = s.summaries[r.ProjectID].Add(r)
	return id, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.ReportID) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id == 0 || uint64(id) > uint64(len(s.reports)) {
		return nil, ErrNotFound
	}
	r := s.reports[id-1]
	return &r, nil
}

func (s *InMemoryStore) FindByIDForUpdate(ctx context.Context, id domain.ReportID) (*models.Report, error) {
	return s.FindByID(ctx, id)
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, id domain.ReportID, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 || uint64(id) > uint64(len(s.reports)) {
		return ErrNotFound
	}
	s.reports[id-1].Status = status
	return nil
}

func (s *InMemoryStore) ProjectSummary(_ context.Context, projectID domain.ProjectID) (models.ProjectSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaries[projectID], nil
}
