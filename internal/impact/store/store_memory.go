package store

import (
	"context"
	"math"
	"sync"

	"canopy/internal/impact/models"
	"canopy/pkg/domain"
	"canopy/pkg/platform/sentinel"
)

var ErrNotFound = sentinel.ErrNotFound

type summaryKey struct {
	project    domain.ProjectID
	metricType models.MetricType
}

// InMemoryStore holds metrics and their per-(project, type) summaries.
type InMemoryStore struct {
	mu        sync.RWMutex
	metrics   []models.Metric
	summaries map[summaryKey]models.Summary
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{summaries: make(map[summaryKey]models.Summary)}
}

// Create stores m and adds it to its summary; nothing is written on overflow.
func (s *InMemoryStore) Create(_ context.Context, m *models.Metric) (domain.MetricID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := summaryKey{project: m.ProjectID, metricType: m.MetricType}
	summary := s.summaries[key]
	if m.Value > 0 && summary.TotalValue > math.MaxInt64-m.Value {
		return 0, sentinel.ErrOverflow
	}
	summary.Count++
	summary.TotalValue += m.Value
	s.summaries[key] = summary

	id := domain.MetricID(len(s.metrics) + 1)
	m.ID = id
	s.metrics = append(s.metrics, *m)
	return id, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.MetricID) (*models.Metric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id == 0 || uint64(id) > uint64(len(s.metrics)) {
		return nil, ErrNotFound
	}
	m := s.metrics[id-1]
	return &m, nil
}

func (s *InMemoryStore) Summary(_ context.Context, projectID domain.ProjectID, metricType models.MetricType) (models.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaries[summaryKey{project: projectID, metricType: metricType}], nil
}
