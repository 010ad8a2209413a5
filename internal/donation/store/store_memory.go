package store

import (
	"context"
	"math"
	"sync"

	"canopy/internal/donation/models"
	"canopy/pkg/domain"
	"canopy/pkg/platform/sentinel"
)

var ErrNotFound = sentinel.ErrNotFound

type donorProject struct {
	project domain.ProjectID
	donor   domain.Principal
}

// InMemoryStore keeps donations and their aggregates under one lock, so a
// reader never sees a donation without its summary updates.
type InMemoryStore struct {
	mu        sync.RWMutex
	donations []models.Donation
	projects  map[domain.ProjectID]models.ProjectSummary
	donors    map[domain.Principal]models.DonorSummary
	pairs     map[donorProject]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		projects: make(map[domain.ProjectID]models.ProjectSummary),
		donors:   make(map[domain.Principal]models.DonorSummary),
		pairs:    make(map[donorProject]struct{}),
	}
}

// Create stores d and folds it into the project and donor summaries. Nothing
// is written when either total would overflow.
func (s *InMemoryStore) Create(_ context.Context, d *models.Donation) (domain.DonationID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project := s.projects[d.ProjectID]
	donor := s.donors[d.Donor]

	projectTotal, err := addAmount(project.TotalAmount, d.Amount)
	if err != nil {
		return 0, err
	}
	donorTotal, err := addAmount(donor.TotalAmount, d.Amount)
	if err != nil {
		return 0, err
	}

	key := donorProject{project: d.ProjectID, donor: d.Donor}
	if _, seen := s.pairs[key]; !seen {
		s.pairs[key] = struct{}{}
		project.DonorCount++
		donor.ProjectCount++
	}
	project.TotalAmount = projectTotal
	donor.TotalAmount = donorTotal
	s.projects[d.ProjectID] = project
	s.donors[d.Donor] = donor

	id := domain.DonationID(len(s.donations) + 1)
	d.ID = id
	s.donations = append(s.donations, *d)
	return id, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.DonationID) (*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id == 0 || uint64(id) > uint64(len(s.donations)) {
		return nil, ErrNotFound
	}
	d := s.donations[id-1]
	return &d, nil
}

// FindByIDForUpdate is FindByID; the mutex runner already serialises the
// read-check-write of a status update.
func (s *InMemoryStore) FindByIDForUpdate(ctx context.Context, id domain.DonationID) (*models.Donation, error) {
	return s.FindByID(ctx, id)
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, id domain.DonationID, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 || uint64(id) > uint64(len(s.donations)) {
		return ErrNotFound
	}
	s.donations[id-1].Status = status
	return nil
}

// ProjectSummary returns the zero summary for a project with no donations.
func (s *InMemoryStore) ProjectSummary(_ context.Context, projectID domain.ProjectID) (models.ProjectSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects[projectID], nil
}

func (s *InMemoryStore) DonorSummary(_ context.Context, donor domain.Principal) (models.DonorSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.donors[donor], nil
}

func addAmount(total, amount int64) (int64, error) {
	if amount > 0 && total > math.MaxInt64-amount {
		return 0, sentinel.ErrOverflow
	}
	return total + amount, nil
}
