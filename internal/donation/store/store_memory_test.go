package store

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"canopy/internal/donation/models"
	"canopy/pkg/domain"
	"canopy/pkg/platform/sentinel"
)

type DonationStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestDonationStoreSuite(t *testing.T) {
	suite.Run(t, new(DonationStoreSuite))
}

func (s *DonationStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *DonationStoreSuite) donate(project domain.ProjectID, donor domain.Principal, amount int64) domain.DonationID {
	id, err := s.store.Create(s.ctx, &models.Donation{
		ProjectID: project,
		Donor:     donor,
		Amount:    amount,
		Status:    models.StatusPending,
	})
	s.Require().NoError(err)
	return id
}

// TestSummariesFoldEveryDonation checks the aggregates against the stored records.
func (s *DonationStoreSuite) TestSummariesFoldEveryDonation() {
	s.Equal(domain.DonationID(1), s.donate(1, "alice", 1000))
	s.Equal(domain.DonationID(2), s.donate(1, "bob", 4000))
	s.Equal(domain.DonationID(3), s.donate(1, "alice", 500))
	s.Equal(domain.DonationID(4), s.donate(2, "alice", 250))

	project, err := s.store.ProjectSummary(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(models.ProjectSummary{TotalAmount: 5500, DonorCount: 2}, project)

	project, err = s.store.ProjectSummary(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal(models.ProjectSummary{TotalAmount: 250, DonorCount: 1}, project)

	alice, err := s.store.DonorSummary(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(models.DonorSummary{TotalAmount: 1750, ProjectCount: 2}, alice)

	bob, err := s.store.DonorSummary(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(models.DonorSummary{TotalAmount: 4000, ProjectCount: 1}, bob)

	var total int64
	for id := domain.DonationID(1); id <= 4; id++ {
		d, err := s.store.FindByID(s.ctx, id)
		s.Require().NoError(err)
		if d.Donor == "alice" {
			total += d.Amount
		}
	}
	s.Equal(alice.TotalAmount, total)
}

func (s *DonationStoreSuite) TestUnknownKeysReturnZeroSummaries() {
	project, err := s.store.ProjectSummary(s.ctx, 99)
	s.Require().NoError(err)
	s.Zero(project)

	donor, err := s.store.DonorSummary(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Zero(donor)
}

func (s *DonationStoreSuite) TestOverflowLeavesStateUntouched() {
	s.donate(1, "alice", math.MaxInt64-10)

	_, err := s.store.Create(s.ctx, &models.Donation{ProjectID: 1, Donor: "bob", Amount: 11})
	s.ErrorIs(err, sentinel.ErrOverflow)

	project, _ := s.store.ProjectSummary(s.ctx, 1)
	s.Equal(models.ProjectSummary{TotalAmount: math.MaxInt64 - 10, DonorCount: 1}, project)
	bob, _ := s.store.DonorSummary(s.ctx, "bob")
	s.Zero(bob)
	_, err = s.store.FindByID(s.ctx, 2)
	s.ErrorIs(err, ErrNotFound)
}

func (s *DonationStoreSuite) TestUpdateStatus() {
	id := s.donate(1, "alice", 10)
	s.Require().NoError(s.store.UpdateStatus(s.ctx, id, models.StatusConfirmed))

	d, err := s.store.FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StatusConfirmed, d.Status)

	s.ErrorIs(s.store.UpdateStatus(s.ctx, 2, models.StatusConfirmed), ErrNotFound)
	_, err = s.store.FindByID(s.ctx, 0)
	s.ErrorIs(err, ErrNotFound)
}

func (s *DonationStoreSuite) TestConcurrentCreates() {
	const goroutines = 50
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Create(s.ctx, &models.Donation{ProjectID: 1, Donor: "alice", Amount: 2})
			s.NoError(err)
		}()
	}
	wg.Wait()

	project, err := s.store.ProjectSummary(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(models.ProjectSummary{TotalAmount: 2 * goroutines, DonorCount: 1}, project)
	_, err = s.store.FindByID(s.ctx, goroutines)
	s.NoError(err)
}
