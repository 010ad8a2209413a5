//go:build integration

package store_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"canopy/internal/donation/models"
	"canopy/internal/donation/store"
	"canopy/pkg/domain"
	dErrors "canopy/pkg/domain-errors"
	"canopy/pkg/platform/sentinel"
	txcontext "canopy/pkg/platform/tx"
	"canopy/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	tx       *txcontext.SQLRunner
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.tx = txcontext.NewSQLRunner(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(),
		"donations", "donation_project_summaries", "donation_donor_summaries", "donation_pairs"))
}

func (s *PostgresStoreSuite) create(project domain.ProjectID, donor domain.Principal, amount int64) (domain.DonationID, error) {
	var id domain.DonationID
	err := s.tx.RunInTx(context.Background(), func(ctx context.Context) error {
		var err error
		id, err = s.store.Create(ctx, &models.Donation{
			ProjectID:    project,
			Donor:        donor,
			Amount:       amount,
			DonationDate: 9,
			Status:       models.StatusPending,
			Notes:        "note",
		})
		return err
	})
	return id, err
}

func (s *PostgresStoreSuite) TestRoundTripAndSummaries() {
	ctx := context.Background()

	id, err := s.create(1, "alice", 1000)
	s.Require().NoError(err)
	s.Equal(domain.DonationID(1), id)
	_, err = s.create(1, "bob", 4000)
	s.Require().NoError(err)
	_, err = s.create(1, "alice", 500)
	s.Require().NoError(err)
	_, err = s.create(2, "alice", 250)
	s.Require().NoError(err)

	d, err := s.store.FindByID(ctx, 1)
	s.Require().NoError(err)
	s.Equal(models.Donation{
		ID: 1, ProjectID: 1, Donor: "alice", Amount: 1000,
		DonationDate: 9, Status: models.StatusPending, Notes: "note",
	}, *d)

	project, err := s.store.ProjectSummary(ctx, 1)
	s.Require().NoError(err)
	s.Equal(models.ProjectSummary{TotalAmount: 5500, DonorCount: 2}, project)

	alice, err := s.store.DonorSummary(ctx, "alice")
	s.Require().NoError(err)
	s.Equal(models.DonorSummary{TotalAmount: 1750, ProjectCount: 2}, alice)

	empty, err := s.store.ProjectSummary(ctx, 42)
	s.Require().NoError(err)
	s.Zero(empty)

	s.Require().NoError(s.store.UpdateStatus(ctx, 1, models.StatusAllocated))
	d, err = s.store.FindByID(ctx, 1)
	s.Require().NoError(err)
	s.Equal(models.StatusAllocated, d.Status)
	s.ErrorIs(s.store.UpdateStatus(ctx, 99, models.StatusAllocated), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestOverflowRollsBack() {
	ctx := context.Background()
	_, err := s.create(1, "alice", math.MaxInt64-10)
	s.Require().NoError(err)

	_, err = s.create(1, "bob", 11)
	s.ErrorIs(err, sentinel.ErrOverflow)

	project, err := s.store.ProjectSummary(ctx, 1)
	s.Require().NoError(err)
	s.Equal(models.ProjectSummary{TotalAmount: math.MaxInt64 - 10, DonorCount: 1}, project)

	id, err := s.create(2, "bob", 1)
	s.Require().NoError(err)
	s.Equal(domain.DonationID(2), id)
}

// transition runs the read-check-write of a status update the way the
// service does. held is closed once the row is read; the write waits for
// release.
func (s *PostgresStoreSuite) transition(id domain.DonationID, next models.Status, held chan<- struct{}, release <-chan struct{}) error {
	return s.tx.RunInTx(context.Background(), func(ctx context.Context) error {
		d, err := s.store.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if held != nil {
			close(held)
		}
		if release != nil {
			<-release
		}
		if err := d.CanTransitionTo(next); err != nil {
			return err
		}
		d.ApplyStatus(next)
		return s.store.UpdateStatus(ctx, id, d.Status)
	})
}

func (s *PostgresStoreSuite) TestConcurrentTerminalUpdatesSerialise() {
	ctx := context.Background()
	id, err := s.create(1, "alice", 100)
	s.Require().NoError(err)

	held := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	var allocateErr, refundErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		allocateErr = s.transition(id, models.StatusAllocated, held, release)
	}()
	<-held

	wg.Add(1)
	go func() {
		defer wg.Done()
		refundErr = s.transition(id, models.StatusRefunded, nil, nil)
	}()
	// give the refund time to block on the row lock before allocate commits
	time.Sleep(200 * time.Millisecond)
	close(release)
	wg.Wait()

	s.Require().NoError(allocateErr)
	s.True(dErrors.HasCode(refundErr, dErrors.CodeAlreadyProcessed), "got %v", refundErr)

	d, err := s.store.FindByID(ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StatusAllocated, d.Status)
}

func (s *PostgresStoreSuite) TestFindForUpdateRequiresTransaction() {
	id, err := s.create(1, "alice", 100)
	s.Require().NoError(err)

	_, err = s.store.FindByIDForUpdate(context.Background(), id)
	s.Error(err)
}
