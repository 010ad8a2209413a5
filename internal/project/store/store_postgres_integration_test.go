//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"canopy/internal/project/models"
	"canopy/internal/project/store"
	"canopy/pkg/domain"
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
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "projects"))
}

func (s *PostgresStoreSuite) create(ctx context.Context, p *models.Project) (domain.ProjectID, error) {
	var id domain.ProjectID
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		id, err = s.store.Create(ctx, p)
		return err
	})
	return id, err
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	p := &models.Project{
		Name:             "Elephant Conservation Initiative",
		Location:         "Kenya",
		TargetSpecies:    "African Elephant",
		Status:           models.StatusProposed,
		StartDate:        1672531200,
		EndDate:          1704067200,
		Coordinator:      "coordinator",
		RegistrationDate: 7,
	}
	id, err := s.create(ctx, p)
	s.Require().NoError(err)
	s.Equal(domain.ProjectID(1), id)

	found, err := s.store.FindByID(ctx, id)
	s.Require().NoError(err)
	s.Equal(*p, *found)

	s.Require().NoError(s.store.UpdateStatus(ctx, id, models.StatusSuspended))
	found, err = s.store.FindByID(ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StatusSuspended, found.Status)

	_, err = s.store.FindByID(ctx, 2)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.UpdateStatus(ctx, 2, models.StatusActive), sentinel.ErrNotFound)
}

// TestRolledBackCreateDoesNotConsumeID verifies ids stay dense across failures.
func (s *PostgresStoreSuite) TestRolledBackCreateDoesNotConsumeID() {
	ctx := context.Background()
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.Create(ctx, &models.Project{Name: "doomed", Status: models.StatusProposed}); err != nil {
			return err
		}
		return sentinel.ErrInvalidState
	})
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)

	id, err := s.create(ctx, &models.Project{Name: "kept", Status: models.StatusProposed})
	s.Require().NoError(err)
	s.Equal(domain.ProjectID(1), id)
}

func (s *PostgresStoreSuite) TestConcurrentCreateKeepsIDsDense() {
	ctx := context.Background()
	const goroutines = 20
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.create(ctx, &models.Project{Name: "p", Status: models.StatusProposed})
			s.NoError(err)
		}()
	}
	wg.Wait()

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(goroutines), count)
	for i := 1; i <= goroutines; i++ {
		_, err := s.store.FindByID(ctx, domain.ProjectID(i))
		s.Require().NoError(err)
	}
}
