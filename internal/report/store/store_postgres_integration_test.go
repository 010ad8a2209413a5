//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"canopy/internal/report/models"
	"canopy/internal/report/store"
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
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "reports", "report_project_summaries"))
}

func (s *PostgresStoreSuite) create(r *models.Report) domain.ReportID {
	var id domain.ReportID
	err := s.tx.RunInTx(context.Background(), func(ctx context.Context) error {
		var err error
		id, err = s.store.Create(ctx, r)
		return err
	})
	s.Require().NoError(err)
	return id
}

func (s *PostgresStoreSuite) TestRoundTripAndSummary() {
	ctx := context.Background()
	hash, err := domain.ParseMediaHash("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	s.Require().NoError(err)

	report := &models.Report{
		ProjectID:   1,
		Title:       "Q1 survey",
		Description: "herd count",
		Milestone:   "baseline",
		Status:      models.StatusCompleted,
		ReportDate:  300,
		Author:      "ranger",
		MediaHash:   hash,
	}
	s.Equal(domain.ReportID(1), s.create(report))
	s.create(&models.Report{ProjectID: 1, Status: models.StatusPlanned, ReportDate: 200, Author: "ranger"})

	found, err := s.store.FindByID(ctx, 1)
	s.Require().NoError(err)
	s.Equal(*report, *found)

	summary, err := s.store.ProjectSummary(ctx, 1)
	s.Require().NoError(err)
	s.Equal(models.ProjectSummary{ReportCount: 2, LastReportDate: 300}, summary)

	s.Require().NoError(s.store.UpdateStatus(ctx, 2, models.StatusDelayed))
	s.ErrorIs(s.store.UpdateStatus(ctx, 3, models.StatusDelayed), sentinel.ErrNotFound)
	_, err = s.store.FindByID(ctx, 3)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
