package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"canopy/internal/report/models"
	"canopy/pkg/domain"
)

type ReportStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestReportStoreSuite(t *testing.T) {
	suite.Run(t, new(ReportStoreSuite))
}

func (s *ReportStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *ReportStoreSuite) file(project domain.ProjectID, date domain.Timestamp) domain.ReportID {
	id, err := s.store.Create(s.ctx, &models.Report{
		ProjectID:  project,
		Title:      "field survey",
		Status:     models.StatusPlanned,
		ReportDate: date,
		Author:     "ranger",
	})
	s.Require().NoError(err)
	return id
}

func (s *ReportStoreSuite) TestSummaryTracksCountAndLatestDate() {
	s.Equal(domain.ReportID(1), s.file(1, 100))
	s.Equal(domain.ReportID(2), s.file(1, 200))
	s.Equal(domain.ReportID(3), s.file(2, 150))

	summary, err := s.store.ProjectSummary(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(models.ProjectSummary{ReportCount: 2, LastReportDate: 200}, summary)

	summary, err = s.store.ProjectSummary(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal(models.ProjectSummary{ReportCount: 1, LastReportDate: 150}, summary)

	summary, err = s.store.ProjectSummary(s.ctx, 3)
	s.Require().NoError(err)
	s.Zero(summary)
}

func (s *ReportStoreSuite) TestStatusUpdateKeepsSummary() {
	id := s.file(1, 100)
	s.Require().NoError(s.store.UpdateStatus(s.ctx, id, models.StatusDelayed))

	r, err := s.store.FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StatusDelayed, r.Status)

	summary, _ := s.store.ProjectSummary(s.ctx, 1)
	s.Equal(uint64(1), summary.ReportCount)

	s.ErrorIs(s.store.UpdateStatus(s.ctx, 5, models.StatusDelayed), ErrNotFound)
	_, err = s.store.FindByID(s.ctx, 5)
	s.ErrorIs(err, ErrNotFound)
}
