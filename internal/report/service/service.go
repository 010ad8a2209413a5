package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"canopy/internal/report/metrics"
	"canopy/internal/report/models"
	"canopy/pkg/domain"
	dErrors "canopy/pkg/domain-errors"
	audit "canopy/pkg/platform/audit"
	"canopy/pkg/platform/clock"
	"canopy/pkg/platform/sentinel"
	"canopy/pkg/platform/tracing"
	txcontext "canopy/pkg/platform/tx"
)

const tracerScope = "canopy/internal/report"

type Store interface {
	Create(ctx context.Context, r *models.Report) (domain.ReportID, error)
	FindByID(ctx context.Context, id domain.ReportID) (*models.Report, error)
	FindByIDForUpdate(ctx context.Context, id domain.ReportID) (*models.Report, error)
	UpdateStatus(ctx context.Context, id domain.ReportID, status models.Status) error
	ProjectSummary(ctx context.Context, projectID domain.ProjectID) (models.ProjectSummary, error)
}

type Guard interface {
	RequireAdmin(ctx context.Context, caller domain.Principal) error
	RequireAdminOr(ctx context.Context, caller, owner domain.Principal) error
	SetAdmin(ctx context.Context, caller, newAdmin domain.Principal) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service stores progress reports and keeps a per-project report summary.
type Service struct {
	store          Store
	guard          Guard
	tx             txcontext.Runner
	clock          clock.Clock
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics

	requireAdminForSubmission bool
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithRequireAdminForSubmission restricts SubmitReport to the admin.
func WithRequireAdminForSubmission(required bool) Option {
	return func(s *Service) {
		s.requireAdminForSubmission = required
	}
}

func New(store Store, guard Guard, tx txcontext.Runner, opts ...Option) *Service {
	s := &Service{
		store: store,
		guard: guard,
		tx:    tx,
		clock: clock.NewLogical(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitReport files a report authored by caller. An invalid status leaves
// both the reports and the project summary untouched.
func (s *Service) SubmitReport(ctx context.Context, caller domain.Principal, sub models.Submission) (id domain.ReportID, err error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, tracerScope, "report.SubmitReport",
		attribute.Int64("project.id", int64(sub.ProjectID)))
	defer func() { tracing.End(span, err) }()

	if caller.IsZero() {
		return 0, dErrors.New(dErrors.CodeNotAuthorized, "caller identity is required")
	}
	if s.requireAdminForSubmission {
		if err := s.guard.RequireAdmin(ctx, caller); err != nil {
			return 0, err
		}
	}

	report, err := models.NewReport(caller, sub, s.clock.Now(ctx))
	if err != nil {
		return 0, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		id, err = s.store.Create(ctx, report)
		return err
	})
	if err != nil {
		return 0, wrapStoreError(err, "failed to submit report")
	}
	span.SetAttributes(attribute.Int64("report.id", int64(id)))

	s.logAudit(ctx, audit.EventReportSubmitted, caller, report, "status="+report.Status.String())
	if s.metrics != nil {
		s.metrics.RecordSubmission(report.Status.String(), start)
	}
	return id, nil
}

// UpdateReportStatus lets the author or the admin set any valid status.
func (s *Service) UpdateReportStatus(ctx context.Context, caller domain.Principal, id domain.ReportID, next models.Status) (err error) {
	ctx, span := tracing.Start(ctx, tracerScope, "report.UpdateReportStatus",
		attribute.Int64("report.id", int64(id)))
	defer func() { tracing.End(span, err) }()

	var report *models.Report
	var previous models.Status
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		report, err = s.store.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.guard.RequireAdminOr(ctx, caller, report.Author); err != nil {
			return err
		}
		if err := report.CanSetStatus(next); err != nil {
			return err
		}
		previous = report.Status
		report.ApplyStatus(next)
		return s.store.UpdateStatus(ctx, id, report.Status)
	})
	if err != nil {
		return wrapStoreError(err, "failed to update report status")
	}

	s.logAudit(ctx, audit.EventReportStatusUpdated, caller, report,
		fmt.Sprintf("status=%d->%d", previous, next))
	if s.metrics != nil {
		s.metrics.IncrementStatusUpdate(next.String())
	}
	return nil
}

func (s *Service) GetReport(ctx context.Context, id domain.ReportID) (report *models.Report, err error) {
	ctx, span := tracing.Start(ctx, tracerScope, "report.GetReport",
		attribute.Int64("report.id", int64(id)))
	defer func() { tracing.End(span, err) }()

	report, err = s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreError(err, "failed to load report")
	}
	return report, nil
}

func (s *Service) GetProjectReportSummary(ctx context.Context, projectID domain.ProjectID) (summary models.ProjectSummary, err error) {
	ctx, span := tracing.Start(ctx, tracerScope, "report.GetProjectReportSummary",
		attribute.Int64("project.id", int64(projectID)))
	defer func() { tracing.End(span, err) }()

	summary, err = s.store.ProjectSummary(ctx, projectID)
	if err != nil {
		return models.ProjectSummary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load report summary")
	}
	return summary, nil
}

func (s *Service) SetAdmin(ctx context.Context, caller, newAdmin domain.Principal) (err error) {
	ctx, span := tracing.Start(ctx, tracerScope, "report.SetAdmin")
	defer func() { tracing.End(span, err) }()
	return s.guard.SetAdmin(ctx, caller, newAdmin)
}

func wrapStoreError(err error, msg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "report not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, caller domain.Principal, r *models.Report, detail string) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
			"log_type", "audit",
			"actor", caller,
			"report_id", r.ID,
			"project_id", r.ProjectID,
			"detail", detail,
		)
	}
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		Subsystem: audit.SubsystemReports,
		Action:    action,
		Actor:     caller,
		RecordID:  uint64(r.ID),
		ProjectID: r.ProjectID,
		Detail:    detail,
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", action, "error", err)
	}
}
