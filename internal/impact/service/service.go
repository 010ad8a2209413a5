package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"canopy/internal/impact/metrics"
	"canopy/internal/impact/models"
	"canopy/pkg/domain"
	dErrors "canopy/pkg/domain-errors"
	audit "canopy/pkg/platform/audit"
	"canopy/pkg/platform/clock"
	"canopy/pkg/platform/sentinel"
	"canopy/pkg/platform/tracing"
	txcontext "canopy/pkg/platform/tx"
)

const tracerScope = "canopy/internal/impact"

type Store interface {
	Create(ctx context.Context, m *models.Metric) (domain.MetricID, error)
	FindByID(ctx context.Context, id domain.MetricID) (*models.Metric, error)
	Summary(ctx context.Context, projectID domain.ProjectID, metricType models.MetricType) (models.Summary, error)
}

type Guard interface {
	SetAdmin(ctx context.Context, caller, newAdmin domain.Principal) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service records verified impact metrics and serves their running totals.
type Service struct {
	store          Store
	guard          Guard
	tx             txcontext.Runner
	clock          clock.Clock
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
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

// RecordMetric stores a measurement verified by caller.
func (s *Service) RecordMetric(ctx context.Context, caller domain.Principal, projectID domain.ProjectID, metricType models.MetricType, value int64, notes string) (id domain.MetricID, err error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, tracerScope, "impact.RecordMetric",
		attribute.Int64("project.id", int64(projectID)),
		attribute.String("metric.type", metricType.String()))
	defer func() { tracing.End(span, err) }()

	if caller.IsZero() {
		return 0, dErrors.New(dErrors.CodeNotAuthorized, "caller identity is required")
	}
	metric, err := models.NewMetric(caller, projectID, metricType, value, notes, s.clock.Now(ctx))
	if err != nil {
		return 0, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		id, err = s.store.Create(ctx, metric)
		return err
	})
	if err != nil {
		return 0, wrapStoreError(err, "failed to record metric")
	}
	span.SetAttributes(attribute.Int64("metric.id", int64(id)))

	s.logAudit(ctx, caller, metric)
	if s.metrics != nil {
		s.metrics.RecordMetric(metricType.String(), start)
	}
	return id, nil
}

func (s *Service) GetMetric(ctx context.Context, id domain.MetricID) (metric *models.Metric, err error) {
	ctx, span := tracing.Start(ctx, tracerScope, "impact.GetMetric",
		attribute.Int64("metric.id", int64(id)))
	defer func() { tracing.End(span, err) }()

	metric, err = s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreError(err, "failed to load metric")
	}
	return metric, nil
}

func (s *Service) GetProjectMetricSummary(ctx context.Context, projectID domain.ProjectID, metricType models.MetricType) (summary models.Summary, err error) {
	ctx, span := tracing.Start(ctx, tracerScope, "impact.GetProjectMetricSummary",
		attribute.Int64("project.id", int64(projectID)),
		attribute.String("metric.type", metricType.String()))
	defer func() { tracing.End(span, err) }()

	return s.summary(ctx, projectID, metricType)
}

// GetMetricAverage returns the integer mean of the recorded values, or a
// NoData error when none exist.
func (s *Service) GetMetricAverage(ctx context.Context, projectID domain.ProjectID, metricType models.MetricType) (avg int64, err error) {
	ctx, span := tracing.Start(ctx, tracerScope, "impact.GetMetricAverage",
		attribute.Int64("project.id", int64(projectID)),
		attribute.String("metric.type", metricType.String()))
	defer func() { tracing.End(span, err) }()

	summary, err := s.summary(ctx, projectID, metricType)
	if err != nil {
		return 0, err
	}
	avg, err = summary.Average()
	if err != nil && s.metrics != nil {
		s.metrics.IncrementNoData()
	}
	return avg, err
}

func (s *Service) SetAdmin(ctx context.Context, caller, newAdmin domain.Principal) (err error) {
	ctx, span := tracing.Start(ctx, tracerScope, "impact.SetAdmin")
	defer func() { tracing.End(span, err) }()
	return s.guard.SetAdmin(ctx, caller, newAdmin)
}

func (s *Service) summary(ctx context.Context, projectID domain.ProjectID, metricType models.MetricType) (models.Summary, error) {
	if err := metricType.Validate(); err != nil {
		return models.Summary{}, err
	}
	summary, err := s.store.Summary(ctx, projectID, metricType)
	if err != nil {
		return models.Summary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load metric summary")
	}
	return summary, nil
}

func wrapStoreError(err error, msg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "metric not found")
	case errors.Is(err, sentinel.ErrOverflow):
		return dErrors.Wrap(err, dErrors.CodeInvalidValue, "metric total would overflow")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func (s *Service) logAudit(ctx context.Context, caller domain.Principal, m *models.Metric) {
	detail := "type=" + m.MetricType.String() + " value=" + strconv.FormatInt(m.Value, 10)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(audit.EventMetricRecorded),
			"log_type", "audit",
			"actor", caller,
			"metric_id", m.ID,
			"project_id", m.ProjectID,
			"detail", detail,
		)
	}
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		Subsystem: audit.SubsystemMetrics,
		Action:    audit.EventMetricRecorded,
		Actor:     caller,
		RecordID:  uint64(m.ID),
		ProjectID: m.ProjectID,
		Detail:    detail,
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", audit.EventMetricRecorded, "error", err)
	}
}
