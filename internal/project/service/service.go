package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"canopy/internal/project/metrics"
	"canopy/internal/project/models"
	"canopy/pkg/domain"
	dErrors "canopy/pkg/domain-errors"
	audit "canopy/pkg/platform/audit"
	"canopy/pkg/platform/clock"
	"canopy/pkg/platform/sentinel"
	"canopy/pkg/platform/tracing"
	txcontext "canopy/pkg/platform/tx"
)

const tracerScope = "canopy/internal/project"

type Store interface {
	Create(ctx context.Context, p *models.Project) (domain.ProjectID, error)
	FindByID(ctx context.Context, id domain.ProjectID) (*models.Project, error)
	FindByIDForUpdate(ctx context.Context, id domain.ProjectID) (*models.Project, error)
	UpdateStatus(ctx context.Context, id domain.ProjectID, status models.Status) error
	Count(ctx context.Context) (uint64, error)
}

type Guard interface {
	RequireAdmin(ctx context.Context, caller domain.Principal) error
	RequireAdminOr(ctx context.Context, caller, owner domain.Principal) error
	SetAdmin(ctx context.Context, caller, newAdmin domain.Principal) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the project registry: registration, lifecycle and lookups.
type Service struct {
	store          Store
	guard          Guard
	tx             txcontext.Runner
	clock          clock.Clock
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics

	requireAdminForRegistration bool
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

// WithRequireAdminForRegistration restricts RegisterProject to the admin.
func WithRequireAdminForRegistration(required bool) Option {
	return func(s *Service) {
		s.requireAdminForRegistration = required
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

// RegisterProject records a new Proposed project coordinated by caller.
func (s *Service) RegisterProject(ctx context.Context, caller domain.Principal, reg models.Registration) (id domain.ProjectID, err error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, tracerScope, "project.RegisterProject")
	defer func() { tracing.End(span, err) }()

	if caller.IsZero() {
		return 0, dErrors.New(dErrors.CodeNotAuthorized, "caller identity is required")
	}
	if s.requireAdminForRegistration {
		if err := s.guard.RequireAdmin(ctx, caller); err != nil {
			return 0, err
		}
	}

	project, err := models.NewProject(caller, reg, s.clock.Now(ctx))
	if err != nil {
		return 0, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		id, err = s.store.Create(ctx, project)
		return err
	})
	if err != nil {
		return 0, wrapStoreError(err, "failed to register project")
	}
	span.SetAttributes(attribute.Int64("project.id", int64(id)))

	s.logAudit(ctx, audit.EventProjectRegistered, caller, id, "name="+project.Name)
	if s.metrics != nil {
		s.metrics.IncrementRegistered()
		s.metrics.ObserveRegister(start)
	}
	return id, nil
}

// UpdateProjectStatus sets a project's status. Only the coordinator or the
// admin may call it; authorization is checked before the status value.
func (s *Service) UpdateProjectStatus(ctx context.Context, caller domain.Principal, id domain.ProjectID, next models.Status) (err error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, tracerScope, "project.UpdateProjectStatus",
		attribute.Int64("project.id", int64(id)))
	defer func() { tracing.End(span, err) }()

	var previous models.Status
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		project, err := s.store.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.guard.RequireAdminOr(ctx, caller, project.Coordinator); err != nil {
			return err
		}
		if err := project.CanSetStatus(next); err != nil {
			return err
		}
		previous = project.Status
		project.ApplyStatus(next)
		return s.store.UpdateStatus(ctx, id, project.Status)
	})
	if err != nil {
		return wrapStoreError(err, "failed to update project status")
	}

	s.logAudit(ctx, audit.EventProjectStatusUpdated, caller, id,
		fmt.Sprintf("status=%d->%d", previous, next))
	if s.metrics != nil {
		s.metrics.IncrementStatusUpdate(next.String())
		s.metrics.ObserveUpdateStatus(start)
	}
	return nil
}

func (s *Service) GetProject(ctx context.Context, id domain.ProjectID) (project *models.Project, err error) {
	ctx, span := tracing.Start(ctx, tracerScope, "project.GetProject",
		attribute.Int64("project.id", int64(id)))
	defer func() { tracing.End(span, err) }()

	project, err = s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreError(err, "failed to load project")
	}
	return project, nil
}

func (s *Service) GetProjectCount(ctx context.Context) (count uint64, err error) {
	ctx, span := tracing.Start(ctx, tracerScope, "project.GetProjectCount")
	defer func() { tracing.End(span, err) }()

	count, err = s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count projects")
	}
	return count, nil
}

// Coordinator resolves the coordinator of a project for other stores'
// authorization checks.
func (s *Service) Coordinator(ctx context.Context, id domain.ProjectID) (domain.Principal, error) {
	project, err := s.store.FindByID(ctx, id)
	if err != nil {
		return "", wrapStoreError(err, "failed to load project")
	}
	return project.Coordinator, nil
}

// SetAdmin hands the registry's admin role to newAdmin.
func (s *Service) SetAdmin(ctx context.Context, caller, newAdmin domain.Principal) (err error) {
	ctx, span := tracing.Start(ctx, tracerScope, "project.SetAdmin")
	defer func() { tracing.End(span, err) }()
	return s.guard.SetAdmin(ctx, caller, newAdmin)
}

// wrapStoreError translates store sentinels into domain errors and passes
// domain errors through untouched.
func wrapStoreError(err error, msg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "project not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, caller domain.Principal, id domain.ProjectID, detail string) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
			"log_type", "audit",
			"actor", caller,
			"project_id", id,
			"detail", detail,
		)
	}
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		Subsystem: audit.SubsystemProjects,
		Action:    action,
		Actor:     caller,
		RecordID:  uint64(id),
		ProjectID: id,
		Detail:    detail,
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", action, "error", err)
	}
}
