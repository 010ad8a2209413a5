package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"canopy/internal/donation/metrics"
	"canopy/internal/donation/models"
	"canopy/pkg/domain"
	dErrors "canopy/pkg/domain-errors"
	audit "canopy/pkg/platform/audit"
	"canopy/pkg/platform/clock"
	"canopy/pkg/platform/sentinel"
	"canopy/pkg/platform/tracing"
	txcontext "canopy/pkg/platform/tx"
)

const tracerScope = "canopy/internal/donation"

type Store interface {
	Create(ctx context.Context, d *models.Donation) (domain.DonationID, error)
	FindByID(ctx context.Context, id domain.DonationID) (*models.Donation, error)
	FindByIDForUpdate(ctx context.Context, id domain.DonationID) (*models.Donation, error)
	UpdateStatus(ctx context.Context, id domain.DonationID, status models.Status) error
	ProjectSummary(ctx context.Context, projectID domain.ProjectID) (models.ProjectSummary, error)
	DonorSummary(ctx context.Context, donor domain.Principal) (models.DonorSummary, error)
}

type Guard interface {
	RequireAdminOr(ctx context.Context, caller, owner domain.Principal) error
	SetAdmin(ctx context.Context, caller, newAdmin domain.Principal) error
}

// Service is the donation ledger. Every donation is folded into a per-project
// and a per-donor summary in the same mutation that stores it.
type Service struct {
	store          Store
	guard          Guard
	tx             txcontext.Runner
	projects       ProjectDirectory
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

// WithProjectDirectory lets project coordinators manage donation statuses.
// Without it only the admin may update a donation.
func WithProjectDirectory(projects ProjectDirectory) Option {
	return func(s *Service) {
		s.projects = projects
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

// MakeDonation records a Pending donation from caller to projectID.
func (s *Service) MakeDonation(ctx context.Context, caller domain.Principal, projectID domain.ProjectID, amount int64, notes string) (id domain.DonationID, err error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, tracerScope, "donation.MakeDonation",
		attribute.Int64("project.id", int64(projectID)))
	defer func() {
		tracing.End(span, err)
		s.observeRejected(err)
	}()

	if caller.IsZero() {
		return 0, dErrors.New(dErrors.CodeNotAuthorized, "caller identity is required")
	}
	donation, err := models.NewDonation(caller, projectID, amount, notes, s.clock.Now(ctx))
	if err != nil {
		return 0, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		id, err = s.store.Create(ctx, donation)
		return err
	})
	if err != nil {
		return 0, wrapStoreError(err, "failed to record donation")
	}
	span.SetAttributes(attribute.Int64("donation.id", int64(id)))

	s.logAudit(ctx, audit.EventDonationMade, caller, donation, fmt.Sprintf("amount=%d", amount))
	if s.metrics != nil {
		s.metrics.RecordDonation(amount, start)
	}
	return id, nil
}

// UpdateDonationStatus moves a donation along its lifecycle. Checks run in a
// fixed order: existence, processed, status value, authorization, transition.
// Setting the current non-terminal status again succeeds without a write.
func (s *Service) UpdateDonationStatus(ctx context.Context, caller domain.Principal, id domain.DonationID, next models.Status) (err error) {
	ctx, span := tracing.Start(ctx, tracerScope, "donation.UpdateDonationStatus",
		attribute.Int64("donation.id", int64(id)))
	defer func() {
		tracing.End(span, err)
		s.observeRejected(err)
	}()

	var donation *models.Donation
	var previous models.Status
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		donation, err = s.store.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := donation.CheckUpdatable(next); err != nil {
			return err
		}
		if err := s.authorize(ctx, caller, donation.ProjectID); err != nil {
			return err
		}
		if err := donation.CanTransitionTo(next); err != nil {
			return err
		}
		previous = donation.Status
		if previous == next {
			return nil
		}
		donation.ApplyStatus(next)
		return s.store.UpdateStatus(ctx, id, donation.Status)
	})
	if err != nil {
		return wrapStoreError(err, "failed to update donation status")
	}
	if previous == next {
		return nil
	}

	s.logAudit(ctx, audit.EventDonationStatusUpdate, caller, donation,
		fmt.Sprintf("status=%d->%d", previous, next))
	if s.metrics != nil {
		s.metrics.IncrementStatusUpdate(next.String())
	}
	return nil
}

func (s *Service) GetDonation(ctx context.Context, id domain.DonationID) (donation *models.Donation, err error) {
	ctx, span := tracing.Start(ctx, tracerScope, "donation.GetDonation",
		attribute.Int64("donation.id", int64(id)))
	defer func() { tracing.End(span, err) }()

	donation, err = s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreError(err, "failed to load donation")
	}
	return donation, nil
}

// GetProjectDonationSummary returns the zero summary for a project that has
// received nothing.
func (s *Service) GetProjectDonationSummary(ctx context.Context, projectID domain.ProjectID) (summary models.ProjectSummary, err error) {
	ctx, span := tracing.Start(ctx, tracerScope, "donation.GetProjectDonationSummary",
		attribute.Int64("project.id", int64(projectID)))
	defer func() { tracing.End(span, err) }()

	summary, err = s.store.ProjectSummary(ctx, projectID)
	if err != nil {
		return models.ProjectSummary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load project donation summary")
	}
	return summary, nil
}

func (s *Service) GetDonorDonationSummary(ctx context.Context, donor domain.Principal) (summary models.DonorSummary, err error) {
	ctx, span := tracing.Start(ctx, tracerScope, "donation.GetDonorDonationSummary")
	defer func() { tracing.End(span, err) }()

	summary, err = s.store.DonorSummary(ctx, donor)
	if err != nil {
		return models.DonorSummary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor donation summary")
	}
	return summary, nil
}

// SetAdmin hands the ledger's admin role to newAdmin.
func (s *Service) SetAdmin(ctx context.Context, caller, newAdmin domain.Principal) (err error) {
	ctx, span := tracing.Start(ctx, tracerScope, "donation.SetAdmin")
	defer func() { tracing.End(span, err) }()
	return s.guard.SetAdmin(ctx, caller, newAdmin)
}

// authorize passes the project's coordinator or the admin. An unknown
// project has no coordinator, leaving the admin as the only manager.
func (s *Service) authorize(ctx context.Context, caller domain.Principal, projectID domain.ProjectID) error {
	var coordinator domain.Principal
	if s.projects != nil {
		c, err := s.projects.Coordinator(ctx, projectID)
		switch {
		case err == nil:
			coordinator = c
		case dErrors.HasCode(err, dErrors.CodeNotFound):
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve project coordinator")
		}
	}
	return s.guard.RequireAdminOr(ctx, caller, coordinator)
}

func wrapStoreError(err error, msg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "donation not found")
	case errors.Is(err, sentinel.ErrOverflow):
		// Reported under the InsufficientFunds code, like a non-positive amount:
		// either way the donation cannot be accepted.
		return dErrors.Wrap(err, dErrors.CodeInvalidValue, "donation total would overflow")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func (s *Service) observeRejected(err error) {
	if err == nil || s.metrics == nil {
		return
	}
	s.metrics.IncrementRejected(string(dErrors.CodeOf(err)))
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, caller domain.Principal, d *models.Donation, detail string) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
			"log_type", "audit",
			"actor", caller,
			"donation_id", d.ID,
			"project_id", d.ProjectID,
			"detail", detail,
		)
	}
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		Subsystem: audit.SubsystemDonations,
		Action:    action,
		Actor:     caller,
		RecordID:  uint64(d.ID),
		ProjectID: d.ProjectID,
		Detail:    detail,
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", action, "error", err)
	}
}
