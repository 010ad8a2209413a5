package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"canopy/internal/admin"
	"canopy/internal/admin/adapters"
	"canopy/internal/donation"
	donationmetrics "canopy/internal/donation/metrics"
	donationsvc "canopy/internal/donation/service"
	"canopy/internal/guard"
	httpapi "canopy/internal/http"
	"canopy/internal/impact"
	impactmetrics "canopy/internal/impact/metrics"
	impactsvc "canopy/internal/impact/service"
	"canopy/internal/platform/config"
	"canopy/internal/project"
	projectmetrics "canopy/internal/project/metrics"
	projectsvc "canopy/internal/project/service"
	"canopy/internal/report"
	reportmetrics "canopy/internal/report/metrics"
	reportsvc "canopy/internal/report/service"
	"canopy/pkg/domain"
	audit "canopy/pkg/platform/audit"
	"canopy/pkg/platform/audit/publisher"
	auditmemory "canopy/pkg/platform/audit/store/memory"
	auditpostgres "canopy/pkg/platform/audit/store/postgres"
)

// ledger holds the four store services and the audit plumbing they share.
type ledger struct {
	projects  *project.Service
	donations *donation.Service
	reports   *report.Service
	metrics   *impact.Service

	guards         []*guard.Guard
	auditPublisher *publisher.Publisher
	auditRelayer   audit.Relayer
}

// auditSink is an audit store that can also feed the outbox relay.
type auditSink interface {
	audit.Store
	audit.Relayer
}

func newInMemoryLedger(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer) (*ledger, error) {
	admins := guard.NewInMemoryAdminStore()
	return buildLedger(ctx, cfg, log, reg, admins, auditmemory.NewInMemoryStore(), ledgerFactories{
		projects:  project.NewInMemoryService,
		donations: donation.NewInMemoryService,
		reports:   report.NewInMemoryService,
		metrics:   impact.NewInMemoryService,
	})
}

func newPostgresLedger(ctx context.Context, cfg config.Config, db *sql.DB, log *slog.Logger, reg prometheus.Registerer) (*ledger, error) {
	return buildLedger(ctx, cfg, log, reg, guard.NewPostgresAdminStore(db), auditpostgres.New(db), ledgerFactories{
		projects: func(g projectsvc.Guard, opts ...projectsvc.Option) *project.Service {
			return project.NewPostgresService(db, g, opts...)
		},
		donations: func(g donationsvc.Guard, opts ...donationsvc.Option) *donation.Service {
			return donation.NewPostgresService(db, g, opts...)
		},
		reports: func(g reportsvc.Guard, opts ...reportsvc.Option) *report.Service {
			return report.NewPostgresService(db, g, opts...)
		},
		metrics: func(g impactsvc.Guard, opts ...impactsvc.Option) *impact.Service {
			return impact.NewPostgresService(db, g, opts...)
		},
	})
}

// ledgerFactories selects the storage backend of each service.
type ledgerFactories struct {
	projects  func(projectsvc.Guard, ...projectsvc.Option) *project.Service
	donations func(donationsvc.Guard, ...donationsvc.Option) *donation.Service
	reports   func(reportsvc.Guard, ...reportsvc.Option) *report.Service
	metrics   func(impactsvc.Guard, ...impactsvc.Option) *impact.Service
}

func buildLedger(
	ctx context.Context,
	cfg config.Config,
	log *slog.Logger,
	reg prometheus.Registerer,
	admins guard.AdminStore,
	sink auditSink,
	f ledgerFactories,
) (*ledger, error) {
	pub := publisher.NewPublisher(sink, publisher.WithLogger(log))
	initialAdmin := domain.Principal(cfg.Ledger.Admin)

	newGuard := func(subsystem audit.Subsystem) (*guard.Guard, error) {
		g, err := guard.New(ctx, subsystem, initialAdmin, admins,
			guard.WithLogger(log),
			guard.WithAuditPublisher(pub),
		)
		if err != nil {
			return nil, fmt.Errorf("init %s guard: %w", subsystem, err)
		}
		return g, nil
	}

	projectGuard, err := newGuard(audit.SubsystemProjects)
	if err != nil {
		return nil, err
	}
	donationGuard, err := newGuard(audit.SubsystemDonations)
	if err != nil {
		return nil, err
	}
	reportGuard, err := newGuard(audit.SubsystemReports)
	if err != nil {
		return nil, err
	}
	metricGuard, err := newGuard(audit.SubsystemMetrics)
	if err != nil {
		return nil, err
	}

	projects := f.projects(projectGuard,
		projectsvc.WithLogger(log),
		projectsvc.WithAuditPublisher(pub),
		projectsvc.WithMetrics(projectmetrics.New(reg)),
		projectsvc.WithRequireAdminForRegistration(cfg.Ledger.RequireAdminForRegistration),
	)
	donations := f.donations(donationGuard,
		donationsvc.WithLogger(log),
		donationsvc.WithAuditPublisher(pub),
		donationsvc.WithMetrics(donationmetrics.New(reg)),
		donationsvc.WithProjectDirectory(projects),
	)
	reports := f.reports(reportGuard,
		reportsvc.WithLogger(log),
		reportsvc.WithAuditPublisher(pub),
		reportsvc.WithMetrics(reportmetrics.New(reg)),
		reportsvc.WithRequireAdminForSubmission(cfg.Ledger.RequireAdminForReports),
	)
	metrics := f.metrics(metricGuard,
		impactsvc.WithLogger(log),
		impactsvc.WithAuditPublisher(pub),
		impactsvc.WithMetrics(impactmetrics.New(reg)),
	)

	return &ledger{
		projects:       projects,
		donations:      donations,
		reports:        reports,
		metrics:        metrics,
		guards:         []*guard.Guard{projectGuard, donationGuard, reportGuard, metricGuard},
		auditPublisher: pub,
		auditRelayer:   sink,
	}, nil
}

func (l *ledger) handlers(log *slog.Logger) []httpapi.Module {
	checkers := make([]adapters.AdminChecker, len(l.guards))
	for i, g := range l.guards {
		checkers[i] = g
	}
	return []httpapi.Module{
		admin.New(adapters.NewAuditFeedAdapter(l.auditPublisher), adapters.NewAdminSetAdapter(checkers...), log),
		project.NewHandler(l.projects, log),
		donation.NewHandler(l.donations, log),
		report.NewHandler(l.reports, log),
		impact.NewHandler(l.metrics, log),
	}
}
