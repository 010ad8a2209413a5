// Package guard holds the admin identity of one ledger subsystem and answers
// the privileged-caller checks every store performs.
//
// Each store owns its own Guard; there is no process-wide admin. The current
// admin lives in an AdminStore so that a PostgreSQL-backed deployment keeps
// it across restarts.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"canopy/pkg/domain"
	dErrors "canopy/pkg/domain-errors"
	audit "canopy/pkg/platform/audit"
	"canopy/pkg/platform/sentinel"
)

// AdminStore persists one admin per subsystem.
type AdminStore interface {
	// Init records admin for subsystem unless one is already stored, and
	// returns the admin in effect.
	Init(ctx context.Context, subsystem string, admin domain.Principal) (domain.Principal, error)
	Get(ctx context.Context, subsystem string) (domain.Principal, error)
	// CompareAndSet replaces expected with next and reports whether it did.
	CompareAndSet(ctx context.Context, subsystem string, expected, next domain.Principal) (bool, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Guard struct {
	subsystem      audit.Subsystem
	store          AdminStore
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Guard)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(g *Guard) {
		g.auditPublisher = publisher
	}
}

// New binds a guard to subsystem, seeding the store with initialAdmin the
// first time the subsystem is seen.
func New(ctx context.Context, subsystem audit.Subsystem, initialAdmin domain.Principal, store AdminStore, opts ...Option) (*Guard, error) {
	if initialAdmin.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidValue, "initial admin is required")
	}
	g := &Guard{subsystem: subsystem, store: store}
	for _, opt := range opts {
		opt(g)
	}
	if _, err := store.Init(ctx, string(subsystem), initialAdmin); err != nil {
		return nil, fmt.Errorf("init %s admin: %w", subsystem, err)
	}
	return g, nil
}

// Admin returns the current admin.
func (g *Guard) Admin(ctx context.Context) (domain.Principal, error) {
	admin, err := g.store.Get(ctx, string(g.subsystem))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeInternal, "admin not initialised")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load admin")
	}
	return admin, nil
}

// IsAdmin reports whether caller is the current admin.
func (g *Guard) IsAdmin(ctx context.Context, caller domain.Principal) (bool, error) {
	if caller.IsZero() {
		return false, nil
	}
	admin, err := g.Admin(ctx)
	if err != nil {
		return false, err
	}
	return caller == admin, nil
}

// RequireAdmin fails NotAuthorized unless caller is the current admin.
func (g *Guard) RequireAdmin(ctx context.Context, caller domain.Principal) error {
	ok, err := g.IsAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeNotAuthorized, "caller is not the admin")
	}
	return nil
}

// RequireAdminOr passes when caller equals owner or is the admin.
func (g *Guard) RequireAdminOr(ctx context.Context, caller, owner domain.Principal) error {
	if !caller.IsZero() && caller == owner {
		return nil
	}
	return g.RequireAdmin(ctx, caller)
}

// SetAdmin hands the admin role to newAdmin. Only the current admin may call it.
func (g *Guard) SetAdmin(ctx context.Context, caller, newAdmin domain.Principal) error {
	current, err := g.Admin(ctx)
	if err != nil {
		return err
	}
	if caller.IsZero() || caller != current {
		return dErrors.New(dErrors.CodeNotAuthorized, "caller is not the admin")
	}
	if newAdmin.IsZero() {
		return dErrors.New(dErrors.CodeInvalidValue, "new admin is required")
	}

	swapped, err := g.store.CompareAndSet(ctx, string(g.subsystem), current, newAdmin)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store admin")
	}
	if !swapped {
		// Another request changed the admin since we read it.
		return dErrors.New(dErrors.CodeNotAuthorized, "caller is not the admin")
	}

	g.logAudit(ctx, caller, newAdmin)
	return nil
}

func (g *Guard) logAudit(ctx context.Context, caller, newAdmin domain.Principal) {
	if g.logger != nil {
		g.logger.InfoContext(ctx, string(audit.EventAdminChanged),
			"log_type", "audit",
			"subsystem", g.subsystem,
			"actor", caller,
			"new_admin", newAdmin,
		)
	}
	if g.auditPublisher == nil {
		return
	}
	if err := g.auditPublisher.Emit(ctx, audit.Event{
		Subsystem: g.subsystem,
		Action:    audit.EventAdminChanged,
		Actor:     caller,
		Detail:    "new_admin=" + newAdmin.String(),
	}); err != nil && g.logger != nil {
		g.logger.WarnContext(ctx, "failed to emit audit event", "action", audit.EventAdminChanged, "error", err)
	}
}
