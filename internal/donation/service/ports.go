package service

import (
	"context"

	"canopy/pkg/domain"
	audit "canopy/pkg/platform/audit"
)

// ProjectDirectory resolves a project's coordinator. The ledger never checks
// that a project exists; it only asks who may manage donations to it.
type ProjectDirectory interface {
	Coordinator(ctx context.Context, id domain.ProjectID) (domain.Principal, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
