// Package project is the project registry: the canonical record of every
// conservation project and its lifecycle status.
package project

import (
	"database/sql"
	"log/slog"

	"canopy/internal/project/handler"
	"canopy/internal/project/service"
	"canopy/internal/project/store"
	txcontext "canopy/pkg/platform/tx"
)

// Service exposes project registration, status updates and lookups.
type Service = service.Service

// Handler wires HTTP endpoints to the project service.
type Handler = handler.Handler

// NewInMemoryService constructs the registry over the in-memory store.
func NewInMemoryService(guard service.Guard, opts ...service.Option) *Service {
	return service.New(store.NewInMemoryStore(), guard, txcontext.NewMutexRunner(), opts...)
}

// NewPostgresService constructs the registry over PostgreSQL.
func NewPostgresService(db *sql.DB, guard service.Guard, opts ...service.Option) *Service {
	return service.New(store.NewPostgres(db), guard, txcontext.NewSQLRunner(db), opts...)
}

// NewHandler constructs the HTTP handler for project routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
