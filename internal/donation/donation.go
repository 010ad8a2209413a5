// Package donation is the donation ledger: individual donations, their
// lifecycle, and running totals per project and per donor.
package donation

import (
	"database/sql"
	"log/slog"

	"canopy/internal/donation/handler"
	"canopy/internal/donation/service"
	"canopy/internal/donation/store"
	txcontext "canopy/pkg/platform/tx"
)

type Service = service.Service

type Handler = handler.Handler

func NewInMemoryService(guard service.Guard, opts ...service.Option) *Service {
	return service.New(store.NewInMemoryStore(), guard, txcontext.NewMutexRunner(), opts...)
}

func NewPostgresService(db *sql.DB, guard service.Guard, opts ...service.Option) *Service {
	return service.New(store.NewPostgres(db), guard, txcontext.NewSQLRunner(db), opts...)
}

func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
