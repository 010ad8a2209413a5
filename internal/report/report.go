// Package report stores progress reports filed against project milestones.
package report

import (
	"database/sql"
	"log/slog"

	"canopy/internal/report/handler"
	"canopy/internal/report/service"
	"canopy/internal/report/store"
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
