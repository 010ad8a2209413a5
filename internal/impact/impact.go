// Package impact records verified conservation outcomes as time series of
// metrics, with running totals per project and metric type.
package impact

import (
	"database/sql"
	"log/slog"

	"canopy/internal/impact/handler"
	"canopy/internal/impact/service"
	"canopy/internal/impact/store"
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
