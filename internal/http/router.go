// Package httpapi assembles the public router: shared middleware, the four
// ledger modules, health and Prometheus endpoints.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"canopy/pkg/platform/httputil"
	auth "canopy/pkg/platform/middleware/auth"
	metadata "canopy/pkg/platform/middleware/metadata"
	request "canopy/pkg/platform/middleware/request"
	"canopy/pkg/platform/middleware/requesttime"
)

// Module is a ledger module's HTTP surface. writeGuards wrap its mutating routes.
type Module interface {
	Register(r chi.Router, writeGuards ...func(http.Handler) http.Handler)
}

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

type Config struct {
	Logger         *slog.Logger
	Validator      auth.JWTValidator
	RequestTimeout time.Duration
	// Latency is optional; nil disables request latency metrics.
	Latency request.LatencyObserver
	// WriteLimiter runs after authentication on every mutating route.
	WriteLimiter func(http.Handler) http.Handler
	Gatherer     prometheus.Gatherer
	HealthChecks map[string]HealthCheck
}

// NewRouter mounts modules behind the shared middleware chain. Reads are
// public; writes require a bearer token and pass the write limiter.
func NewRouter(cfg Config, modules ...Module) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(cfg.Logger))
	if cfg.RequestTimeout > 0 {
		r.Use(request.Timeout(cfg.RequestTimeout))
	}
	r.Use(request.LatencyMiddleware(cfg.Latency))

	r.Get("/healthz", healthHandler(cfg.HealthChecks))
	if cfg.Gatherer != nil {
		r.Handle("/metrics/prometheus", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	writeGuards := []func(http.Handler) http.Handler{auth.RequireAuth(cfg.Validator, cfg.Logger)}
	if cfg.WriteLimiter != nil {
		writeGuards = append(writeGuards, cfg.WriteLimiter)
	}

	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		for _, m := range modules {
			m.Register(r, writeGuards...)
		}
	})
	return r
}

type healthResponse struct {
	Status string   `json:"status"`
	Failed []string `json:"failed,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var failed []string
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				failed = append(failed, name)
			}
		}
		if len(failed) > 0 {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Failed: failed})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
