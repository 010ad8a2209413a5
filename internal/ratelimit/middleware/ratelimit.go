// Package middleware limits mutating requests per caller with a sliding
// window. A failing primary store trips a circuit breaker and requests are
// then counted by an in-process fallback.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"canopy/internal/ratelimit/models"
	dErrors "canopy/pkg/domain-errors"
	"canopy/pkg/platform/circuit"
	"canopy/pkg/platform/httputil"
	"canopy/pkg/requestcontext"
)

// BucketStore counts requests per key inside a sliding window.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

// Observer receives rejected-request events.
type Observer interface {
	IncrementRateLimited()
}

type Middleware struct {
	buckets  BucketStore
	fallback BucketStore
	breaker  *circuit.Breaker
	limit    int
	window   time.Duration
	logger   *slog.Logger
	observer Observer
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithFallback routes requests to store while the primary store's circuit
// is open.
func WithFallback(store BucketStore, opts ...circuit.Option) Option {
	return func(m *Middleware) {
		m.fallback = store
		m.breaker = circuit.New("ratelimit", opts...)
	}
}

func WithObserver(o Observer) Option {
	return func(m *Middleware) {
		m.observer = o
	}
}

func New(buckets BucketStore, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		buckets: buckets,
		limit:   limit,
		window:  window,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// LimitWrites rejects requests over the per-caller write budget with 429.
// Mount it after authentication so the caller is known.
func (m *Middleware) LimitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := models.NewWriteKey(string(requestcontext.Caller(ctx)), requestcontext.ClientIP(ctx))

		result, degraded, err := m.allow(ctx, key)
		if err != nil {
			// Fail open: losing the limiter must not take the ledger down.
			m.logger.ErrorContext(ctx, "rate limit check failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)
		if degraded {
			w.Header().Set("X-RateLimit-Status", "degraded")
		}

		if !result.Allowed {
			if m.observer != nil {
				m.observer.IncrementRateLimited()
			}
			m.logger.WarnContext(ctx, "write rate limit exceeded",
				"caller", requestcontext.Caller(ctx),
				"retry_after", result.RetryAfter,
			)
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many write requests, retry later"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow consults the primary store unless its circuit is open. The bool
// result reports whether the fallback answered.
func (m *Middleware) allow(ctx context.Context, key string) (*models.RateLimitResult, bool, error) {
	result, err := m.buckets.Allow(ctx, key, m.limit, m.window)
	if m.breaker == nil {
		return result, false, err
	}
	if err != nil {
		useFallback, change := m.breaker.RecordFailure()
		if change.Opened {
			m.logger.WarnContext(ctx, "rate limit circuit opened, using in-process fallback", "error", err)
		}
		if !useFallback {
			return nil, false, err
		}
		fb, fbErr := m.fallback.Allow(ctx, key, m.limit, m.window)
		return fb, true, fbErr
	}

	usePrimary, change := m.breaker.RecordSuccess()
	if change.Closed {
		m.logger.InfoContext(ctx, "rate limit circuit closed, primary store recovered")
	}
	if !usePrimary {
		fb, fbErr := m.fallback.Allow(ctx, key, m.limit, m.window)
		return fb, true, fbErr
	}
	return result, false, nil
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
