package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"canopy/internal/ratelimit/models"
	"canopy/internal/ratelimit/store/bucket"
	"canopy/pkg/domain"
	"canopy/pkg/platform/circuit"
	"canopy/pkg/requestcontext"
)

type failingStore struct {
	calls int
}

func (f *failingStore) Allow(context.Context, string, int, time.Duration) (*models.RateLimitResult, error) {
	f.calls++
	return nil, errors.New("redis: connection refused")
}

type countingObserver struct {
	n int
}

func (o *countingObserver) IncrementRateLimited() { o.n++ }

type RateLimitMiddlewareSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestRateLimitMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(RateLimitMiddlewareSuite))
}

func (s *RateLimitMiddlewareSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func (s *RateLimitMiddlewareSuite) serve(m *Middleware, caller domain.Principal) *httptest.ResponseRecorder {
	h := m.LimitWrites(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	req := httptest.NewRequest(http.MethodPost, "/donations", nil)
	ctx := requestcontext.WithClientIP(req.Context(), "192.0.2.10")
	if caller != "" {
		ctx = requestcontext.WithCaller(ctx, caller)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func (s *RateLimitMiddlewareSuite) TestLimitWrites() {
	s.Run("requests within budget pass with headers", func() {
		m := New(bucket.NewInMemoryBucketStore(), 2, time.Minute, s.logger)
		rec := s.serve(m, "alice")
		s.Equal(http.StatusCreated, rec.Code)
		s.Equal("2", rec.Header().Get("X-RateLimit-Limit"))
		s.Equal("1", rec.Header().Get("X-RateLimit-Remaining"))
		s.NotEmpty(rec.Header().Get("X-RateLimit-Reset"))
	})

	s.Run("request over budget gets 429 and Retry-After", func() {
		obs := &countingObserver{}
		m := New(bucket.NewInMemoryBucketStore(), 1, time.Minute, s.logger, WithObserver(obs))
		s.Equal(http.StatusCreated, s.serve(m, "alice").Code)

		rec := s.serve(m, "alice")
		s.Equal(http.StatusTooManyRequests, rec.Code)
		s.NotEmpty(rec.Header().Get("Retry-After"))
		s.Equal(1, obs.n)

		var body map[string]any
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal("rate_limited", body["error"])
	})

	s.Run("callers have separate budgets", func() {
		m := New(bucket.NewInMemoryBucketStore(), 1, time.Minute, s.logger)
		s.Equal(http.StatusCreated, s.serve(m, "alice").Code)
		s.Equal(http.StatusCreated, s.serve(m, "bob").Code)
		s.Equal(http.StatusTooManyRequests, s.serve(m, "alice").Code)
	})

	s.Run("anonymous requests are keyed by client ip", func() {
		m := New(bucket.NewInMemoryBucketStore(), 1, time.Minute, s.logger)
		s.Equal(http.StatusCreated, s.serve(m, "").Code)
		s.Equal(http.StatusTooManyRequests, s.serve(m, "").Code)
	})

	s.Run("disabled limiter passes everything", func() {
		m := New(bucket.NewInMemoryBucketStore(), 1, time.Minute, s.logger, WithDisabled(true))
		for range 3 {
			rec := s.serve(m, "alice")
			s.Equal(http.StatusCreated, rec.Code)
			s.Empty(rec.Header().Get("X-RateLimit-Limit"))
		}
	})
}

func (s *RateLimitMiddlewareSuite) TestStoreFailure() {
	s.Run("fails open without a fallback", func() {
		m := New(&failingStore{}, 1, time.Minute, s.logger)
		for range 3 {
			s.Equal(http.StatusCreated, s.serve(m, "alice").Code)
		}
	})

	s.Run("open circuit routes to the fallback", func() {
		primary := &failingStore{}
		m := New(primary, 1, time.Minute, s.logger,
			WithFallback(bucket.NewInMemoryBucketStore(), circuit.WithFailureThreshold(2)),
		)

		// below the threshold the request fails open
		rec := s.serve(m, "alice")
		s.Equal(http.StatusCreated, rec.Code)
		s.Empty(rec.Header().Get("X-RateLimit-Status"))

		rec = s.serve(m, "alice")
		s.Equal(http.StatusCreated, rec.Code)
		s.Equal("degraded", rec.Header().Get("X-RateLimit-Status"))

		rec = s.serve(m, "alice")
		s.Equal(http.StatusTooManyRequests, rec.Code)
		s.Equal("degraded", rec.Header().Get("X-RateLimit-Status"))
		s.Equal(3, primary.calls)
	})
}

func TestAddRateLimitHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	reset := time.Unix(1700000000, 0)
	addRateLimitHeaders(rec, &models.RateLimitResult{Limit: 10, Remaining: 4, ResetAt: reset})
	require.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1700000000", rec.Header().Get("X-RateLimit-Reset"))
}
