package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

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
	jwttoken "canopy/internal/jwt_token"
	platformmetrics "canopy/internal/platform/metrics"
	"canopy/internal/project"
	projectmetrics "canopy/internal/project/metrics"
	projectsvc "canopy/internal/project/service"
	ratelimitmw "canopy/internal/ratelimit/middleware"
	"canopy/internal/ratelimit/store/bucket"
	"canopy/internal/report"
	reportmetrics "canopy/internal/report/metrics"
	reportsvc "canopy/internal/report/service"
	"canopy/pkg/domain"
	audit "canopy/pkg/platform/audit"
	auditmemory "canopy/pkg/platform/audit/store/memory"
	"canopy/pkg/platform/audit/publisher"
)

const (
	ledgerAdmin = "ledger-admin"
	coordinator = "coordinator-1"
	donorAlice  = "alice"
	donorBob    = "bob"
	verifier    = "field-verifier"
	writeLimit  = 50
)

type LedgerAPISuite struct {
	suite.Suite
	router  http.Handler
	jwt     *jwttoken.JWTService
	audits  *auditmemory.InMemoryStore
	healthy error
}

func TestLedgerAPISuite(t *testing.T) {
	suite.Run(t, new(LedgerAPISuite))
}

func (s *LedgerAPISuite) SetupTest() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	s.jwt = jwttoken.NewJWTService("test-signing-key", "canopy-test")
	s.audits = auditmemory.NewInMemoryStore()
	s.healthy = nil
	auditPublisher := publisher.NewPublisher(s.audits, publisher.WithLogger(logger))

	var guards []adapters.AdminChecker
	newGuard := func(subsystem audit.Subsystem) *guard.Guard {
		g, err := guard.New(ctx, subsystem, ledgerAdmin, guard.NewInMemoryAdminStore(),
			guard.WithLogger(logger), guard.WithAuditPublisher(auditPublisher))
		s.Require().NoError(err)
		guards = append(guards, g)
		return g
	}

	projects := project.NewInMemoryService(newGuard(audit.SubsystemProjects),
		projectsvc.WithLogger(logger),
		projectsvc.WithAuditPublisher(auditPublisher),
		projectsvc.WithMetrics(projectmetrics.New(reg)),
	)
	donations := donation.NewInMemoryService(newGuard(audit.SubsystemDonations),
		donationsvc.WithLogger(logger),
		donationsvc.WithAuditPublisher(auditPublisher),
		donationsvc.WithMetrics(donationmetrics.New(reg)),
		donationsvc.WithProjectDirectory(projects),
	)
	reports := report.NewInMemoryService(newGuard(audit.SubsystemReports),
		reportsvc.WithLogger(logger),
		reportsvc.WithAuditPublisher(auditPublisher),
		reportsvc.WithMetrics(reportmetrics.New(reg)),
	)
	metrics := impact.NewInMemoryService(newGuard(audit.SubsystemMetrics),
		impactsvc.WithLogger(logger),
		impactsvc.WithAuditPublisher(auditPublisher),
		impactsvc.WithMetrics(impactmetrics.New(reg)),
	)

	httpMetrics := platformmetrics.New(reg)
	limiter := ratelimitmw.New(bucket.NewInMemoryBucketStore(), writeLimit, time.Minute, logger,
		ratelimitmw.WithObserver(httpMetrics))

	s.router = httpapi.NewRouter(httpapi.Config{
		Logger:         logger,
		Validator:      jwttoken.NewJWTServiceAdapter(s.jwt),
		RequestTimeout: 5 * time.Second,
		Latency:        httpMetrics,
		WriteLimiter:   limiter.LimitWrites,
		Gatherer:       reg,
		HealthChecks: map[string]httpapi.HealthCheck{
			"store": func(context.Context) error { return s.healthy },
		},
	},
		project.NewHandler(projects, logger),
		donation.NewHandler(donations, logger),
		report.NewHandler(reports, logger),
		impact.NewHandler(metrics, logger),
		admin.New(adapters.NewAuditFeedAdapter(auditPublisher), adapters.NewAdminSetAdapter(guards...), logger),
	)
}

func (s *LedgerAPISuite) do(method, path, caller string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		token, err := s.jwt.GenerateAccessToken(domain.Principal(caller), time.Hour)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *LedgerAPISuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *LedgerAPISuite) registerProject() {
	rec := s.do(http.MethodPost, "/projects", coordinator, map[string]any{
		"name":           "Reef Restoration",
		"location":       "Coral Bay",
		"target_species": "Acropora",
		"start_date":     1000,
		"end_date":       2000,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *LedgerAPISuite) TestRegisterProjectStartsProposed() {
	rec := s.do(http.MethodPost, "/projects", coordinator, map[string]any{
		"name":           "Reef Restoration",
		"location":       "Coral Bay",
		"target_species": "Acropora",
		"start_date":     1000,
		"end_date":       2000,
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.JSONEq(`{"id":1}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/projects/1", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	got := s.decode(rec)
	s.Equal(float64(1), got["status"])
	s.Equal(coordinator, got["coordinator"])

	rec = s.do(http.MethodGet, "/projects/count", "", nil)
	s.JSONEq(`{"count":1}`, rec.Body.String())
}

func (s *LedgerAPISuite) TestDonationsAccumulatePerProject() {
	s.registerProject()

	rec := s.do(http.MethodPost, "/donations", donorAlice, map[string]any{"project_id": 1, "amount": 1000})
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.JSONEq(`{"id":1}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/donations/projects/1/summary", "", nil)
	s.JSONEq(`{"total_amount":1000,"donor_count":1}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/donations", donorBob, map[string]any{"project_id": 1, "amount": 4000})
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/donations/projects/1/summary", "", nil)
	s.JSONEq(`{"total_amount":5000,"donor_count":2}`, rec.Body.String())
}

func (s *LedgerAPISuite) TestTerminalDonationCannotMoveBack() {
	s.registerProject()
	rec := s.do(http.MethodPost, "/donations", donorAlice, map[string]any{"project_id": 1, "amount": 1000})
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPut, "/donations/1/status", coordinator, map[string]any{"status": 3})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPut, "/donations/1/status", coordinator, map[string]any{"status": 2})
	s.Equal(http.StatusConflict, rec.Code)
	body := s.decode(rec)
	s.Equal("already_processed", body["error"])
	s.Equal(float64(103), body["code"])

	rec = s.do(http.MethodGet, "/donations/1", "", nil)
	s.Equal(float64(3), s.decode(rec)["status"])
}

func (s *LedgerAPISuite) TestDonorCannotUpdateDonationStatus() {
	s.registerProject()
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/donations", donorAlice, map[string]any{"project_id": 1, "amount": 10}).Code)

	rec := s.do(http.MethodPut, "/donations/1/status", donorAlice, map[string]any{"status": 2})
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal(float64(100), s.decode(rec)["code"])
}

func (s *LedgerAPISuite) TestMetricAverage() {
	s.registerProject()
	for range 3 {
		rec := s.do(http.MethodPost, "/metrics", verifier, map[string]any{
			"project_id":  1,
			"metric_type": 1,
			"value":       150,
		})
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := s.do(http.MethodGet, "/metrics/projects/1/types/1/summary", "", nil)
	s.JSONEq(`{"count":3,"total_value":450}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/metrics/projects/1/types/1/average", "", nil)
	s.JSONEq(`{"average":150}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/metrics/projects/1/types/2/average", "", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("no_data", s.decode(rec)["error"])
}

func (s *LedgerAPISuite) TestReportWithUnknownStatusIsRejected() {
	s.registerProject()
	rec := s.do(http.MethodPost, "/reports", coordinator, map[string]any{
		"project_id":  1,
		"title":       "Q1 survey",
		"description": "transect counts",
		"milestone":   "baseline",
		"status":      10,
		"media_hash":  strings.Repeat("ab", 32),
	})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	body := s.decode(rec)
	s.Equal("invalid_enum", body["error"])
	s.Equal(float64(103), body["code"])

	rec = s.do(http.MethodGet, "/reports/projects/1/summary", "", nil)
	s.JSONEq(`{"report_count":0,"last_report_date":0}`, rec.Body.String())
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/reports/1", "", nil).Code)
}

func (s *LedgerAPISuite) TestWritesRequireBearerToken() {
	rec := s.do(http.MethodPost, "/projects", "", map[string]any{"name": "anonymous"})
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/projects/count", "", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *LedgerAPISuite) TestWriteRateLimit() {
	var last *httptest.ResponseRecorder
	for range writeLimit + 1 {
		last = s.do(http.MethodPost, "/metrics", verifier, map[string]any{
			"project_id":  1,
			"metric_type": 2,
			"value":       1,
		})
	}
	s.Equal(http.StatusTooManyRequests, last.Code)
	s.NotEmpty(last.Header().Get("Retry-After"))

	rec := s.do(http.MethodPost, "/metrics", donorAlice, map[string]any{"project_id": 1, "metric_type": 2, "value": 1})
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *LedgerAPISuite) TestSetAdminIsPerStore() {
	rec := s.do(http.MethodPut, "/projects/admin", ledgerAdmin, map[string]any{"admin": "new-admin"})
	s.Require().Equal(http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPut, "/projects/admin", ledgerAdmin, map[string]any{"admin": "other"})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPut, "/donations/admin", ledgerAdmin, map[string]any{"admin": "other"})
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *LedgerAPISuite) TestMutationsAreAudited() {
	s.registerProject()
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/donations", donorAlice, map[string]any{"project_id": 1, "amount": 5}).Code)

	events, err := s.audits.ListRecent(context.Background(), 10)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.EventDonationMade, events[0].Action)

	rec := s.do(http.MethodGet, "/admin/audit?limit=1", ledgerAdmin, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	feed := s.decode(rec)
	s.Equal(float64(1), feed["total"])

	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/admin/audit", donorAlice, nil).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/admin/audit", "", nil).Code)
}

func (s *LedgerAPISuite) TestHealthAndPrometheus() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())

	s.healthy = errors.New("connection refused")
	rec = s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.JSONEq(`{"status":"unavailable","failed":["store"]}`, rec.Body.String())

	s.registerProject()
	rec = s.do(http.MethodGet, "/metrics/prometheus", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "canopy_http_request_duration_seconds")
}
