package admin_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canopy/internal/admin"
	"canopy/internal/admin/adapters"
	"canopy/internal/guard"
	audit "canopy/pkg/platform/audit"
	auditmemory "canopy/pkg/platform/audit/store/memory"
	"canopy/pkg/testutil"
)

func newAdminRouter(t *testing.T, events ...audit.Event) http.Handler {
	t.Helper()
	ctx := context.Background()
	store := auditmemory.NewInMemoryStore()
	for _, e := range events {
		require.NoError(t, store.Append(ctx, e))
	}

	admins := guard.NewInMemoryAdminStore()
	projects, err := guard.New(ctx, audit.SubsystemProjects, "project-admin", admins)
	require.NoError(t, err)
	donations, err := guard.New(ctx, audit.SubsystemDonations, "donation-admin", admins)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := admin.New(adapters.NewAuditFeedAdapter(store), adapters.NewAdminSetAdapter(projects, donations), logger)

	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestListAudit(t *testing.T) {
	events := []audit.Event{
		{Subsystem: audit.SubsystemProjects, Action: audit.EventProjectRegistered, Actor: "coordinator", RecordID: 1, ProjectID: 1},
		{Subsystem: audit.SubsystemDonations, Action: audit.EventDonationMade, Actor: "alice", RecordID: 1, ProjectID: 1, Detail: "amount=1000"},
		{Subsystem: audit.SubsystemMetrics, Action: audit.EventMetricRecorded, Actor: "verifier", RecordID: 1, ProjectID: 1},
	}

	t.Run("admin of any store sees the feed", func(t *testing.T) {
		router := newAdminRouter(t, events...)
		for _, caller := range []string{"project-admin", "donation-admin"} {
			req := testutil.WithCaller(testutil.NewRequest(t, http.MethodGet, "/admin/audit"), caller)
			rec := testutil.DoRequest(router, req)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp admin.AuditFeedResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, 3, resp.Total)
			assert.Len(t, resp.Events, 3)
		}
	})

	t.Run("limit bounds the feed", func(t *testing.T) {
		router := newAdminRouter(t, events...)
		req := testutil.WithCaller(testutil.NewRequest(t, http.MethodGet, "/admin/audit?limit=2"), "project-admin")
		resp := testutil.UnmarshalResponse[admin.AuditFeedResponse](t, testutil.DoRequest(router, req))
		assert.Equal(t, 2, resp.Total)
	})

	t.Run("non admin is rejected", func(t *testing.T) {
		router := newAdminRouter(t, events...)
		req := testutil.WithCaller(testutil.NewRequest(t, http.MethodGet, "/admin/audit"), "alice")
		rec := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rec, http.StatusForbidden, "not_authorized")
	})

	t.Run("invalid limit", func(t *testing.T) {
		router := newAdminRouter(t)
		for _, q := range []string{"0", "501", "ten"} {
			req := testutil.WithCaller(testutil.NewRequest(t, http.MethodGet, "/admin/audit?limit="+q), "project-admin")
			rec := testutil.DoRequest(router, req)
			testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")
		}
	})
}
