// Package admin exposes operator views across the ledger stores. Every
// route requires the caller to administer at least one store.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"canopy/internal/admin/types"
	"canopy/pkg/domain"
	dErrors "canopy/pkg/domain-errors"
	"canopy/pkg/platform/httputil"
	"canopy/pkg/requestcontext"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditFeed lists recent audit events, newest first.
type AuditFeed interface {
	Recent(ctx context.Context, limit int) ([]*types.AuditEntry, error)
}

// Admins reports whether caller administers any store.
type Admins interface {
	IsAnyAdmin(ctx context.Context, caller domain.Principal) (bool, error)
}

type Handler struct {
	feed   AuditFeed
	admins Admins
	logger *slog.Logger
}

func New(feed AuditFeed, admins Admins, logger *slog.Logger) *Handler {
	return &Handler{feed: feed, admins: admins, logger: logger}
}

// Register mounts the admin routes behind guards; they are authenticated reads.
func (h *Handler) Register(r chi.Router, guards ...func(http.Handler) http.Handler) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(guards...)
		r.Get("/audit", h.handleListAudit)
	})
}

func (h *Handler) handleListAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	ok, err := h.admins.IsAnyAdmin(ctx, caller)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	if !ok {
		h.logger.WarnContext(ctx, "audit feed denied", "caller", caller)
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotAuthorized, "caller is not a ledger admin"))
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.feed.Recent(ctx, limit)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	resp := &AuditFeedResponse{Events: make([]*AuditEntryResponse, len(entries)), Total: len(entries)}
	for i, e := range entries {
		resp.Events[i] = &AuditEntryResponse{
			ID:        e.ID.String(),
			Subsystem: e.Subsystem,
			Action:    e.Action,
			Actor:     e.Actor.String(),
			RecordID:  e.RecordID,
			ProjectID: uint64(e.ProjectID),
			Detail:    e.Detail,
			RequestID: e.RequestID,
			Timestamp: e.Timestamp,
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultAuditLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxAuditLimit {
		return 0, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 500")
	}
	return n, nil
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	h.logger.ErrorContext(ctx, "admin request failed", "error", err)
	httputil.WriteError(w, err)
}
