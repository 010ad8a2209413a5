package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"canopy/internal/donation/models"
	"canopy/pkg/domain"
	dErrors "canopy/pkg/domain-errors"
	"canopy/pkg/platform/httputil"
	request "canopy/pkg/platform/middleware/request"
	"canopy/pkg/requestcontext"
)

// Service defines the donation ledger operations the handler exposes.
type Service interface {
	MakeDonation(ctx context.Context, caller domain.Principal, projectID domain.ProjectID, amount int64, notes string) (domain.DonationID, error)
	UpdateDonationStatus(ctx context.Context, caller domain.Principal, id domain.DonationID, next models.Status) error
	GetDonation(ctx context.Context, id domain.DonationID) (*models.Donation, error)
	GetProjectDonationSummary(ctx context.Context, projectID domain.ProjectID) (models.ProjectSummary, error)
	GetDonorDonationSummary(ctx context.Context, donor domain.Principal) (models.DonorSummary, error)
	SetAdmin(ctx context.Context, caller, newAdmin domain.Principal) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the donation routes; writeGuards wrap the mutating ones.
func (h *Handler) Register(r chi.Router, writeGuards ...func(http.Handler) http.Handler) {
	r.Route("/donations", func(r chi.Router) {
		r.Get("/{id}", h.handleGetDonation)
		r.Get("/projects/{projectID}/summary", h.handleGetProjectSummary)
		r.Get("/donors/{donor}/summary", h.handleGetDonorSummary)

		r.Group(func(r chi.Router) {
			r.Use(writeGuards...)
			r.Post("/", h.handleMakeDonation)
			r.Put("/{id}/status", h.handleUpdateDonationStatus)
			r.Put("/admin", h.handleSetAdmin)
		})
	})
}

type makeDonationRequest struct {
	ProjectID uint64 `json:"project_id"`
	Amount    int64  `json:"amount"`
	Notes     string `json:"notes"`
}

type updateStatusRequest struct {
	Status uint32 `json:"status"`
}

type setAdminRequest struct {
	Admin string `json:"admin"`
}

func (h *Handler) handleMakeDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req makeDonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.ProjectID == 0 {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "project_id is required"))
		return
	}

	id, err := h.service.MakeDonation(ctx, requestcontext.Caller(ctx), domain.ProjectID(req.ProjectID), req.Amount, req.Notes)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]domain.DonationID{"id": id})
}

func (h *Handler) handleGetDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseDonationID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	donation, err := h.service.GetDonation(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, donation)
}

func (h *Handler) handleUpdateDonationStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseDonationID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.service.UpdateDonationStatus(ctx, requestcontext.Caller(ctx), id, models.Status(req.Status)); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (h *Handler) handleGetProjectSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID, err := domain.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	summary, err := h.service.GetProjectDonationSummary(ctx, projectID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleGetDonorSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donor, err := domain.ParsePrincipal(chi.URLParam(r, "donor"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	summary, err := h.service.GetDonorDonationSummary(ctx, donor)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleSetAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req setAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.service.SetAdmin(ctx, requestcontext.Caller(ctx), domain.Principal(req.Admin)); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "donation request failed",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteStoreError(w, err, models.ErrorCode(err))
}
