package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"canopy/internal/report/models"
	"canopy/pkg/domain"
	dErrors "canopy/pkg/domain-errors"
	"canopy/pkg/platform/httputil"
	request "canopy/pkg/platform/middleware/request"
	"canopy/pkg/requestcontext"
)

type Service interface {
	SubmitReport(ctx context.Context, caller domain.Principal, sub models.Submission) (domain.ReportID, error)
	UpdateReportStatus(ctx context.Context, caller domain.Principal, id domain.ReportID, next models.Status) error
	GetReport(ctx context.Context, id domain.ReportID) (*models.Report, error)
	GetProjectReportSummary(ctx context.Context, projectID domain.ProjectID) (models.ProjectSummary, error)
	SetAdmin(ctx context.Context, caller, newAdmin domain.Principal) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router, writeGuards ...func(http.Handler) http.Handler) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/{id}", h.handleGetReport)
		r.Get("/projects/{projectID}/summary", h.handleGetProjectSummary)

		r.Group(func(r chi.Router) {
			r.Use(writeGuards...)
			r.Post("/", h.handleSubmitReport)
			r.Put("/{id}/status", h.handleUpdateReportStatus)
			r.Put("/admin", h.handleSetAdmin)
		})
	})
}

// submitReportRequest carries the media hash as 64 hex characters.
type submitReportRequest struct {
	ProjectID   uint64 `json:"project_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Milestone   string `json:"milestone"`
	Status      uint32 `json:"status"`
	MediaHash   string `json:"media_hash"`
}

type updateStatusRequest struct {
	Status uint32 `json:"status"`
}

type setAdminRequest struct {
	Admin string `json:"admin"`
}

func (h *Handler) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req submitReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.ProjectID == 0 {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "project_id is required"))
		return
	}
	hash, err := domain.ParseMediaHash(req.MediaHash)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	id, err := h.service.SubmitReport(ctx, requestcontext.Caller(ctx), models.Submission{
		ProjectID:   domain.ProjectID(req.ProjectID),
		Title:       req.Title,
		Description: req.Description,
		Milestone:   req.Milestone,
		Status:      models.Status(req.Status),
		MediaHash:   hash,
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]domain.ReportID{"id": id})
}

func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseReportID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	report, err := h.service.GetReport(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleUpdateReportStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseReportID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.service.UpdateReportStatus(ctx, requestcontext.Caller(ctx), id, models.Status(req.Status)); err != nil {
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
	summary, err := h.service.GetProjectReportSummary(ctx, projectID)
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
		h.logger.ErrorContext(ctx, "report request failed",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteStoreError(w, err, models.ErrorCode(err))
}
