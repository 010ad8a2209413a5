package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"canopy/internal/impact/models"
	"canopy/pkg/domain"
	dErrors "canopy/pkg/domain-errors"
	"canopy/pkg/platform/httputil"
	request "canopy/pkg/platform/middleware/request"
	"canopy/pkg/requestcontext"
)

type Service interface {
	RecordMetric(ctx context.Context, caller domain.Principal, projectID domain.ProjectID, metricType models.MetricType, value int64, notes string) (domain.MetricID, error)
	GetMetric(ctx context.Context, id domain.MetricID) (*models.Metric, error)
	GetProjectMetricSummary(ctx context.Context, projectID domain.ProjectID, metricType models.MetricType) (models.Summary, error)
	GetMetricAverage(ctx context.Context, projectID domain.ProjectID, metricType models.MetricType) (int64, error)
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
	r.Route("/metrics", func(r chi.Router) {
		r.Get("/{id}", h.handleGetMetric)
		r.Get("/projects/{projectID}/types/{type}/summary", h.handleGetSummary)
		r.Get("/projects/{projectID}/types/{type}/average", h.handleGetAverage)

		r.Group(func(r chi.Router) {
			r.Use(writeGuards...)
			r.Post("/", h.handleRecordMetric)
			r.Put("/admin", h.handleSetAdmin)
		})
	})
}

type recordMetricRequest struct {
	ProjectID  uint64 `json:"project_id"`
	MetricType uint32 `json:"metric_type"`
	Value      int64  `json:"value"`
	Notes      string `json:"notes"`
}

type setAdminRequest struct {
	Admin string `json:"admin"`
}

func (h *Handler) handleRecordMetric(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req recordMetricRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.ProjectID == 0 {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "project_id is required"))
		return
	}

	id, err := h.service.RecordMetric(ctx, requestcontext.Caller(ctx),
		domain.ProjectID(req.ProjectID), models.MetricType(req.MetricType), req.Value, req.Notes)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]domain.MetricID{"id": id})
}

func (h *Handler) handleGetMetric(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseMetricID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	metric, err := h.service.GetMetric(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, metric)
}

func (h *Handler) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID, metricType, err := parseSeries(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	summary, err := h.service.GetProjectMetricSummary(ctx, projectID, metricType)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleGetAverage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID, metricType, err := parseSeries(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	avg, err := h.service.GetMetricAverage(ctx, projectID, metricType)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"average": avg})
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

func parseSeries(r *http.Request) (domain.ProjectID, models.MetricType, error) {
	projectID, err := domain.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		return 0, 0, err
	}
	metricType, err := models.ParseMetricType(chi.URLParam(r, "type"))
	if err != nil {
		return 0, 0, err
	}
	return projectID, metricType, nil
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "impact metric request failed",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteStoreError(w, err, models.ErrorCode(err))
}
