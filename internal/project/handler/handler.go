package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"canopy/internal/project/models"
	"canopy/pkg/domain"
	dErrors "canopy/pkg/domain-errors"
	"canopy/pkg/platform/httputil"
	request "canopy/pkg/platform/middleware/request"
	"canopy/pkg/requestcontext"
)

// Service defines the project registry operations the handler exposes.
type Service interface {
	RegisterProject(ctx context.Context, caller domain.Principal, reg models.Registration) (domain.ProjectID, error)
	UpdateProjectStatus(ctx context.Context, caller domain.Principal, id domain.ProjectID, next models.Status) error
	GetProject(ctx context.Context, id domain.ProjectID) (*models.Project, error)
	GetProjectCount(ctx context.Context) (uint64, error)
	SetAdmin(ctx context.Context, caller, newAdmin domain.Principal) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the project routes. writeGuards wrap the mutating routes,
// typically authentication and rate limiting.
func (h *Handler) Register(r chi.Router, writeGuards ...func(http.Handler) http.Handler) {
	r.Route("/projects", func(r chi.Router) {
		r.Get("/count", h.handleGetProjectCount)
		r.Get("/{id}", h.handleGetProject)

		r.Group(func(r chi.Router) {
			r.Use(writeGuards...)
			r.Post("/", h.handleRegisterProject)
			r.Put("/{id}/status", h.handleUpdateProjectStatus)
			r.Put("/admin", h.handleSetAdmin)
		})
	})
}

type registerProjectRequest struct {
	Name          string `json:"name"`
	Location      string `json:"location"`
	TargetSpecies string `json:"target_species"`
	StartDate     uint64 `json:"start_date"`
	EndDate       uint64 `json:"end_date"`
}

type updateStatusRequest struct {
	Status uint32 `json:"status"`
}

type setAdminRequest struct {
	Admin string `json:"admin"`
}

func (h *Handler) handleRegisterProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req registerProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	id, err := h.service.RegisterProject(ctx, requestcontext.Caller(ctx), models.Registration{
		Name:          req.Name,
		Location:      req.Location,
		TargetSpecies: req.TargetSpecies,
		StartDate:     domain.Timestamp(req.StartDate),
		EndDate:       domain.Timestamp(req.EndDate),
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]domain.ProjectID{"id": id})
}

func (h *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseProjectID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	project, err := h.service.GetProject(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, project)
}

func (h *Handler) handleGetProjectCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := h.service.GetProjectCount(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]uint64{"count": count})
}

func (h *Handler) handleUpdateProjectStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseProjectID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.service.UpdateProjectStatus(ctx, requestcontext.Caller(ctx), id, models.Status(req.Status)); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"updated": true})
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
		h.logger.ErrorContext(ctx, "project request failed",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteStoreError(w, err, models.ErrorCode(err))
}
