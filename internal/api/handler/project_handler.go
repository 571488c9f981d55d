package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/ganttwork/planner/internal/api/middleware"
	"github.com/ganttwork/planner/internal/domain"
	"github.com/ganttwork/planner/internal/service"
)

// ProjectHandler handles stored-project CRUD endpoints.
type ProjectHandler struct {
	svc    *service.ProjectService
	logger *zap.Logger
}

func NewProjectHandler(svc *service.ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/projects
//
// @Summary  Store a project parsed from PlantUML
// @Tags     projects
// @Accept   json
// @Produce  json
// @Param    body  body      domain.ProjectInput  true  "Name and PlantUML document"
// @Success  201   {object}  domain.Project
// @Failure  422   {object}  map[string]any
// @Router   /api/v1/projects [post]
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.ProjectInput
	if err := decodeJSON(r, &in); err != nil {
		respondDecodeError(w, err)
		return
	}

	p, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.logger.Warn("create project failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// List handles GET /api/v1/projects
//
// @Summary  List stored projects, newest first
// @Tags     projects
// @Produce  json
// @Param    page   query     int  false  "Page number (default 1)"
// @Param    limit  query     int  false  "Items per page (default 20, max 100)"
// @Success  200    {object}  map[string]any
// @Router   /api/v1/projects [get]
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := parseListFilter(r)
	projects, total, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list projects failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":  projects,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

// GetByID handles GET /api/v1/projects/{id}
//
// @Summary  Get a stored project
// @Tags     projects
// @Produce  json
// @Param    id   path      string  true  "Project UUID"
// @Success  200  {object}  domain.Project
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/projects/{id} [get]
func (h *ProjectHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// GetPlantUML handles GET /api/v1/projects/{id}/plantuml
//
// @Summary  Export a stored project as PlantUML
// @Tags     projects
// @Produce  plain
// @Param    id   path      string  true  "Project UUID"
// @Success  200  {string}  string
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/projects/{id}/plantuml [get]
func (h *ProjectHandler) GetPlantUML(w http.ResponseWriter, r *http.Request) {
	text, err := h.svc.PlantUML(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		mapError(w, err)
		return
	}
	respondText(w, http.StatusOK, text)
}

// Update handles PUT /api/v1/projects/{id}
//
// @Summary  Replace a stored project from PlantUML
// @Tags     projects
// @Accept   json
// @Produce  json
// @Param    id    path      string               true  "Project UUID"
// @Param    body  body      domain.ProjectInput  true  "Name and PlantUML document"
// @Success  200   {object}  domain.Project
// @Failure  404   {object}  map[string]string
// @Failure  422   {object}  map[string]any
// @Router   /api/v1/projects/{id} [put]
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.ProjectInput
	if err := decodeJSON(r, &in); err != nil {
		respondDecodeError(w, err)
		return
	}

	p, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/v1/projects/{id}
//
// @Summary  Delete a stored project
// @Tags     projects
// @Param    id   path      string  true  "Project UUID"
// @Success  204
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/projects/{id} [delete]
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseListFilter(r *http.Request) domain.ListFilter {
	q := r.URL.Query()
	filter := domain.ListFilter{Page: 1, Limit: 20}

	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= 100 {
		filter.Limit = l
	}
	return filter
}
