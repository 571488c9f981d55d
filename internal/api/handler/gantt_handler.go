package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ganttwork/planner/internal/domain"
	"github.com/ganttwork/planner/internal/service"
)

// GanttHandler exposes the stateless PlantUML codec.
type GanttHandler struct {
	svc    *service.ProjectService
	logger *zap.Logger
}

func NewGanttHandler(svc *service.ProjectService, logger *zap.Logger) *GanttHandler {
	return &GanttHandler{svc: svc, logger: logger}
}

// Parse handles POST /api/v1/gantt/parse
//
// @Summary  Parse a PlantUML Gantt document
// @Tags     gantt
// @Accept   plain
// @Produce  json
// @Param    body  body      string  true  "PlantUML document"
// @Success  200   {object}  domain.Project
// @Failure  422   {object}  map[string]any
// @Router   /api/v1/gantt/parse [post]
func (h *GanttHandler) Parse(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		mapError(w, err)
		return
	}

	p, err := h.svc.Parse(r.Context(), string(body))
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// Serialize handles POST /api/v1/gantt/serialize
//
// @Summary  Render a project as a PlantUML Gantt document
// @Tags     gantt
// @Accept   json
// @Produce  plain
// @Param    body  body      domain.Project  true  "Project"
// @Success  200   {string}  string
// @Failure  400   {object}  map[string]string
// @Failure  422   {object}  map[string]string
// @Router   /api/v1/gantt/serialize [post]
func (h *GanttHandler) Serialize(w http.ResponseWriter, r *http.Request) {
	var p domain.Project
	if err := decodeJSON(r, &p); err != nil {
		respondDecodeError(w, err)
		return
	}

	text, err := h.svc.Serialize(r.Context(), &p)
	if err != nil {
		h.logger.Debug("serialize rejected", zap.Error(err))
		mapError(w, err)
		return
	}
	respondText(w, http.StatusOK, text)
}
