package handler

import (
	"net/http"

	"github.com/ganttwork/planner/internal/domain"
)

// HealthHandler serves the liveness probe endpoint.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// Health handles GET /health
//
// @Summary  Liveness probe
// @Tags     system
// @Produce  json
// @Success  200  {object}  domain.HealthStatus
// @Router   /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, domain.NewHealthStatus())
}
