package handlers

import (
	"net/http"

	"github.com/tablecraft/integration-hub/internal/api/dto"
	"github.com/tablecraft/integration-hub/internal/providers"
)

// HealthHandler answers load-balancer checks. The response includes the
// registered integration count so an empty registry is visible without
// log access.
type HealthHandler struct {
	Base
	registry *providers.Registry
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(registry *providers.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	count := 0
	if h.registry != nil {
		count = len(h.registry.List())
	}
	h.WriteJSON(w, http.StatusOK, dto.NewHealthResponse(count))
}
