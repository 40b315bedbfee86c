package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tablecraft/integration-hub/internal/api/dto"
	"github.com/tablecraft/integration-hub/internal/providers"
)

// ProvidersHandler serves the provider catalog and connection tests.
type ProvidersHandler struct {
	Base
	registry *providers.Registry
}

// NewProvidersHandler creates a new providers handler.
func NewProvidersHandler(registry *providers.Registry) *ProvidersHandler {
	return &ProvidersHandler{registry: registry}
}

// List handles GET /api/providers - the integration catalog the dashboard
// renders credential forms from.
func (h *ProvidersHandler) List(w http.ResponseWriter, r *http.Request) {
	configs := h.registry.Configs()
	h.WriteJSON(w, http.StatusOK, dto.ProviderListResponse{
		Providers: configs,
		Count:     len(configs),
	})
}

// Test handles POST /api/providers/{name}/test - runs a connection test
// with the supplied credentials. Auth and network failures surface as
// connected=false, never as a 5xx.
func (h *ProvidersHandler) Test(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	provider, err := h.registry.Get(name)
	if err != nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("provider "+name))
		return
	}

	var req dto.TestConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	creds := providers.Credentials(req.Credentials)
	if !provider.ValidateCredentials(creds) {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("missing required credentials"))
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.TestConnectionResponse{
		Provider:  name,
		Connected: provider.TestConnection(r.Context(), creds),
	})
}
