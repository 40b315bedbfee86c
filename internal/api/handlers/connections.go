package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tablecraft/integration-hub/internal/api/dto"
	"github.com/tablecraft/integration-hub/internal/infrastructure/storage"
	"github.com/tablecraft/integration-hub/internal/providers"
)

// ConnectionsHandler manages persisted restaurant-to-provider connections.
type ConnectionsHandler struct {
	Base
	registry *providers.Registry
	repo     storage.Repository
}

// NewConnectionsHandler creates a new connections handler.
func NewConnectionsHandler(registry *providers.Registry, repo storage.Repository) *ConnectionsHandler {
	return &ConnectionsHandler{registry: registry, repo: repo}
}

// List handles GET /api/connections?restaurant_id=...
func (h *ConnectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.URL.Query().Get("restaurant_id")
	if restaurantID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("restaurant_id is required"))
		return
	}

	connections, err := h.repo.ListConnections(restaurantID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	responses := make([]dto.ConnectionResponse, 0, len(connections))
	for _, conn := range connections {
		responses = append(responses, dto.NewConnectionResponse(conn))
	}

	h.WriteJSON(w, http.StatusOK, dto.ConnectionListResponse{
		Connections: responses,
		Count:       len(responses),
	})
}

// Create handles POST /api/connections - validates the credentials against
// the remote API and persists the connection record. Credentials themselves
// are not stored.
func (h *ConnectionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}
	if req.RestaurantID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("restaurant_id is required"))
		return
	}

	provider, err := h.registry.Get(req.Provider)
	if err != nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("provider "+req.Provider))
		return
	}

	creds := providers.Credentials(req.Credentials)
	if !provider.ValidateCredentials(creds) {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("missing required credentials"))
		return
	}
	if !provider.TestConnection(r.Context(), creds) {
		h.WriteError(w, http.StatusUnauthorized, dto.UnauthorizedError("credentials rejected by "+req.Provider))
		return
	}

	conn := &storage.Connection{
		ID:           uuid.NewString(),
		RestaurantID: req.RestaurantID,
		Provider:     req.Provider,
		Type:         string(provider.Config().Type),
		Status:       storage.StatusConnected,
		ConnectedAt:  time.Now().UTC(),
	}

	// One connection per restaurant+provider pair; reconnecting replaces
	// the previous record.
	if existing, err := h.repo.FindConnection(req.RestaurantID, req.Provider); err == nil && existing != nil {
		conn.ID = existing.ID
	}

	if err := h.repo.SaveConnection(conn); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusCreated, dto.NewConnectionResponse(conn))
}

// Delete handles DELETE /api/connections/{id} - revokes the provider side
// where the platform supports it, then marks the record disconnected. With
// ?purge=true the record is removed entirely. The optional request body may
// carry credentials for the remote revocation; without them the teardown is
// local only.
func (h *ConnectionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	conn, err := h.repo.GetConnection(id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if conn == nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("connection"))
		return
	}

	var req dto.DisconnectRequest
	if r.Body != nil {
		// The body is optional; anything unreadable is treated as absent.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	// Best effort: a failed remote revocation never blocks the local
	// disconnect, since the dashboard could otherwise end up stuck with
	// a connection it cannot remove.
	if provider, err := h.registry.Get(conn.Provider); err == nil {
		_, _ = provider.Disconnect(r.Context(), providers.Credentials(req.Credentials))
	}

	if r.URL.Query().Get("purge") == "true" {
		if err := h.repo.DeleteConnection(id); err != nil {
			h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.repo.MarkDisconnected(id); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	conn.Status = storage.StatusDisconnected
	conn.LastError = ""
	h.WriteJSON(w, http.StatusOK, dto.NewConnectionResponse(conn))
}
