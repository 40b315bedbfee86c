package dto

import (
	"time"

	"github.com/tablecraft/integration-hub/internal/infrastructure/storage"
	"github.com/tablecraft/integration-hub/internal/providers"
)

// HealthResponse is returned by the health check endpoint. Providers is
// the number of registered integrations, so a misconfigured deployment
// shows up in the load balancer check.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Providers int    `json:"providers"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a healthy response stamped with the current time.
func NewHealthResponse(providerCount int) HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Service:   "integration-hub",
		Providers: providerCount,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ProviderListResponse is returned when listing the provider catalog.
type ProviderListResponse struct {
	Providers []providers.IntegrationConfig `json:"providers"`
	Count     int                           `json:"count"`
}

// TestConnectionResponse reports the outcome of a connection test.
type TestConnectionResponse struct {
	Provider  string `json:"provider"`
	Connected bool   `json:"connected"`
}

// ConnectionResponse represents a persisted connection in API responses.
type ConnectionResponse struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	Provider     string `json:"provider"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	ConnectedAt  string `json:"connected_at"`
	LastSyncAt   string `json:"last_sync_at,omitempty"`
	LastError    string `json:"last_error,omitempty"`
}

// NewConnectionResponse maps a storage connection to its API shape.
func NewConnectionResponse(conn *storage.Connection) ConnectionResponse {
	resp := ConnectionResponse{
		ID:           conn.ID,
		RestaurantID: conn.RestaurantID,
		Provider:     conn.Provider,
		Type:         conn.Type,
		Status:       conn.Status,
		ConnectedAt:  conn.ConnectedAt.UTC().Format(time.RFC3339),
		LastError:    conn.LastError,
	}
	if conn.LastSyncAt != nil {
		resp.LastSyncAt = conn.LastSyncAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// ConnectionListResponse is returned when listing connections.
type ConnectionListResponse struct {
	Connections []ConnectionResponse `json:"connections"`
	Count       int                  `json:"count"`
}

// WebhookAckResponse acknowledges a processed webhook event.
type WebhookAckResponse struct {
	EventID  string `json:"event_id"`
	Provider string `json:"provider"`
	Accepted bool   `json:"accepted"`
}
