package storage

import "time"

// Connection statuses.
const (
	StatusConnected    = "connected"
	StatusError        = "error"
	StatusDisconnected = "disconnected"
)

// Connection records that a restaurant has linked one integration provider.
type Connection struct {
	ID           string     `json:"id"`
	RestaurantID string     `json:"restaurant_id"`
	Provider     string     `json:"provider"`
	Type         string     `json:"type"` // pos, delivery, reservation
	Status       string     `json:"status"`
	ConnectedAt  time.Time  `json:"connected_at"`
	LastSyncAt   *time.Time `json:"last_sync_at,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

// WebhookEvent is one event received from a provider's webhook, kept for
// auditing and debugging integrations.
type WebhookEvent struct {
	ID         string    `json:"id"`
	Provider   string    `json:"provider"`
	EventType  string    `json:"event_type"`
	Payload    string    `json:"payload"`
	Verified   bool      `json:"verified"`
	ReceivedAt time.Time `json:"received_at"`
}
