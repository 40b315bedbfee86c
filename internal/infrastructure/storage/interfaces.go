package storage

// Repository defines the connection store interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	ConnectionRepository
	WebhookEventRepository
	Close() error
}

// ConnectionRepository persists which integrations each restaurant has
// connected. Credentials are never stored here; they are supplied per call
// by the application layer.
type ConnectionRepository interface {
	// SaveConnection inserts or updates a connection record
	SaveConnection(conn *Connection) error

	// GetConnection retrieves a connection by ID
	GetConnection(id string) (*Connection, error)

	// FindConnection retrieves a restaurant's connection to one provider
	FindConnection(restaurantID, provider string) (*Connection, error)

	// ListConnections returns all connections for a restaurant
	ListConnections(restaurantID string) ([]*Connection, error)

	// MarkSynced records a successful pull
	MarkSynced(id string) error

	// MarkError records a failed pull with its message
	MarkError(id string, message string) error

	// MarkDisconnected records that the integration was turned off
	MarkDisconnected(id string) error

	// DeleteConnection removes a connection record
	DeleteConnection(id string) error
}

// WebhookEventRepository keeps an audit trail of received webhook events.
type WebhookEventRepository interface {
	// SaveWebhookEvent records one received event
	SaveWebhookEvent(event *WebhookEvent) error

	// ListWebhookEvents returns recent events for a provider, newest first
	ListWebhookEvents(provider string, limit int) ([]*WebhookEvent, error)
}
