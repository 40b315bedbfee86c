package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access for integration connections.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	// Run all pending migrations
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveConnection inserts or updates a connection record
func (s *Storage) SaveConnection(conn *Connection) error {
	query := `
	INSERT OR REPLACE INTO connections
	(id, restaurant_id, provider, type, status, connected_at, last_sync_at, last_error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		conn.ID,
		conn.RestaurantID,
		conn.Provider,
		conn.Type,
		conn.Status,
		conn.ConnectedAt,
		conn.LastSyncAt,
		conn.LastError,
	)
	if err != nil {
		return fmt.Errorf("failed to save connection: %w", err)
	}
	return nil
}

// GetConnection retrieves a connection by ID
func (s *Storage) GetConnection(id string) (*Connection, error) {
	row := s.db.QueryRow(`
		SELECT id, restaurant_id, provider, type, status, connected_at, last_sync_at, last_error
		FROM connections WHERE id = ?
	`, id)
	return scanConnection(row)
}

// FindConnection retrieves a restaurant's connection to one provider
func (s *Storage) FindConnection(restaurantID, provider string) (*Connection, error) {
	row := s.db.QueryRow(`
		SELECT id, restaurant_id, provider, type, status, connected_at, last_sync_at, last_error
		FROM connections WHERE restaurant_id = ? AND provider = ?
	`, restaurantID, provider)
	return scanConnection(row)
}

// ListConnections returns all connections for a restaurant
func (s *Storage) ListConnections(restaurantID string) ([]*Connection, error) {
	rows, err := s.db.Query(`
		SELECT id, restaurant_id, provider, type, status, connected_at, last_sync_at, last_error
		FROM connections WHERE restaurant_id = ? ORDER BY provider
	`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	connections := make([]*Connection, 0)
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		connections = append(connections, conn)
	}
	return connections, rows.Err()
}

// MarkSynced records a successful pull
func (s *Storage) MarkSynced(id string) error {
	_, err := s.db.Exec(`
		UPDATE connections SET status = ?, last_sync_at = ?, last_error = '' WHERE id = ?
	`, StatusConnected, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark connection synced: %w", err)
	}
	return nil
}

// MarkError records a failed pull with its message
func (s *Storage) MarkError(id string, message string) error {
	_, err := s.db.Exec(`
		UPDATE connections SET status = ?, last_error = ? WHERE id = ?
	`, StatusError, message, id)
	if err != nil {
		return fmt.Errorf("failed to mark connection errored: %w", err)
	}
	return nil
}

// MarkDisconnected records that the integration was turned off
func (s *Storage) MarkDisconnected(id string) error {
	_, err := s.db.Exec(`
		UPDATE connections SET status = ?, last_error = '' WHERE id = ?
	`, StatusDisconnected, id)
	if err != nil {
		return fmt.Errorf("failed to mark connection disconnected: %w", err)
	}
	return nil
}

// DeleteConnection removes a connection record
func (s *Storage) DeleteConnection(id string) error {
	_, err := s.db.Exec(`DELETE FROM connections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	return nil
}

// SaveWebhookEvent records one received event
func (s *Storage) SaveWebhookEvent(event *WebhookEvent) error {
	_, err := s.db.Exec(`
		INSERT INTO webhook_events (id, provider, event_type, payload, verified, received_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, event.ID, event.Provider, event.EventType, event.Payload, event.Verified, event.ReceivedAt)
	if err != nil {
		return fmt.Errorf("failed to save webhook event: %w", err)
	}
	return nil
}

// ListWebhookEvents returns recent events for a provider, newest first
func (s *Storage) ListWebhookEvents(provider string, limit int) ([]*WebhookEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, provider, event_type, payload, verified, received_at
		FROM webhook_events WHERE provider = ?
		ORDER BY received_at DESC LIMIT ?
	`, provider, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]*WebhookEvent, 0)
	for rows.Next() {
		var e WebhookEvent
		if err := rows.Scan(&e.ID, &e.Provider, &e.EventType, &e.Payload, &e.Verified, &e.ReceivedAt); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanConnection(row scanner) (*Connection, error) {
	var conn Connection
	var lastSync sql.NullTime
	err := row.Scan(
		&conn.ID,
		&conn.RestaurantID,
		&conn.Provider,
		&conn.Type,
		&conn.Status,
		&conn.ConnectedAt,
		&lastSync,
		&conn.LastError,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan connection: %w", err)
	}
	if lastSync.Valid {
		t := lastSync.Time
		conn.LastSyncAt = &t
	}
	return &conn, nil
}
