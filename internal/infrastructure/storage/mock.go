package storage

import "sort"

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	connections map[string]*Connection
	events      []*WebhookEvent

	// Hooks for test assertions
	SaveConnectionCalled   bool
	LastSavedConnection    *Connection
	MarkSyncedCalled       bool
	MarkErrorCalled        bool
	LastErrorMessage       string
	MarkDisconnectedCalled bool

	// Error injection for testing error paths
	SaveConnectionErr   error
	GetConnectionErr    error
	ListConnectionsErr  error
	SaveWebhookEventErr error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		connections: make(map[string]*Connection),
	}
}

func (m *MockRepository) SaveConnection(conn *Connection) error {
	m.SaveConnectionCalled = true
	m.LastSavedConnection = conn
	if m.SaveConnectionErr != nil {
		return m.SaveConnectionErr
	}
	c := *conn
	m.connections[conn.ID] = &c
	return nil
}

func (m *MockRepository) GetConnection(id string) (*Connection, error) {
	if m.GetConnectionErr != nil {
		return nil, m.GetConnectionErr
	}
	return m.connections[id], nil
}

func (m *MockRepository) FindConnection(restaurantID, provider string) (*Connection, error) {
	if m.GetConnectionErr != nil {
		return nil, m.GetConnectionErr
	}
	for _, conn := range m.connections {
		if conn.RestaurantID == restaurantID && conn.Provider == provider {
			return conn, nil
		}
	}
	return nil, nil
}

func (m *MockRepository) ListConnections(restaurantID string) ([]*Connection, error) {
	if m.ListConnectionsErr != nil {
		return nil, m.ListConnectionsErr
	}
	out := make([]*Connection, 0)
	for _, conn := range m.connections {
		if conn.RestaurantID == restaurantID {
			out = append(out, conn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out, nil
}

func (m *MockRepository) MarkSynced(id string) error {
	m.MarkSyncedCalled = true
	if conn, ok := m.connections[id]; ok {
		conn.Status = StatusConnected
		conn.LastError = ""
	}
	return nil
}

func (m *MockRepository) MarkError(id string, message string) error {
	m.MarkErrorCalled = true
	m.LastErrorMessage = message
	if conn, ok := m.connections[id]; ok {
		conn.Status = StatusError
		conn.LastError = message
	}
	return nil
}

func (m *MockRepository) MarkDisconnected(id string) error {
	m.MarkDisconnectedCalled = true
	if conn, ok := m.connections[id]; ok {
		conn.Status = StatusDisconnected
		conn.LastError = ""
	}
	return nil
}

func (m *MockRepository) DeleteConnection(id string) error {
	delete(m.connections, id)
	return nil
}

func (m *MockRepository) SaveWebhookEvent(event *WebhookEvent) error {
	if m.SaveWebhookEventErr != nil {
		return m.SaveWebhookEventErr
	}
	e := *event
	m.events = append(m.events, &e)
	return nil
}

func (m *MockRepository) ListWebhookEvents(provider string, limit int) ([]*WebhookEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	out := make([]*WebhookEvent, 0)
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		if m.events[i].Provider == provider {
			out = append(out, m.events[i])
		}
	}
	return out, nil
}

func (m *MockRepository) Close() error {
	return nil
}
