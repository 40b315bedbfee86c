package dto

// TestConnectionRequest carries credentials for a connection test.
type TestConnectionRequest struct {
	Credentials map[string]string `json:"credentials"`
}

// DisconnectRequest optionally carries credentials for the provider-side
// teardown when a connection is removed. Credentials are never persisted,
// so the dashboard supplies them again here if it wants the remote side
// revoked.
type DisconnectRequest struct {
	Credentials map[string]string `json:"credentials"`
}

// CreateConnectionRequest links a restaurant to a provider. Credentials are
// verified against the remote API before the connection is persisted; they
// are not stored.
type CreateConnectionRequest struct {
	RestaurantID string            `json:"restaurant_id"`
	Provider     string            `json:"provider"`
	Credentials  map[string]string `json:"credentials"`
}

// AnalyticsRequest asks one provider for an aggregated summary.
type AnalyticsRequest struct {
	RestaurantID string            `json:"restaurant_id"`
	Credentials  map[string]string `json:"credentials"`
	Start        string            `json:"start,omitempty"` // RFC 3339; empty means provider default window
	End          string            `json:"end,omitempty"`
	Timezone     string            `json:"timezone,omitempty"` // IANA name; empty means UTC
}

// PullRequest asks several providers for summaries in one call.
type PullRequest struct {
	RestaurantID string                       `json:"restaurant_id"`
	Credentials  map[string]map[string]string `json:"credentials"` // provider -> credential map
	Providers    []string                     `json:"providers,omitempty"`
	Start        string                       `json:"start,omitempty"`
	End          string                       `json:"end,omitempty"`
	Timezone     string                       `json:"timezone,omitempty"`
}
