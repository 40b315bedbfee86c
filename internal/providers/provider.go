package providers

import (
	"context"

	"github.com/tablecraft/integration-hub/internal/analytics"
)

// Provider is the capability surface every integration implements. Callers
// treat POS, delivery, and reservation integrations interchangeably through
// it for authentication, connection testing, and teardown; data fetching
// lives on the domain-specific interfaces below.
type Provider interface {
	// Name returns the provider identifier (e.g. "toast").
	Name() string

	// Config returns the static descriptor: type, auth scheme, which
	// credential fields to collect, rate limits, webhook support.
	Config() IntegrationConfig

	// Authenticate verifies the credentials against the remote API. A
	// non-OK response or transport error is reported as false with the
	// underlying cause; it never panics.
	Authenticate(ctx context.Context, creds Credentials) (bool, error)

	// TestConnection wraps Authenticate, folding any error into a false
	// result and a logged diagnostic. Safe to call from UI handlers.
	TestConnection(ctx context.Context, creds Credentials) bool

	// ValidateCredentials reports whether creds satisfy the provider's
	// RequiredCredentials. Local check only, no network.
	ValidateCredentials(creds Credentials) bool

	// Disconnect tears down the remote side of an integration where the
	// platform supports it. Providers with nothing to tear down report
	// success.
	Disconnect(ctx context.Context, creds Credentials) (bool, error)
}

// POSProvider fetches and aggregates point-of-sale transactions.
type POSProvider interface {
	Provider
	FetchTransactions(ctx context.Context, restaurantID string, creds Credentials, opts FetchOptions) ([]POSTransaction, error)
	GetAnalytics(ctx context.Context, restaurantID string, creds Credentials, opts FetchOptions) (*analytics.POSAnalytics, error)
}

// DeliveryProvider fetches and aggregates delivery orders.
type DeliveryProvider interface {
	Provider
	FetchOrders(ctx context.Context, restaurantID string, creds Credentials, opts FetchOptions) ([]DeliveryOrder, error)
	GetAnalytics(ctx context.Context, restaurantID string, creds Credentials, opts FetchOptions) (*analytics.DeliveryAnalytics, error)
}

// ReservationProvider fetches and aggregates reservations.
type ReservationProvider interface {
	Provider
	FetchReservations(ctx context.Context, restaurantID string, creds Credentials, opts FetchOptions) ([]Reservation, error)
	GetAnalytics(ctx context.Context, restaurantID string, creds Credentials, opts FetchOptions) (*analytics.ReservationAnalytics, error)
}

// WebhookHandler is implemented by providers that push events to us.
// Discovered by interface assertion on a registered Provider.
type WebhookHandler interface {
	// VerifyWebhook checks the platform's signature over the raw payload.
	VerifyWebhook(payload []byte, signature, secret string) bool

	// ProcessWebhook handles a verified event payload.
	ProcessWebhook(ctx context.Context, payload []byte) error
}

// TokenRefresher is implemented by OAuth2 providers whose access tokens
// expire and can be refreshed without re-authorizing.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
}
