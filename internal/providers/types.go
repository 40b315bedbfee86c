// Package providers defines the uniform contract for third-party restaurant
// integrations (POS, delivery, reservations) and the normalized record types
// their bespoke API responses are mapped into.
package providers

import (
	"strings"
	"time"
)

// IntegrationType classifies a provider by the domain it integrates.
type IntegrationType string

const (
	TypePOS         IntegrationType = "pos"
	TypeDelivery    IntegrationType = "delivery"
	TypeReservation IntegrationType = "reservation"
)

// AuthType identifies how a provider expects outbound requests to be
// authenticated.
type AuthType string

const (
	AuthOAuth2    AuthType = "oauth2"
	AuthAPIKey    AuthType = "api_key"
	AuthBasicAuth AuthType = "basic_auth"
)

// Well-known credential keys. Providers declare which of these (plus any
// provider-specific IDs) they require.
const (
	CredAPIKey       = "apiKey"
	CredAccessToken  = "accessToken"
	CredRefreshToken = "refreshToken"
	CredUsername     = "username"
	CredPassword     = "password"
	CredStoreID      = "storeId"
	CredMerchantID   = "merchantId"
	CredVenueID      = "venueId"
	CredRestaurantID = "restaurantId"
	CredLocationID   = "locationId"
	CredClientID     = "clientId"
	CredClientSecret = "clientSecret"
)

// Credentials is an open string-keyed secret map. Which keys are meaningful
// depends on the provider's AuthType and RequiredCredentials.
type Credentials map[string]string

// Get returns the trimmed value for key, or "" when absent.
func (c Credentials) Get(key string) string {
	return strings.TrimSpace(c[key])
}

// Validate reports whether every required key is present and non-blank
// after trimming. It is a local check and performs no network I/O.
func (c Credentials) Validate(required []string) bool {
	for _, key := range required {
		if c.Get(key) == "" {
			return false
		}
	}
	return true
}

// RateLimits describes a provider's documented request budget.
type RateLimits struct {
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`
	RequestsPerHour   int `json:"requests_per_hour" yaml:"requests_per_hour"`
}

// IntegrationConfig is the static descriptor for one provider. The dashboard
// uses it to render which credential fields to collect.
type IntegrationConfig struct {
	Name                string          `json:"name"`
	DisplayName         string          `json:"display_name"`
	Type                IntegrationType `json:"type"`
	AuthType            AuthType        `json:"auth_type"`
	RequiredCredentials []string        `json:"required_credentials"`
	OptionalCredentials []string        `json:"optional_credentials,omitempty"`
	WebhookSupport      bool            `json:"webhook_support"`
	RateLimits          *RateLimits     `json:"rate_limits,omitempty"`
}

// FetchOptions bounds a record fetch. A zero Start/End means the provider's
// default window (24h for POS and delivery, 7d for reservations). Location
// is the restaurant-local timezone used for hour bucketing; nil means UTC.
type FetchOptions struct {
	Start    time.Time
	End      time.Time
	Location *time.Location
}

// Window returns the effective [start, end) range given a default lookback.
func (o FetchOptions) Window(defaultLookback time.Duration) (time.Time, time.Time) {
	end := o.End
	if end.IsZero() {
		end = time.Now()
	}
	start := o.Start
	if start.IsZero() {
		start = end.Add(-defaultLookback)
	}
	return start, end
}

// TZ returns the bucketing timezone, defaulting to UTC.
func (o FetchOptions) TZ() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// TokenPair is the result of an OAuth2 token refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// POSTransaction is a point-of-sale transaction normalized from a POS
// provider's raw payload. Platform records which provider produced it so
// aggregations can be attributed; RestaurantID scopes it to one tenant.
type POSTransaction struct {
	ID            string            `json:"id"`
	RestaurantID  string            `json:"restaurant_id"`
	Platform      string            `json:"platform"`
	Amount        float64           `json:"amount"`
	Items         []TransactionItem `json:"items"`
	PaymentMethod string            `json:"payment_method"`
	Timestamp     time.Time         `json:"timestamp"`
	EmployeeID    string            `json:"employee_id,omitempty"`
	TableNumber   string            `json:"table_number,omitempty"`
	OrderType     string            `json:"order_type"` // dine_in, takeout, delivery
}

// TransactionItem is a line item on a POS transaction.
type TransactionItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Category string  `json:"category,omitempty"`
}

// DeliveryOrder is an order normalized from a delivery platform.
type DeliveryOrder struct {
	ID           string      `json:"id"`
	RestaurantID string      `json:"restaurant_id"`
	Platform     string      `json:"platform"`
	Status       string      `json:"status"`
	Items        []OrderItem `json:"items"`
	Customer     Customer    `json:"customer"`
	Total        float64     `json:"total"`
	CreatedAt    time.Time   `json:"created_at"`
}

// OrderItem is a line item on a delivery order.
type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Customer identifies the ordering customer as reported by the platform.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Reservation statuses as normalized across reservation platforms.
const (
	ReservationConfirmed = "confirmed"
	ReservationPending   = "pending"
	ReservationCancelled = "cancelled"
	ReservationSeated    = "seated"
	ReservationNoShow    = "no_show"
)

// Reservation is a booking normalized from a reservation platform.
type Reservation struct {
	ID              string    `json:"id"`
	RestaurantID    string    `json:"restaurant_id"`
	Platform        string    `json:"platform"`
	CustomerName    string    `json:"customer_name"`
	CustomerEmail   string    `json:"customer_email"`
	CustomerPhone   string    `json:"customer_phone"`
	PartySize       int       `json:"party_size"`
	DateTime        time.Time `json:"date_time"`
	Status          string    `json:"status"`
	SpecialRequests string    `json:"special_requests,omitempty"`
	TableID         string    `json:"table_id,omitempty"`
}
