// Package ubereats integrates the Uber Eats delivery platform.
package ubereats

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/tablecraft/integration-hub/internal/analytics"
	"github.com/tablecraft/integration-hub/internal/providers"
)

const (
	defaultBaseURL = "https://api.uber.com/v1/eats"
	defaultAuthURL = "https://auth.uber.com/oauth/v2/token"
)

const defaultLookback = 24 * time.Hour

// Config is the static Uber Eats descriptor.
var Config = providers.IntegrationConfig{
	Name:                "ubereats",
	DisplayName:         "Uber Eats",
	Type:                providers.TypeDelivery,
	AuthType:            providers.AuthOAuth2,
	RequiredCredentials: []string{providers.CredAccessToken, providers.CredStoreID},
	OptionalCredentials: []string{providers.CredRefreshToken, providers.CredClientID, providers.CredClientSecret},
	WebhookSupport:      false,
	RateLimits:          &providers.RateLimits{RequestsPerMinute: 100, RequestsPerHour: 3000},
}

// Provider implements the DeliveryProvider interface for Uber Eats.
type Provider struct {
	providers.Base
	baseURL string
	authURL string
}

var _ providers.DeliveryProvider = (*Provider)(nil)
var _ providers.TokenRefresher = (*Provider)(nil)

// New creates an Uber Eats provider against the production API.
func New(opts providers.ClientOptions, logger *slog.Logger) *Provider {
	return NewWithBaseURL(defaultBaseURL, defaultAuthURL, opts, logger)
}

// NewWithBaseURL creates an Uber Eats provider against the given base URLs.
func NewWithBaseURL(baseURL, authURL string, opts providers.ClientOptions, logger *slog.Logger) *Provider {
	return &Provider{
		Base:    providers.NewBase(Config, opts, logger),
		baseURL: baseURL,
		authURL: authURL,
	}
}

// Authenticate checks the token by fetching the store record.
func (p *Provider) Authenticate(ctx context.Context, creds providers.Credentials) (bool, error) {
	if !p.ValidateCredentials(creds) {
		return false, nil
	}
	endpoint := fmt.Sprintf("%s/stores/%s", p.baseURL, creds.Get(providers.CredStoreID))
	return p.Client().Ping(ctx, endpoint, creds)
}

// TestConnection reports whether the credentials work, never propagating
// errors.
func (p *Provider) TestConnection(ctx context.Context, creds providers.Credentials) bool {
	return p.TestConnectionWith(ctx, creds, p.Authenticate)
}

// uberOrder is the relevant slice of Uber Eats' order payload.
type uberOrder struct {
	ID           string `json:"id"`
	CurrentState string `json:"current_state"`
	PlacedAt     string `json:"placed_at"`
	Eater        struct {
		FirstName string `json:"first_name"`
		Phone     string `json:"phone"`
		Delivery  struct {
			Location struct {
				StreetAddress string `json:"street_address"`
			} `json:"location"`
		} `json:"delivery"`
	} `json:"eater"`
	Payment struct {
		Charges struct {
			Total struct {
				Amount float64 `json:"amount"`
			} `json:"total"`
		} `json:"charges"`
	} `json:"payment"`
	Cart struct {
		Items []struct {
			Title    string `json:"title"`
			Quantity int    `json:"quantity"`
			Price    struct {
				UnitPrice struct {
					Amount float64 `json:"amount"`
				} `json:"unit_price"`
			} `json:"price"`
		} `json:"items"`
	} `json:"cart"`
}

type uberOrderList struct {
	Orders []uberOrder `json:"orders"`
}

// FetchOrders pulls delivery orders in the window and normalizes them.
func (p *Provider) FetchOrders(ctx context.Context, restaurantID string, creds providers.Credentials, opts providers.FetchOptions) ([]providers.DeliveryOrder, error) {
	start, end := opts.Window(defaultLookback)

	q := url.Values{}
	q.Set("start_time", fmt.Sprintf("%d", start.UnixMilli()))
	q.Set("end_time", fmt.Sprintf("%d", end.UnixMilli()))
	endpoint := fmt.Sprintf("%s/stores/%s/orders?%s", p.baseURL, creds.Get(providers.CredStoreID), q.Encode())

	var raw uberOrderList
	if err := p.Client().GetJSON(ctx, endpoint, creds, &raw); err != nil {
		return nil, fmt.Errorf("fetch ubereats orders: %w", err)
	}

	orders := make([]providers.DeliveryOrder, 0, len(raw.Orders))
	for _, o := range raw.Orders {
		orders = append(orders, p.normalize(restaurantID, o))
	}

	p.Logger().Info("fetched orders",
		slog.Int("count", len(orders)),
		slog.Time("start", start),
		slog.Time("end", end),
	)
	return orders, nil
}

func (p *Provider) normalize(restaurantID string, o uberOrder) providers.DeliveryOrder {
	order := providers.DeliveryOrder{
		ID:           o.ID,
		RestaurantID: restaurantID,
		Platform:     "ubereats",
		Status:       o.CurrentState,
		Total:        o.Payment.Charges.Total.Amount,
		Items:        []providers.OrderItem{},
		Customer: providers.Customer{
			Name:    valueOr(o.Eater.FirstName, "N/A"),
			Phone:   valueOr(o.Eater.Phone, "N/A"),
			Address: valueOr(o.Eater.Delivery.Location.StreetAddress, "N/A"),
		},
	}
	if order.Status == "" {
		order.Status = "unknown"
	}
	if ts, err := time.Parse(time.RFC3339, o.PlacedAt); err == nil {
		order.CreatedAt = ts
	}
	for _, item := range o.Cart.Items {
		order.Items = append(order.Items, providers.OrderItem{
			Name:     item.Title,
			Quantity: item.Quantity,
			Price:    item.Price.UnitPrice.Amount,
		})
	}
	return order
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// GetAnalytics fetches the window and runs the shared delivery aggregation.
func (p *Provider) GetAnalytics(ctx context.Context, restaurantID string, creds providers.Credentials, opts providers.FetchOptions) (*analytics.DeliveryAnalytics, error) {
	orders, err := p.FetchOrders(ctx, restaurantID, creds, opts)
	if err != nil {
		return nil, err
	}
	return providers.AggregateDelivery(orders), nil
}

// RefreshToken exchanges a refresh token via Uber's OAuth token endpoint.
func (p *Provider) RefreshToken(ctx context.Context, refreshToken string) (*providers.TokenPair, error) {
	body := map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}
	var pair providers.TokenPair
	if err := p.Client().PostJSON(ctx, p.authURL, body, nil, &pair); err != nil {
		return nil, fmt.Errorf("refresh ubereats token: %w", err)
	}
	return &pair, nil
}
