// Package grubhub integrates the Grubhub delivery platform.
package grubhub

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/tablecraft/integration-hub/internal/analytics"
	"github.com/tablecraft/integration-hub/internal/providers"
)

const defaultBaseURL = "https://api-gtm.grubhub.com"

const defaultLookback = 24 * time.Hour

// Config is the static Grubhub descriptor.
var Config = providers.IntegrationConfig{
	Name:                "grubhub",
	DisplayName:         "Grubhub",
	Type:                providers.TypeDelivery,
	AuthType:            providers.AuthAPIKey,
	RequiredCredentials: []string{providers.CredAPIKey, providers.CredRestaurantID},
	WebhookSupport:      false,
	RateLimits:          &providers.RateLimits{RequestsPerMinute: 60, RequestsPerHour: 1500},
}

// Provider implements the DeliveryProvider interface for Grubhub.
type Provider struct {
	providers.Base
	baseURL string
}

var _ providers.DeliveryProvider = (*Provider)(nil)

// New creates a Grubhub provider against the production API.
func New(opts providers.ClientOptions, logger *slog.Logger) *Provider {
	return NewWithBaseURL(defaultBaseURL, opts, logger)
}

// NewWithBaseURL creates a Grubhub provider against the given base URL.
func NewWithBaseURL(baseURL string, opts providers.ClientOptions, logger *slog.Logger) *Provider {
	return &Provider{
		Base:    providers.NewBase(Config, opts, logger),
		baseURL: baseURL,
	}
}

// Authenticate checks the API key by fetching the restaurant record.
func (p *Provider) Authenticate(ctx context.Context, creds providers.Credentials) (bool, error) {
	if !p.ValidateCredentials(creds) {
		return false, nil
	}
	endpoint := fmt.Sprintf("%s/restaurants/%s", p.baseURL, creds.Get(providers.CredRestaurantID))
	return p.Client().Ping(ctx, endpoint, creds)
}

// TestConnection reports whether the credentials work, never propagating
// errors.
func (p *Provider) TestConnection(ctx context.Context, creds providers.Credentials) bool {
	return p.TestConnectionWith(ctx, creds, p.Authenticate)
}

// grubhubOrder is the relevant slice of Grubhub's order payload.
type grubhubOrder struct {
	OrderID      string  `json:"order_id"`
	State        string  `json:"state"`
	TimePlaced   string  `json:"time_placed"`
	GrandTotal   float64 `json:"grand_total"`
	DinerName    string  `json:"diner_name"`
	DinerPhone   string  `json:"diner_phone"`
	DeliverTo    string  `json:"deliver_to"`
	OrderedItems []struct {
		Name      string  `json:"name"`
		Quantity  int     `json:"quantity"`
		ItemPrice float64 `json:"item_price"`
	} `json:"ordered_items"`
}

type grubhubOrderList struct {
	Results []grubhubOrder `json:"results"`
}

// FetchOrders pulls delivery orders in the window and normalizes them.
func (p *Provider) FetchOrders(ctx context.Context, restaurantID string, creds providers.Credentials, opts providers.FetchOptions) ([]providers.DeliveryOrder, error) {
	start, end := opts.Window(defaultLookback)

	q := url.Values{}
	q.Set("time_placed_start", start.UTC().Format(time.RFC3339))
	q.Set("time_placed_end", end.UTC().Format(time.RFC3339))
	endpoint := fmt.Sprintf("%s/restaurants/%s/orders?%s", p.baseURL, creds.Get(providers.CredRestaurantID), q.Encode())

	var raw grubhubOrderList
	if err := p.Client().GetJSON(ctx, endpoint, creds, &raw); err != nil {
		return nil, fmt.Errorf("fetch grubhub orders: %w", err)
	}

	orders := make([]providers.DeliveryOrder, 0, len(raw.Results))
	for _, o := range raw.Results {
		orders = append(orders, p.normalize(restaurantID, o))
	}

	p.Logger().Info("fetched orders",
		slog.Int("count", len(orders)),
		slog.Time("start", start),
		slog.Time("end", end),
	)
	return orders, nil
}

func (p *Provider) normalize(restaurantID string, o grubhubOrder) providers.DeliveryOrder {
	order := providers.DeliveryOrder{
		ID:           o.OrderID,
		RestaurantID: restaurantID,
		Platform:     "grubhub",
		Status:       valueOr(o.State, "unknown"),
		Total:        o.GrandTotal,
		Items:        []providers.OrderItem{},
		Customer: providers.Customer{
			Name:    valueOr(o.DinerName, "N/A"),
			Phone:   valueOr(o.DinerPhone, "N/A"),
			Address: valueOr(o.DeliverTo, "N/A"),
		},
	}
	if ts, err := time.Parse(time.RFC3339, o.TimePlaced); err == nil {
		order.CreatedAt = ts
	}
	for _, item := range o.OrderedItems {
		order.Items = append(order.Items, providers.OrderItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.ItemPrice,
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
