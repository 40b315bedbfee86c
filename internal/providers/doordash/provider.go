// Package doordash integrates the DoorDash delivery platform, including
// its order-event webhooks.
package doordash

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/tablecraft/integration-hub/internal/analytics"
	"github.com/tablecraft/integration-hub/internal/providers"
)

const defaultBaseURL = "https://openapi.doordash.com"

const defaultLookback = 24 * time.Hour

// Config is the static DoorDash descriptor.
var Config = providers.IntegrationConfig{
	Name:                "doordash",
	DisplayName:         "DoorDash",
	Type:                providers.TypeDelivery,
	AuthType:            providers.AuthOAuth2,
	RequiredCredentials: []string{providers.CredAccessToken, providers.CredStoreID},
	OptionalCredentials: []string{"webhookSecret"},
	WebhookSupport:      true,
	RateLimits:          &providers.RateLimits{RequestsPerMinute: 120, RequestsPerHour: 5000},
}

// Provider implements the DeliveryProvider interface for DoorDash.
type Provider struct {
	providers.Base
	baseURL string
}

var _ providers.DeliveryProvider = (*Provider)(nil)
var _ providers.WebhookHandler = (*Provider)(nil)

// New creates a DoorDash provider against the production API.
func New(opts providers.ClientOptions, logger *slog.Logger) *Provider {
	return NewWithBaseURL(defaultBaseURL, opts, logger)
}

// NewWithBaseURL creates a DoorDash provider against the given base URL.
func NewWithBaseURL(baseURL string, opts providers.ClientOptions, logger *slog.Logger) *Provider {
	return &Provider{
		Base:    providers.NewBase(Config, opts, logger),
		baseURL: baseURL,
	}
}

// Authenticate checks the token by fetching the store record.
func (p *Provider) Authenticate(ctx context.Context, creds providers.Credentials) (bool, error) {
	if !p.ValidateCredentials(creds) {
		return false, nil
	}
	endpoint := fmt.Sprintf("%s/developer/v1/stores/%s", p.baseURL, creds.Get(providers.CredStoreID))
	return p.Client().Ping(ctx, endpoint, creds)
}

// TestConnection reports whether the credentials work, never propagating
// errors.
func (p *Provider) TestConnection(ctx context.Context, creds providers.Credentials) bool {
	return p.TestConnectionWith(ctx, creds, p.Authenticate)
}

// doordashOrder is the relevant slice of DoorDash's order payload.
type doordashOrder struct {
	ID          string `json:"id"`
	OrderStatus string `json:"order_status"`
	CreatedAt   string `json:"created_at"`
	OrderValue  int64  `json:"order_value"` // cents
	Consumer    struct {
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		PhoneNumber string `json:"phone_number"`
	} `json:"consumer"`
	DeliveryAddress struct {
		PrintableAddress string `json:"printable_address"`
	} `json:"delivery_address"`
	Items []struct {
		Name      string `json:"name"`
		Quantity  int    `json:"quantity"`
		UnitPrice int64  `json:"unit_price"` // cents
	} `json:"items"`
}

type doordashOrderList struct {
	Orders []doordashOrder `json:"orders"`
}

// FetchOrders pulls delivery orders in the window and normalizes them.
func (p *Provider) FetchOrders(ctx context.Context, restaurantID string, creds providers.Credentials, opts providers.FetchOptions) ([]providers.DeliveryOrder, error) {
	start, end := opts.Window(defaultLookback)

	q := url.Values{}
	q.Set("start_time", start.UTC().Format(time.RFC3339))
	q.Set("end_time", end.UTC().Format(time.RFC3339))
	endpoint := fmt.Sprintf("%s/developer/v1/stores/%s/orders?%s", p.baseURL, creds.Get(providers.CredStoreID), q.Encode())

	var raw doordashOrderList
	if err := p.Client().GetJSON(ctx, endpoint, creds, &raw); err != nil {
		return nil, fmt.Errorf("fetch doordash orders: %w", err)
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

// normalize maps one DoorDash order, converting cent amounts to dollars.
func (p *Provider) normalize(restaurantID string, o doordashOrder) providers.DeliveryOrder {
	order := providers.DeliveryOrder{
		ID:           o.ID,
		RestaurantID: restaurantID,
		Platform:     "doordash",
		Status:       o.OrderStatus,
		Total:        float64(o.OrderValue) / 100,
		Items:        []providers.OrderItem{},
		Customer: providers.Customer{
			Name:    customerName(o.Consumer.FirstName, o.Consumer.LastName),
			Phone:   valueOr(o.Consumer.PhoneNumber, "N/A"),
			Address: valueOr(o.DeliveryAddress.PrintableAddress, "N/A"),
		},
	}
	if order.Status == "" {
		order.Status = "unknown"
	}
	if ts, err := time.Parse(time.RFC3339, o.CreatedAt); err == nil {
		order.CreatedAt = ts
	}
	for _, item := range o.Items {
		order.Items = append(order.Items, providers.OrderItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    float64(item.UnitPrice) / 100,
		})
	}
	return order
}

func customerName(first, last string) string {
	switch {
	case first == "" && last == "":
		return "N/A"
	case last == "":
		return first
	case first == "":
		return last
	default:
		return first + " " + last
	}
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

// VerifyWebhook checks DoorDash's HMAC-SHA256 signature over the raw body.
func (p *Provider) VerifyWebhook(payload []byte, signature, secret string) bool {
	return providers.VerifyHMAC(payload, signature, secret)
}

// webhookEvent is the envelope DoorDash posts on order events.
type webhookEvent struct {
	EventType string        `json:"event_type"`
	Order     doordashOrder `json:"order"`
}

// ProcessWebhook handles a verified order event. Today that means logging
// the transition; the dashboard polls for fresh analytics rather than
// consuming a push pipeline.
func (p *Provider) ProcessWebhook(ctx context.Context, payload []byte) error {
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decode doordash webhook: %w", err)
	}

	p.Logger().Info("processed webhook event",
		slog.String("event_type", event.EventType),
		slog.String("order_id", event.Order.ID),
		slog.String("order_status", event.Order.OrderStatus),
	)
	return nil
}
