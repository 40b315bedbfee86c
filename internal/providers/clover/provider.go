// Package clover integrates the Clover POS platform.
package clover

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/tablecraft/integration-hub/internal/analytics"
	"github.com/tablecraft/integration-hub/internal/providers"
)

const defaultBaseURL = "https://api.clover.com/v3"

const defaultLookback = 24 * time.Hour

// Config is the static Clover descriptor.
var Config = providers.IntegrationConfig{
	Name:                "clover",
	DisplayName:         "Clover",
	Type:                providers.TypePOS,
	AuthType:            providers.AuthAPIKey,
	RequiredCredentials: []string{providers.CredAPIKey, providers.CredMerchantID},
	WebhookSupport:      false,
	RateLimits:          &providers.RateLimits{RequestsPerMinute: 100, RequestsPerHour: 2000},
}

// Provider implements the POSProvider interface for Clover.
type Provider struct {
	providers.Base
	baseURL string
}

var _ providers.POSProvider = (*Provider)(nil)

// New creates a Clover provider against the production API.
func New(opts providers.ClientOptions, logger *slog.Logger) *Provider {
	return NewWithBaseURL(defaultBaseURL, opts, logger)
}

// NewWithBaseURL creates a Clover provider against the given base URL.
func NewWithBaseURL(baseURL string, opts providers.ClientOptions, logger *slog.Logger) *Provider {
	return &Provider{
		Base:    providers.NewBase(Config, opts, logger),
		baseURL: baseURL,
	}
}

// Authenticate checks the API key by fetching the merchant record.
func (p *Provider) Authenticate(ctx context.Context, creds providers.Credentials) (bool, error) {
	if !p.ValidateCredentials(creds) {
		return false, nil
	}
	endpoint := fmt.Sprintf("%s/merchants/%s", p.baseURL, creds.Get(providers.CredMerchantID))
	return p.Client().Ping(ctx, endpoint, creds)
}

// TestConnection reports whether the credentials work, never propagating
// errors.
func (p *Provider) TestConnection(ctx context.Context, creds providers.Credentials) bool {
	return p.TestConnectionWith(ctx, creds, p.Authenticate)
}

// cloverOrder is the relevant slice of Clover's order payload. Money fields
// are integer cents; createdTime is epoch milliseconds.
type cloverOrder struct {
	ID          string `json:"id"`
	Total       int64  `json:"total"`
	CreatedTime int64  `json:"createdTime"`
	Employee    struct {
		ID string `json:"id"`
	} `json:"employee"`
	OrderType struct {
		Label string `json:"label"`
	} `json:"orderType"`
	Payments struct {
		Elements []struct {
			Tender struct {
				Label string `json:"label"`
			} `json:"tender"`
		} `json:"elements"`
	} `json:"payments"`
	LineItems struct {
		Elements []struct {
			Name     string `json:"name"`
			Price    int64  `json:"price"`
			UnitQty  int    `json:"unitQty"`
			Category struct {
				Name string `json:"name"`
			} `json:"category"`
		} `json:"elements"`
	} `json:"lineItems"`
}

type cloverOrderList struct {
	Elements []cloverOrder `json:"elements"`
}

// FetchTransactions pulls orders in the window and normalizes them.
func (p *Provider) FetchTransactions(ctx context.Context, restaurantID string, creds providers.Credentials, opts providers.FetchOptions) ([]providers.POSTransaction, error) {
	start, end := opts.Window(defaultLookback)

	q := url.Values{}
	q.Set("filter", fmt.Sprintf("createdTime>=%d", start.UnixMilli()))
	q.Add("filter", fmt.Sprintf("createdTime<=%d", end.UnixMilli()))
	q.Set("expand", "lineItems,payments")
	endpoint := fmt.Sprintf("%s/merchants/%s/orders?%s", p.baseURL, creds.Get(providers.CredMerchantID), q.Encode())

	var raw cloverOrderList
	if err := p.Client().GetJSON(ctx, endpoint, creds, &raw); err != nil {
		return nil, fmt.Errorf("fetch clover orders: %w", err)
	}

	transactions := make([]providers.POSTransaction, 0, len(raw.Elements))
	for _, order := range raw.Elements {
		transactions = append(transactions, p.normalize(restaurantID, order))
	}

	p.Logger().Info("fetched transactions",
		slog.Int("count", len(transactions)),
		slog.Time("start", start),
		slog.Time("end", end),
	)
	return transactions, nil
}

// normalize maps one Clover order, converting cent amounts to dollars.
func (p *Provider) normalize(restaurantID string, order cloverOrder) providers.POSTransaction {
	tx := providers.POSTransaction{
		ID:            order.ID,
		RestaurantID:  restaurantID,
		Platform:      "clover",
		Amount:        float64(order.Total) / 100,
		Items:         []providers.TransactionItem{},
		PaymentMethod: "unknown",
		Timestamp:     time.UnixMilli(order.CreatedTime),
		EmployeeID:    order.Employee.ID,
		OrderType:     orderType(order.OrderType.Label),
	}

	if len(order.Payments.Elements) > 0 && order.Payments.Elements[0].Tender.Label != "" {
		tx.PaymentMethod = order.Payments.Elements[0].Tender.Label
	}

	for _, item := range order.LineItems.Elements {
		qty := item.UnitQty
		if qty == 0 {
			qty = 1
		}
		tx.Items = append(tx.Items, providers.TransactionItem{
			Name:     item.Name,
			Quantity: qty,
			Price:    float64(item.Price) / 100,
			Category: item.Category.Name,
		})
	}

	return tx
}

func orderType(label string) string {
	switch label {
	case "Delivery":
		return "delivery"
	case "To Go", "Pickup":
		return "takeout"
	default:
		return "dine_in"
	}
}

// GetAnalytics fetches the window and runs the shared POS aggregation.
func (p *Provider) GetAnalytics(ctx context.Context, restaurantID string, creds providers.Credentials, opts providers.FetchOptions) (*analytics.POSAnalytics, error) {
	transactions, err := p.FetchTransactions(ctx, restaurantID, creds, opts)
	if err != nil {
		return nil, err
	}
	return providers.AggregatePOS(transactions, opts.TZ()), nil
}
