// Package toast integrates the Toast POS platform.
package toast

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/tablecraft/integration-hub/internal/analytics"
	"github.com/tablecraft/integration-hub/internal/providers"
)

const defaultBaseURL = "https://ws-api.toasttab.com"

// defaultLookback is the default transaction window.
const defaultLookback = 24 * time.Hour

// Config is the static Toast descriptor.
var Config = providers.IntegrationConfig{
	Name:                "toast",
	DisplayName:         "Toast",
	Type:                providers.TypePOS,
	AuthType:            providers.AuthOAuth2,
	RequiredCredentials: []string{providers.CredAccessToken, providers.CredRestaurantID},
	OptionalCredentials: []string{providers.CredRefreshToken, providers.CredClientID, providers.CredClientSecret},
	WebhookSupport:      false,
	RateLimits:          &providers.RateLimits{RequestsPerMinute: 60, RequestsPerHour: 1000},
}

// Provider implements the POSProvider interface for Toast.
type Provider struct {
	providers.Base
	baseURL string
}

var _ providers.POSProvider = (*Provider)(nil)
var _ providers.TokenRefresher = (*Provider)(nil)

// New creates a Toast provider against the production API.
func New(opts providers.ClientOptions, logger *slog.Logger) *Provider {
	return NewWithBaseURL(defaultBaseURL, opts, logger)
}

// NewWithBaseURL creates a Toast provider against the given base URL.
// Tests point this at a local server.
func NewWithBaseURL(baseURL string, opts providers.ClientOptions, logger *slog.Logger) *Provider {
	return &Provider{
		Base:    providers.NewBase(Config, opts, logger),
		baseURL: baseURL,
	}
}

// Authenticate checks the access token by fetching the restaurant record.
func (p *Provider) Authenticate(ctx context.Context, creds providers.Credentials) (bool, error) {
	if !p.ValidateCredentials(creds) {
		return false, nil
	}
	url := fmt.Sprintf("%s/restaurants/v1/restaurants/%s", p.baseURL, creds.Get(providers.CredRestaurantID))
	return p.Client().Ping(ctx, url, creds)
}

// TestConnection reports whether the credentials work, never propagating
// errors.
func (p *Provider) TestConnection(ctx context.Context, creds providers.Credentials) bool {
	return p.TestConnectionWith(ctx, creds, p.Authenticate)
}

// toastOrder is the relevant slice of Toast's order payload.
type toastOrder struct {
	GUID     string `json:"guid"`
	PaidDate string `json:"paidDate"`
	Server   struct {
		GUID string `json:"guid"`
	} `json:"server"`
	Table struct {
		Name string `json:"name"`
	} `json:"table"`
	DiningOption struct {
		Behavior string `json:"behavior"`
	} `json:"diningOption"`
	Checks []struct {
		Amount   float64 `json:"amount"`
		Payments []struct {
			Type string `json:"type"`
		} `json:"payments"`
		Selections []struct {
			DisplayName string  `json:"displayName"`
			Quantity    int     `json:"quantity"`
			Price       float64 `json:"price"`
			ItemGroup   struct {
				Name string `json:"name"`
			} `json:"itemGroup"`
		} `json:"selections"`
	} `json:"checks"`
}

// FetchTransactions pulls orders in the window and normalizes them.
func (p *Provider) FetchTransactions(ctx context.Context, restaurantID string, creds providers.Credentials, opts providers.FetchOptions) ([]providers.POSTransaction, error) {
	start, end := opts.Window(defaultLookback)

	q := url.Values{}
	q.Set("startDate", start.UTC().Format(time.RFC3339))
	q.Set("endDate", end.UTC().Format(time.RFC3339))
	endpoint := fmt.Sprintf("%s/orders/v2/ordersBulk?%s", p.baseURL, q.Encode())

	var raw []toastOrder
	if err := p.Client().GetJSON(ctx, endpoint, creds, &raw); err != nil {
		return nil, fmt.Errorf("fetch toast orders: %w", err)
	}

	transactions := make([]providers.POSTransaction, 0, len(raw))
	for _, order := range raw {
		transactions = append(transactions, p.normalize(restaurantID, order))
	}

	p.Logger().Info("fetched transactions",
		slog.Int("count", len(transactions)),
		slog.Time("start", start),
		slog.Time("end", end),
	)
	return transactions, nil
}

// normalize maps one Toast order to the normalized transaction shape.
// Absent fields get sentinel values rather than failing.
func (p *Provider) normalize(restaurantID string, order toastOrder) providers.POSTransaction {
	tx := providers.POSTransaction{
		ID:            order.GUID,
		RestaurantID:  restaurantID,
		Platform:      "toast",
		Items:         []providers.TransactionItem{},
		PaymentMethod: "unknown",
		OrderType:     orderType(order.DiningOption.Behavior),
		EmployeeID:    order.Server.GUID,
		TableNumber:   order.Table.Name,
	}

	if ts, err := time.Parse(time.RFC3339, order.PaidDate); err == nil {
		tx.Timestamp = ts
	}

	for _, check := range order.Checks {
		tx.Amount += check.Amount
		for _, payment := range check.Payments {
			if payment.Type != "" {
				tx.PaymentMethod = payment.Type
			}
		}
		for _, sel := range check.Selections {
			tx.Items = append(tx.Items, providers.TransactionItem{
				Name:     sel.DisplayName,
				Quantity: sel.Quantity,
				Price:    sel.Price,
				Category: sel.ItemGroup.Name,
			})
		}
	}

	return tx
}

func orderType(behavior string) string {
	switch behavior {
	case "DINE_IN":
		return "dine_in"
	case "TAKE_OUT":
		return "takeout"
	case "DELIVERY":
		return "delivery"
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

// RefreshToken exchanges a refresh token for a new access token.
func (p *Provider) RefreshToken(ctx context.Context, refreshToken string) (*providers.TokenPair, error) {
	body := map[string]string{
		"grantType":    "refresh_token",
		"refreshToken": refreshToken,
	}
	var pair providers.TokenPair
	endpoint := p.baseURL + "/authentication/v1/authentication/token"
	if err := p.Client().PostJSON(ctx, endpoint, body, nil, &pair); err != nil {
		return nil, fmt.Errorf("refresh toast token: %w", err)
	}
	return &pair, nil
}
