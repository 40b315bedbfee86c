// Package opentable integrates the OpenTable reservation platform.
package opentable

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/tablecraft/integration-hub/internal/analytics"
	"github.com/tablecraft/integration-hub/internal/providers"
)

const defaultBaseURL = "https://platform.opentable.com"

// Reservations default to a week of lookback; the booking horizon is much
// longer than a POS sales window.
const defaultLookback = 7 * 24 * time.Hour

// Config is the static OpenTable descriptor.
var Config = providers.IntegrationConfig{
	Name:                "opentable",
	DisplayName:         "OpenTable",
	Type:                providers.TypeReservation,
	AuthType:            providers.AuthOAuth2,
	RequiredCredentials: []string{providers.CredAccessToken, providers.CredRestaurantID},
	WebhookSupport:      false,
	RateLimits:          &providers.RateLimits{RequestsPerMinute: 30, RequestsPerHour: 600},
}

// Provider implements the ReservationProvider interface for OpenTable.
type Provider struct {
	providers.Base
	baseURL string
}

var _ providers.ReservationProvider = (*Provider)(nil)

// New creates an OpenTable provider against the production API.
func New(opts providers.ClientOptions, logger *slog.Logger) *Provider {
	return NewWithBaseURL(defaultBaseURL, opts, logger)
}

// NewWithBaseURL creates an OpenTable provider against the given base URL.
func NewWithBaseURL(baseURL string, opts providers.ClientOptions, logger *slog.Logger) *Provider {
	return &Provider{
		Base:    providers.NewBase(Config, opts, logger),
		baseURL: baseURL,
	}
}

// Authenticate checks the token by fetching the restaurant record.
func (p *Provider) Authenticate(ctx context.Context, creds providers.Credentials) (bool, error) {
	if !p.ValidateCredentials(creds) {
		return false, nil
	}
	endpoint := fmt.Sprintf("%s/sync/listings/%s", p.baseURL, creds.Get(providers.CredRestaurantID))
	return p.Client().Ping(ctx, endpoint, creds)
}

// TestConnection reports whether the credentials work, never propagating
// errors.
func (p *Provider) TestConnection(ctx context.Context, creds providers.Credentials) bool {
	return p.TestConnectionWith(ctx, creds, p.Authenticate)
}

// opentableReservation is the relevant slice of OpenTable's payload.
type opentableReservation struct {
	ConfirmationNumber string   `json:"confirmation_number"`
	Status             string   `json:"status"`
	UTCDateTime        string   `json:"utc_date_time"`
	PartySize          int      `json:"party_size"`
	FirstName          string   `json:"first_name"`
	LastName           string   `json:"last_name"`
	Email              string   `json:"email"`
	PhoneNumber        string   `json:"phone_number"`
	SpecialRequests    string   `json:"special_requests"`
	TableIDs           []string `json:"table_ids"`
}

type opentableReservationList struct {
	Reservations []opentableReservation `json:"reservations"`
}

// FetchReservations pulls bookings in the window and normalizes them.
func (p *Provider) FetchReservations(ctx context.Context, restaurantID string, creds providers.Credentials, opts providers.FetchOptions) ([]providers.Reservation, error) {
	start, end := opts.Window(defaultLookback)

	q := url.Values{}
	q.Set("start_date_time", start.UTC().Format(time.RFC3339))
	q.Set("end_date_time", end.UTC().Format(time.RFC3339))
	endpoint := fmt.Sprintf("%s/sync/listings/%s/reservations?%s", p.baseURL, creds.Get(providers.CredRestaurantID), q.Encode())

	var raw opentableReservationList
	if err := p.Client().GetJSON(ctx, endpoint, creds, &raw); err != nil {
		return nil, fmt.Errorf("fetch opentable reservations: %w", err)
	}

	reservations := make([]providers.Reservation, 0, len(raw.Reservations))
	for _, r := range raw.Reservations {
		reservations = append(reservations, p.normalize(restaurantID, r))
	}

	p.Logger().Info("fetched reservations",
		slog.Int("count", len(reservations)),
		slog.Time("start", start),
		slog.Time("end", end),
	)
	return reservations, nil
}

func (p *Provider) normalize(restaurantID string, r opentableReservation) providers.Reservation {
	res := providers.Reservation{
		ID:              r.ConfirmationNumber,
		RestaurantID:    restaurantID,
		Platform:        "opentable",
		CustomerName:    customerName(r.FirstName, r.LastName),
		CustomerEmail:   valueOr(r.Email, "N/A"),
		CustomerPhone:   valueOr(r.PhoneNumber, "N/A"),
		PartySize:       r.PartySize,
		Status:          normalizeStatus(r.Status),
		SpecialRequests: r.SpecialRequests,
	}
	if len(r.TableIDs) > 0 {
		res.TableID = r.TableIDs[0]
	}
	if ts, err := time.Parse(time.RFC3339, r.UTCDateTime); err == nil {
		res.DateTime = ts
	}
	return res
}

func normalizeStatus(status string) string {
	switch status {
	case "CONFIRMED", "BOOKED":
		return providers.ReservationConfirmed
	case "PENDING":
		return providers.ReservationPending
	case "CANCELED", "CANCELLED":
		return providers.ReservationCancelled
	case "SEATED", "PARTIALLY_SEATED":
		return providers.ReservationSeated
	case "NO_SHOW", "NOSHOW":
		return providers.ReservationNoShow
	default:
		return providers.ReservationPending
	}
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

// GetAnalytics fetches the window and runs the shared reservation
// aggregation.
func (p *Provider) GetAnalytics(ctx context.Context, restaurantID string, creds providers.Credentials, opts providers.FetchOptions) (*analytics.ReservationAnalytics, error) {
	reservations, err := p.FetchReservations(ctx, restaurantID, creds, opts)
	if err != nil {
		return nil, err
	}
	return providers.AggregateReservations(reservations, opts.TZ()), nil
}
