// Package resy integrates the Resy reservation platform.
package resy

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/tablecraft/integration-hub/internal/analytics"
	"github.com/tablecraft/integration-hub/internal/providers"
)

const defaultBaseURL = "https://api.resy.com"

const defaultLookback = 7 * 24 * time.Hour

// Config is the static Resy descriptor.
var Config = providers.IntegrationConfig{
	Name:                "resy",
	DisplayName:         "Resy",
	Type:                providers.TypeReservation,
	AuthType:            providers.AuthAPIKey,
	RequiredCredentials: []string{providers.CredAPIKey, providers.CredVenueID},
	WebhookSupport:      false,
	RateLimits:          &providers.RateLimits{RequestsPerMinute: 30, RequestsPerHour: 600},
}

// Provider implements the ReservationProvider interface for Resy.
type Provider struct {
	providers.Base
	baseURL string
}

var _ providers.ReservationProvider = (*Provider)(nil)

// New creates a Resy provider against the production API.
func New(opts providers.ClientOptions, logger *slog.Logger) *Provider {
	return NewWithBaseURL(defaultBaseURL, opts, logger)
}

// NewWithBaseURL creates a Resy provider against the given base URL.
func NewWithBaseURL(baseURL string, opts providers.ClientOptions, logger *slog.Logger) *Provider {
	return &Provider{
		Base:    providers.NewBase(Config, opts, logger),
		baseURL: baseURL,
	}
}

// Authenticate checks the API key by fetching the venue record.
func (p *Provider) Authenticate(ctx context.Context, creds providers.Credentials) (bool, error) {
	if !p.ValidateCredentials(creds) {
		return false, nil
	}
	endpoint := fmt.Sprintf("%s/3/venues/%s", p.baseURL, creds.Get(providers.CredVenueID))
	return p.Client().Ping(ctx, endpoint, creds)
}

// TestConnection reports whether the credentials work, never propagating
// errors.
func (p *Provider) TestConnection(ctx context.Context, creds providers.Credentials) bool {
	return p.TestConnectionWith(ctx, creds, p.Authenticate)
}

// resyReservation is the relevant slice of Resy's payload.
type resyReservation struct {
	ResyToken string `json:"resy_token"`
	Status    string `json:"status"`
	Day       string `json:"day"`       // 2006-01-02
	TimeSlot  string `json:"time_slot"` // 15:04:05
	NumSeats  int    `json:"num_seats"`
	Guest     struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"em_address"`
		Phone     string `json:"mobile_number"`
	} `json:"guest"`
	Notes   string `json:"notes"`
	TableID string `json:"table_id"`
}

type resyReservationList struct {
	Reservations []resyReservation `json:"reservations"`
}

// FetchReservations pulls bookings in the window and normalizes them.
func (p *Provider) FetchReservations(ctx context.Context, restaurantID string, creds providers.Credentials, opts providers.FetchOptions) ([]providers.Reservation, error) {
	start, end := opts.Window(defaultLookback)

	q := url.Values{}
	q.Set("venue_id", creds.Get(providers.CredVenueID))
	q.Set("start_date", start.UTC().Format("2006-01-02"))
	q.Set("end_date", end.UTC().Format("2006-01-02"))
	endpoint := fmt.Sprintf("%s/3/reservations?%s", p.baseURL, q.Encode())

	var raw resyReservationList
	if err := p.Client().GetJSON(ctx, endpoint, creds, &raw); err != nil {
		return nil, fmt.Errorf("fetch resy reservations: %w", err)
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

func (p *Provider) normalize(restaurantID string, r resyReservation) providers.Reservation {
	res := providers.Reservation{
		ID:              r.ResyToken,
		RestaurantID:    restaurantID,
		Platform:        "resy",
		CustomerName:    customerName(r.Guest.FirstName, r.Guest.LastName),
		CustomerEmail:   valueOr(r.Guest.Email, "N/A"),
		CustomerPhone:   valueOr(r.Guest.Phone, "N/A"),
		PartySize:       r.NumSeats,
		Status:          normalizeStatus(r.Status),
		SpecialRequests: r.Notes,
		TableID:         r.TableID,
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", r.Day+" "+r.TimeSlot); err == nil {
		res.DateTime = ts.UTC()
	}
	return res
}

func normalizeStatus(status string) string {
	switch status {
	case "booked", "confirmed":
		return providers.ReservationConfirmed
	case "pending":
		return providers.ReservationPending
	case "cancelled", "canceled":
		return providers.ReservationCancelled
	case "seated", "done":
		return providers.ReservationSeated
	case "no_show":
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
