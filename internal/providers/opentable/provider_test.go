package opentable

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablecraft/integration-hub/internal/providers"
)

var _ providers.ReservationProvider = (*Provider)(nil)

const reservationsPayload = `{
	"reservations": [
		{
			"confirmation_number": "OT-1",
			"status": "BOOKED",
			"utc_date_time": "2025-06-01T19:00:00Z",
			"party_size": 4,
			"first_name": "Dana",
			"last_name": "Reyes",
			"email": "dana@example.com",
			"phone_number": "555-0101",
			"table_ids": ["T12", "T13"]
		},
		{
			"confirmation_number": "OT-2",
			"status": "NO_SHOW",
			"utc_date_time": "2025-06-01T20:30:00Z",
			"party_size": 2
		},
		{
			"confirmation_number": "OT-3",
			"status": "WAITLISTED",
			"utc_date_time": "not-a-time",
			"party_size": 6,
			"first_name": "Sam"
		}
	]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/sync/listings/rest-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"rid":"rest-1"}`))
	})
	mux.HandleFunc("/sync/listings/rest-1/reservations", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(reservationsPayload))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func validCreds() providers.Credentials {
	return providers.Credentials{
		providers.CredAccessToken:  "good-token",
		providers.CredRestaurantID: "rest-1",
	}
}

func TestConfig(t *testing.T) {
	assert.Equal(t, "opentable", Config.Name)
	assert.Equal(t, providers.TypeReservation, Config.Type)
	assert.Equal(t, providers.AuthOAuth2, Config.AuthType)
	assert.False(t, Config.WebhookSupport)
}

func TestAuthenticate(t *testing.T) {
	server := newTestServer(t)
	provider := NewWithBaseURL(server.URL, providers.ClientOptions{}, nil)

	t.Run("valid token", func(t *testing.T) {
		ok, err := provider.Authenticate(context.Background(), validCreds())
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejected token", func(t *testing.T) {
		creds := providers.Credentials{
			providers.CredAccessToken:  "bad-token",
			providers.CredRestaurantID: "rest-1",
		}
		ok, err := provider.Authenticate(context.Background(), creds)
		assert.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("missing credentials short-circuit", func(t *testing.T) {
		ok, err := provider.Authenticate(context.Background(), providers.Credentials{})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestFetchReservations(t *testing.T) {
	server := newTestServer(t)
	provider := NewWithBaseURL(server.URL, providers.ClientOptions{}, nil)

	reservations, err := provider.FetchReservations(context.Background(), "rest-1", validCreds(), providers.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, reservations, 3)

	booked := reservations[0]
	assert.Equal(t, "OT-1", booked.ID)
	assert.Equal(t, "opentable", booked.Platform)
	assert.Equal(t, providers.ReservationConfirmed, booked.Status)
	assert.Equal(t, "Dana Reyes", booked.CustomerName)
	assert.Equal(t, 4, booked.PartySize)
	assert.Equal(t, "T12", booked.TableID) // first assigned table wins
	assert.Equal(t, 19, booked.DateTime.UTC().Hour())

	noShow := reservations[1]
	assert.Equal(t, providers.ReservationNoShow, noShow.Status)
	assert.Equal(t, "N/A", noShow.CustomerName)
	assert.Equal(t, "N/A", noShow.CustomerEmail)

	waitlisted := reservations[2]
	assert.Equal(t, providers.ReservationPending, waitlisted.Status) // unknown statuses fold to pending
	assert.Equal(t, "Sam", waitlisted.CustomerName)
	assert.True(t, waitlisted.DateTime.IsZero()) // unparseable timestamp
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, providers.ReservationConfirmed, normalizeStatus("CONFIRMED"))
	assert.Equal(t, providers.ReservationConfirmed, normalizeStatus("BOOKED"))
	assert.Equal(t, providers.ReservationCancelled, normalizeStatus("CANCELLED"))
	assert.Equal(t, providers.ReservationCancelled, normalizeStatus("CANCELED"))
	assert.Equal(t, providers.ReservationSeated, normalizeStatus("PARTIALLY_SEATED"))
	assert.Equal(t, providers.ReservationNoShow, normalizeStatus("NOSHOW"))
	assert.Equal(t, providers.ReservationPending, normalizeStatus("SOMETHING_NEW"))
}

func TestGetAnalytics(t *testing.T) {
	server := newTestServer(t)
	provider := NewWithBaseURL(server.URL, providers.ClientOptions{}, nil)

	summary, err := provider.GetAnalytics(context.Background(), "rest-1", validCreds(), providers.FetchOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalReservations)
	assert.Equal(t, 1, summary.ConfirmedReservations)
	assert.Equal(t, 1, summary.NoShows)
	assert.InDelta(t, 4.0, summary.AveragePartySize, 1e-9)
}
