package toast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablecraft/integration-hub/internal/providers"
)

func TestProvider_Interface(t *testing.T) {
	// Ensure Provider implements the POS and token-refresh interfaces
	var _ providers.POSProvider = (*Provider)(nil)
	var _ providers.TokenRefresher = (*Provider)(nil)
}

func TestProvider_Config(t *testing.T) {
	provider := New(providers.ClientOptions{}, nil)

	cfg := provider.Config()
	assert.Equal(t, "toast", cfg.Name)
	assert.Equal(t, providers.TypePOS, cfg.Type)
	assert.Equal(t, providers.AuthOAuth2, cfg.AuthType)
	assert.ElementsMatch(t, []string{providers.CredAccessToken, providers.CredRestaurantID}, cfg.RequiredCredentials)
}

func validCreds() providers.Credentials {
	return providers.Credentials{
		providers.CredAccessToken:  "tok-1",
		providers.CredRestaurantID: "rest-9",
	}
}

const ordersPayload = `[
	{
		"guid": "order-1",
		"paidDate": "2025-06-01T12:15:00Z",
		"diningOption": {"behavior": "DINE_IN"},
		"table": {"name": "12"},
		"checks": [
			{
				"amount": 20.00,
				"payments": [{"type": "CREDIT"}],
				"selections": [
					{"displayName": "Burger", "quantity": 2, "price": 10.00, "itemGroup": {"name": "Entrees"}}
				]
			}
		]
	},
	{
		"guid": "order-2",
		"paidDate": "2025-06-01T19:40:00Z",
		"diningOption": {"behavior": "TAKE_OUT"},
		"checks": [
			{
				"amount": 15.50,
				"payments": [{"type": "CASH"}],
				"selections": [
					{"displayName": "Salad", "quantity": 1, "price": 15.50, "itemGroup": {"name": "Entrees"}}
				]
			}
		]
	}
]`

func newTestServer(t *testing.T, ordersStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/restaurants/v1/restaurants/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"guid":"rest-9"}`))
	})
	mux.HandleFunc("/orders/v2/ordersBulk", func(w http.ResponseWriter, r *http.Request) {
		if ordersStatus != http.StatusOK {
			w.WriteHeader(ordersStatus)
			return
		}
		assert.NotEmpty(t, r.URL.Query().Get("startDate"))
		assert.NotEmpty(t, r.URL.Query().Get("endDate"))
		_, _ = w.Write([]byte(ordersPayload))
	})
	return httptest.NewServer(mux)
}

func TestProvider_Authenticate(t *testing.T) {
	server := newTestServer(t, http.StatusOK)
	defer server.Close()

	provider := NewWithBaseURL(server.URL, providers.ClientOptions{}, nil)

	t.Run("valid credentials", func(t *testing.T) {
		ok, err := provider.Authenticate(context.Background(), validCreds())
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejected token", func(t *testing.T) {
		creds := validCreds()
		creds[providers.CredAccessToken] = "wrong"
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

func TestProvider_TestConnection_NeverPropagates(t *testing.T) {
	server := newTestServer(t, http.StatusOK)
	defer server.Close()

	provider := NewWithBaseURL(server.URL, providers.ClientOptions{}, nil)

	assert.True(t, provider.TestConnection(context.Background(), validCreds()))

	creds := validCreds()
	creds[providers.CredAccessToken] = "wrong"
	assert.False(t, provider.TestConnection(context.Background(), creds))

	// Unreachable host folds to false as well.
	dead := NewWithBaseURL("http://127.0.0.1:1", providers.ClientOptions{RetryMax: -1}, nil)
	assert.False(t, dead.TestConnection(context.Background(), validCreds()))
}

func TestProvider_FetchTransactions(t *testing.T) {
	server := newTestServer(t, http.StatusOK)
	defer server.Close()

	provider := NewWithBaseURL(server.URL, providers.ClientOptions{}, nil)

	transactions, err := provider.FetchTransactions(context.Background(), "rest-9", validCreds(), providers.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	first := transactions[0]
	assert.Equal(t, "order-1", first.ID)
	assert.Equal(t, "rest-9", first.RestaurantID)
	assert.Equal(t, "toast", first.Platform)
	assert.InDelta(t, 20.00, first.Amount, 1e-9)
	assert.Equal(t, "CREDIT", first.PaymentMethod)
	assert.Equal(t, "dine_in", first.OrderType)
	assert.Equal(t, "12", first.TableNumber)
	require.Len(t, first.Items, 1)
	assert.Equal(t, "Burger", first.Items[0].Name)
	assert.Equal(t, "Entrees", first.Items[0].Category)

	assert.Equal(t, "takeout", transactions[1].OrderType)
}

func TestProvider_FetchTransactions_UpstreamFailure(t *testing.T) {
	server := newTestServer(t, http.StatusBadRequest)
	defer server.Close()

	provider := NewWithBaseURL(server.URL, providers.ClientOptions{}, nil)

	transactions, err := provider.FetchTransactions(context.Background(), "rest-9", validCreds(), providers.FetchOptions{})
	require.Error(t, err)
	assert.Nil(t, transactions)

	var statusErr *providers.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
}

func TestProvider_GetAnalytics(t *testing.T) {
	server := newTestServer(t, http.StatusOK)
	defer server.Close()

	provider := NewWithBaseURL(server.URL, providers.ClientOptions{}, nil)

	summary, err := provider.GetAnalytics(context.Background(), "rest-9", validCreds(), providers.FetchOptions{})
	require.NoError(t, err)

	assert.InDelta(t, 35.50, summary.TotalSales, 1e-9)
	assert.Equal(t, 2, summary.TotalTransactions)
	assert.InDelta(t, 17.75, summary.AverageTicket, 1e-9)

	require.Len(t, summary.SalesByHour, 2)
	assert.Equal(t, 12, summary.SalesByHour[0].Hour)
	assert.InDelta(t, 20.00, summary.SalesByHour[0].Amount, 1e-9)
	assert.Equal(t, 19, summary.SalesByHour[1].Hour)
	assert.InDelta(t, 15.50, summary.SalesByHour[1].Amount, 1e-9)
}

func TestProvider_GetAnalytics_LocalTimezone(t *testing.T) {
	server := newTestServer(t, http.StatusOK)
	defer server.Close()

	provider := NewWithBaseURL(server.URL, providers.ClientOptions{}, nil)

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	summary, err := provider.GetAnalytics(context.Background(), "rest-9", validCreds(), providers.FetchOptions{Location: ny})
	require.NoError(t, err)

	// 12:15Z and 19:40Z are 08:15 and 15:40 in New York (EDT).
	require.Len(t, summary.SalesByHour, 2)
	assert.Equal(t, 8, summary.SalesByHour[0].Hour)
	assert.Equal(t, 15, summary.SalesByHour[1].Hour)
}

func TestProvider_ClientOptions(t *testing.T) {
	t.Run("retry budget reaches the client", func(t *testing.T) {
		var hits int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		provider := NewWithBaseURL(server.URL, providers.ClientOptions{RetryMax: 1}, nil)
		_, err := provider.FetchTransactions(context.Background(), "rest-9", validCreds(), providers.FetchOptions{})
		require.Error(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	})

	t.Run("negative retry budget disables retries", func(t *testing.T) {
		var hits int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		provider := NewWithBaseURL(server.URL, providers.ClientOptions{RetryMax: -1}, nil)
		_, err := provider.FetchTransactions(context.Background(), "rest-9", validCreds(), providers.FetchOptions{})
		require.Error(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	})

	t.Run("timeout bounds a stalled upstream", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer server.Close()
		defer close(release)

		provider := NewWithBaseURL(server.URL, providers.ClientOptions{Timeout: 50 * time.Millisecond, RetryMax: -1}, nil)
		start := time.Now()
		_, err := provider.FetchTransactions(context.Background(), "rest-9", validCreds(), providers.FetchOptions{})
		require.Error(t, err)
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}

func TestProvider_RefreshToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/authentication/v1/authentication/token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{"access_token":"new-tok","refresh_token":"new-refresh","expires_in":3600}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	provider := NewWithBaseURL(server.URL, providers.ClientOptions{}, nil)

	pair, err := provider.RefreshToken(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "new-tok", pair.AccessToken)
	assert.Equal(t, "new-refresh", pair.RefreshToken)
	assert.Equal(t, 3600, pair.ExpiresIn)
}
