package clover

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablecraft/integration-hub/internal/providers"
)

func TestProvider_Interface(t *testing.T) {
	var _ providers.POSProvider = (*Provider)(nil)
}

func TestProvider_Config(t *testing.T) {
	provider := New(providers.ClientOptions{}, nil)

	cfg := provider.Config()
	assert.Equal(t, "clover", cfg.Name)
	assert.Equal(t, providers.TypePOS, cfg.Type)
	assert.Equal(t, providers.AuthAPIKey, cfg.AuthType)
}

func validCreds() providers.Credentials {
	return providers.Credentials{
		providers.CredAPIKey:     "key-1",
		providers.CredMerchantID: "m-77",
	}
}

const ordersPayload = `{
	"elements": [
		{
			"id": "clv-1",
			"total": 1850,
			"createdTime": 1748779200000,
			"employee": {"id": "emp-3"},
			"orderType": {"label": "To Go"},
			"payments": {"elements": [{"tender": {"label": "Credit Card"}}]},
			"lineItems": {"elements": [
				{"name": "Latte", "price": 450, "unitQty": 2, "category": {"name": "Drinks"}},
				{"name": "Croissant", "price": 950, "unitQty": 0}
			]}
		}
	]
}`

func TestProvider_FetchTransactions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/merchants/m-77/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.URL.Query()["filter"])
		_, _ = w.Write([]byte(ordersPayload))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	provider := NewWithBaseURL(server.URL, providers.ClientOptions{}, nil)

	transactions, err := provider.FetchTransactions(context.Background(), "rest-9", validCreds(), providers.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, transactions, 1)

	tx := transactions[0]
	assert.Equal(t, "clv-1", tx.ID)
	assert.Equal(t, "clover", tx.Platform)
	assert.InDelta(t, 18.50, tx.Amount, 1e-9) // cents to dollars
	assert.Equal(t, "Credit Card", tx.PaymentMethod)
	assert.Equal(t, "takeout", tx.OrderType)
	assert.Equal(t, "emp-3", tx.EmployeeID)
	assert.Equal(t, time.UnixMilli(1748779200000), tx.Timestamp)

	require.Len(t, tx.Items, 2)
	assert.Equal(t, 2, tx.Items[0].Quantity)
	assert.InDelta(t, 4.50, tx.Items[0].Price, 1e-9)
	assert.Equal(t, "Drinks", tx.Items[0].Category)
	// Missing unitQty defaults to 1.
	assert.Equal(t, 1, tx.Items[1].Quantity)
}

func TestProvider_Authenticate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/merchants/m-77", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"m-77"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	provider := NewWithBaseURL(server.URL, providers.ClientOptions{}, nil)

	ok, err := provider.Authenticate(context.Background(), validCreds())
	require.NoError(t, err)
	assert.True(t, ok)

	creds := validCreds()
	creds[providers.CredAPIKey] = "wrong"
	ok, err = provider.Authenticate(context.Background(), creds)
	assert.Error(t, err)
	assert.False(t, ok)
}
