package handlers_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablecraft/integration-hub/internal/api/dto"
	"github.com/tablecraft/integration-hub/internal/api/handlers"
	"github.com/tablecraft/integration-hub/internal/infrastructure/storage"
	"github.com/tablecraft/integration-hub/internal/providers"
	"github.com/tablecraft/integration-hub/internal/providers/doordash"
	"github.com/tablecraft/integration-hub/internal/providers/toast"
)

const webhookSecret = "test-secret"

func sign(t *testing.T, payload, secret string) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func newWebhooksHandler(t *testing.T, repo storage.Repository) *handlers.WebhooksHandler {
	t.Helper()
	registry := providers.NewRegistry(nil)
	require.NoError(t, registry.Register(doordash.New(providers.ClientOptions{}, nil)))
	require.NoError(t, registry.Register(toast.New(providers.ClientOptions{}, nil)))
	secrets := map[string]string{"doordash": webhookSecret}
	return handlers.NewWebhooksHandler(registry, repo, secrets, nil)
}

func newWebhookRequest(t *testing.T, name, payload, signature string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/"+name, strings.NewReader(payload))
	if signature != "" {
		req.Header.Set("X-Webhook-Signature", signature)
	}
	return req.WithContext(setChiURLParam(req.Context(), "name", name))
}

func TestWebhooksHandler_Receive(t *testing.T) {
	payload := `{"event_type":"order.created","order":{"id":"dd-1"}}`

	t.Run("accepts a correctly signed event", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := newWebhooksHandler(t, repo)

		rec := httptest.NewRecorder()
		handler.Receive(rec, newWebhookRequest(t, "doordash", payload, sign(t, payload, webhookSecret)))

		assert.Equal(t, http.StatusOK, rec.Code)

		var ack dto.WebhookAckResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&ack))
		assert.True(t, ack.Accepted)
		assert.Equal(t, "doordash", ack.Provider)
		assert.NotEmpty(t, ack.EventID)

		events, err := repo.ListWebhookEvents("doordash", 10)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.True(t, events[0].Verified)
		assert.Equal(t, "order.created", events[0].EventType)
	})

	t.Run("rejects a bad signature but still records the event", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := newWebhooksHandler(t, repo)

		rec := httptest.NewRecorder()
		handler.Receive(rec, newWebhookRequest(t, "doordash", payload, sign(t, payload, "wrong-secret")))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		events, err := repo.ListWebhookEvents("doordash", 10)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.False(t, events[0].Verified)
	})

	t.Run("rejects a missing signature", func(t *testing.T) {
		handler := newWebhooksHandler(t, storage.NewMockRepository())

		rec := httptest.NewRecorder()
		handler.Receive(rec, newWebhookRequest(t, "doordash", payload, ""))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects events for providers with no configured secret", func(t *testing.T) {
		registry := providers.NewRegistry(nil)
		require.NoError(t, registry.Register(doordash.New(providers.ClientOptions{}, nil)))
		handler := handlers.NewWebhooksHandler(registry, storage.NewMockRepository(), nil, nil)

		rec := httptest.NewRecorder()
		handler.Receive(rec, newWebhookRequest(t, "doordash", payload, sign(t, payload, webhookSecret)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown provider is a 404", func(t *testing.T) {
		handler := newWebhooksHandler(t, storage.NewMockRepository())

		rec := httptest.NewRecorder()
		handler.Receive(rec, newWebhookRequest(t, "square", payload, ""))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("provider without webhook support is a 400", func(t *testing.T) {
		handler := newWebhooksHandler(t, storage.NewMockRepository())

		rec := httptest.NewRecorder()
		handler.Receive(rec, newWebhookRequest(t, "toast", payload, ""))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("works without a repository", func(t *testing.T) {
		handler := newWebhooksHandler(t, nil)

		rec := httptest.NewRecorder()
		handler.Receive(rec, newWebhookRequest(t, "doordash", payload, sign(t, payload, webhookSecret)))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
