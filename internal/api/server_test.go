package api_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablecraft/integration-hub/internal/api"
	"github.com/tablecraft/integration-hub/internal/api/dto"
	"github.com/tablecraft/integration-hub/internal/application/service"
	"github.com/tablecraft/integration-hub/internal/infrastructure/storage"
	"github.com/tablecraft/integration-hub/internal/providers"
	"github.com/tablecraft/integration-hub/internal/providers/doordash"
	"github.com/tablecraft/integration-hub/internal/providers/toast"
)

func newTestServer(t *testing.T) (*api.Server, *storage.MockRepository) {
	t.Helper()

	registry := providers.NewRegistry(nil)
	require.NoError(t, registry.Register(toast.New(providers.ClientOptions{}, nil)))
	require.NoError(t, registry.Register(doordash.New(providers.ClientOptions{}, nil)))

	repo := storage.NewMockRepository()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	pulls := service.NewPullService(registry, repo, logger)
	server := api.NewServer(api.DefaultConfig(), registry, repo, pulls, logger)
	return server, repo
}

func TestServer_HealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "integration-hub", response.Service)
	assert.Equal(t, 2, response.Providers)
}

func TestServer_ProvidersEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/providers", nil)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.ProviderListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	require.Equal(t, 2, response.Count)
	// Catalog comes back sorted by name.
	assert.Equal(t, "doordash", response.Providers[0].Name)
	assert.Equal(t, "toast", response.Providers[1].Name)
}

func TestServer_ConnectionsEndpoints(t *testing.T) {
	t.Run("GET /api/connections lists by restaurant", func(t *testing.T) {
		server, repo := newTestServer(t)
		require.NoError(t, repo.SaveConnection(&storage.Connection{
			ID: "c-1", RestaurantID: "rest-1", Provider: "toast", Type: "pos",
			Status: storage.StatusConnected,
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/connections?restaurant_id=rest-1", nil)
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.ConnectionListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 1, response.Count)
	})

	t.Run("DELETE /api/connections/:id returns 404 for missing connection", func(t *testing.T) {
		server, _ := newTestServer(t)

		req := httptest.NewRequest(http.MethodDelete, "/api/connections/missing", nil)
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_AnalyticsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/analytics/square", nil)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_WebhooksEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	// No secret configured for doordash, so any event is rejected.
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/doordash", nil)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_CORS(t *testing.T) {
	server, _ := newTestServer(t)

	t.Run("sets CORS headers for allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("handles OPTIONS preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/providers", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
