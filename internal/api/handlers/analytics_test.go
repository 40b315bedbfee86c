package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablecraft/integration-hub/internal/analytics"
	"github.com/tablecraft/integration-hub/internal/api/dto"
	"github.com/tablecraft/integration-hub/internal/api/handlers"
	"github.com/tablecraft/integration-hub/internal/application/service"
	"github.com/tablecraft/integration-hub/internal/providers"
)

func analyticsBody(t *testing.T, restaurantID string, creds map[string]string) string {
	t.Helper()
	body, err := json.Marshal(dto.AnalyticsRequest{
		RestaurantID: restaurantID,
		Credentials:  creds,
	})
	require.NoError(t, err)
	return string(body)
}

func newAnalyticsRequest(t *testing.T, name, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/analytics/"+name, strings.NewReader(body))
	return req.WithContext(setChiURLParam(req.Context(), "name", name))
}

func TestAnalyticsHandler_Get(t *testing.T) {
	server := newToastServer(t)

	t.Run("returns the aggregated summary", func(t *testing.T) {
		registry := newToastRegistry(t, server.URL)
		handler := handlers.NewAnalyticsHandler(registry, service.NewPullService(registry, nil, nil))

		rec := httptest.NewRecorder()
		handler.Get(rec, newAnalyticsRequest(t, "toast", analyticsBody(t, "rest-1", goodToastCredentials())))

		assert.Equal(t, http.StatusOK, rec.Code)

		var summary analytics.POSAnalytics
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
		assert.InDelta(t, 20.00, summary.TotalSales, 1e-9)
		assert.Equal(t, 1, summary.TotalTransactions)
		require.Len(t, summary.TopItems, 1)
		assert.Equal(t, "Burger", summary.TopItems[0].Name)
	})

	t.Run("upstream auth failure is a 401 not an empty summary", func(t *testing.T) {
		registry := newToastRegistry(t, server.URL)
		handler := handlers.NewAnalyticsHandler(registry, service.NewPullService(registry, nil, nil))

		creds := map[string]string{"accessToken": "bad-token", "restaurantId": "rest-1"}
		rec := httptest.NewRecorder()
		handler.Get(rec, newAnalyticsRequest(t, "toast", analyticsBody(t, "rest-1", creds)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var apiErr dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
		assert.Equal(t, dto.ErrCodeUpstream, apiErr.Code)
	})

	t.Run("unknown provider is a 404", func(t *testing.T) {
		registry := newToastRegistry(t, server.URL)
		handler := handlers.NewAnalyticsHandler(registry, service.NewPullService(registry, nil, nil))

		rec := httptest.NewRecorder()
		handler.Get(rec, newAnalyticsRequest(t, "square", analyticsBody(t, "rest-1", goodToastCredentials())))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid timezone is a 400", func(t *testing.T) {
		registry := newToastRegistry(t, server.URL)
		handler := handlers.NewAnalyticsHandler(registry, service.NewPullService(registry, nil, nil))

		body := `{"restaurant_id":"rest-1","credentials":{"accessToken":"good-token","restaurantId":"rest-1"},"timezone":"Mars/Olympus"}`
		rec := httptest.NewRecorder()
		handler.Get(rec, newAnalyticsRequest(t, "toast", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing restaurant_id is a 400", func(t *testing.T) {
		registry := newToastRegistry(t, server.URL)
		handler := handlers.NewAnalyticsHandler(registry, service.NewPullService(registry, nil, nil))

		rec := httptest.NewRecorder()
		handler.Get(rec, newAnalyticsRequest(t, "toast", analyticsBody(t, "", goodToastCredentials())))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAnalyticsHandler_Pull(t *testing.T) {
	server := newToastServer(t)

	t.Run("returns per-provider results", func(t *testing.T) {
		registry := newToastRegistry(t, server.URL)
		handler := handlers.NewAnalyticsHandler(registry, service.NewPullService(registry, nil, nil))

		body, err := json.Marshal(dto.PullRequest{
			RestaurantID: "rest-1",
			Credentials:  map[string]map[string]string{"toast": goodToastCredentials()},
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/pull", strings.NewReader(string(body)))
		rec := httptest.NewRecorder()

		handler.Pull(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var report service.PullReport
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
		assert.Equal(t, "rest-1", report.RestaurantID)
		require.Len(t, report.Results, 1)
		assert.Equal(t, "toast", report.Results[0].Provider)
		assert.Equal(t, providers.TypePOS, report.Results[0].Type)
		require.NotNil(t, report.Results[0].POS)
		assert.InDelta(t, 20.00, report.Results[0].POS.TotalSales, 1e-9)
	})

	t.Run("missing restaurant_id is a 400", func(t *testing.T) {
		registry := newToastRegistry(t, server.URL)
		handler := handlers.NewAnalyticsHandler(registry, service.NewPullService(registry, nil, nil))

		req := httptest.NewRequest(http.MethodPost, "/api/pull", strings.NewReader(`{"credentials":{}}`))
		rec := httptest.NewRecorder()

		handler.Pull(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid start time is a 400", func(t *testing.T) {
		registry := newToastRegistry(t, server.URL)
		handler := handlers.NewAnalyticsHandler(registry, service.NewPullService(registry, nil, nil))

		body := `{"restaurant_id":"rest-1","start":"yesterday"}`
		req := httptest.NewRequest(http.MethodPost, "/api/pull", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.Pull(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
