package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tablecraft/integration-hub/internal/api/dto"
	"github.com/tablecraft/integration-hub/internal/application/service"
	"github.com/tablecraft/integration-hub/internal/providers"
)

// AnalyticsHandler serves per-provider analytics and multi-provider pulls.
type AnalyticsHandler struct {
	Base
	registry *providers.Registry
	pulls    *service.PullService
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(registry *providers.Registry, pulls *service.PullService) *AnalyticsHandler {
	return &AnalyticsHandler{registry: registry, pulls: pulls}
}

// Get handles POST /api/analytics/{name} - fetches the provider's records
// for the window and returns the aggregated summary. A failed upstream
// fetch is an explicit 502, never a silent empty summary.
func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	provider, err := h.registry.Get(name)
	if err != nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("provider "+name))
		return
	}

	var req dto.AnalyticsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}
	if req.RestaurantID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("restaurant_id is required"))
		return
	}

	opts, err := fetchOptions(req.Start, req.End, req.Timezone)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	creds := providers.Credentials(req.Credentials)
	if !provider.ValidateCredentials(creds) {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("missing required credentials"))
		return
	}

	var summary any
	switch p := provider.(type) {
	case providers.POSProvider:
		summary, err = p.GetAnalytics(r.Context(), req.RestaurantID, creds, opts)
	case providers.DeliveryProvider:
		summary, err = p.GetAnalytics(r.Context(), req.RestaurantID, creds, opts)
	case providers.ReservationProvider:
		summary, err = p.GetAnalytics(r.Context(), req.RestaurantID, creds, opts)
	default:
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("provider supports no analytics domain"))
		return
	}
	if err != nil {
		status := http.StatusBadGateway
		var statusErr *providers.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
			status = http.StatusUnauthorized
		}
		h.WriteError(w, status, dto.UpstreamError(err.Error()))
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

// Pull handles POST /api/pull - fans a pull out across providers and
// returns per-provider results, errors included.
func (h *AnalyticsHandler) Pull(w http.ResponseWriter, r *http.Request) {
	var req dto.PullRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	start, err := ParseTimeParam(req.Start)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid start time"))
		return
	}
	end, err := ParseTimeParam(req.End)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid end time"))
		return
	}

	creds := make(map[string]providers.Credentials, len(req.Credentials))
	for name, c := range req.Credentials {
		creds[name] = providers.Credentials(c)
	}

	report, err := h.pulls.Pull(r.Context(), service.PullRequest{
		RestaurantID: req.RestaurantID,
		Credentials:  creds,
		Providers:    req.Providers,
		Start:        start,
		End:          end,
		Timezone:     req.Timezone,
	})
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	h.WriteJSON(w, http.StatusOK, report)
}

func fetchOptions(start, end, timezone string) (providers.FetchOptions, error) {
	var opts providers.FetchOptions
	var err error
	if opts.Start, err = ParseTimeParam(start); err != nil {
		return opts, errors.New("invalid start time")
	}
	if opts.End, err = ParseTimeParam(end); err != nil {
		return opts, errors.New("invalid end time")
	}
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return opts, errors.New("invalid timezone")
		}
		opts.Location = loc
	}
	return opts, nil
}
