// Package service orchestrates multi-provider operations on behalf of the
// API layer.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tablecraft/integration-hub/internal/analytics"
	"github.com/tablecraft/integration-hub/internal/infrastructure/storage"
	"github.com/tablecraft/integration-hub/internal/providers"
)

// PullRequest asks for fresh analytics from a set of providers. Credentials
// are keyed by provider name; providers without credentials are skipped.
type PullRequest struct {
	RestaurantID string
	Credentials  map[string]providers.Credentials
	Providers    []string // empty means every provider with credentials
	Start        time.Time
	End          time.Time
	Timezone     string // IANA name; empty means UTC
}

// PullResult is one provider's outcome within a pull. Exactly one of the
// summary fields is set on success; Error is set on failure. A failed fetch
// is reported explicitly, never conflated with an empty result.
type PullResult struct {
	Provider     string                          `json:"provider"`
	Type         providers.IntegrationType       `json:"type"`
	POS          *analytics.POSAnalytics         `json:"pos,omitempty"`
	Delivery     *analytics.DeliveryAnalytics    `json:"delivery,omitempty"`
	Reservations *analytics.ReservationAnalytics `json:"reservations,omitempty"`
	Error        string                          `json:"error,omitempty"`
}

// PullReport is the combined outcome of one pull across providers.
type PullReport struct {
	RestaurantID string       `json:"restaurant_id"`
	StartedAt    time.Time    `json:"started_at"`
	Duration     string       `json:"duration"`
	Results      []PullResult `json:"results"`
}

// PullService fans analytics pulls out across providers concurrently and
// records each connection's sync outcome.
type PullService struct {
	registry *providers.Registry
	repo     storage.Repository
	logger   *slog.Logger
}

// NewPullService creates a pull service. repo may be nil when connection
// tracking is not wanted (the one-shot CLI).
func NewPullService(registry *providers.Registry, repo storage.Repository, logger *slog.Logger) *PullService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PullService{
		registry: registry,
		repo:     repo,
		logger:   logger,
	}
}

// Pull runs analytics against every requested provider in parallel and
// collects per-provider results. Individual provider failures never fail
// the pull; they surface in that provider's result.
func (s *PullService) Pull(ctx context.Context, req PullRequest) (*PullReport, error) {
	if req.RestaurantID == "" {
		return nil, fmt.Errorf("restaurant id is required")
	}

	loc := time.UTC
	if req.Timezone != "" {
		parsed, err := time.LoadLocation(req.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", req.Timezone, err)
		}
		loc = parsed
	}

	names := req.Providers
	if len(names) == 0 {
		for name := range req.Credentials {
			names = append(names, name)
		}
	}

	opts := providers.FetchOptions{Start: req.Start, End: req.End, Location: loc}
	startedAt := time.Now()

	results := make([]PullResult, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i] = s.pullOne(ctx, name, req, opts)
		}(i, name)
	}
	wg.Wait()

	report := &PullReport{
		RestaurantID: req.RestaurantID,
		StartedAt:    startedAt,
		Duration:     time.Since(startedAt).String(),
		Results:      results,
	}

	s.logger.Info("pull completed",
		slog.String("restaurant_id", req.RestaurantID),
		slog.Int("providers", len(names)),
		slog.Duration("duration", time.Since(startedAt)),
	)
	return report, nil
}

func (s *PullService) pullOne(ctx context.Context, name string, req PullRequest, opts providers.FetchOptions) PullResult {
	result := PullResult{Provider: name}

	provider, err := s.registry.Get(name)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Type = provider.Config().Type

	creds, ok := req.Credentials[name]
	if !ok {
		result.Error = fmt.Sprintf("no credentials supplied for provider %s", name)
		return result
	}

	switch p := provider.(type) {
	case providers.POSProvider:
		result.POS, err = p.GetAnalytics(ctx, req.RestaurantID, creds, opts)
	case providers.DeliveryProvider:
		result.Delivery, err = p.GetAnalytics(ctx, req.RestaurantID, creds, opts)
	case providers.ReservationProvider:
		result.Reservations, err = p.GetAnalytics(ctx, req.RestaurantID, creds, opts)
	default:
		err = fmt.Errorf("provider %s supports no analytics domain", name)
	}

	if err != nil {
		result.Error = err.Error()
		s.logger.Warn("provider pull failed",
			slog.String("provider", name),
			slog.String("restaurant_id", req.RestaurantID),
			slog.String("error", err.Error()),
		)
	}
	s.recordOutcome(req.RestaurantID, name, err)
	return result
}

// recordOutcome updates the persisted connection, when one exists, so the
// dashboard shows per-integration health.
func (s *PullService) recordOutcome(restaurantID, provider string, pullErr error) {
	if s.repo == nil {
		return
	}
	conn, err := s.repo.FindConnection(restaurantID, provider)
	if err != nil || conn == nil {
		return
	}
	if pullErr != nil {
		if err := s.repo.MarkError(conn.ID, pullErr.Error()); err != nil {
			s.logger.Error("failed to record pull error", slog.String("error", err.Error()))
		}
		return
	}
	if err := s.repo.MarkSynced(conn.ID); err != nil {
		s.logger.Error("failed to record pull success", slog.String("error", err.Error()))
	}
}
