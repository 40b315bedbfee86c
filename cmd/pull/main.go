// Command pull runs a one-shot analytics pull for a single provider and
// prints the summary as JSON. Handy for verifying credentials and windows
// without the dashboard.
//
// Credentials come from PROVIDER_CREDENTIALS, a JSON object like
// {"accessToken":"...","restaurantId":"..."}.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/tablecraft/integration-hub/internal/application/service"
	"github.com/tablecraft/integration-hub/internal/infrastructure/config"
	"github.com/tablecraft/integration-hub/internal/observability"
	"github.com/tablecraft/integration-hub/internal/providers"
	"github.com/tablecraft/integration-hub/internal/providers/clover"
	"github.com/tablecraft/integration-hub/internal/providers/doordash"
	"github.com/tablecraft/integration-hub/internal/providers/grubhub"
	"github.com/tablecraft/integration-hub/internal/providers/opentable"
	"github.com/tablecraft/integration-hub/internal/providers/resy"
	"github.com/tablecraft/integration-hub/internal/providers/toast"
	"github.com/tablecraft/integration-hub/internal/providers/ubereats"
)

func main() {
	providerName := flag.String("provider", "", "provider to pull from (required)")
	restaurantID := flag.String("restaurant", "", "restaurant id (required)")
	lookback := flag.Duration("lookback", 24*time.Hour, "how far back to fetch")
	timezone := flag.String("tz", "", "IANA timezone for hour bucketing (default UTC)")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall pull timeout")
	check := flag.Bool("check", false, "only test connectivity, do not fetch")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.LoadOrEnv()
	logger := observability.NewLogger(cfg.Observability.Logging)

	if *providerName == "" || *restaurantID == "" && !*check {
		fmt.Fprintln(os.Stderr, "usage: pull -provider <name> -restaurant <id> [-lookback 24h] [-tz America/New_York] [-check]")
		os.Exit(2)
	}

	var creds providers.Credentials
	raw := os.Getenv("PROVIDER_CREDENTIALS")
	if raw == "" {
		fmt.Fprintln(os.Stderr, "PROVIDER_CREDENTIALS is not set")
		os.Exit(2)
	}
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		fmt.Fprintf(os.Stderr, "invalid PROVIDER_CREDENTIALS: %v\n", err)
		os.Exit(2)
	}

	opts := providers.ClientOptions{
		Timeout:  cfg.Providers.Timeout(),
		RetryMax: cfg.Providers.RetryMax,
	}
	registry := providers.NewRegistry(logger)
	for _, p := range []providers.Provider{
		toast.New(opts, logger),
		clover.New(opts, logger),
		doordash.New(opts, logger),
		ubereats.New(opts, logger),
		grubhub.New(opts, logger),
		opentable.New(opts, logger),
		resy.New(opts, logger),
	} {
		if err := registry.Register(p); err != nil {
			logger.Error("failed to register provider", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *check {
		results := registry.TestAll(ctx, map[string]providers.Credentials{*providerName: creds})
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		_ = encoder.Encode(results)
		if !results[*providerName] {
			os.Exit(1)
		}
		return
	}

	pulls := service.NewPullService(registry, nil, logger)
	report, err := pulls.Pull(ctx, service.PullRequest{
		RestaurantID: *restaurantID,
		Credentials:  map[string]providers.Credentials{*providerName: creds},
		Providers:    []string{*providerName},
		Start:        time.Now().Add(-*lookback),
		Timezone:     *timezone,
	})
	if err != nil {
		logger.Error("pull failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		logger.Error("failed to encode report", slog.String("error", err.Error()))
		os.Exit(1)
	}

	for _, result := range report.Results {
		if result.Error != "" {
			os.Exit(1)
		}
	}
}
