// Command api runs the integration hub HTTP server the restaurant
// dashboard talks to.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tablecraft/integration-hub/internal/api"
	"github.com/tablecraft/integration-hub/internal/application/service"
	"github.com/tablecraft/integration-hub/internal/infrastructure/config"
	"github.com/tablecraft/integration-hub/internal/infrastructure/storage"
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
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.LoadOrEnvWithPath(*configPath)
	logger := observability.NewLogger(cfg.Observability.Logging)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repo, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = repo.Close() }()

	registry := buildRegistry(providers.ClientOptions{
		Timeout:  cfg.Providers.Timeout(),
		RetryMax: cfg.Providers.RetryMax,
	}, logger)
	pulls := service.NewPullService(registry, repo, logger)

	secrets := make(map[string]string)
	for name, wh := range cfg.Providers.Webhooks {
		if wh.Secret != "" {
			secrets[name] = wh.Secret
		}
	}

	server := api.NewServer(api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		WebhookSecrets: secrets,
	}, registry, repo, pulls, logger)

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
		}
		close(done)
	}()

	if err := server.Start(); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	<-done
}

// buildRegistry registers every supported provider with the deployment's
// request timeout and retry budget.
func buildRegistry(opts providers.ClientOptions, logger *slog.Logger) *providers.Registry {
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
			logger.Error("failed to register provider",
				slog.String("provider", p.Name()),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}
	return registry
}
