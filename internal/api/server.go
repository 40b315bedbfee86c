package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tablecraft/integration-hub/internal/api/handlers"
	"github.com/tablecraft/integration-hub/internal/api/middleware"
	"github.com/tablecraft/integration-hub/internal/application/service"
	"github.com/tablecraft/integration-hub/internal/infrastructure/storage"
	"github.com/tablecraft/integration-hub/internal/providers"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
	WebhookSecrets map[string]string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	registry   *providers.Registry
	repo       storage.Repository
	pulls      *service.PullService
}

// NewServer creates a new API server.
func NewServer(cfg Config, registry *providers.Registry, repo storage.Repository, pulls *service.PullService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		logger:   logger,
		registry: registry,
		repo:     repo,
		pulls:    pulls,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	// CORS: dashboard origins come from config; everything else uses the
	// middleware defaults. Webhook deliveries are server-to-server and do
	// not go through CORS.
	corsConfig := middleware.DefaultCORSConfig()
	if len(s.config.AllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = s.config.AllowedOrigins
	}
	s.router.Use(middleware.CORS(corsConfig))

	// Request logging
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler(s.registry)
	s.router.Get("/health", healthHandler.ServeHTTP)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Provider catalog and connection tests
		providersHandler := handlers.NewProvidersHandler(s.registry)
		r.Get("/providers", providersHandler.List)
		r.Post("/providers/{name}/test", providersHandler.Test)

		// Persisted connections
		connectionsHandler := handlers.NewConnectionsHandler(s.registry, s.repo)
		r.Get("/connections", connectionsHandler.List)
		r.Post("/connections", connectionsHandler.Create)
		r.Delete("/connections/{id}", connectionsHandler.Delete)

		// Analytics
		analyticsHandler := handlers.NewAnalyticsHandler(s.registry, s.pulls)
		r.Post("/analytics/{name}", analyticsHandler.Get)
		r.Post("/pull", analyticsHandler.Pull)

		// Webhooks
		webhooksHandler := handlers.NewWebhooksHandler(s.registry, s.repo, s.config.WebhookSecrets, s.logger)
		r.Post("/webhooks/{name}", webhooksHandler.Receive)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
