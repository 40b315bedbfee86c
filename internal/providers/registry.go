package providers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry manages all registered providers
type Registry struct {
	providers map[string]Provider
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewRegistry creates a new provider registry
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		providers: make(map[string]Provider),
		logger:    logger,
	}
}

// Register adds a provider to the registry
func (r *Registry) Register(provider Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}

	cfg := provider.Config()
	r.providers[name] = provider
	r.logger.Info("registered provider",
		slog.String("provider", name),
		slog.String("type", string(cfg.Type)),
		slog.String("auth_type", string(cfg.AuthType)),
		slog.Bool("webhook_support", cfg.WebhookSupport),
	)

	return nil
}

// Get returns a provider by name
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", name)
	}

	return provider, nil
}

// List returns all registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAll returns all registered providers
func (r *Registry) GetAll() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]Provider, 0, len(r.providers))
	for _, provider := range r.providers {
		providers = append(providers, provider)
	}
	return providers
}

// Configs returns every provider's static descriptor, sorted by name.
// The dashboard uses this to render the integrations catalog.
func (r *Registry) Configs() []IntegrationConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	configs := make([]IntegrationConfig, 0, len(r.providers))
	for _, provider := range r.providers {
		configs = append(configs, provider.Config())
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs
}

// TestAll runs connection tests against every provider the caller has
// credentials for, in parallel. Providers absent from creds are skipped.
func (r *Registry) TestAll(ctx context.Context, creds map[string]Credentials) map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make(map[string]bool)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, provider := range r.providers {
		c, ok := creds[name]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(n string, p Provider, c Credentials) {
			defer wg.Done()
			ok := p.TestConnection(ctx, c)
			mu.Lock()
			results[n] = ok
			mu.Unlock()

			if !ok {
				r.logger.Warn("provider connection test failed",
					slog.String("provider", n),
				)
			} else {
				r.logger.Debug("provider connection test passed",
					slog.String("provider", n),
				)
			}
		}(name, provider, c)
	}

	wg.Wait()
	return results
}
