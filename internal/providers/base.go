package providers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
)

// Base carries the behavior shared by every provider: the static descriptor,
// the authenticated HTTP client, credential validation, and the
// never-throws TestConnection wrapper. Concrete providers embed it and
// implement Authenticate plus their domain's fetch methods.
type Base struct {
	config IntegrationConfig
	client *Client
	logger *slog.Logger
}

// NewBase wires the shared pieces for a provider.
func NewBase(config IntegrationConfig, opts ClientOptions, logger *slog.Logger) Base {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("provider", config.Name))
	return Base{
		config: config,
		client: NewClient(config, opts, logger),
		logger: logger,
	}
}

// Name returns the provider identifier.
func (b *Base) Name() string { return b.config.Name }

// Config returns the static descriptor.
func (b *Base) Config() IntegrationConfig { return b.config }

// Client returns the shared authenticated HTTP client.
func (b *Base) Client() *Client { return b.client }

// Logger returns the provider-scoped logger.
func (b *Base) Logger() *slog.Logger { return b.logger }

// ValidateCredentials checks creds against the descriptor's required keys.
func (b *Base) ValidateCredentials(creds Credentials) bool {
	return creds.Validate(b.config.RequiredCredentials)
}

// Disconnect is a no-op by default; platforms with a revocation endpoint
// override it.
func (b *Base) Disconnect(ctx context.Context, creds Credentials) (bool, error) {
	return true, nil
}

// TestConnectionWith folds any authentication error into a false result.
// Network or auth failures are never fatal to the caller; they are logged
// and surfaced as "not connected". Concrete providers implement
// TestConnection by passing their own Authenticate here.
func (b *Base) TestConnectionWith(ctx context.Context, creds Credentials, authenticate func(context.Context, Credentials) (bool, error)) bool {
	if !b.ValidateCredentials(creds) {
		b.logger.Debug("connection test skipped, missing required credentials")
		return false
	}
	ok, err := authenticate(ctx, creds)
	if err != nil {
		b.logger.Warn("connection test failed", slog.String("error", err.Error()))
		return false
	}
	return ok
}

// VerifyHMAC checks a hex-encoded HMAC-SHA256 signature over payload using
// a constant-time compare. The common scheme for restaurant-platform
// webhooks.
func VerifyHMAC(payload []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
