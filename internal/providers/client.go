package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// AuthHeader builds the Authorization header value for the given auth
// scheme. This is the one place credential-to-header mapping lives so
// providers never duplicate it.
func AuthHeader(authType AuthType, creds Credentials) (string, error) {
	switch authType {
	case AuthAPIKey:
		key := creds.Get(CredAPIKey)
		if key == "" {
			return "", fmt.Errorf("missing credential %q", CredAPIKey)
		}
		return "Bearer " + key, nil
	case AuthOAuth2:
		token := creds.Get(CredAccessToken)
		if token == "" {
			return "", fmt.Errorf("missing credential %q", CredAccessToken)
		}
		return "Bearer " + token, nil
	case AuthBasicAuth:
		user := creds.Get(CredUsername)
		pass := creds.Get(CredPassword)
		if user == "" || pass == "" {
			return "", fmt.Errorf("missing credentials %q/%q", CredUsername, CredPassword)
		}
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass)), nil
	default:
		return "", fmt.Errorf("unsupported auth type %q", authType)
	}
}

// StatusError is returned for non-2xx responses from a provider API.
type StatusError struct {
	Provider   string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error: %d %s", e.Provider, e.StatusCode, e.Status)
}

// ClientOptions tunes the shared HTTP client.
type ClientOptions struct {
	// Timeout bounds each attempt. Zero means 30s.
	Timeout time.Duration
	// RetryMax is the number of retries after the first attempt. Zero
	// means 3; negative disables retries.
	RetryMax int
}

// Client issues authenticated, rate-limited requests to a provider API.
// It wraps retryablehttp for capped exponential backoff on transient
// failures, enforces the provider's requests-per-minute budget with a
// token-bucket limiter, and sets auth headers from the provider's
// IntegrationConfig.
type Client struct {
	config  IntegrationConfig
	http    *retryablehttp.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a client for the given provider descriptor.
func NewClient(config IntegrationConfig, opts ClientOptions, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = 3
	if opts.RetryMax > 0 {
		rc.RetryMax = opts.RetryMax
	} else if opts.RetryMax < 0 {
		rc.RetryMax = 0
	}
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 10 * time.Second
	rc.HTTPClient.Timeout = 30 * time.Second
	if opts.Timeout > 0 {
		rc.HTTPClient.Timeout = opts.Timeout
	}

	// No configured budget means no throttling.
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rl := config.RateLimits; rl != nil && rl.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(rl.RequestsPerMinute)/60.0), rl.RequestsPerMinute)
	}

	return &Client{
		config:  config,
		http:    rc,
		limiter: limiter,
		logger:  logger.With(slog.String("provider", config.Name)),
	}
}

// Do issues an authenticated request and returns the response body on any
// 2xx status. Non-2xx responses become a *StatusError. The call waits on
// the provider's rate limiter first, so a burst of dashboard refreshes
// cannot blow the remote budget.
func (c *Client) Do(ctx context.Context, method, url string, body any, creds Credentials) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	// nil credentials means an unauthenticated call (token grants).
	var auth string
	if creds != nil {
		var err error
		auth, err = AuthHeader(c.config.AuthType, creds)
		if err != nil {
			return nil, err
		}
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.config.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("provider API returned an error status",
			slog.String("method", method),
			slog.String("url", url),
			slog.Int("status", resp.StatusCode),
		)
		return nil, &StatusError{
			Provider:   c.config.Name,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	return data, nil
}

// GetJSON issues an authenticated GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, url string, creds Credentials, out any) error {
	data, err := c.Do(ctx, http.MethodGet, url, nil, creds)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.config.Name, err)
	}
	return nil
}

// PostJSON issues an authenticated POST and decodes the JSON response into out.
func (c *Client) PostJSON(ctx context.Context, url string, body any, creds Credentials, out any) error {
	data, err := c.Do(ctx, http.MethodPost, url, body, creds)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.config.Name, err)
	}
	return nil
}

// Ping issues an authenticated GET and reports only whether the remote
// answered with a 2xx. Used by Authenticate implementations.
func (c *Client) Ping(ctx context.Context, url string, creds Credentials) (bool, error) {
	_, err := c.Do(ctx, http.MethodGet, url, nil, creds)
	if err != nil {
		return false, err
	}
	return true, nil
}
