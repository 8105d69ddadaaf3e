// Package transport implements the JSON-over-HTTP client for the Loopline
// backend: entity resolution and tracked-event submission.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	json "github.com/goccy/go-json"

	"github.com/loopline-ai/loopline-go/entity"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3

	resolvePath = "/v1/entities/resolve"
	trackPath   = "/v1/events/batch"
)

// Config carries the connection settings for a Client.
type Config struct {
	BaseURL     string
	APIKey      string
	Environment string
	HTTPClient  *http.Client
	MaxRetries  uint
	UserAgent   string
}

// Client talks to the Loopline API. Entity resolution retries transient
// failures with exponential backoff; event submission is a single attempt
// because the tracker owns its own retry loop.
type Client struct {
	http        *http.Client
	baseURL     string
	apiKey      string
	environment string
	userAgent   string
	maxRetries  uint
}

// New creates a Client from the given configuration, filling in defaults
// for the HTTP client and retry count.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "loopline-go"
	}
	return &Client{
		http:        httpClient,
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		environment: cfg.Environment,
		userAgent:   userAgent,
		maxRetries:  maxRetries,
	}
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("loopline api returned status %d: %s", e.StatusCode, e.Body)
}

type resolvePayload struct {
	Entities entity.Request `json:"entities"`
}

// ResolveEntities posts a flattened tree and returns the server's flat
// response map. Network failures and 5xx responses are retried; any 4xx
// aborts immediately.
func (c *Client) ResolveEntities(ctx context.Context, req entity.Request) (entity.Response, error) {
	operation := func() (entity.Response, error) {
		var out entity.Response
		if err := c.post(ctx, resolvePath, resolvePayload{Entities: req}, &out); err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return out, nil
	}
	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.maxRetries),
	)
}

type trackPayload struct {
	Events []json.RawMessage `json:"events"`
}

// TrackBatch submits a batch of pre-marshaled tracked events.
func (c *Client) TrackBatch(ctx context.Context, events []json.RawMessage) error {
	return c.post(ctx, trackPath, trackPayload{Events: events}, nil)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.environment != "" {
		req.Header.Set("X-Loopline-Environment", c.environment)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
