package loopline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/fogfish/opts"

	"github.com/loopline-ai/loopline-go/entity"
	"github.com/loopline-ai/loopline-go/internal/transport"
	"github.com/loopline-ai/loopline-go/pkg/slogx"
	"github.com/loopline-ai/loopline-go/tracker"
)

const defaultBaseURL = "https://api.loopline.dev"

// Client is the entry point of the SDK. Create one with New; it is safe
// for concurrent use.
type Client struct {
	apiKey      string
	baseURL     string
	environment string
	httpClient  *http.Client
	maxRetries  uint
	noTracking  bool
	logger      *slog.Logger

	transport *transport.Client
	tracker   *tracker.Tracker
}

// New creates a Client. The api key and base URL fall back to the
// LOOPLINE_API_KEY and LOOPLINE_BASE_URL environment variables; a missing
// api key is an error.
func New(options ...opts.Option[Client]) (*Client, error) {
	c := &Client{
		apiKey:      os.Getenv(envAPIKey),
		baseURL:     os.Getenv(envBaseURL),
		environment: os.Getenv(envEnvironment),
	}
	if err := opts.Apply(c, options); err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return nil, errors.New("an api key is required: set " + envAPIKey + " or use WithAPIKey")
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	c.transport = transport.New(transport.Config{
		BaseURL:     c.baseURL,
		APIKey:      c.apiKey,
		Environment: c.environment,
		HTTPClient:  c.httpClient,
		MaxRetries:  c.maxRetries,
	})
	if !c.noTracking {
		tr, err := tracker.New(c.transport)
		if err != nil {
			return nil, err
		}
		c.tracker = tr
	}
	return c, nil
}

// GetPrompt resolves and evaluates a prompt entity.
func (c *Client) GetPrompt(ctx context.Context, id string, cfg *entity.Config) (string, error) {
	node, err := c.resolve(ctx, id, cfg, entity.KindPrompt)
	if err != nil {
		return "", err
	}
	return entity.Evaluate(node)
}

// GetTool resolves and evaluates a tool entity.
func (c *Client) GetTool(ctx context.Context, id string, cfg *entity.Config) (string, error) {
	node, err := c.resolve(ctx, id, cfg, entity.KindTool)
	if err != nil {
		return "", err
	}
	return entity.Evaluate(node)
}

// Agent couples the resolved instruction text of an agent entity with its
// effective hyperparameters after overlay.
type Agent struct {
	Text string
	entity.Hyperparams
}

// GetAgent resolves and evaluates an agent entity.
func (c *Client) GetAgent(ctx context.Context, id string, cfg *entity.Config) (*Agent, error) {
	node, err := c.resolve(ctx, id, cfg, entity.KindAgent)
	if err != nil {
		return nil, err
	}
	text, err := entity.Evaluate(node)
	if err != nil {
		return nil, err
	}
	return &Agent{Text: text, Hyperparams: node.Hyperparams}, nil
}

// resolve builds the local tree, exchanges it with the backend and overlays
// the response. Transport failures fall back to the locally built tree;
// definition errors are returned as-is since they indicate a caller bug,
// not a transient backend problem.
func (c *Client) resolve(ctx context.Context, id string, cfg *entity.Config, kind entity.Kind) (*entity.Node, error) {
	if cfg == nil {
		return nil, errors.New("entity config cannot be nil")
	}
	cc := *cfg
	cc.Kind = kind
	node, err := entity.Build(id, &cc)
	if err != nil {
		return nil, err
	}

	resp, err := c.transport.ResolveEntities(ctx, entity.Flatten(node))
	if err != nil {
		c.logger.WarnContext(ctx, "entity resolution failed, using local definition",
			slogx.EntityID(id), slogx.Error(err))
		return node, nil
	}
	return entity.Overlay(node, resp), nil
}

// TrackCall enqueues a tracked event for background submission. It is a
// no-op when tracking is disabled.
func (c *Client) TrackCall(ev tracker.Event) error {
	if c.tracker == nil {
		return nil
	}
	return c.tracker.Enqueue(ev)
}

// Close drains and stops the background tracker.
func (c *Client) Close(ctx context.Context) error {
	if c.tracker == nil {
		return nil
	}
	return c.tracker.Close(ctx)
}
