package loopline

import (
	"log/slog"
	"net/http"

	"github.com/fogfish/opts"
)

// Environment variables consulted by New when the corresponding option is
// not supplied.
const (
	envAPIKey      = "LOOPLINE_API_KEY"
	envBaseURL     = "LOOPLINE_BASE_URL"
	envEnvironment = "LOOPLINE_ENVIRONMENT"
)

var (
	// WithAPIKey sets the api key used to authenticate against the backend.
	WithAPIKey = opts.ForName[Client, string]("apiKey")

	// WithBaseURL overrides the backend base URL.
	WithBaseURL = opts.ForName[Client, string]("baseURL")

	// WithEnvironment tags requests with a deployment environment name,
	// e.g. "staging" or "production".
	WithEnvironment = opts.ForName[Client, string]("environment")

	// WithHTTPClient replaces the default HTTP client.
	WithHTTPClient = opts.ForName[Client, *http.Client]("httpClient")

	// WithMaxRetries bounds the retry attempts for entity resolution.
	WithMaxRetries = opts.ForName[Client, uint]("maxRetries")

	// WithLogger replaces the logger used for resolution fallback warnings.
	// slog.Default is used when unset.
	WithLogger = opts.ForName[Client, *slog.Logger]("logger")
)

// WithoutTracking disables the background call tracker; TrackCall becomes
// a no-op.
func WithoutTracking() opts.Option[Client] {
	return opts.Type[Client](func(c *Client) error {
		c.noTracking = true
		return nil
	})
}
