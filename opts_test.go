package loopline

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsApply(t *testing.T) {
	t.Setenv(envAPIKey, "")

	httpClient := &http.Client{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := New(
		WithAPIKey("opt-key"),
		WithBaseURL("https://example.test"),
		WithEnvironment("staging"),
		WithHTTPClient(httpClient),
		WithMaxRetries(7),
		WithLogger(logger),
		WithoutTracking(),
	)
	require.NoError(t, err)

	assert.Equal(t, "opt-key", client.apiKey)
	assert.Equal(t, "https://example.test", client.baseURL)
	assert.Equal(t, "staging", client.environment)
	assert.Same(t, httpClient, client.httpClient)
	assert.EqualValues(t, 7, client.maxRetries)
	assert.Same(t, logger, client.logger)
	assert.True(t, client.noTracking)
	assert.Nil(t, client.tracker)
}

func TestOptionOverridesEnvironment(t *testing.T) {
	t.Setenv(envAPIKey, "env-key")

	client, err := New(WithAPIKey("explicit"), WithoutTracking())
	require.NoError(t, err)
	assert.Equal(t, "explicit", client.apiKey)
}
