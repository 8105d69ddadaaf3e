package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopline-ai/loopline-go/entity"
)

func testRequest(t *testing.T) entity.Request {
	t.Helper()
	node, err := entity.Build("greeting", entity.NewConfig("Hello {{name}}").
		WithParam("name", entity.Literal("Ada")))
	require.NoError(t, err)
	return entity.Flatten(node)
}

func TestResolveEntities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, resolvePath, r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "staging", r.Header.Get("X-Loopline-Environment"))

		var payload struct {
			Entities entity.Request `json:"entities"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "greeting", payload.Entities.RootID)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"greeting":{"prompt":"Hi {{name}}!"}}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, APIKey: "test-key", Environment: "staging"})

	resp, err := client.ResolveEntities(context.Background(), testRequest(t))
	require.NoError(t, err)
	assert.Equal(t, "Hi {{name}}!", resp["greeting"].Prompt)
}

func TestResolveEntitiesRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "try again", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, APIKey: "k", MaxRetries: 3})

	_, err := client.ResolveEntities(context.Background(), testRequest(t))
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestResolveEntitiesClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, APIKey: "k", MaxRetries: 5})

	_, err := client.ResolveEntities(context.Background(), testRequest(t))
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.EqualValues(t, 1, calls.Load())
}

func TestTrackBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, trackPath, r.URL.Path)
		var payload struct {
			Events []json.RawMessage `json:"events"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Len(t, payload.Events, 2)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, APIKey: "k"})

	err := client.TrackBatch(context.Background(), []json.RawMessage{
		json.RawMessage(`{"kind":"llm_call"}`),
		json.RawMessage(`{"kind":"conversation"}`),
	})
	require.NoError(t, err)
}

func TestTrackBatchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, APIKey: "k"})

	err := client.TrackBatch(context.Background(), []json.RawMessage{json.RawMessage(`{}`)})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}
