package azureOpenAI

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akolanti/GoIngest/internal/rag/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.25,0.5,0.75]}],"model":"text-embedding-ada-002","usage":{"prompt_tokens":3,"total_tokens":3}}`

type seenRequest struct {
	path       string
	apiVersion string
	apiKey     string
	auth       string
	input      []string
}

func newServer(t *testing.T, status int, body string, seen *seenRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			seen.path = r.URL.Path
			seen.apiVersion = r.URL.Query().Get("api-version")
			seen.apiKey = r.Header.Get("Api-Key")
			seen.auth = r.Header.Get("Authorization")
			var req struct {
				Input []string `json:"input"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			seen.input = req.Input
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAzureDeploymentRequest(t *testing.T) {
	var seen seenRequest
	srv := newServer(t, http.StatusOK, okBody, &seen)

	c, err := New(Config{
		Endpoint:   srv.URL,
		APIVersion: "2023-05-15",
		APIKey:     "secret",
		Model:      "ada",
		Dimension:  3,
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	vec, err := c.GetEmbedding(context.Background(), "name: Ann | age: 30")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.5, 0.75}, vec)

	assert.Equal(t, "/openai/deployments/ada/embeddings", seen.path)
	assert.Equal(t, "2023-05-15", seen.apiVersion)
	assert.Equal(t, "secret", seen.apiKey)
	assert.Equal(t, []string{"name: Ann | age: 30"}, seen.input)
}

func TestPlainOpenAIRequest(t *testing.T) {
	var seen seenRequest
	srv := newServer(t, http.StatusOK, okBody, &seen)

	c, err := New(Config{
		APIKey:     "sk-test",
		BaseURL:    srv.URL + "/v1/",
		Model:      "text-embedding-ada-002",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	_, err = c.GetEmbedding(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "/v1/embeddings", seen.path)
	assert.Equal(t, "Bearer sk-test", seen.auth)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, embedding.ErrTransient},
		{http.StatusServiceUnavailable, embedding.ErrTransient},
		{http.StatusUnauthorized, embedding.ErrAuth},
		{http.StatusNotFound, embedding.ErrConfig},
		{http.StatusBadRequest, embedding.ErrRejected},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := newServer(t, tt.status, `{"error":{"message":"nope","type":"test"}}`, nil)
			c, err := New(Config{
				Endpoint:   srv.URL,
				APIVersion: "2023-05-15",
				APIKey:     "secret",
				Model:      "ada",
				HTTPClient: srv.Client(),
			})
			require.NoError(t, err)

			_, err = c.GetEmbedding(context.Background(), "text")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestDimensionMismatchIsConfigError(t *testing.T) {
	srv := newServer(t, http.StatusOK, okBody, nil)
	c, err := New(Config{APIKey: "k", BaseURL: srv.URL, Model: "m", Dimension: 1536, HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = c.GetEmbedding(context.Background(), "text")
	assert.ErrorIs(t, err, embedding.ErrConfig)
}

func TestNewRejectsMissingSettings(t *testing.T) {
	_, err := New(Config{Model: "m"})
	assert.ErrorIs(t, err, embedding.ErrConfig)

	_, err = New(Config{APIKey: "k", Model: "m", Endpoint: "https://x.openai.azure.com"})
	assert.ErrorIs(t, err, embedding.ErrConfig)
}

func TestEmptyTextNeverCallsService(t *testing.T) {
	var seen seenRequest
	srv := newServer(t, http.StatusOK, okBody, &seen)
	c, err := New(Config{APIKey: "k", BaseURL: srv.URL, Model: "m", HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = c.GetEmbedding(context.Background(), "   ")
	assert.ErrorIs(t, err, embedding.ErrEmptyText)
	assert.True(t, strings.TrimSpace(seen.path) == "")
}
