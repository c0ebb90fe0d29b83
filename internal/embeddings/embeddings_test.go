package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIEmbedderValidation(t *testing.T) {
	_, err := NewOpenAIEmbedder(nil, "", "", "text-embedding-3-small", 1536, time.Second)
	assert.Error(t, err)

	_, err = NewOpenAIEmbedder(nil, "", "http://localhost:9999", "", 1536, time.Second)
	assert.Error(t, err)

	_, err = NewOpenAIEmbedder(nil, "", "http://localhost:9999", "m", 0, time.Second)
	assert.Error(t, err)
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "steel pipes", req.Input)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{0.1, 0.2, 0.3}}},
		})
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(nil, "secret", srv.URL, "text-embedding-3-small", 3, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, e.Dimensions())

	vec, err := e.Embed(context.Background(), "steel pipes")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(nil, "", srv.URL, "m", 3, time.Second)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "anything")
	assert.ErrorContains(t, err, "model overloaded")
}
