package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.ErrorContains(t, err, "API key")
}

func TestNewEmbeddingService_ModelDimensions(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "k", Model: "text-embedding-3-large"})
	require.NoError(t, err)
	assert.Equal(t, 3072, svc.Dimensions())

	svc, err = NewEmbeddingService(Config{APIKey: "k", Model: "unknown-model"})
	require.NoError(t, err)
	assert.Equal(t, 1536, svc.Dimensions(), "unknown models fall back to 1536")

	svc, err = NewEmbeddingService(Config{APIKey: "k", Dimensions: 256})
	require.NoError(t, err)
	assert.Equal(t, 256, svc.Dimensions())
}

func TestEmbed(t *testing.T) {
	var gotAuth string
	var gotReq embeddingRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		resp := embeddingResponse{}
		resp.Data = []struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		}{{Embedding: []float64{0.5, -0.5}}}
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	vec, err := svc.Embed(context.Background(), "leather wallet")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.5}, vec)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, []string{"leather wallet"}, gotReq.Input)
	assert.Equal(t, 1536, gotReq.Dimensions)
}

func TestEmbed_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "invalid api key", "type": "auth_error"}}`)) //nolint:errcheck
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "bad-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "leather wallet")
	assert.ErrorContains(t, err, "invalid api key")
}

func TestEmbed_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`)) //nolint:errcheck
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "leather wallet")
	assert.ErrorContains(t, err, "no embedding")
}
