package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbeddingGetTextEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "chunk text", req.Prompt)

		json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float64{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	client := NewOllamaEmbedding(WithOllamaEmbeddingBaseURL(server.URL))

	vec, err := client.GetTextEmbedding(context.Background(), "chunk text")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
}

func TestOllamaEmbeddingBatchReportsProgress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float64{1, 0}})
	}))
	defer server.Close()

	client := NewOllamaEmbedding(WithOllamaEmbeddingBaseURL(server.URL))

	var progress []int
	vecs, err := client.GetTextEmbeddingsBatch(context.Background(), []string{"a", "b", "c"}, func(current, total int) {
		progress = append(progress, current)
	})
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
	assert.Equal(t, []int{1, 2, 3}, progress)
}
