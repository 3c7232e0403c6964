package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
)

// OllamaDefaultURL is the default Ollama API endpoint.
const OllamaDefaultURL = "http://localhost:11434"

// DefaultOllamaEmbeddingModel is used when no model is configured.
const DefaultOllamaEmbeddingModel = "nomic-embed-text"

// OllamaEmbedding is an embedding client for a local Ollama server.
type OllamaEmbedding struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// OllamaEmbeddingOption configures an OllamaEmbedding.
type OllamaEmbeddingOption func(*OllamaEmbedding)

// WithOllamaEmbeddingBaseURL sets the base URL.
func WithOllamaEmbeddingBaseURL(baseURL string) OllamaEmbeddingOption {
	return func(o *OllamaEmbedding) { o.baseURL = baseURL }
}

// WithOllamaEmbeddingModel sets the model.
func WithOllamaEmbeddingModel(model string) OllamaEmbeddingOption {
	return func(o *OllamaEmbedding) { o.model = model }
}

// NewOllamaEmbedding builds an OllamaEmbedding, defaulting the base URL to
// OLLAMA_HOST or OllamaDefaultURL.
func NewOllamaEmbedding(opts ...OllamaEmbeddingOption) *OllamaEmbedding {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = OllamaDefaultURL
	}

	o := &OllamaEmbedding{
		baseURL:    baseURL,
		model:      DefaultOllamaEmbeddingModel,
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// GetTextEmbedding posts to /api/embeddings for a single text.
func (o *OllamaEmbedding) GetTextEmbedding(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(ollamaEmbeddingRequest{Model: o.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("ollama request marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		o.logger.Warn("ollama embedding failed", "model", o.model, "status", resp.StatusCode)
		return nil, fmt.Errorf("ollama embedding (%d): %s", resp.StatusCode, string(respBody))
	}

	var result ollamaEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ollama response decode: %w", err)
	}
	return result.Embedding, nil
}

// GetTextEmbeddingsBatch embeds texts one at a time: Ollama's
// /api/embeddings endpoint takes a single prompt per call.
func (o *OllamaEmbedding) GetTextEmbeddingsBatch(ctx context.Context, texts []string, callback ProgressCallback) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := o.GetTextEmbedding(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("ollama embedding for text %d: %w", i, err)
		}
		results[i] = vec
		if callback != nil {
			callback(i+1, len(texts))
		}
	}
	return results, nil
}

var _ EmbeddingModel = (*OllamaEmbedding)(nil)
var _ EmbeddingModelWithBatch = (*OllamaEmbedding)(nil)
