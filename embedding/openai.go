package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// openAIEmbeddingBatchLimit mirrors OpenAI's per-request embedding input
// cap; GetTextEmbeddingsBatch chunks larger slices to respect it.
const openAIEmbeddingBatchLimit = 2048

// OpenAIEmbedding is an embedding client backed by go-openai's client,
// shared with the openrouter provider.
type OpenAIEmbedding struct {
	client *openai.Client
	model  openai.EmbeddingModel
	logger *slog.Logger
}

// NewOpenAIEmbedding builds an OpenAIEmbedding. An empty apiKey falls back
// to OPENAI_API_KEY, and an empty modelName falls back to
// text-embedding-3-small.
func NewOpenAIEmbedding(apiKey, modelName string) *OpenAIEmbedding {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	model := openai.SmallEmbedding3
	if modelName != "" {
		model = openai.EmbeddingModel(modelName)
	}

	return &OpenAIEmbedding{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
}

// GetTextEmbedding embeds a single text.
func (o *OpenAIEmbedding) GetTextEmbedding(ctx context.Context, text string) ([]float64, error) {
	vecs, err := o.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// GetTextEmbeddingsBatch embeds texts in chunks of openAIEmbeddingBatchLimit,
// reporting progress through callback after each chunk.
func (o *OpenAIEmbedding) GetTextEmbeddingsBatch(ctx context.Context, texts []string, callback ProgressCallback) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float64, 0, len(texts))
	for i := 0; i < len(texts); i += openAIEmbeddingBatchLimit {
		end := i + openAIEmbeddingBatchLimit
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := o.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("openai batch embedding at offset %d: %w", i, err)
		}
		results = append(results, vecs...)
		if callback != nil {
			callback(len(results), len(texts))
		}
	}
	return results, nil
}

func (o *OpenAIEmbedding) embedBatch(ctx context.Context, inputs []string) ([][]float64, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: inputs,
		Model: o.model,
	})
	if err != nil {
		o.logger.Warn("openai embedding failed", "count", len(inputs), "error", err)
		return nil, fmt.Errorf("openai embedding: %w", err)
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("openai embedding: expected %d vectors, got %d", len(inputs), len(resp.Data))
	}

	vecs := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		vecs[i] = make([]float64, len(d.Embedding))
		for j, v := range d.Embedding {
			vecs[i][j] = float64(v)
		}
	}
	return vecs, nil
}

var _ EmbeddingModel = (*OpenAIEmbedding)(nil)
var _ EmbeddingModelWithBatch = (*OpenAIEmbedding)(nil)
