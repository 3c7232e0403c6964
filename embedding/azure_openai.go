package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// azureEmbeddingBatchLimit is Azure OpenAI's per-request embedding input cap.
const azureEmbeddingBatchLimit = 2048

// AzureOpenAIEmbedding is an embedding client for an Azure OpenAI
// deployment, built on the same go-openai client as OpenAIEmbedding with
// Azure's endpoint configuration.
type AzureOpenAIEmbedding struct {
	client     *openai.Client
	deployment string
	logger     *slog.Logger
}

// NewAzureOpenAIEmbeddingWithConfig builds an AzureOpenAIEmbedding from an
// explicit endpoint, API key, and deployment name.
func NewAzureOpenAIEmbeddingWithConfig(endpoint, apiKey, deployment string) *AzureOpenAIEmbedding {
	cfg := openai.DefaultAzureConfig(apiKey, endpoint)
	return &AzureOpenAIEmbedding{
		client:     openai.NewClientWithConfig(cfg),
		deployment: deployment,
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
}

// GetTextEmbedding embeds a single text.
func (a *AzureOpenAIEmbedding) GetTextEmbedding(ctx context.Context, text string) ([]float64, error) {
	vecs, err := a.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// GetTextEmbeddingsBatch embeds texts in chunks of azureEmbeddingBatchLimit.
func (a *AzureOpenAIEmbedding) GetTextEmbeddingsBatch(ctx context.Context, texts []string, callback ProgressCallback) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float64, 0, len(texts))
	for i := 0; i < len(texts); i += azureEmbeddingBatchLimit {
		end := i + azureEmbeddingBatchLimit
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := a.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("azure openai batch embedding at offset %d: %w", i, err)
		}
		results = append(results, vecs...)
		if callback != nil {
			callback(len(results), len(texts))
		}
	}
	return results, nil
}

func (a *AzureOpenAIEmbedding) embedBatch(ctx context.Context, inputs []string) ([][]float64, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: inputs,
		Model: openai.EmbeddingModel(a.deployment),
	})
	if err != nil {
		a.logger.Warn("azure openai embedding failed", "deployment", a.deployment, "error", err)
		return nil, fmt.Errorf("azure openai embedding: %w", err)
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("azure openai embedding: expected %d vectors, got %d", len(inputs), len(resp.Data))
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

var _ EmbeddingModel = (*AzureOpenAIEmbedding)(nil)
var _ EmbeddingModelWithBatch = (*AzureOpenAIEmbedding)(nil)
