package embedding

import "context"

// EmbeddingModel generates vector embeddings for text. The gateway embeds
// document chunks and search queries through the same method; no provider
// wired here treats the two differently enough to justify a separate
// GetQueryEmbedding.
type EmbeddingModel interface {
	GetTextEmbedding(ctx context.Context, text string) ([]float64, error)
}

// EmbeddingModelWithBatch is an optional capability a provider can
// implement to embed several texts in one round trip. The gateway probes
// for it with a type assertion and falls back to per-item calls otherwise.
type EmbeddingModelWithBatch interface {
	EmbeddingModel
	GetTextEmbeddingsBatch(ctx context.Context, texts []string, callback ProgressCallback) ([][]float64, error)
}
