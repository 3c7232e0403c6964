// Package store defines the persistence contract the core requires (spec
// §2/§6): transactional CRUD over documents and their content/embedding
// children, vector nearest-neighbor query, lexical full-text query,
// cascade delete, and an atomic batch usage-update.
//
// It generalizes rag/store.VectorStore's Add/Query/Delete trio into the
// fuller contract spec.md §6 names as "required store capabilities".
package store

import (
	"context"
	"time"

	"github.com/MadBomber/ragdoll-core/document"
)

// VectorQuery requests a nearest-neighbor search, generalizing
// schema.VectorStoreQuery with the filter predicates spec §4.6 names.
type VectorQuery struct {
	Vector  []float64
	TopK    int
	Filters Filters
}

// Filters restricts the candidate set before the ANN/lexical search runs.
type Filters struct {
	DocumentType   string
	Classification string
	Tags           []string
	EmbeddingModel string
	DocumentID     string
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
	// Keywords are AND-of-substring-matches against metadata.keywords.
	Keywords []string
}

// ScoredEmbedding is one nearest-neighbor or lexical hit, carrying enough of
// the owning Document to build a search.Hit without a second round trip.
type ScoredEmbedding struct {
	Embedding        document.Embedding
	Distance         float64 // cosine distance; similarity = 1 - Distance
	DocumentID       string
	DocumentTitle    string
	DocumentLocation string
	DocumentMetadata map[string]interface{}
}

// Store is the full persistence contract the core depends on.
type Store interface {
	// Documents
	CreateDocument(ctx context.Context, doc document.Document) (document.Document, error)
	GetDocument(ctx context.Context, id string) (document.Document, bool, error)
	UpdateDocument(ctx context.Context, doc document.Document) error
	DeleteDocument(ctx context.Context, id string) error // cascades to content + embeddings
	ListDocuments(ctx context.Context, opts ListOptions) ([]document.Document, error)

	// Content children
	AddTextContent(ctx context.Context, c document.TextContent) (document.TextContent, error)
	GetTextContents(ctx context.Context, documentID string) ([]document.TextContent, error)
	AddImageContent(ctx context.Context, c document.ImageContent) (document.ImageContent, error)
	AddAudioContent(ctx context.Context, c document.AudioContent) (document.AudioContent, error)

	// Embeddings
	AddEmbeddings(ctx context.Context, embeddings []document.Embedding) error
	CountEmbeddings(ctx context.Context, documentID string) (int, error)
	NearestNeighbors(ctx context.Context, q VectorQuery) ([]ScoredEmbedding, error)
	LexicalSearch(ctx context.Context, query string, limit int, filters Filters) ([]ScoredEmbedding, error)
	// TouchEmbeddings increments usage_count and sets returned_at=now for
	// every given embedding id, in a single atomic batch update (spec §5).
	TouchEmbeddings(ctx context.Context, ids []string) error

	Healthy(ctx context.Context) error
}

// ListOptions filters/paginates ListDocuments.
type ListOptions struct {
	Status Status
	Limit  int
	Offset int
}

// Status mirrors document.Status to avoid forcing callers to import
// document just to filter by it; kept as a distinct alias for store's
// external API surface.
type Status = document.Status
