package chromem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MadBomber/ragdoll-core/document"
	"github.com/MadBomber/ragdoll-core/store"
)

func seedDocument(t *testing.T, ctx context.Context, s *Store, id string) document.TextContent {
	_, err := s.CreateDocument(ctx, document.Document{ID: id, Title: "t-" + id, Type: document.TypeText})
	require.NoError(t, err)

	tc, err := s.AddTextContent(ctx, document.TextContent{ID: id + "-tc1", DocumentID: id, Content: "hello world"})
	require.NoError(t, err)
	return tc
}

func TestOpenInMemoryIsHealthy(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	assert.NoError(t, s.Healthy(context.Background()))
}

func TestAddEmbeddingsRejectsDuplicateChunkIndex(t *testing.T) {
	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)
	tc := seedDocument(t, ctx, s, "doc1")

	require.NoError(t, s.AddEmbeddings(ctx, []document.Embedding{
		{ID: "e1", EmbeddableType: document.EmbeddableText, EmbeddableID: tc.ID, ChunkIndex: 0, Vector: []float64{1, 0, 0}},
	}))

	err = s.AddEmbeddings(ctx, []document.Embedding{
		{ID: "e2", EmbeddableType: document.EmbeddableText, EmbeddableID: tc.ID, ChunkIndex: 0, Vector: []float64{0, 1, 0}},
	})
	assert.Error(t, err)
}

func TestNearestNeighborsRanksByQueryVector(t *testing.T) {
	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)

	tc1 := seedDocument(t, ctx, s, "doc1")
	tc2 := seedDocument(t, ctx, s, "doc2")

	require.NoError(t, s.AddEmbeddings(ctx, []document.Embedding{
		{ID: "e1", EmbeddableType: document.EmbeddableText, EmbeddableID: tc1.ID, ChunkIndex: 0, Vector: []float64{1, 0, 0}},
		{ID: "e2", EmbeddableType: document.EmbeddableText, EmbeddableID: tc2.ID, ChunkIndex: 0, Vector: []float64{0, 1, 0}},
	}))

	hits, err := s.NearestNeighbors(ctx, store.VectorQuery{Vector: []float64{1, 0, 0}, TopK: 2})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "doc1", hits[0].DocumentID)
	assert.InDelta(t, 0, hits[0].Distance, 1e-6)
}

func TestTouchEmbeddingsIncrementsUsage(t *testing.T) {
	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)
	tc := seedDocument(t, ctx, s, "doc1")

	require.NoError(t, s.AddEmbeddings(ctx, []document.Embedding{
		{ID: "e1", EmbeddableType: document.EmbeddableText, EmbeddableID: tc.ID, ChunkIndex: 0, Vector: []float64{1, 0, 0}},
	}))
	require.NoError(t, s.TouchEmbeddings(ctx, []string{"e1"}))

	hits, err := s.NearestNeighbors(ctx, store.VectorQuery{Vector: []float64{1, 0, 0}, TopK: 1})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Embedding.UsageCount)
	assert.NotNil(t, hits[0].Embedding.ReturnedAt)
}

func TestDeleteDocumentCascadesEmbeddings(t *testing.T) {
	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)
	tc := seedDocument(t, ctx, s, "doc1")

	require.NoError(t, s.AddEmbeddings(ctx, []document.Embedding{
		{ID: "e1", EmbeddableType: document.EmbeddableText, EmbeddableID: tc.ID, ChunkIndex: 0, Vector: []float64{1, 0, 0}},
	}))
	require.NoError(t, s.DeleteDocument(ctx, "doc1"))

	count, err := s.CountEmbeddings(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, ok, err := s.GetDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLexicalSearchMatchesSummary(t *testing.T) {
	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)

	_, err = s.CreateDocument(ctx, document.Document{
		ID: "doc1", Title: "Report", Type: document.TypeText,
		Metadata: map[string]interface{}{"summary": "quarterly revenue figures"},
	})
	require.NoError(t, err)

	hits, err := s.LexicalSearch(ctx, "revenue", 10, store.Filters{})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "doc1", hits[0].DocumentID)
}
