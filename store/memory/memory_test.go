package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MadBomber/ragdoll-core/document"
	"github.com/MadBomber/ragdoll-core/store"
)

func seedDocument(t *testing.T, s *Store, id string) document.TextContent {
	ctx := context.Background()
	_, err := s.CreateDocument(ctx, document.Document{ID: id, Title: "t1", Type: document.TypeText})
	require.NoError(t, err)

	tc, err := s.AddTextContent(ctx, document.TextContent{ID: id + "-tc1", DocumentID: id, Content: "hello world"})
	require.NoError(t, err)
	return tc
}

func TestCosineSimilarityZeroCases(t *testing.T) {
	assert.Equal(t, float64(0), cosineSimilarity(nil, []float64{1, 2}))
	assert.Equal(t, float64(0), cosineSimilarity([]float64{0, 0}, []float64{1, 2}))
	assert.Equal(t, float64(0), cosineSimilarity([]float64{1, 2}, []float64{1, 2, 3}))
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float64{1, 2, 3}, []float64{-1, -2, -3}), 1e-9)
}

func TestAddEmbeddingsRejectsDuplicateChunkIndex(t *testing.T) {
	ctx := context.Background()
	s := New()
	tc := seedDocument(t, s, "doc1")

	err := s.AddEmbeddings(ctx, []document.Embedding{
		{ID: "e1", EmbeddableType: document.EmbeddableText, EmbeddableID: tc.ID, ChunkIndex: 0, Vector: []float64{1, 0}},
	})
	require.NoError(t, err)

	err = s.AddEmbeddings(ctx, []document.Embedding{
		{ID: "e2", EmbeddableType: document.EmbeddableText, EmbeddableID: tc.ID, ChunkIndex: 0, Vector: []float64{0, 1}},
	})
	assert.Error(t, err)
}

func TestDeleteCascade(t *testing.T) {
	ctx := context.Background()
	s := New()
	tc := seedDocument(t, s, "doc1")

	err := s.AddEmbeddings(ctx, []document.Embedding{
		{ID: "e1", EmbeddableType: document.EmbeddableText, EmbeddableID: tc.ID, ChunkIndex: 0, Vector: []float64{1, 0}},
		{ID: "e2", EmbeddableType: document.EmbeddableText, EmbeddableID: tc.ID, ChunkIndex: 1, Vector: []float64{0, 1}},
	})
	require.NoError(t, err)

	count, err := s.CountEmbeddings(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, s.DeleteDocument(ctx, "doc1"))

	count, err = s.CountEmbeddings(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, found, err := s.GetDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteMissingDocumentIsNoOp(t *testing.T) {
	s := New()
	err := s.DeleteDocument(context.Background(), "does-not-exist")
	assert.NoError(t, err)
}

func TestNearestNeighborsRanksByDistance(t *testing.T) {
	ctx := context.Background()
	s := New()
	tc := seedDocument(t, s, "doc1")

	require.NoError(t, s.AddEmbeddings(ctx, []document.Embedding{
		{ID: "e1", EmbeddableType: document.EmbeddableText, EmbeddableID: tc.ID, ChunkIndex: 0, Vector: []float64{1, 0}},
		{ID: "e2", EmbeddableType: document.EmbeddableText, EmbeddableID: tc.ID, ChunkIndex: 1, Vector: []float64{0, 1}},
	}))

	results, err := s.NearestNeighbors(ctx, store.VectorQuery{Vector: []float64{1, 0}, TopK: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "e1", results[0].Embedding.ID)
}

func TestTouchEmbeddingsBatchUpdate(t *testing.T) {
	ctx := context.Background()
	s := New()
	tc := seedDocument(t, s, "doc1")

	require.NoError(t, s.AddEmbeddings(ctx, []document.Embedding{
		{ID: "e1", EmbeddableType: document.EmbeddableText, EmbeddableID: tc.ID, ChunkIndex: 0, Vector: []float64{1, 0}},
	}))

	before := time.Now()
	require.NoError(t, s.TouchEmbeddings(ctx, []string{"e1"}))

	results, err := s.NearestNeighbors(ctx, store.VectorQuery{Vector: []float64{1, 0}, TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Embedding.UsageCount)
	require.NotNil(t, results[0].Embedding.ReturnedAt)
	assert.True(t, !results[0].Embedding.ReturnedAt.Before(before))
}

func TestListDocumentsFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.CreateDocument(ctx, document.Document{ID: "a", Status: document.StatusProcessed})
	require.NoError(t, err)
	_, err = s.CreateDocument(ctx, document.Document{ID: "b", Status: document.StatusPending})
	require.NoError(t, err)

	docs, err := s.ListDocuments(ctx, store.ListOptions{Status: document.StatusProcessed})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a", docs[0].ID)
}
