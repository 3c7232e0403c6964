package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MadBomber/ragdoll-core/config"
	"github.com/MadBomber/ragdoll-core/document"
	"github.com/MadBomber/ragdoll-core/gateway"
	"github.com/MadBomber/ragdoll-core/store"
	"github.com/MadBomber/ragdoll-core/store/memory"
)

func newEngine(t *testing.T) (*Engine, *memory.Store, *gateway.Gateway) {
	t.Helper()
	st := memory.New()
	gw := gateway.New(config.New())
	e := New(st, gw, Config{
		SimilarityThreshold:      0.5,
		UsageFrequencyWeight:     0.7,
		UsageRecencyWeight:       0.3,
		UsageRecencyHalfLifeDays: 30,
		SemanticWeight:           0.7,
		TextWeight:               0.3,
	})
	return e, st, gw
}

func seedEmbedding(t *testing.T, ctx context.Context, st *memory.Store, gw *gateway.Gateway, docID, content string) {
	t.Helper()
	_, err := st.CreateDocument(ctx, document.Document{ID: docID, Title: docID, Status: document.StatusProcessed,
		Metadata: map[string]interface{}{"summary": content, "keywords": content}})
	require.NoError(t, err)
	tc, err := st.AddTextContent(ctx, document.TextContent{ID: docID + "-tc", DocumentID: docID, Content: content})
	require.NoError(t, err)

	vec, err := gw.Embed(ctx, content)
	require.NoError(t, err)

	err = st.AddEmbeddings(ctx, []document.Embedding{{
		ID:             docID + "-emb",
		EmbeddableType: document.EmbeddableText,
		EmbeddableID:   tc.ID,
		ChunkIndex:     0,
		Content:        content,
		Vector:         vec,
	}})
	require.NoError(t, err)
}

func TestSearchReturnsExactMatchAboveThreshold(t *testing.T) {
	e, st, gw := newEngine(t)
	ctx := context.Background()

	seedEmbedding(t, ctx, st, gw, "doc1", "apple pie recipe")
	seedEmbedding(t, ctx, st, gw, "doc2", "rocket engine design")

	hits, err := e.Search(ctx, "apple pie recipe", Options{Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "doc1", hits[0].DocumentID)
	assert.InDelta(t, 1.0, hits[0].SimilarityScore, 1e-9)
}

func TestSearchFiltersBelowThreshold(t *testing.T) {
	e, st, gw := newEngine(t)
	ctx := context.Background()
	seedEmbedding(t, ctx, st, gw, "doc1", "apple pie recipe")

	hits, err := e.Search(ctx, "completely unrelated text about geology", Options{Limit: 5, SimilarityThreshold: 0.999})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchTouchesReturnedEmbeddings(t *testing.T) {
	e, st, gw := newEngine(t)
	ctx := context.Background()
	seedEmbedding(t, ctx, st, gw, "doc1", "apple pie recipe")

	_, err := e.Search(ctx, "apple pie recipe", Options{Limit: 5})
	require.NoError(t, err)

	count, err := st.CountEmbeddings(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	res, err := st.NearestNeighbors(ctx, store.VectorQuery{Vector: nil, TopK: 10})
	require.NoError(t, err)
	require.NotEmpty(t, res)
	found := false
	for _, r := range res {
		if r.Embedding.ID == "doc1-emb" {
			found = true
			assert.Equal(t, 1, r.Embedding.UsageCount)
			assert.NotNil(t, r.Embedding.ReturnedAt)
		}
	}
	assert.True(t, found)
}

func TestUsageScoreFormula(t *testing.T) {
	e, _, _ := newEngine(t)
	now := time.Now()
	score := e.usageScore(99, &now)
	assert.Greater(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)

	zeroUsage := e.usageScore(0, nil)
	assert.Equal(t, 0.0, zeroUsage)
}

func TestHybridSearchDedupsByDocument(t *testing.T) {
	e, st, gw := newEngine(t)
	ctx := context.Background()
	seedEmbedding(t, ctx, st, gw, "doc1", "apple pie recipe")

	hits, err := e.HybridSearch(ctx, "apple", Options{Limit: 5})
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, h := range hits {
		assert.False(t, seen[h.DocumentID], "document %q appeared twice", h.DocumentID)
		seen[h.DocumentID] = true
	}
}

func TestFacetedSearchAppliesFilters(t *testing.T) {
	e, st, gw := newEngine(t)
	ctx := context.Background()
	seedEmbedding(t, ctx, st, gw, "doc1", "apple pie recipe")

	hits, err := e.FacetedSearch(ctx, "apple pie recipe", store.Filters{DocumentID: "doc-does-not-exist"}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
