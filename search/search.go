// Package search implements the search engine (spec §4.6): vector
// similarity search combined with usage-aware re-ranking, full hybrid
// semantic+lexical fusion, and faceted filtering.
package search

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/MadBomber/ragdoll-core/gateway"
	"github.com/MadBomber/ragdoll-core/ragerr"
	"github.com/MadBomber/ragdoll-core/store"
)

const (
	defaultLimit              = 10
	defaultSimilarityThresh   = 0.7
	candidatePoolMultiplier   = 2
)

// Hit is one ranked search result.
type Hit struct {
	EmbeddingID       string
	DocumentID        string
	DocumentTitle     string
	DocumentLocation  string
	DocumentMetadata  map[string]interface{}
	Content           string
	SimilarityScore   float64
	UsageScore        float64
	CombinedScore     float64
	LexicalScore      float64 `json:"-"`
}

// Options controls one Search/HybridSearch call. Zero values take the
// Engine's configured defaults.
type Options struct {
	Limit               int
	SimilarityThreshold float64
	Filters             store.Filters
}

// Engine runs ranked queries over a Store, using a Gateway to embed query
// text.
type Engine struct {
	store                    store.Store
	gw                       *gateway.Gateway
	similarityThreshold      float64
	usageFrequencyWeight     float64
	usageRecencyWeight       float64
	usageRecencyHalfLifeDays float64
	semanticWeight           float64
	textWeight               float64
}

// Config mirrors the subset of config.Config the search engine needs,
// avoiding an import-cycle-prone dependency on the whole config package.
type Config struct {
	SimilarityThreshold      float64
	UsageFrequencyWeight     float64
	UsageRecencyWeight       float64
	UsageRecencyHalfLifeDays float64
	SemanticWeight           float64
	TextWeight               float64
}

func New(st store.Store, gw *gateway.Gateway, cfg Config) *Engine {
	e := &Engine{
		store:                    st,
		gw:                       gw,
		similarityThreshold:      cfg.SimilarityThreshold,
		usageFrequencyWeight:     cfg.UsageFrequencyWeight,
		usageRecencyWeight:       cfg.UsageRecencyWeight,
		usageRecencyHalfLifeDays: cfg.UsageRecencyHalfLifeDays,
		semanticWeight:           cfg.SemanticWeight,
		textWeight:               cfg.TextWeight,
	}
	if e.similarityThreshold <= 0 {
		e.similarityThreshold = defaultSimilarityThresh
	}
	if e.usageRecencyHalfLifeDays <= 0 {
		e.usageRecencyHalfLifeDays = 30
	}
	if e.usageFrequencyWeight == 0 && e.usageRecencyWeight == 0 {
		e.usageFrequencyWeight, e.usageRecencyWeight = 0.7, 0.3
	}
	if e.semanticWeight == 0 && e.textWeight == 0 {
		e.semanticWeight, e.textWeight = 0.7, 0.3
	}
	return e
}

// Search embeds query, requests 2x the limit from the store's ANN index so
// the post-threshold-filter result still has enough candidates, re-ranks by
// combined_score = similarity_score + usage_score, and records a usage touch
// on every embedding actually returned (§4.6 step 6).
func (e *Engine) Search(ctx context.Context, query string, opts Options) ([]Hit, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	threshold := opts.SimilarityThreshold
	if threshold <= 0 {
		threshold = e.similarityThreshold
	}

	vec, err := e.gw.Embed(ctx, query)
	if err != nil {
		return nil, ragerr.NewSearchError(query, "failed to embed query", err)
	}

	scored, err := e.store.NearestNeighbors(ctx, store.VectorQuery{
		Vector:  vec,
		TopK:    limit * candidatePoolMultiplier,
		Filters: opts.Filters,
	})
	if err != nil {
		return nil, ragerr.NewSearchError(query, "nearest-neighbor query failed", err)
	}

	hits := make([]Hit, 0, len(scored))
	for _, s := range scored {
		similarity := 1 - s.Distance
		if similarity < threshold {
			continue
		}
		usage := e.usageScore(s.Embedding.UsageCount, s.Embedding.ReturnedAt)
		hits = append(hits, Hit{
			EmbeddingID:      s.Embedding.ID,
			DocumentID:       s.DocumentID,
			DocumentTitle:    s.DocumentTitle,
			DocumentLocation: s.DocumentLocation,
			DocumentMetadata: s.DocumentMetadata,
			Content:          s.Embedding.Content,
			SimilarityScore:  similarity,
			UsageScore:       usage,
			CombinedScore:    combinedScore(similarity, usage),
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].CombinedScore > hits[j].CombinedScore })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	e.touch(ctx, hits)
	return hits, nil
}

// SearchSimilarContent finds embeddings nearest to an already-known
// embedding's vector, excluding the seed embedding itself, for "more like
// this" queries.
func (e *Engine) SearchSimilarContent(ctx context.Context, vector []float64, excludeEmbeddingID string, opts Options) ([]Hit, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	threshold := opts.SimilarityThreshold
	if threshold <= 0 {
		threshold = e.similarityThreshold
	}

	scored, err := e.store.NearestNeighbors(ctx, store.VectorQuery{
		Vector:  vector,
		TopK:    (limit + 1) * candidatePoolMultiplier,
		Filters: opts.Filters,
	})
	if err != nil {
		return nil, ragerr.NewSearchError("", "nearest-neighbor query failed", err)
	}

	hits := make([]Hit, 0, len(scored))
	for _, s := range scored {
		if s.Embedding.ID == excludeEmbeddingID {
			continue
		}
		similarity := 1 - s.Distance
		if similarity < threshold {
			continue
		}
		usage := e.usageScore(s.Embedding.UsageCount, s.Embedding.ReturnedAt)
		hits = append(hits, Hit{
			EmbeddingID:      s.Embedding.ID,
			DocumentID:       s.DocumentID,
			DocumentTitle:    s.DocumentTitle,
			DocumentLocation: s.DocumentLocation,
			DocumentMetadata: s.DocumentMetadata,
			Content:          s.Embedding.Content,
			SimilarityScore:  similarity,
			UsageScore:       usage,
			CombinedScore:    combinedScore(similarity, usage),
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].CombinedScore > hits[j].CombinedScore })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	e.touch(ctx, hits)
	return hits, nil
}

// HybridSearch fuses semantic (vector) and lexical (substring/keyword)
// results: 0.7 weight on semantic, 0.3 on lexical by default, deduplicating
// by document id and keeping the higher-scoring hit (§4.6's hybrid mode).
func (e *Engine) HybridSearch(ctx context.Context, query string, opts Options) ([]Hit, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	semanticHits, err := e.Search(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	lexical, err := e.store.LexicalSearch(ctx, query, limit*candidatePoolMultiplier, opts.Filters)
	if err != nil {
		return nil, ragerr.NewSearchError(query, "lexical search failed", err)
	}

	byDoc := make(map[string]*Hit, len(semanticHits)+len(lexical))
	for _, h := range semanticHits {
		h := h
		h.LexicalScore = 0
		h.CombinedScore = e.semanticWeight*h.SimilarityScore + e.textWeight*0
		if prev, ok := byDoc[h.DocumentID]; ok && prev.CombinedScore >= h.CombinedScore {
			continue
		}
		byDoc[h.DocumentID] = &h
	}
	for _, s := range lexical {
		lexScore := 1 - s.Distance
		if existing, ok := byDoc[s.DocumentID]; ok {
			if existing.LexicalScore >= lexScore {
				continue
			}
			existing.LexicalScore = lexScore
			existing.CombinedScore = e.semanticWeight*existing.SimilarityScore + e.textWeight*lexScore
			continue
		}
		byDoc[s.DocumentID] = &Hit{
			EmbeddingID:      s.Embedding.ID,
			DocumentID:       s.DocumentID,
			DocumentTitle:    s.DocumentTitle,
			DocumentLocation: s.DocumentLocation,
			DocumentMetadata: s.DocumentMetadata,
			Content:          s.Embedding.Content,
			LexicalScore:     lexScore,
			CombinedScore:    e.textWeight * lexScore,
		}
	}

	hits := make([]Hit, 0, len(byDoc))
	for _, h := range byDoc {
		hits = append(hits, *h)
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].CombinedScore > hits[j].CombinedScore })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// FacetedSearch is Search with filters as the primary interface, for
// callers building a faceted-browse UI rather than a free-text query. An
// empty query yields no hits.
func (e *Engine) FacetedSearch(ctx context.Context, query string, filters store.Filters, limit int) ([]Hit, error) {
	return e.Search(ctx, query, Options{Limit: limit, Filters: filters})
}

func (e *Engine) touch(ctx context.Context, hits []Hit) {
	if len(hits) == 0 {
		return
	}
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.EmbeddingID != "" {
			ids = append(ids, h.EmbeddingID)
		}
	}
	if len(ids) == 0 {
		return
	}
	_ = e.store.TouchEmbeddings(ctx, ids)
}

// usageScore implements §4.6's usage_score formula:
//
//	usage_score = 0.7*frequency_score + 0.3*recency_score
//	frequency_score = min(log(usage_count+1)/log(100), 1.0)
//	recency_score = exp(-days_since/30)
func (e *Engine) usageScore(usageCount int, returnedAt *time.Time) float64 {
	frequency := math.Log(float64(usageCount)+1) / math.Log(100)
	if frequency > 1.0 {
		frequency = 1.0
	}

	recency := 0.0
	if returnedAt != nil {
		days := time.Since(*returnedAt).Hours() / 24
		recency = math.Exp(-days / e.usageRecencyHalfLifeDays)
	}

	return e.usageFrequencyWeight*frequency + e.usageRecencyWeight*recency
}

// combinedScore is §4.6 step 4's combined_score: similarity plus usage_score,
// unweighted. usage_score is bounded to [0,1] by usageScore, so usage
// re-ranking can overturn a similarity gap of up to 1.0: a weakly similar
// but frequently returned chunk can outrank a more similar, rarely returned
// one.
func combinedScore(similarity, usage float64) float64 {
	return similarity + usage
}
