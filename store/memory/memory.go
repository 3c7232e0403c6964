// Package memory is an in-process Store implementation, adapted from
// rag/store/simple.go's SimpleVectorStore: an RWMutex-guarded map with a
// linear-scan cosine-similarity query, extended here with the documents/
// content tables and a substring-based lexical index the full Store
// contract requires.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MadBomber/ragdoll-core/document"
	"github.com/MadBomber/ragdoll-core/ragerr"
	"github.com/MadBomber/ragdoll-core/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu sync.RWMutex

	documents     map[string]document.Document
	textContents  map[string][]document.TextContent // by document id
	imageContents map[string][]document.ImageContent
	audioContents map[string][]document.AudioContent
	embeddings    map[string]document.Embedding // by embedding id
	embByOwner    map[string][]string           // (embeddableType:embeddableID) -> embedding ids
}

// New creates an empty in-memory Store.
func New() *Store {
	return &Store{
		documents:     make(map[string]document.Document),
		textContents:  make(map[string][]document.TextContent),
		imageContents: make(map[string][]document.ImageContent),
		audioContents: make(map[string][]document.AudioContent),
		embeddings:    make(map[string]document.Embedding),
		embByOwner:    make(map[string][]string),
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) CreateDocument(ctx context.Context, doc document.Document) (document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		return document.Document{}, ragerr.NewStorageError("", "document id must not be empty", nil)
	}
	if _, exists := s.documents[doc.ID]; exists {
		return document.Document{}, ragerr.NewStorageError(doc.ID, "document already exists", nil)
	}

	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	s.documents[doc.ID] = doc
	return doc, nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (document.Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	return doc, ok, nil
}

func (s *Store) UpdateDocument(ctx context.Context, doc document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.documents[doc.ID]
	if !ok {
		return ragerr.NewStorageError(doc.ID, "document not found", nil)
	}
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = time.Now()
	s.documents[doc.ID] = doc
	return nil
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return nil // deleting a missing document is a no-op, not an error
	}

	for _, tc := range s.textContents[id] {
		s.removeEmbeddingsForOwner(document.EmbeddableText, tc.ID)
	}
	for _, ic := range s.imageContents[id] {
		s.removeEmbeddingsForOwner(document.EmbeddableImage, ic.ID)
	}
	for _, ac := range s.audioContents[id] {
		s.removeEmbeddingsForOwner(document.EmbeddableAudio, ac.ID)
	}

	delete(s.documents, id)
	delete(s.textContents, id)
	delete(s.imageContents, id)
	delete(s.audioContents, id)
	return nil
}

func (s *Store) removeEmbeddingsForOwner(t document.EmbeddableType, ownerID string) {
	key := ownerKey(t, ownerID)
	for _, embID := range s.embByOwner[key] {
		delete(s.embeddings, embID)
	}
	delete(s.embByOwner, key)
}

func ownerKey(t document.EmbeddableType, id string) string {
	return string(t) + ":" + id
}

func (s *Store) ListDocuments(ctx context.Context, opts store.ListOptions) ([]document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []document.Document
	for _, d := range s.documents {
		if opts.Status != "" && d.Status != opts.Status {
			continue
		}
		docs = append(docs, d)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.Before(docs[j].CreatedAt) })

	if opts.Offset > 0 && opts.Offset < len(docs) {
		docs = docs[opts.Offset:]
	} else if opts.Offset >= len(docs) {
		return nil, nil
	}
	if opts.Limit > 0 && opts.Limit < len(docs) {
		docs = docs[:opts.Limit]
	}
	return docs, nil
}

func (s *Store) AddTextContent(ctx context.Context, c document.TextContent) (document.TextContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[c.DocumentID]; !ok {
		return document.TextContent{}, ragerr.NewStorageError(c.DocumentID, "document not found", nil)
	}
	s.textContents[c.DocumentID] = append(s.textContents[c.DocumentID], c)
	return c, nil
}

func (s *Store) GetTextContents(ctx context.Context, documentID string) ([]document.TextContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]document.TextContent(nil), s.textContents[documentID]...), nil
}

func (s *Store) AddImageContent(ctx context.Context, c document.ImageContent) (document.ImageContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imageContents[c.DocumentID] = append(s.imageContents[c.DocumentID], c)
	return c, nil
}

func (s *Store) AddAudioContent(ctx context.Context, c document.AudioContent) (document.AudioContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audioContents[c.DocumentID] = append(s.audioContents[c.DocumentID], c)
	return c, nil
}

func (s *Store) AddEmbeddings(ctx context.Context, embeddings []document.Embedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range embeddings {
		if e.ID == "" {
			return ragerr.NewStorageError("", "embedding id must not be empty", nil)
		}
		key := ownerKey(e.EmbeddableType, e.EmbeddableID)
		for _, existingID := range s.embByOwner[key] {
			if s.embeddings[existingID].ChunkIndex == e.ChunkIndex {
				return ragerr.NewStorageError(e.ID, fmt.Sprintf("chunk_index %d already exists for %s", e.ChunkIndex, key), nil)
			}
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		s.embeddings[e.ID] = e
		s.embByOwner[key] = append(s.embByOwner[key], e.ID)
	}
	return nil
}

func (s *Store) CountEmbeddings(ctx context.Context, documentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, tc := range s.textContents[documentID] {
		count += len(s.embByOwner[ownerKey(document.EmbeddableText, tc.ID)])
	}
	for _, ic := range s.imageContents[documentID] {
		count += len(s.embByOwner[ownerKey(document.EmbeddableImage, ic.ID)])
	}
	for _, ac := range s.audioContents[documentID] {
		count += len(s.embByOwner[ownerKey(document.EmbeddableAudio, ac.ID)])
	}
	return count, nil
}

func (s *Store) NearestNeighbors(ctx context.Context, q store.VectorQuery) ([]store.ScoredEmbedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []store.ScoredEmbedding
	for _, e := range s.embeddings {
		docID, ownerDoc, ok := s.ownerDocument(e)
		if !ok {
			continue
		}
		if !matchesFilters(q.Filters, ownerDoc, e) {
			continue
		}
		if len(e.Vector) == 0 {
			continue
		}

		sim := cosineSimilarity(q.Vector, e.Vector)
		candidates = append(candidates, store.ScoredEmbedding{
			Embedding:        e,
			Distance:         1 - sim,
			DocumentID:       docID,
			DocumentTitle:    ownerDoc.Title,
			DocumentLocation: ownerDoc.Location,
			DocumentMetadata: ownerDoc.Metadata,
		})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Distance < candidates[j].Distance })

	topK := q.TopK
	if topK <= 0 || topK > len(candidates) {
		topK = len(candidates)
	}
	return candidates[:topK], nil
}

// ownerDocument resolves the Document owning an Embedding's content record.
func (s *Store) ownerDocument(e document.Embedding) (string, document.Document, bool) {
	switch e.EmbeddableType {
	case document.EmbeddableText:
		for docID, list := range s.textContents {
			for _, tc := range list {
				if tc.ID == e.EmbeddableID {
					d := s.documents[docID]
					return docID, d, true
				}
			}
		}
	case document.EmbeddableImage:
		for docID, list := range s.imageContents {
			for _, ic := range list {
				if ic.ID == e.EmbeddableID {
					d := s.documents[docID]
					return docID, d, true
				}
			}
		}
	case document.EmbeddableAudio:
		for docID, list := range s.audioContents {
			for _, ac := range list {
				if ac.ID == e.EmbeddableID {
					d := s.documents[docID]
					return docID, d, true
				}
			}
		}
	}
	return "", document.Document{}, false
}

func matchesFilters(f store.Filters, doc document.Document, e document.Embedding) bool {
	if f.DocumentType != "" && string(doc.Type) != f.DocumentType {
		return false
	}
	if f.DocumentID != "" && doc.ID != f.DocumentID {
		return false
	}
	if f.EmbeddingModel != "" && e.EmbeddingModel != f.EmbeddingModel {
		return false
	}
	if f.Classification != "" {
		if v, ok := doc.Metadata["classification"]; !ok || fmt.Sprintf("%v", v) != f.Classification {
			return false
		}
	}
	if len(f.Tags) > 0 {
		tags, _ := doc.Metadata["tags"].([]string)
		for _, want := range f.Tags {
			found := false
			for _, got := range tags {
				if got == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	if f.CreatedAfter != nil && doc.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && doc.CreatedAt.After(*f.CreatedBefore) {
		return false
	}
	if len(f.Keywords) > 0 {
		kw := fmt.Sprintf("%v", doc.Metadata["keywords"])
		for _, want := range f.Keywords {
			if !strings.Contains(strings.ToLower(kw), strings.ToLower(want)) {
				return false
			}
		}
	}
	return true
}

func (s *Store) LexicalSearch(ctx context.Context, query string, limit int, filters store.Filters) ([]store.ScoredEmbedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil, nil
	}

	var hits []store.ScoredEmbedding
	for docID, doc := range s.documents {
		haystack := strings.ToLower(strings.Join([]string{
			doc.Title,
			fmt.Sprintf("%v", doc.Metadata["summary"]),
			fmt.Sprintf("%v", doc.Metadata["keywords"]),
			fmt.Sprintf("%v", doc.Metadata["description"]),
		}, " "))

		matchCount := 0
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				matchCount++
			}
		}
		if matchCount == 0 {
			continue
		}

		tcs := s.textContents[docID]
		var rep document.Embedding
		var ownerID string
		if len(tcs) > 0 {
			ownerID = tcs[0].ID
			if ids := s.embByOwner[ownerKey(document.EmbeddableText, ownerID)]; len(ids) > 0 {
				rep = s.embeddings[ids[0]]
			}
		}

		if !matchesFilters(filters, doc, rep) {
			continue
		}

		relevance := float64(matchCount) / float64(len(tokens))
		hits = append(hits, store.ScoredEmbedding{
			Embedding:        rep,
			Distance:         1 - relevance,
			DocumentID:       docID,
			DocumentTitle:    doc.Title,
			DocumentLocation: doc.Location,
			DocumentMetadata: doc.Metadata,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })

	if limit > 0 && limit < len(hits) {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *Store) TouchEmbeddings(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, id := range ids {
		e, ok := s.embeddings[id]
		if !ok {
			continue
		}
		e.UsageCount++
		e.ReturnedAt = &now
		s.embeddings[id] = e
	}
	return nil
}

func (s *Store) Healthy(ctx context.Context) error {
	return nil
}

// cosineSimilarity returns 0 for null/zero-magnitude/mismatched-length
// inputs, per spec §4.6's "cosine similarity reference", matching
// rag/store/simple.go's local helper rather than returning an error in
// those cases.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
