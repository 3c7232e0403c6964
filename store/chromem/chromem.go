// Package chromem is a Store implementation that also writes every
// embedding to disk through github.com/philippgille/chromem-go. A new
// process starts with empty in-memory indexes, so nearest-neighbor search
// does not see embeddings written by an earlier process. Document
// and content bookkeeping is adapted from store/memory's in-process maps;
// only the vector collection is chromem-backed.
//
// Grounded on rag/store/chromem/store.go's ChromemStore (the same
// NewPersistentDB/GetOrCreateCollection/AddDocuments/QueryEmbedding calls),
// generalized from that file's single Add/Query pair to the full
// store.Store contract.
package chromem

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/MadBomber/ragdoll-core/document"
	"github.com/MadBomber/ragdoll-core/ragerr"
	"github.com/MadBomber/ragdoll-core/store"
)

const embeddingCollection = "ragdoll_embeddings"

// Store is a chromem-go-backed implementation of store.Store.
//
// Document, text/image/audio content, and the owner index used for
// filtering and cascade delete live in memory for the process lifetime,
// the same as store/memory.Store; only embedding vectors and their usage
// metadata are mirrored into a persistent chromem collection, which is the
// part that actually benefits from durability across restarts. Rebuilding
// the in-memory document index itself from a prior run's chromem data is
// not implemented in this pass — a fresh process starts with an empty
// document/content index even when persistPath points at an existing
// database, so this store is best suited to a single long-running process
// rather than one that restarts and expects prior documents to reappear.
type Store struct {
	mu sync.RWMutex

	db         *chromemgo.DB
	collection *chromemgo.Collection

	documents     map[string]document.Document
	textContents  map[string][]document.TextContent
	imageContents map[string][]document.ImageContent
	audioContents map[string][]document.AudioContent
	embeddings    map[string]document.Embedding
	embByOwner    map[string][]string
}

// Open creates a Store backed by a chromem-go database. An empty
// persistPath keeps the database in memory only, matching chromem-go's own
// NewDB/NewPersistentDB split.
func Open(persistPath string) (*Store, error) {
	var db *chromemgo.DB
	var err error
	if persistPath != "" {
		db, err = chromemgo.NewPersistentDB(persistPath, false)
	} else {
		db = chromemgo.NewDB()
	}
	if err != nil {
		return nil, ragerr.NewStorageError("", "failed to open chromem database", err)
	}

	collection, err := db.GetOrCreateCollection(embeddingCollection, nil, nil)
	if err != nil {
		return nil, ragerr.NewStorageError("", "failed to open chromem embedding collection", err)
	}

	return &Store{
		db:            db,
		collection:    collection,
		documents:     make(map[string]document.Document),
		textContents:  make(map[string][]document.TextContent),
		imageContents: make(map[string][]document.ImageContent),
		audioContents: make(map[string][]document.AudioContent),
		embeddings:    make(map[string]document.Embedding),
		embByOwner:    make(map[string][]string),
	}, nil
}

var _ store.Store = (*Store)(nil)

func ownerKey(t document.EmbeddableType, id string) string {
	return string(t) + ":" + id
}

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
		return nil
	}

	var ids []string
	for _, tc := range s.textContents[id] {
		ids = append(ids, s.embByOwner[ownerKey(document.EmbeddableText, tc.ID)]...)
		s.removeEmbeddingsForOwner(document.EmbeddableText, tc.ID)
	}
	for _, ic := range s.imageContents[id] {
		ids = append(ids, s.embByOwner[ownerKey(document.EmbeddableImage, ic.ID)]...)
		s.removeEmbeddingsForOwner(document.EmbeddableImage, ic.ID)
	}
	for _, ac := range s.audioContents[id] {
		ids = append(ids, s.embByOwner[ownerKey(document.EmbeddableAudio, ac.ID)]...)
		s.removeEmbeddingsForOwner(document.EmbeddableAudio, ac.ID)
	}

	if len(ids) > 0 {
		if err := s.collection.Delete(ctx, nil, nil, ids...); err != nil {
			return ragerr.NewStorageError(id, "failed to delete embeddings from chromem", err)
		}
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

// AddEmbeddings writes to the in-memory owner index and mirrors each vector
// into the chromem collection so NearestNeighbors can delegate the actual
// similarity search to chromem-go instead of scanning in process.
func (s *Store) AddEmbeddings(ctx context.Context, embeddings []document.Embedding) error {
	s.mu.Lock()
	docs := make([]chromemgo.Document, 0, len(embeddings))
	for _, e := range embeddings {
		if e.ID == "" {
			s.mu.Unlock()
			return ragerr.NewStorageError("", "embedding id must not be empty", nil)
		}
		key := ownerKey(e.EmbeddableType, e.EmbeddableID)
		for _, existingID := range s.embByOwner[key] {
			if s.embeddings[existingID].ChunkIndex == e.ChunkIndex {
				s.mu.Unlock()
				return ragerr.NewStorageError(e.ID, fmt.Sprintf("chunk_index %d already exists for %s", e.ChunkIndex, key), nil)
			}
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		s.embeddings[e.ID] = e
		s.embByOwner[key] = append(s.embByOwner[key], e.ID)
		docs = append(docs, chromemgo.Document{
			ID:        e.ID,
			Content:   e.Content,
			Metadata:  embeddingMetadata(e),
			Embedding: toFloat32(e.Vector),
		})
	}
	s.mu.Unlock()

	if len(docs) == 0 {
		return nil
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return ragerr.NewStorageError("", "failed to add embeddings to chromem", err)
	}
	return nil
}

func embeddingMetadata(e document.Embedding) map[string]string {
	return map[string]string{
		"embeddable_type": string(e.EmbeddableType),
		"embeddable_id":   e.EmbeddableID,
		"embedding_model": e.EmbeddingModel,
		"chunk_index":     strconv.Itoa(e.ChunkIndex),
	}
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

// NearestNeighbors queries chromem's HNSW-free brute-force cosine search
// (QueryEmbedding) for a pool of candidates, then applies the same
// document-level filter predicates store/memory uses, since chromem's
// where-clause only supports flat equality over the embedding's own
// metadata and can't see the owning document's fields.
func (s *Store) NearestNeighbors(ctx context.Context, q store.VectorQuery) ([]store.ScoredEmbedding, error) {
	s.mu.RLock()
	total := len(s.embeddings)
	s.mu.RUnlock()
	if total == 0 {
		return nil, nil
	}

	pool := q.TopK * 4
	if pool <= 0 || pool > total {
		pool = total
	}

	where := map[string]string{}
	if q.Filters.EmbeddingModel != "" {
		where["embedding_model"] = q.Filters.EmbeddingModel
	}

	res, err := s.collection.QueryEmbedding(ctx, toFloat32(q.Vector), pool, where, nil)
	if err != nil {
		return nil, ragerr.NewStorageError("", "chromem query failed", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]store.ScoredEmbedding, 0, len(res))
	for _, r := range res {
		e, ok := s.embeddings[r.ID]
		if !ok {
			continue
		}
		docID, ownerDoc, ok := s.ownerDocument(e)
		if !ok {
			continue
		}
		if !matchesFilters(q.Filters, ownerDoc, e) {
			continue
		}
		candidates = append(candidates, store.ScoredEmbedding{
			Embedding:        e,
			Distance:         1 - float64(r.Similarity),
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

func (s *Store) ownerDocument(e document.Embedding) (string, document.Document, bool) {
	switch e.EmbeddableType {
	case document.EmbeddableText:
		for docID, list := range s.textContents {
			for _, tc := range list {
				if tc.ID == e.EmbeddableID {
					return docID, s.documents[docID], true
				}
			}
		}
	case document.EmbeddableImage:
		for docID, list := range s.imageContents {
			for _, ic := range list {
				if ic.ID == e.EmbeddableID {
					return docID, s.documents[docID], true
				}
			}
		}
	case document.EmbeddableAudio:
		for docID, list := range s.audioContents {
			for _, ac := range list {
				if ac.ID == e.EmbeddableID {
					return docID, s.documents[docID], true
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
		if len(tcs) > 0 {
			if ids := s.embByOwner[ownerKey(document.EmbeddableText, tcs[0].ID)]; len(ids) > 0 {
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

// TouchEmbeddings updates the in-memory usage fields and re-adds the
// affected documents to chromem under the same ID, which chromem-go
// treats as an upsert, so the usage counters persist alongside the vector.
func (s *Store) TouchEmbeddings(ctx context.Context, ids []string) error {
	s.mu.Lock()
	now := time.Now()
	docs := make([]chromemgo.Document, 0, len(ids))
	for _, id := range ids {
		e, ok := s.embeddings[id]
		if !ok {
			continue
		}
		e.UsageCount++
		e.ReturnedAt = &now
		s.embeddings[id] = e
		docs = append(docs, chromemgo.Document{
			ID:        e.ID,
			Content:   e.Content,
			Metadata:  embeddingMetadata(e),
			Embedding: toFloat32(e.Vector),
		})
	}
	s.mu.Unlock()

	if len(docs) == 0 {
		return nil
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return ragerr.NewStorageError("", "failed to persist embedding usage touch", err)
	}
	return nil
}

func (s *Store) Healthy(ctx context.Context) error {
	if s.db == nil || s.collection == nil {
		return ragerr.NewStorageError("", "chromem database not initialized", nil)
	}
	return nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
