// Package jobs implements the three idempotent ingestion jobs of spec §4.5
// (extract_text, generate_metadata, generate_embeddings) and a concurrency-
// controlled Runner to drive them, grounded on evaluation/batch_runner.go's
// channel-plus-WaitGroup worker pool.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MadBomber/ragdoll-core/chunker"
	"github.com/MadBomber/ragdoll-core/config"
	"github.com/MadBomber/ragdoll-core/document"
	"github.com/MadBomber/ragdoll-core/gateway"
	"github.com/MadBomber/ragdoll-core/metadata"
	"github.com/MadBomber/ragdoll-core/parser"
	"github.com/MadBomber/ragdoll-core/ragerr"
	"github.com/MadBomber/ragdoll-core/store"
)

// Name identifies one of the three jobs a Runner can execute.
type Name string

const (
	JobExtractText       Name = "extract_text"
	JobGenerateMetadata  Name = "generate_metadata"
	JobGenerateEmbeddings Name = "generate_embeddings"
)

// Request is one unit of work: run Job against DocumentID, with Content the
// raw bytes to parse (only read by JobExtractText; the other two jobs read
// the document's already-persisted content).
type Request struct {
	Job        Name
	DocumentID string
	Content    []byte
}

// Result reports what happened to one Request.
type Result struct {
	Request Request
	Err     error
}

// Runner executes jobs against a Store, serializing per-document work via a
// keyed mutex so extract_text/generate_metadata/generate_embeddings for the
// same document never race, while different documents still run concurrently
// (evaluation/batch_runner.go's workers pattern, generalized to three job
// kinds instead of one).
type Runner struct {
	store   store.Store
	gw      *gateway.Gateway
	metaGen *metadata.Generator
	cfg     *config.Config
	workers int
	locks   *keyedMutex
	logger  *slog.Logger
}

func New(st store.Store, gw *gateway.Gateway, cfg *config.Config, workers int) *Runner {
	if workers <= 0 {
		workers = 2
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return &Runner{
		store:   st,
		gw:      gw,
		metaGen: metadata.New(gw),
		cfg:     cfg,
		workers: workers,
		locks:   newKeyedMutex(),
		logger:  logger,
	}
}

// Run executes every request, routing same-document requests through the
// same serialization point, and returns one Result per request in the
// order submitted.
func (r *Runner) Run(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))
	idxChan := make(chan int, len(reqs))
	var wg sync.WaitGroup

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range idxChan {
				req := reqs[idx]
				unlock := r.locks.Lock(req.DocumentID)
				err := r.runOne(ctx, req)
				unlock()
				results[idx] = Result{Request: req, Err: err}
			}
		}()
	}

	for i := range reqs {
		idxChan <- i
	}
	close(idxChan)
	wg.Wait()

	return results
}

// RunOne executes a single request synchronously, for callers that do not
// need the batch machinery (e.g. the façade's AddDocument, which must know
// the outcome before returning).
func (r *Runner) RunOne(ctx context.Context, req Request) error {
	unlock := r.locks.Lock(req.DocumentID)
	defer unlock()
	return r.runOne(ctx, req)
}

func (r *Runner) runOne(ctx context.Context, req Request) error {
	switch req.Job {
	case JobExtractText:
		return r.extractText(ctx, req.DocumentID, req.Content)
	case JobGenerateMetadata:
		return r.generateMetadata(ctx, req.DocumentID)
	case JobGenerateEmbeddings:
		return r.generateEmbeddings(ctx, req.DocumentID)
	default:
		return ragerr.NewDocumentError(req.DocumentID, fmt.Sprintf("unknown job %q", req.Job), nil)
	}
}

// extractText parses the request's Content bytes (choosing the format by
// doc.Location's extension), persists a TextContent child, and merges the
// parser's file metadata into the document's FileMetadata. A document
// missing at call time is a no-op, not an error (§4.5's precondition).
// Status lands on "processed" only once generate_embeddings (the last of
// the three ordered jobs) completes; extract_text itself leaves the
// document "processing" on success, or "error" if extraction yielded no
// content at all.
func (r *Runner) extractText(ctx context.Context, docID string, content []byte) error {
	doc, ok, err := r.store.GetDocument(ctx, docID)
	if err != nil {
		return ragerr.NewStorageError(docID, "failed to load document", err)
	}
	if !ok {
		r.logger.Warn("extract_text: document missing, skipping", "document_id", docID)
		return nil
	}

	if err := r.store.UpdateDocument(ctx, withStatus(doc, document.StatusProcessing)); err != nil {
		return ragerr.NewStorageError(docID, "failed to mark document processing", err)
	}

	res, err := parser.Parse(doc.Location, content)
	if err != nil {
		r.markError(ctx, doc)
		return err
	}
	if strings.TrimSpace(res.Content) == "" {
		r.markError(ctx, doc)
		return ragerr.NewDocumentError(docID, "extraction produced no content", nil)
	}

	doc.FileMetadata = mergeMaps(doc.FileMetadata, res.FileMetadata)
	if doc.Title == "" {
		doc.Title = res.Title
	}
	doc.Type = res.Type
	if err := r.store.UpdateDocument(ctx, doc); err != nil {
		return ragerr.NewStorageError(docID, "failed to persist extracted metadata", err)
	}

	_, err = r.store.AddTextContent(ctx, document.TextContent{
		ID:         uuid.NewString(),
		DocumentID: docID,
		Content:    res.Content,
	})
	if err != nil {
		return ragerr.NewStorageError(docID, "failed to persist extracted content", err)
	}

	return nil
}

// generateMetadata is a no-op if the document's metadata already satisfies
// its type's required-field schema (§4.5 job 2's idempotency rule).
func (r *Runner) generateMetadata(ctx context.Context, docID string) error {
	doc, ok, err := r.store.GetDocument(ctx, docID)
	if err != nil {
		return ragerr.NewStorageError(docID, "failed to load document", err)
	}
	if !ok {
		r.logger.Warn("generate_metadata: document missing, skipping", "document_id", docID)
		return nil
	}

	contents, err := r.store.GetTextContents(ctx, docID)
	if err != nil {
		return ragerr.NewStorageError(docID, "failed to load content", err)
	}
	content := ""
	if len(contents) > 0 {
		content = contents[0].Content
	}

	generated, valErrs := r.metaGen.Generate(ctx, doc.Type, content, doc.FileMetadata, doc.Metadata)
	for _, ve := range valErrs {
		r.logger.Warn("generate_metadata: validation issue", "document_id", docID, "error", ve.Error())
	}

	doc.Metadata = generated
	return r.store.UpdateDocument(ctx, doc)
}

// generateEmbeddings chunks each content child's text (§4.2) and embeds each
// chunk (§4.3). A document that already has any embeddings gets no new
// ones, so re-runs are idempotent. As
// the last of the three ordered jobs (§4.5), it marks the document
// "processed" on success.
func (r *Runner) generateEmbeddings(ctx context.Context, docID string) error {
	doc, ok, err := r.store.GetDocument(ctx, docID)
	if err != nil {
		return ragerr.NewStorageError(docID, "failed to load document", err)
	}
	if !ok {
		r.logger.Warn("generate_embeddings: document missing, skipping", "document_id", docID)
		return nil
	}

	contents, err := r.store.GetTextContents(ctx, docID)
	if err != nil {
		return ragerr.NewStorageError(docID, "failed to load content", err)
	}

	modelName := r.cfg.ResolveProvider(config.TaskEmbedding)

	existing, err := r.store.CountEmbeddings(ctx, docID)
	if err != nil {
		return ragerr.NewStorageError(docID, "failed to count embeddings", err)
	}
	if existing > 0 {
		contents = nil // already embedded: a re-run adds nothing
	}

	for _, c := range contents {
		chunks := chunker.Chunk(c.Content, r.cfg.ChunkSize, r.cfg.ChunkOverlap)

		embeddings := make([]document.Embedding, 0, len(chunks))
		for idx, chunkText := range chunks {
			vec, err := r.gw.Embed(ctx, chunkText)
			if err != nil {
				return ragerr.NewEmbeddingError(docID, "failed to embed chunk", err)
			}
			embeddings = append(embeddings, document.Embedding{
				ID:             uuid.NewString(),
				EmbeddableType: document.EmbeddableText,
				EmbeddableID:   c.ID,
				ChunkIndex:     idx,
				Content:        chunkText,
				Vector:         vec,
				EmbeddingModel: modelName,
				CreatedAt:      time.Now(),
			})
		}
		if err := r.store.AddEmbeddings(ctx, embeddings); err != nil {
			return ragerr.NewStorageError(docID, "failed to persist embeddings", err)
		}
	}

	doc.Status = document.StatusProcessed
	if err := r.store.UpdateDocument(ctx, doc); err != nil {
		return ragerr.NewStorageError(docID, "failed to mark document processed", err)
	}

	return nil
}

func (r *Runner) markError(ctx context.Context, doc document.Document) {
	doc.Status = document.StatusError
	if err := r.store.UpdateDocument(ctx, doc); err != nil {
		r.logger.Error("failed to mark document error", "document_id", doc.ID, "error", err)
	}
}

func withStatus(doc document.Document, s document.Status) document.Document {
	doc.Status = s
	return doc
}

func mergeMaps(base, overlay map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}
