// Package ragdoll is the client façade (spec §4.7): it composes storage,
// the job runner, and the search engine into the operations a caller
// actually calls — add_document, add_text, add_directory, search, and the
// rest of §6's public surface — without ever invoking a completion endpoint
// to synthesize an answer, per the module's Non-goal on generation.
//
// Generalizes rag/system.go's RAGSystem composition, but where RAGSystem's
// Query calls a Synthesizer to produce a final answer, EnhancePrompt here
// stops at template substitution.
package ragdoll

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MadBomber/ragdoll-core/config"
	"github.com/MadBomber/ragdoll-core/document"
	"github.com/MadBomber/ragdoll-core/gateway"
	"github.com/MadBomber/ragdoll-core/jobs"
	"github.com/MadBomber/ragdoll-core/parser"
	"github.com/MadBomber/ragdoll-core/ragerr"
	"github.com/MadBomber/ragdoll-core/search"
	"github.com/MadBomber/ragdoll-core/store"
)

const promptTemplate = "{{context}}\n\n{{prompt}}"

// Client is the library entry point. Build one with New and keep it for the
// lifetime of the process; Configure atomically swaps its configuration.
type Client struct {
	st     store.Store
	gw     *gateway.Gateway
	runner *jobs.Runner
	engine *search.Engine
	cfg    *config.Config
}

// New builds a Client over st, wiring the job runner and search engine from
// cfg. workers bounds the job runner's concurrency (0 takes jobs.New's
// default).
func New(st store.Store, cfg *config.Config, workers int) *Client {
	if cfg == nil {
		cfg = config.New()
	}
	gw := gateway.New(cfg)
	return &Client{
		st:     st,
		gw:     gw,
		runner: jobs.New(st, gw, cfg, workers),
		engine: searchEngine(st, gw, cfg),
		cfg:    cfg,
	}
}

func searchEngine(st store.Store, gw *gateway.Gateway, cfg *config.Config) *search.Engine {
	return search.New(st, gw, search.Config{
		SimilarityThreshold:      cfg.SimilarityThreshold,
		UsageFrequencyWeight:     cfg.UsageFrequencyWeight,
		UsageRecencyWeight:       cfg.UsageRecencyWeight,
		UsageRecencyHalfLifeDays: cfg.UsageRecencyHalfLifeDays,
		SemanticWeight:           cfg.SemanticWeight,
		TextWeight:               cfg.TextWeight,
	})
}

// AddDocumentResult is add_document's structured result (§4.7).
type AddDocumentResult struct {
	Success          bool
	DocumentID       string
	Title            string
	DocumentType     document.Type
	ContentLength    int
	EmbeddingsQueued bool
	Error            string
	Message          string
}

// AddDocument reads source from disk, creates a pending Document, and runs
// extract_text → generate_metadata → generate_embeddings synchronously.
// Embeddings are always enqueued when extracted content is non-empty, per
// §4.7. A parser failure is reported in the result rather than returned as
// an error, matching §4.7's failure semantics for this operation.
func (c *Client) AddDocument(ctx context.Context, source string) (AddDocumentResult, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return AddDocumentResult{Success: false, Error: err.Error(), Message: "failed to read file"}, nil
	}

	id := uuid.NewString()
	doc := document.Document{
		ID:        id,
		Location:  source,
		Type:      parser.TypeForExtension(source),
		Status:    document.StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if _, err := c.st.CreateDocument(ctx, doc); err != nil {
		return AddDocumentResult{}, ragerr.NewStorageError(id, "failed to create document", err)
	}

	if err := c.runner.RunOne(ctx, jobs.Request{Job: jobs.JobExtractText, DocumentID: id, Content: data}); err != nil {
		return AddDocumentResult{Success: false, DocumentID: id, Error: err.Error(), Message: "extraction failed"}, nil
	}

	if err := c.runner.RunOne(ctx, jobs.Request{Job: jobs.JobGenerateMetadata, DocumentID: id}); err != nil {
		return AddDocumentResult{}, err
	}

	contents, err := c.st.GetTextContents(ctx, id)
	if err != nil {
		return AddDocumentResult{}, ragerr.NewStorageError(id, "failed to load extracted content", err)
	}
	contentLength := 0
	for _, tc := range contents {
		contentLength += len(tc.Content)
	}

	queued := false
	if contentLength > 0 {
		queued = true
		if err := c.runner.RunOne(ctx, jobs.Request{Job: jobs.JobGenerateEmbeddings, DocumentID: id}); err != nil {
			return AddDocumentResult{}, err
		}
	}

	final, _, err := c.st.GetDocument(ctx, id)
	if err != nil {
		return AddDocumentResult{}, ragerr.NewStorageError(id, "failed to reload document", err)
	}

	return AddDocumentResult{
		Success:          true,
		DocumentID:       id,
		Title:            final.Title,
		DocumentType:     final.Type,
		ContentLength:    contentLength,
		EmbeddingsQueued: queued,
		Message:          "document added",
	}, nil
}

// AddText creates a document directly from in-memory content (no parser
// step), synchronously generates metadata, and enqueues embeddings when
// content is non-empty, per §4.7.
func (c *Client) AddText(ctx context.Context, content, title string, docType document.Type) (string, error) {
	if docType == "" {
		docType = document.TypeText
	}
	id := uuid.NewString()
	doc := document.Document{
		ID:        id,
		Title:     title,
		Type:      docType,
		Status:    document.StatusProcessing,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if _, err := c.st.CreateDocument(ctx, doc); err != nil {
		return "", ragerr.NewStorageError(id, "failed to create document", err)
	}
	if _, err := c.st.AddTextContent(ctx, document.TextContent{ID: uuid.NewString(), DocumentID: id, Content: content}); err != nil {
		return "", ragerr.NewStorageError(id, "failed to persist content", err)
	}

	if err := c.runner.RunOne(ctx, jobs.Request{Job: jobs.JobGenerateMetadata, DocumentID: id}); err != nil {
		return id, err
	}
	if strings.TrimSpace(content) != "" {
		if err := c.runner.RunOne(ctx, jobs.Request{Job: jobs.JobGenerateEmbeddings, DocumentID: id}); err != nil {
			return id, err
		}
	}
	return id, nil
}

// DirectoryFileResult is one file's outcome within AddDirectory's report.
type DirectoryFileResult struct {
	Path   string
	Result AddDocumentResult
	Err    error
}

// AddDirectory walks path (recursively if recursive is set), calling
// AddDocument for every file whose extension is not a recognized image
// format — images are skipped by default per §4.7, since this module
// delegates image/audio extraction to provider-backed services it does not
// implement.
func (c *Client) AddDirectory(ctx context.Context, path string, recursive bool) ([]DirectoryFileResult, error) {
	var out []DirectoryFileResult

	walk := func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && p != path {
				return filepath.SkipDir
			}
			return nil
		}
		if parser.IsImageExtension(p) {
			return nil
		}
		res, err := c.AddDocument(ctx, p)
		out = append(out, DirectoryFileResult{Path: p, Result: res, Err: err})
		return nil
	}

	if err := filepath.WalkDir(path, walk); err != nil {
		return out, fmt.Errorf("failed to walk directory %s: %w", path, err)
	}
	return out, nil
}

// SearchResult is search's structured result (§4.7).
type SearchResult struct {
	Query        string
	Results      []search.Hit
	TotalResults int
}

// Search runs a semantic search through the search engine.
func (c *Client) Search(ctx context.Context, query string, opts search.Options) (SearchResult, error) {
	hits, err := c.engine.Search(ctx, query, opts)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Query: query, Results: hits, TotalResults: len(hits)}, nil
}

// SearchSimilarContent finds content near an already-known vector.
func (c *Client) SearchSimilarContent(ctx context.Context, vector []float64, excludeEmbeddingID string, opts search.Options) (SearchResult, error) {
	hits, err := c.engine.SearchSimilarContent(ctx, vector, excludeEmbeddingID, opts)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Results: hits, TotalResults: len(hits)}, nil
}

// HybridSearch fuses semantic and lexical search.
func (c *Client) HybridSearch(ctx context.Context, query string, opts search.Options) (SearchResult, error) {
	hits, err := c.engine.HybridSearch(ctx, query, opts)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Query: query, Results: hits, TotalResults: len(hits)}, nil
}

// ContextChunk is one chunk of a get_context response.
type ContextChunk struct {
	Content    string
	Source     string
	Similarity float64
	ChunkIndex int
}

// ContextResult is get_context's structured result (§4.7).
type ContextResult struct {
	ContextChunks   []ContextChunk
	CombinedContext string
	TotalChunks     int
}

// GetContext runs a search and packages the hits as context chunks plus a
// single newline-joined combined_context string, for callers building their
// own downstream prompt.
func (c *Client) GetContext(ctx context.Context, query string, limit int) (ContextResult, error) {
	hits, err := c.engine.Search(ctx, query, search.Options{Limit: limit})
	if err != nil {
		return ContextResult{}, err
	}

	chunks := make([]ContextChunk, 0, len(hits))
	parts := make([]string, 0, len(hits))
	for i, h := range hits {
		chunks = append(chunks, ContextChunk{
			Content:    h.Content,
			Source:     h.DocumentLocation,
			Similarity: h.SimilarityScore,
			ChunkIndex: i,
		})
		parts = append(parts, h.Content)
	}

	return ContextResult{
		ContextChunks:   chunks,
		CombinedContext: strings.Join(parts, "\n\n"),
		TotalChunks:     len(chunks),
	}, nil
}

// EnhancePromptResult is enhance_prompt's structured result (§4.7).
type EnhancePromptResult struct {
	Prompt       string
	ContextCount int
}

// EnhancePrompt renders promptTemplate with {{context}}/{{prompt}}
// substituted from a context lookup. It never calls a completion endpoint:
// when no context is found it returns prompt verbatim with context_count=0,
// per §4.7 and the module's Non-goal on answer synthesis.
func (c *Client) EnhancePrompt(ctx context.Context, prompt string, contextLimit int) (EnhancePromptResult, error) {
	ctxResult, err := c.GetContext(ctx, prompt, contextLimit)
	if err != nil {
		return EnhancePromptResult{}, err
	}
	if ctxResult.TotalChunks == 0 {
		return EnhancePromptResult{Prompt: prompt, ContextCount: 0}, nil
	}

	rendered := strings.NewReplacer(
		"{{context}}", ctxResult.CombinedContext,
		"{{prompt}}", prompt,
	).Replace(promptTemplate)

	return EnhancePromptResult{Prompt: rendered, ContextCount: ctxResult.TotalChunks}, nil
}

// DocumentStatus reports a document's lifecycle status.
func (c *Client) DocumentStatus(ctx context.Context, id string) (document.Status, bool, error) {
	doc, ok, err := c.st.GetDocument(ctx, id)
	if err != nil {
		return "", false, ragerr.NewStorageError(id, "failed to load document", err)
	}
	return doc.Status, ok, nil
}

// GetDocument returns the full document record.
func (c *Client) GetDocument(ctx context.Context, id string) (document.Document, bool, error) {
	return c.st.GetDocument(ctx, id)
}

// UpdateDocument persists caller-supplied changes to a document.
func (c *Client) UpdateDocument(ctx context.Context, doc document.Document) error {
	doc.UpdatedAt = time.Now()
	return c.st.UpdateDocument(ctx, doc)
}

// DeleteDocument removes a document and cascades to its content/embeddings.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.st.DeleteDocument(ctx, id)
}

// ListDocuments lists documents matching opts.
func (c *Client) ListDocuments(ctx context.Context, opts store.ListOptions) ([]document.Document, error) {
	return c.st.ListDocuments(ctx, opts)
}

// Stats is stats's structured result: coarse counts useful for a health
// dashboard, not a full analytics surface.
type Stats struct {
	TotalDocuments int
	ByStatus       map[document.Status]int
	ByType         map[document.Type]int
}

// Stats summarizes the store's current document population.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	docs, err := c.st.ListDocuments(ctx, store.ListOptions{})
	if err != nil {
		return Stats{}, ragerr.NewStorageError("", "failed to list documents", err)
	}
	s := Stats{
		TotalDocuments: len(docs),
		ByStatus:       make(map[document.Status]int),
		ByType:         make(map[document.Type]int),
	}
	for _, d := range docs {
		s.ByStatus[d.Status]++
		s.ByType[d.Type]++
	}
	return s, nil
}

// Healthy pings the store, per §4.7's healthy? operation. Provider
// availability is not part of this check: the gateway degrades to
// deterministic fallbacks rather than failing outright (§4.3), so an
// unconfigured provider is not itself an unhealthy state.
func (c *Client) Healthy(ctx context.Context) error {
	if err := c.st.Healthy(ctx); err != nil {
		return ragerr.NewStorageError("", "store health check failed", err)
	}
	return nil
}

// Configure atomically swaps the Client's configuration, rebuilding the
// gateway/runner/engine it depends on — configuration is immutable for the
// duration of any request already in flight (§5's shared-resource policy).
func (c *Client) Configure(cfg *config.Config) {
	gw := gateway.New(cfg)
	c.gw = gw
	c.runner = jobs.New(c.st, gw, cfg, 0)
	c.engine = searchEngine(c.st, gw, cfg)
	c.cfg = cfg
}

// ResetConfiguration restores built-in defaults.
func (c *Client) ResetConfiguration() {
	c.Configure(config.New())
}
