package ragdoll

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MadBomber/ragdoll-core/config"
	"github.com/MadBomber/ragdoll-core/document"
	"github.com/MadBomber/ragdoll-core/search"
	"github.com/MadBomber/ragdoll-core/store/memory"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	return New(memory.New(), config.New(), 2)
}

// Seed scenario 1: text ingestion end to end.
func TestAddTextThenSearchFindsContent(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	id, err := c.AddText(ctx, "hello world. second sentence.", "t1", document.TypeText)
	require.NoError(t, err)

	doc, ok, err := c.GetDocument(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, document.StatusProcessed, doc.Status)

	res, err := c.Search(ctx, "hello world. second sentence.", search.Options{Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, res.Results)
	assert.Contains(t, res.Results[0].Content, "hello world")
}

// Seed scenario 5: fallback summary, no provider credential configured.
func TestAddTextFallbackSummaryRespectsMaxLength(t *testing.T) {
	cfg := config.New()
	cfg.SummaryMinContentLength = 5
	cfg.SummaryMaxLength = 40
	c := New(memory.New(), cfg, 1)
	ctx := context.Background()

	longText := "This is a reasonably long piece of content used to trigger the fallback summarizer path so that summary generation actually runs instead of returning early."
	id, err := c.AddText(ctx, longText, "long", document.TypeText)
	require.NoError(t, err)

	doc, ok, err := c.GetDocument(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	summary, _ := doc.Metadata["summary"].(string)
	require.NotEmpty(t, summary)
	assert.LessOrEqual(t, len([]rune(summary)), cfg.SummaryMaxLength)
}

// Seed scenario 6: delete cascade.
func TestDeleteDocumentCascadesEmbeddings(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	id, err := c.AddText(ctx, "alpha beta gamma delta epsilon zeta eta theta iota kappa", "cascade", document.TypeText)
	require.NoError(t, err)

	other, err := c.AddText(ctx, "unrelated other document content", "other", document.TypeText)
	require.NoError(t, err)

	require.NoError(t, c.DeleteDocument(ctx, id))

	_, ok, err := c.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	otherDoc, ok, err := c.GetDocument(ctx, other)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, otherDoc.ID)
}

func TestAddDocumentFromFile(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("file based content for ingestion"), 0o644))

	res, err := c.AddDocument(ctx, path)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.EmbeddingsQueued)
	assert.Equal(t, document.TypeText, res.DocumentType)
}

func TestAddDirectorySkipsImages(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("text file a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), []byte("not-really-a-png"), 0o644))

	results, err := c.AddDirectory(ctx, dir, false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(dir, "a.txt"), results[0].Path)
}

func TestEnhancePromptWithoutContextReturnsVerbatim(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	res, err := c.EnhancePrompt(ctx, "what is the answer?", 5)
	require.NoError(t, err)
	assert.Equal(t, "what is the answer?", res.Prompt)
	assert.Equal(t, 0, res.ContextCount)
}

func TestStatsCountsDocuments(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	_, err := c.AddText(ctx, "doc one content", "d1", document.TypeText)
	require.NoError(t, err)
	_, err = c.AddText(ctx, "doc two content", "d2", document.TypeText)
	require.NoError(t, err)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, 2, stats.ByStatus[document.StatusProcessed])
}

func TestHealthyOK(t *testing.T) {
	c := newClient(t)
	require.NoError(t, c.Healthy(context.Background()))
}
