package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MadBomber/ragdoll-core/config"
	"github.com/MadBomber/ragdoll-core/document"
	"github.com/MadBomber/ragdoll-core/gateway"
	"github.com/MadBomber/ragdoll-core/store/memory"
)

func setup(t *testing.T) (*Runner, *memory.Store) {
	t.Helper()
	st := memory.New()
	gw := gateway.New(config.New())
	runner := New(st, gw, config.New(), 2)
	return runner, st
}

func TestExtractTextMissingDocumentIsNoOp(t *testing.T) {
	runner, _ := setup(t)
	err := runner.RunOne(context.Background(), Request{Job: JobExtractText, DocumentID: "missing"})
	require.NoError(t, err)
}

func TestExtractTextPersistsContentAndLeavesProcessing(t *testing.T) {
	runner, st := setup(t)
	ctx := context.Background()

	_, err := st.CreateDocument(ctx, document.Document{ID: "d1", Location: "notes.txt", Status: document.StatusPending})
	require.NoError(t, err)

	err = runner.RunOne(ctx, Request{Job: JobExtractText, DocumentID: "d1", Content: []byte("hello world")})
	require.NoError(t, err)

	doc, ok, err := st.GetDocument(ctx, "d1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, document.StatusProcessing, doc.Status)

	contents, err := st.GetTextContents(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, "hello world", contents[0].Content)
}

func TestExtractTextEmptyContentMarksError(t *testing.T) {
	runner, st := setup(t)
	ctx := context.Background()

	_, err := st.CreateDocument(ctx, document.Document{ID: "d1b", Location: "empty.txt", Status: document.StatusPending})
	require.NoError(t, err)

	err = runner.RunOne(ctx, Request{Job: JobExtractText, DocumentID: "d1b", Content: []byte("   ")})
	require.Error(t, err)

	doc, ok, err := st.GetDocument(ctx, "d1b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, document.StatusError, doc.Status)
}

func TestGenerateEmbeddingsMarksDocumentProcessed(t *testing.T) {
	runner, st := setup(t)
	ctx := context.Background()

	_, err := st.CreateDocument(ctx, document.Document{ID: "d1c", Type: document.TypeText, Status: document.StatusProcessing})
	require.NoError(t, err)
	_, err = st.AddTextContent(ctx, document.TextContent{ID: "tc1c", DocumentID: "d1c", Content: "short text"})
	require.NoError(t, err)

	err = runner.RunOne(ctx, Request{Job: JobGenerateEmbeddings, DocumentID: "d1c"})
	require.NoError(t, err)

	doc, ok, err := st.GetDocument(ctx, "d1c")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, document.StatusProcessed, doc.Status)
}

func TestGenerateMetadataIsIdempotentWhenAlreadyComplete(t *testing.T) {
	runner, st := setup(t)
	ctx := context.Background()

	existing := map[string]interface{}{
		"summary":        "already here",
		"keywords":       []string{"a"},
		"classification": "reference",
	}
	_, err := st.CreateDocument(ctx, document.Document{ID: "d2", Type: document.TypeText, Metadata: existing})
	require.NoError(t, err)

	err = runner.RunOne(ctx, Request{Job: JobGenerateMetadata, DocumentID: "d2"})
	require.NoError(t, err)

	doc, _, err := st.GetDocument(ctx, "d2")
	require.NoError(t, err)
	assert.Equal(t, existing, doc.Metadata)
}

func TestGenerateEmbeddingsSkipsWhenAlreadyFullyEmbedded(t *testing.T) {
	runner, st := setup(t)
	ctx := context.Background()

	_, err := st.CreateDocument(ctx, document.Document{ID: "d3", Type: document.TypeText})
	require.NoError(t, err)
	tc, err := st.AddTextContent(ctx, document.TextContent{ID: "tc1", DocumentID: "d3", Content: "short text"})
	require.NoError(t, err)

	err = runner.RunOne(ctx, Request{Job: JobGenerateEmbeddings, DocumentID: "d3"})
	require.NoError(t, err)

	count, err := st.CountEmbeddings(ctx, "d3")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Second run should not duplicate: count stays at 1.
	err = runner.RunOne(ctx, Request{Job: JobGenerateEmbeddings, DocumentID: "d3"})
	require.NoError(t, err)
	count, err = st.CountEmbeddings(ctx, "d3")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	_ = tc
}

func TestRunBatchProcessesDifferentDocumentsConcurrently(t *testing.T) {
	runner, st := setup(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := st.CreateDocument(ctx, document.Document{ID: id, Location: id + ".txt"})
		require.NoError(t, err)
	}

	reqs := []Request{
		{Job: JobExtractText, DocumentID: "a", Content: []byte("text a")},
		{Job: JobExtractText, DocumentID: "b", Content: []byte("text b")},
		{Job: JobExtractText, DocumentID: "c", Content: []byte("text c")},
	}
	results := runner.Run(ctx, reqs)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
}
