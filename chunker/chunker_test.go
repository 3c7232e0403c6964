package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEmptyText(t *testing.T) {
	assert.Empty(t, Chunk("", 1000, 200))
}

func TestChunkShorterThanSizeIsOneChunk(t *testing.T) {
	chunks := Chunk("hello world. second sentence.", 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world. second sentence.", chunks[0])
}

func TestChunkBoundarySeedScenario(t *testing.T) {
	// Seed scenario 2: "A" x 1500 with chunk_size=1000, overlap=200 produces
	// >=2 chunks, first chunk length <= 1000, and the first 200 chars of
	// chunk 2 equal the last 200 of chunk 1.
	text := strings.Repeat("A", 1500)
	chunks := Chunk(text, 1000, 200)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.LessOrEqual(t, len([]rune(chunks[0])), 1000)

	first := []rune(chunks[0])
	second := []rune(chunks[1])
	require.GreaterOrEqual(t, len(first), 200)
	require.GreaterOrEqual(t, len(second), 200)
	assert.Equal(t, string(first[len(first)-200:]), string(second[:200]))
}

func TestChunkOverlapGreaterThanSizeStillTerminates(t *testing.T) {
	text := strings.Repeat("word ", 2000)
	chunks := Chunk(text, 100, 500) // overlap >= chunk_size
	assert.NotEmpty(t, chunks)
}

func TestChunkRoundTripIgnoringOverlap(t *testing.T) {
	// Testable property 7: concatenating chunks (ignoring overlaps) recovers
	// the original text modulo whitespace normalization, when overlap is 0.
	text := "Paragraph one is here.\n\nParagraph two follows after a break. It has more than one sentence in it as well."
	chunks := Chunk(text, 40, 0)
	joined := strings.Join(chunks, "")
	normalize := func(s string) string {
		return strings.Join(strings.Fields(s), "")
	}
	assert.Equal(t, normalize(text), normalize(joined))
}

func TestChunkPrefersParagraphBreak(t *testing.T) {
	text := "first paragraph content here padding padding padding.\n\nsecond paragraph starts fresh and continues on for a while longer than before."
	chunks := Chunk(text, 60, 10)
	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasSuffix(chunks[0], "padding."))
}

func TestChunkStructureAwareSplitsOversizedParagraph(t *testing.T) {
	text := strings.Repeat("x", 2000)
	chunks := ChunkStructureAware(text, 500, 50)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 500)
	}
}

func TestChunkCodeAwarePrefersFunctionBoundaries(t *testing.T) {
	text := "package main\n\nfunc A() {\n  return\n}\n\nfunc B() {\n  return\n}\n"
	chunks := ChunkCodeAware(text, 1000, 0)
	require.NotEmpty(t, chunks)
	assert.Equal(t, []string{"package main", "func A() {\n  return\n}", "func B() {\n  return\n}"}, chunks)
}

func TestWhitespaceTokenizerCount(t *testing.T) {
	assert.Equal(t, 3, WhitespaceTokenizer{}.Count("one two three"))
}
