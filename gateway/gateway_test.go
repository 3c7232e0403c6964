package gateway

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MadBomber/ragdoll-core/config"
)

func TestEmbedEmptyInputReturnsNilNoCall(t *testing.T) {
	g := New(config.New())
	vec, err := g.Embed(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, vec)
}

func TestEmbedFallsBackWithoutCredentials(t *testing.T) {
	g := New(config.New(config.WithDefaultProvider("openai/text-embedding-3-small")))
	vec, err := g.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	require.NotEmpty(t, vec)
	assert.Len(t, vec, defaultEmbeddingDimension)
}

func TestEmbedFallbackIsDeterministic(t *testing.T) {
	g := New(config.New())
	v1, err := g.Embed(context.Background(), "same text")
	require.NoError(t, err)
	v2, err := g.Embed(context.Background(), "same text")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestSummarizeShortTextReturnsEarly(t *testing.T) {
	cfg := config.New()
	g := New(cfg)
	short := "too short"
	out, err := g.Summarize(context.Background(), short, 100)
	require.NoError(t, err)
	assert.Equal(t, short, out)
}

func TestSummarizeFallbackBoundedByMaxLength(t *testing.T) {
	cfg := config.New()
	cfg.SummaryMinContentLength = 10
	g := New(cfg)

	text := strings.Repeat("This is a sentence about neural networks. ", 50)
	out, err := g.Summarize(context.Background(), text, 80)
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(out)), 80)
	assert.NotEmpty(t, out)
}

func TestExtractKeywordsFallbackDedupsAndCaps(t *testing.T) {
	g := New(config.New())
	text := "neural networks neural networks learn patterns learn deep learning"
	kws, err := g.ExtractKeywords(context.Background(), text, 3)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(kws), 3)

	seen := map[string]bool{}
	for _, k := range kws {
		assert.False(t, seen[strings.ToLower(k)], "keyword %q duplicated", k)
		seen[strings.ToLower(k)] = true
	}
}

func TestNormalizeKeywordsStripsNumberingAndShortTokens(t *testing.T) {
	out := normalizeKeywords("1. machine learning, 2) AI, a, neural networks", 10)
	assert.Contains(t, out, "machine learning")
	assert.Contains(t, out, "AI")
	assert.Contains(t, out, "neural networks")
	assert.NotContains(t, out, "a")
}

func TestFallbackSummarizeAccumulatesWholeSentences(t *testing.T) {
	text := "First sentence here. Second sentence follows. Third one too."
	out := fallbackSummarize(text, 30)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), ".") || out != "")
	assert.LessOrEqual(t, len([]rune(out)), 30+1)
	assert.Equal(t, "First sentence here.", out)
}
