// Package gateway implements the LLM gateway (spec §4.3): a single
// capability surface (Embed/Summarize/ExtractKeywords) over the teacher's
// llm.LLM and embedding.EmbeddingModel provider interfaces, with provider
// selection by "provider/model" string, degraded-mode fallback, and
// response-shape normalization.
package gateway

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/MadBomber/ragdoll-core/config"
	"github.com/MadBomber/ragdoll-core/embedding"
	"github.com/MadBomber/ragdoll-core/llm"
	"github.com/MadBomber/ragdoll-core/ragerr"
)

// maxEmbedInputChars is the "~8000 characters" truncation bound of §4.3.
const maxEmbedInputChars = 8000

var repeatedWhitespaceRe = regexp.MustCompile(`\s+`)

// Gateway is the uniform interface over embedding and chat completion
// providers named in spec.md §4.3.
type Gateway struct {
	cfg *config.Config

	llms       map[string]llm.LLM
	embedders  map[string]embedding.EmbeddingModel
	configErrs map[string]error // "provider/model" -> why construction failed
}

// New builds a Gateway, eagerly constructing a provider client for every
// provider referenced by cfg.DefaultProvider / cfg.Providers. A provider
// that cannot be constructed (missing credential) is recorded in
// configErrs and routes to the fallback path at call time rather than
// failing New, per §4.3's fallback policy.
func New(cfg *config.Config) *Gateway {
	g := &Gateway{
		cfg:        cfg,
		llms:       make(map[string]llm.LLM),
		embedders:  make(map[string]embedding.EmbeddingModel),
		configErrs: make(map[string]error),
	}

	providers := map[string]bool{cfg.DefaultProvider: true}
	for _, pm := range cfg.Providers {
		providers[pm] = true
	}
	for pm := range providers {
		if pm == "" {
			continue
		}
		provider, model := config.ProviderModel(pm)
		if l, err := newLLMProvider(cfg, provider, model); err != nil {
			g.configErrs[pm] = err
		} else {
			g.llms[pm] = l
		}
		if e, err := newEmbeddingProvider(cfg, provider, model); err != nil {
			if _, ok := g.configErrs[pm]; !ok {
				g.configErrs[pm] = err
			}
		} else {
			g.embedders[pm] = e
		}
	}

	return g
}

func (g *Gateway) llmFor(task string) (llm.LLM, string, bool) {
	pm := g.cfg.ResolveProvider(task)
	_, model := config.ProviderModel(pm)
	l, ok := g.llms[pm]
	return l, model, ok
}

func (g *Gateway) embedderFor(task string) (embedding.EmbeddingModel, bool) {
	pm := g.cfg.ResolveProvider(task)
	e, ok := g.embedders[pm]
	return e, ok
}

// cleanInput collapses repeated whitespace and truncates at ~8000 chars,
// per §4.3's embed() input-cleaning rule.
func cleanInput(text string) string {
	text = repeatedWhitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	runes := []rune(text)
	if len(runes) > maxEmbedInputChars {
		runes = runes[:maxEmbedInputChars]
	}
	return string(runes)
}

// Embed generates an embedding for text, degrading to a deterministic
// pseudo-vector when no embedding provider is configured or the call fails.
// Empty input returns (nil, nil): no API call, per the Boundary Behaviors
// in spec §8.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	cleaned := cleanInput(text)

	embedder, ok := g.embedderFor(config.TaskEmbedding)
	if !ok {
		g.cfg.Logger.Warn("embedding provider unavailable, using fallback pseudo-vector", "task", config.TaskEmbedding)
		return fallbackEmbed(cleaned, defaultEmbeddingDimension), nil
	}

	vec, err := embedder.GetTextEmbedding(ctx, cleaned)
	if err != nil {
		g.cfg.Logger.Warn("embedding call failed, using fallback pseudo-vector", "error", err)
		return fallbackEmbed(cleaned, defaultEmbeddingDimension), nil
	}
	if len(vec) == 0 {
		return nil, ragerr.NewEmbeddingError("", "provider returned an empty embedding", nil)
	}
	return vec, nil
}

// EmbedBatch embeds multiple texts, preferring EmbeddingModelWithBatch when
// the configured provider supports it (grounded on
// embedding.EmbeddingModelWithBatch).
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embedder, ok := g.embedderFor(config.TaskEmbedding)
	if ok {
		if batch, ok := embedder.(embedding.EmbeddingModelWithBatch); ok {
			cleaned := make([]string, len(texts))
			for i, t := range texts {
				cleaned[i] = cleanInput(t)
			}
			vecs, err := batch.GetTextEmbeddingsBatch(ctx, cleaned, nil)
			if err == nil {
				return vecs, nil
			}
			g.cfg.Logger.Warn("batch embedding call failed, falling back to per-item embed", "error", err)
		}
	}

	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := g.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Summarize returns a summary bounded by maxLength, per §4.3. Inputs
// shorter than SummaryMinContentLength return the original text early;
// there is no setting that turns summarization off.
func (g *Gateway) Summarize(ctx context.Context, text string, maxLength int) (string, error) {
	if maxLength <= 0 {
		maxLength = g.cfg.SummaryMaxLength
	}
	if len([]rune(text)) < g.cfg.SummaryMinContentLength {
		return text, nil
	}

	l, model, ok := g.llmFor(config.TaskSummarization)
	if !ok {
		g.cfg.Logger.Warn("summarization provider unavailable, using fallback summarizer")
		return fallbackSummarize(text, maxLength), nil
	}

	prompt := fmt.Sprintf("Summarize the following text in at most %d characters:\n\n%s", maxLength, text)
	_ = model // model name is embedded in the provider client itself
	summary, err := l.Complete(ctx, prompt)
	if err != nil {
		g.cfg.Logger.Warn("summarization call failed, using fallback summarizer", "error", err)
		return fallbackSummarize(text, maxLength), nil
	}

	summary = strings.TrimSpace(summary)
	if runes := []rune(summary); len(runes) > maxLength {
		summary = string(runes[:maxLength])
	}
	return summary, nil
}

// ExtractKeywords produces a de-duplicated, importance-ordered keyword list
// capped at max, per §4.3.
func (g *Gateway) ExtractKeywords(ctx context.Context, text string, max int) ([]string, error) {
	if max <= 0 {
		max = g.cfg.KeywordMax
	}

	l, _, ok := g.llmFor(config.TaskKeywordExtraction)
	if !ok {
		g.cfg.Logger.Warn("keyword extraction provider unavailable, using fallback extractor")
		return fallbackKeywords(text, max), nil
	}

	prompt := fmt.Sprintf("Extract up to %d unique keywords from this text, ordered from most to least important, comma-separated:\n\n%s", max, text)
	resp, err := l.Complete(ctx, prompt)
	if err != nil {
		g.cfg.Logger.Warn("keyword extraction call failed, using fallback extractor", "error", err)
		return fallbackKeywords(text, max), nil
	}

	return normalizeKeywords(resp, max), nil
}

// normalizeKeywords strips numbering, filters short tokens, dedups while
// preserving order, and caps at max.
func normalizeKeywords(raw string, max int) []string {
	numberingRe := regexp.MustCompile(`^\s*\d+[.)]\s*`)
	parts := strings.Split(raw, ",")

	seen := make(map[string]bool)
	var out []string
	for _, p := range parts {
		p = numberingRe.ReplaceAllString(strings.TrimSpace(p), "")
		p = strings.Trim(p, " \t\n.")
		if len([]rune(p)) < 2 {
			continue
		}
		key := strings.ToLower(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
		if len(out) >= max {
			break
		}
	}
	return out
}
