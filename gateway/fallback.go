package gateway

import (
	"hash/fnv"
	"math"
	"regexp"
	"sort"
	"strings"
)

// defaultEmbeddingDimension is the length of every fallback pseudo-vector.
// It is fixed: the gateway does not look up the configured provider's
// dimension, so a fallback vector can differ in length from that
// provider's vectors.
const defaultEmbeddingDimension = 384

// fallbackEmbed deterministically derives a pseudo-vector of dim floats from
// text via FNV hashing, so repeated calls with the same text are stable
// even with no embedding provider configured (§4.3's degraded-mode rule).
func fallbackEmbed(text string, dim int) []float64 {
	vec := make([]float64, dim)
	h := fnv.New64a()
	for i := 0; i < dim; i++ {
		h.Reset()
		h.Write([]byte(text))
		h.Write([]byte{byte(i), byte(i >> 8)})
		sum := h.Sum64()
		// Map to [-1, 1].
		vec[i] = (float64(sum%2000000) / 1000000.0) - 1.0
	}
	normalize(vec)
	return vec
}

func normalize(v []float64) {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return
	}
	for i := range v {
		v[i] /= norm
	}
}

var sentenceSplitRe = regexp.MustCompile(`(?s)[^.!?]*[.!?]+`)

// fallbackSummarize is the sentence-boundary summarizer used when no
// summarization provider is configured: greedily accumulates whole
// sentences until adding the next would exceed maxLength.
func fallbackSummarize(text string, maxLength int) string {
	sentences := sentenceSplitRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		runes := []rune(strings.TrimSpace(text))
		if len(runes) > maxLength {
			return string(runes[:maxLength])
		}
		return string(runes)
	}

	var sb strings.Builder
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		candidate := sb.String()
		if candidate != "" {
			candidate += " "
		}
		candidate += s
		if len([]rune(candidate)) > maxLength {
			break
		}
		sb.Reset()
		sb.WriteString(candidate)
	}

	result := sb.String()
	if result == "" {
		runes := []rune(sentences[0])
		if len(runes) > maxLength {
			return string(runes[:maxLength])
		}
		return strings.TrimSpace(sentences[0])
	}
	return result
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"to": true, "of": true, "in": true, "on": true, "for": true, "with": true,
	"at": true, "by": true, "from": true, "as": true, "that": true, "this": true,
	"it": true, "its": true, "into": true, "than": true, "then": true, "so": true,
	"such": true, "not": true, "no": true, "do": true, "does": true, "did": true,
	"has": true, "have": true, "had": true, "will": true, "would": true, "can": true,
	"could": true, "should": true, "about": true, "which": true, "their": true,
}

var wordRe = regexp.MustCompile(`[A-Za-z][A-Za-z'-]*`)

// fallbackKeywords is the stop-word-filtered frequency-based keyword
// extractor used when no keyword-extraction provider is configured,
// grounded on extractors/keywords.go's keyword-list shape but computed
// without an LLM call.
func fallbackKeywords(text string, max int) []string {
	words := wordRe.FindAllString(strings.ToLower(text), -1)

	counts := make(map[string]int)
	var order []string
	for _, w := range words {
		if len(w) < 2 || stopWords[w] {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if max > 0 && len(order) > max {
		order = order[:max]
	}
	return order
}
