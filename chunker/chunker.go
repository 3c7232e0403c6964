// Package chunker splits text into overlapping, boundary-aware chunks
// (spec §4.2), generalizing the sliding-window + break-point-preference
// algorithm of textsplitter.SentenceSplitter into the simpler function
// contract the core requires.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Default chunk size/overlap mirror config.DefaultChunkSize/DefaultChunkOverlap;
// duplicated here (rather than imported) so chunker has no dependency on config.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var sentenceTerminatorRe = regexp.MustCompile(`[.!?][ \t\n]`)

// Chunk splits text into an ordered sequence of chunks of at most chunkSize
// runes, each chunk overlapping the previous by up to overlap characters,
// preferring to break at paragraph, sentence, or whitespace boundaries.
//
// Non-positive chunkSize or negative overlap coerce to the package defaults.
func Chunk(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}

	if text == "" {
		return nil
	}

	runes := []rune(text)
	n := len(runes)

	if n <= chunkSize {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var chunks []string
	start := 0
	for start < n {
		end := start + chunkSize
		if end > n {
			end = n
		}

		if end < n {
			end = findBreakPoint(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		// Advance, guaranteeing forward progress even when overlap >= chunkSize
		// (spec §9: guard start += 1 when end - overlap <= start).
		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// findBreakPoint searches backwards from end (within [start, end]) for the
// best break point: paragraph break, then sentence terminator followed by
// whitespace, then any whitespace, falling back to the hard cut at end.
func findBreakPoint(runes []rune, start, end int) int {
	window := string(runes[start:end])

	if idx := strings.LastIndex(window, "\n\n"); idx > 0 {
		return start + utf8.RuneCountInString(window[:idx]) + 2
	}

	if loc := lastSentenceTerminator(window); loc > 0 {
		return start + utf8.RuneCountInString(window[:loc])
	}

	for i := end - 1; i > start; i-- {
		if isSpace(runes[i]) {
			return i + 1
		}
	}

	return end
}

func lastSentenceTerminator(window string) int {
	matches := sentenceTerminatorRe.FindAllStringIndex(window, -1)
	if len(matches) == 0 {
		return -1
	}
	last := matches[len(matches)-1]
	return last[0] + 1 // position just after the terminator, before the whitespace
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// ChunkStructureAware accumulates paragraphs (split on blank lines) up to
// maxSize, splitting any single paragraph that alone exceeds maxSize with
// the same sliding-window algorithm as Chunk.
func ChunkStructureAware(text string, maxSize, overlap int) []string {
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}

	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if len([]rune(p)) > maxSize {
			flush()
			chunks = append(chunks, Chunk(p, maxSize, overlap)...)
			continue
		}

		if current.Len() > 0 && len([]rune(current.String()))+len([]rune(p))+2 > maxSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	flush()

	return chunks
}

var codeBoundaryRe = regexp.MustCompile(`(?m)^\s*(func|class|def|type)\s`)

// ChunkCodeAware prefers function/class/type-declaration boundaries before
// falling back to Chunk's generic break-point search.
func ChunkCodeAware(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	locs := codeBoundaryRe.FindAllStringIndex(text, -1)
	if len(locs) < 2 {
		return Chunk(text, chunkSize, overlap)
	}

	var blocks []string
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, text[loc[0]:end])
	}
	if locs[0][0] > 0 {
		blocks = append([]string{text[:locs[0][0]]}, blocks...)
	}

	var chunks []string
	for _, b := range blocks {
		if len([]rune(b)) > chunkSize {
			chunks = append(chunks, Chunk(b, chunkSize, overlap)...)
			continue
		}
		b = strings.TrimSpace(b)
		if b != "" {
			chunks = append(chunks, b)
		}
	}
	return chunks
}
