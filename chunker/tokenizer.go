package chunker

import (
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts tokens in a string, mirroring textsplitter.Tokenizer's
// Encode-based shape but surfacing only the count the chunker needs.
type Tokenizer interface {
	Count(text string) int
}

// WhitespaceTokenizer is the package default: splits on whitespace, the same
// approximation textsplitter.SimpleTokenizer uses.
type WhitespaceTokenizer struct{}

func (WhitespaceTokenizer) Count(text string) int {
	return len(strings.Fields(text))
}

// TiktokenTokenizer counts tokens with the real BPE tokenizer used by OpenAI
// models, for callers that need an accurate token budget rather than a
// whitespace approximation.
type TiktokenTokenizer struct {
	encodingName string

	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

// NewTiktokenTokenizer creates a Tokenizer backed by pkoukk/tiktoken-go's
// named encoding (e.g. "cl100k_base").
func NewTiktokenTokenizer(encodingName string) *TiktokenTokenizer {
	if encodingName == "" {
		encodingName = "cl100k_base"
	}
	return &TiktokenTokenizer{encodingName: encodingName}
}

func (t *TiktokenTokenizer) Count(text string) int {
	t.once.Do(func() {
		t.enc, t.err = tiktoken.GetEncoding(t.encodingName)
	})
	if t.err != nil || t.enc == nil {
		return WhitespaceTokenizer{}.Count(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

// ChunkByTokens is like Chunk but measures window size in tokens (via tok)
// rather than runes, for callers whose chunk_size is a token budget.
func ChunkByTokens(text string, chunkSize, overlap int, tok Tokenizer) []string {
	if tok == nil {
		tok = WhitespaceTokenizer{}
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(words) {
		end := start
		count := 0
		for end < len(words) {
			next := count + tok.Count(words[end])
			if next > chunkSize && end > start {
				break
			}
			count = next
			end++
		}

		chunk := strings.TrimSpace(strings.Join(words[start:end], " "))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		overlapWords := 0
		for i := end - 1; i >= start && overlapWords < overlap; i-- {
			overlapWords++
		}
		next := end - overlapWords
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}
