package parser

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/MadBomber/ragdoll-core/document"
)

// textFormat is the fallback parser for plain text and any unrecognized
// extension (§4.1): the content is the raw bytes as text, decoded as UTF-8
// or, on failure, retried as ISO-8859-1.
type textFormat struct{}

func (textFormat) Parse(source string, data []byte) (Result, error) {
	text, decoded := decodeText(data)
	fileMetadata := map[string]interface{}{}
	if decoded.usedFallback {
		fileMetadata["encoding"] = decoded.encoding
	}
	return Result{
		Content:      strings.TrimSpace(text),
		Type:         document.TypeText,
		MediaType:    "text/plain",
		FileMetadata: fileMetadata,
	}, nil
}

type decodedText struct {
	usedFallback bool
	encoding     string
}

// decodeText decodes data as UTF-8; if it is not valid UTF-8, it is retried
// as ISO-8859-1 (Latin-1), which accepts any byte sequence, per §4.1's
// "falls back to a single-byte encoding on decode failure" rule.
func decodeText(data []byte) (string, decodedText) {
	if utf8.Valid(data) {
		return string(data), decodedText{}
	}

	decoder := charmap.ISO8859_1.NewDecoder()
	out, err := decoder.Bytes(data)
	if err != nil {
		return string(data), decodedText{usedFallback: true, encoding: "binary"}
	}
	return string(out), decodedText{usedFallback: true, encoding: "ISO-8859-1"}
}
