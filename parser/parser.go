// Package parser implements the document parser (spec §4.1): given a file
// path or raw bytes plus a declared or sniffed media type, it produces plain
// text content, a media type, and file-derived metadata, dispatching to a
// format-specific implementation by extension.
package parser

import (
	"path/filepath"
	"strings"

	"github.com/MadBomber/ragdoll-core/document"
	"github.com/MadBomber/ragdoll-core/ragerr"
)

// Result is what a successful parse produces: the extracted text, the
// resolved document type, file-derived metadata (distinct from AI-generated
// metadata per spec §3 invariant 5), and an optional title if the format
// carries one (e.g. HTML <title>, DOCX core properties, markdown frontmatter).
type Result struct {
	Content      string
	Type         document.Type
	MediaType    string
	FileMetadata map[string]interface{}
	Title        string
}

// Format parses the bytes of one file already read into memory. source is
// used only for error messages and source-path metadata.
type Format interface {
	Parse(source string, data []byte) (Result, error)
}

var registry = map[string]Format{
	".pdf":      pdfFormat{},
	".docx":     docxFormat{},
	".html":     htmlFormat{},
	".htm":      htmlFormat{},
	".xhtml":    htmlFormat{},
	".md":       markdownFormat{},
	".markdown": markdownFormat{},
}

// Parse dispatches by the lowercased extension of source. Unknown
// extensions, including no extension at all, are parsed as plain text per
// §4.1's "unrecognized extension" rule.
func Parse(source string, data []byte) (Result, error) {
	ext := strings.ToLower(filepath.Ext(source))
	f, ok := registry[ext]
	if !ok {
		f = textFormat{}
	}
	res, err := f.Parse(source, data)
	if err != nil {
		return Result{}, ragerr.NewParseError(source, "failed to parse document", err)
	}
	return res, nil
}

var imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}
var audioExtensions = map[string]bool{".mp3": true, ".wav": true, ".m4a": true}

// TypeForExtension reports the document.Type a parser would assign to
// source, without parsing it. Used by callers that need to classify a
// document before its bytes are available (e.g. to pick a storage bucket).
func TypeForExtension(source string) document.Type {
	ext := strings.ToLower(filepath.Ext(source))
	switch {
	case ext == ".pdf":
		return document.TypePDF
	case ext == ".docx":
		return document.TypeDocx
	case ext == ".html", ext == ".htm", ext == ".xhtml":
		return document.TypeHTML
	case ext == ".md", ext == ".markdown":
		return document.TypeMarkdown
	case imageExtensions[ext]:
		return document.TypeImage
	case audioExtensions[ext]:
		return document.TypeAudio
	default:
		return document.TypeText
	}
}

// IsImageExtension reports whether source's extension is one of the
// recognized image formats (§6: PNG/JPG/GIF/WebP), stored but not
// text-extracted — extraction is delegated to provider-backed services
// outside this module's scope.
func IsImageExtension(source string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(source))]
}

// IsAudioExtension reports whether source's extension is one of the
// recognized audio formats (§6: MP3/WAV/M4A).
func IsAudioExtension(source string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(source))]
}
