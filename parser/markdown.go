package parser

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MadBomber/ragdoll-core/document"
)

// markdownFormat adapts rag/reader/markdown_reader.go's frontmatter
// extraction: a leading "---\n...\n---" block is parsed as YAML and lifted
// into file metadata, the remainder is the document body.
type markdownFormat struct{}

var frontmatterRe = regexp.MustCompile(`(?s)\A---\r?\n(.*?)\r?\n---\r?\n?`)

func (markdownFormat) Parse(source string, data []byte) (Result, error) {
	text, decoded := decodeText(data)

	fileMetadata := map[string]interface{}{}
	if decoded.usedFallback {
		fileMetadata["encoding"] = decoded.encoding
	}
	title := ""

	if m := frontmatterRe.FindStringSubmatch(text); len(m) > 1 {
		var fm map[string]interface{}
		if err := yaml.Unmarshal([]byte(m[1]), &fm); err == nil {
			for k, v := range fm {
				fileMetadata[strings.ToLower(k)] = v
			}
			if t, ok := fm["title"]; ok {
				if s, ok := t.(string); ok {
					title = s
				}
			}
		}
		text = strings.TrimPrefix(text, m[0])
	}

	if title == "" {
		if m := regexp.MustCompile(`(?m)^#\s+(.+)$`).FindStringSubmatch(text); len(m) > 1 {
			title = strings.TrimSpace(m[1])
		}
	}

	return Result{
		Content:      strings.TrimSpace(text),
		Type:         document.TypeMarkdown,
		MediaType:    "text/markdown",
		FileMetadata: fileMetadata,
		Title:        title,
	}, nil
}
