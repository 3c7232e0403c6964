package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/MadBomber/ragdoll-core/document"
)

// htmlFormat adapts rag/reader/html_reader.go's tag-strip pipeline: remove
// script/style/noscript/iframe/svg wholesale, strip comments, turn block
// elements into newlines, strip remaining tags, decode entities, collapse
// whitespace.
type htmlFormat struct{}

var (
	htmlTagsToRemove = []string{"script", "style", "noscript", "iframe", "svg"}
	htmlBlockTags    = []string{"div", "p", "br", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre"}

	htmlTitleRe   = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)
	htmlCommentRe = regexp.MustCompile(`<!--[\s\S]*?-->`)
	htmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	htmlSpaceRe   = regexp.MustCompile(`[ \t]+`)
	htmlNewlineRe = regexp.MustCompile(`\n\s*\n+`)
	htmlNumericRe = regexp.MustCompile(`&#(\d+);`)
)

func (htmlFormat) Parse(source string, data []byte) (Result, error) {
	html := string(data)

	title := ""
	if m := htmlTitleRe.FindStringSubmatch(html); len(m) > 1 {
		title = strings.TrimSpace(m[1])
	}

	text := html
	for _, tag := range htmlTagsToRemove {
		text = regexp.MustCompile(fmt.Sprintf(`(?is)<%s[^>]*>.*?</%s>`, tag, tag)).ReplaceAllString(text, "")
		text = regexp.MustCompile(fmt.Sprintf(`(?i)<%s[^>]*/?>`, tag)).ReplaceAllString(text, "")
	}
	text = htmlCommentRe.ReplaceAllString(text, "")

	if m := regexp.MustCompile(`(?is)<body[^>]*>(.*?)</body>`).FindStringSubmatch(text); len(m) > 1 {
		text = m[1]
	}

	for _, tag := range htmlBlockTags {
		text = regexp.MustCompile(fmt.Sprintf(`(?i)<%s[^>]*>`, tag)).ReplaceAllString(text, "\n")
		text = regexp.MustCompile(fmt.Sprintf(`(?i)</%s>`, tag)).ReplaceAllString(text, "\n")
	}

	text = htmlTagRe.ReplaceAllString(text, "")
	text = decodeHTMLEntities(text)
	text = htmlSpaceRe.ReplaceAllString(text, " ")
	text = htmlNewlineRe.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	fileMetadata := map[string]interface{}{}
	if title != "" {
		fileMetadata["title"] = title
	}

	return Result{
		Content:      text,
		Type:         document.TypeHTML,
		MediaType:    "text/html",
		FileMetadata: fileMetadata,
		Title:        title,
	}, nil
}

var htmlEntities = map[string]string{
	"&nbsp;": " ", "&amp;": "&", "&lt;": "<", "&gt;": ">",
	"&quot;": `"`, "&apos;": "'", "&#39;": "'",
	"&mdash;": "—", "&ndash;": "–", "&copy;": "©", "&reg;": "®",
	"&trade;": "™", "&hellip;": "…", "&lsquo;": "'", "&rsquo;": "'",
	"&ldquo;": "“", "&rdquo;": "”", "&bull;": "•",
}

func decodeHTMLEntities(text string) string {
	for entity, replacement := range htmlEntities {
		text = strings.ReplaceAll(text, entity, replacement)
	}
	return htmlNumericRe.ReplaceAllStringFunc(text, func(match string) string {
		var num int
		fmt.Sscanf(match, "&#%d;", &num)
		if num > 0 && num < 0x10FFFF {
			return string(rune(num))
		}
		return match
	})
}
