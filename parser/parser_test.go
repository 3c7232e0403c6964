package parser

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MadBomber/ragdoll-core/document"
)

func TestParseDispatchesByExtension(t *testing.T) {
	res, err := Parse("notes.txt", []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, document.TypeText, res.Type)
	assert.Equal(t, "hello world", res.Content)
}

func TestParseUnknownExtensionFallsBackToText(t *testing.T) {
	res, err := Parse("data.xyz", []byte("raw bytes as text"))
	require.NoError(t, err)
	assert.Equal(t, document.TypeText, res.Type)
}

func TestParseTextFallsBackToISO8859OnInvalidUTF8(t *testing.T) {
	// 0xE9 alone is invalid UTF-8 but valid ISO-8859-1 ("é").
	res, err := Parse("legacy.txt", []byte{0x48, 0x69, 0xE9})
	require.NoError(t, err)
	assert.Equal(t, "ISO-8859-1", res.FileMetadata["encoding"])
	assert.Contains(t, res.Content, "Hi")
}

func TestTypeForExtension(t *testing.T) {
	assert.Equal(t, document.TypePDF, TypeForExtension("a.pdf"))
	assert.Equal(t, document.TypeDocx, TypeForExtension("a.docx"))
	assert.Equal(t, document.TypeHTML, TypeForExtension("a.html"))
	assert.Equal(t, document.TypeMarkdown, TypeForExtension("a.md"))
	assert.Equal(t, document.TypeText, TypeForExtension("a.csv"))
}

func TestMarkdownParseExtractsFrontmatter(t *testing.T) {
	src := "---\ntitle: My Doc\nauthor: Jane\n---\n\n# My Doc\n\nBody text here."
	res, err := Parse("doc.md", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, document.TypeMarkdown, res.Type)
	assert.Equal(t, "My Doc", res.Title)
	assert.Equal(t, "Jane", res.FileMetadata["author"])
	assert.Contains(t, res.Content, "Body text here.")
	assert.NotContains(t, res.Content, "---")
}

func TestMarkdownParseWithoutFrontmatterUsesHeading(t *testing.T) {
	src := "# Heading Title\n\nSome content."
	res, err := Parse("doc.md", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "Heading Title", res.Title)
}

func TestHTMLParseStripsScriptAndTags(t *testing.T) {
	src := `<html><head><title>Page Title</title><script>alert(1)</script></head>
<body><p>Hello <b>World</b></p></body></html>`
	res, err := Parse("page.html", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "Page Title", res.Title)
	assert.Contains(t, res.Content, "Hello")
	assert.Contains(t, res.Content, "World")
	assert.NotContains(t, res.Content, "alert")
	assert.NotContains(t, res.Content, "<")
}

func TestDocxParseExtractsParagraphsAndTitle(t *testing.T) {
	data := buildTestDocx(t, []string{"First paragraph.", "Second paragraph."}, "Report", "Jane Doe")
	res, err := Parse("report.docx", data)
	require.NoError(t, err)
	assert.Equal(t, document.TypeDocx, res.Type)
	assert.Contains(t, res.Content, "First paragraph.")
	assert.Contains(t, res.Content, "Second paragraph.")
	assert.Equal(t, "Report", res.Title)
	assert.Equal(t, "Jane Doe", res.FileMetadata["author"])
}

func buildTestDocx(t *testing.T, paragraphs []string, title, author string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	contentTypes := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`
	fw, _ := w.Create("[Content_Types].xml")
	fw.Write([]byte(contentTypes))

	docStart := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	docEnd := `</w:body></w:document>`
	var paraXML string
	for _, p := range paragraphs {
		paraXML += `<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`
	}
	fw, _ = w.Create("word/document.xml")
	fw.Write([]byte(docStart + paraXML + docEnd))

	core := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <dc:title>` + title + `</dc:title>
  <dc:creator>` + author + `</dc:creator>
</cp:coreProperties>`
	fw, _ = w.Create("docProps/core.xml")
	fw.Write([]byte(core))

	require.NoError(t, w.Close())
	return buf.Bytes()
}
