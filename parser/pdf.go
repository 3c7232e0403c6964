package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/MadBomber/ragdoll-core/document"
)

// pdfFormat adapts rag/reader/pdf_reader.go's page-by-page extraction and
// trailer Info-dict metadata lookup into the parser.Format contract, writing
// a page-separator marker between pages per §4.1 rather than the reader's
// double-newline join.
type pdfFormat struct{}

func (pdfFormat) Parse(source string, data []byte) (Result, error) {
	tmp, err := writeTempFile(data, "*.pdf")
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(tmp)

	f, pdfReader, err := pdf.Open(tmp)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	numPages := pdfReader.NumPage()
	var sb strings.Builder
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if pageNum > 1 {
			fmt.Fprintf(&sb, "\n\n--- page %d ---\n\n", pageNum)
		}
		sb.WriteString(text)
	}

	content := strings.TrimSpace(sb.String())
	if content == "" {
		return Result{}, fmt.Errorf("no text content found in PDF")
	}

	fileMetadata := map[string]interface{}{"page_count": numPages}
	title := ""
	trailer := pdfReader.Trailer()
	if !trailer.IsNull() {
		if info := trailer.Key("Info"); !info.IsNull() {
			for _, key := range []string{"Title", "Author", "Subject", "Keywords", "Creator", "Producer", "CreationDate", "ModDate"} {
				if val := info.Key(key); !val.IsNull() {
					if str := val.Text(); str != "" {
						fileMetadata[strings.ToLower(key)] = str
						if key == "Title" {
							title = str
						}
					}
				}
			}
		}
	}

	return Result{
		Content:      content,
		Type:         document.TypePDF,
		MediaType:    "application/pdf",
		FileMetadata: fileMetadata,
		Title:        title,
	}, nil
}

func writeTempFile(data []byte, pattern string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
