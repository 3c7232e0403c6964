package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/MadBomber/ragdoll-core/document"
)

// docxFormat adapts rag/reader/docx_reader.go's ZIP/OOXML walk: paragraphs
// and tables from word/document.xml, core properties from docProps/core.xml.
type docxFormat struct{}

type docxDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    docxBody `xml:"body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"p"`
	Tables     []docxTable     `xml:"tbl"`
}

type docxParagraph struct {
	Runs       []docxRun       `xml:"r"`
	Hyperlinks []docxHyperlink `xml:"hyperlink"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
	Tab  []struct{} `xml:"tab"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

type docxHyperlink struct {
	Runs []docxRun `xml:"r"`
}

type docxTable struct {
	Rows []docxTableRow `xml:"tr"`
}

type docxTableRow struct {
	Cells []docxTableCell `xml:"tc"`
}

type docxTableCell struct {
	Paragraphs []docxParagraph `xml:"p"`
}

type docxCoreProperties struct {
	XMLName     xml.Name `xml:"coreProperties"`
	Title       string   `xml:"title"`
	Subject     string   `xml:"subject"`
	Creator     string   `xml:"creator"`
	Keywords    string   `xml:"keywords"`
	Description string   `xml:"description"`
	Created     string   `xml:"created"`
	Modified    string   `xml:"modified"`
}

func (docxFormat) Parse(source string, data []byte) (Result, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("failed to open DOCX: %w", err)
	}

	text, err := extractDocxText(zipReader)
	if err != nil {
		return Result{}, err
	}

	fileMetadata := map[string]interface{}{}
	title := ""
	if props, err := extractDocxCoreProperties(zipReader); err == nil {
		for k, v := range props {
			fileMetadata[k] = v
		}
		if t, ok := props["title"]; ok {
			title = t.(string)
		}
	}

	return Result{
		Content:      text,
		Type:         document.TypeDocx,
		MediaType:    "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		FileMetadata: fileMetadata,
		Title:        title,
	}, nil
}

func extractDocxText(zipReader *zip.Reader) (string, error) {
	for _, file := range zipReader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}

		var doc docxDocument
		if err := xml.Unmarshal(content, &doc); err != nil {
			return "", fmt.Errorf("failed to parse document.xml: %w", err)
		}

		var parts []string
		for _, para := range doc.Body.Paragraphs {
			if t := docxParagraphText(&para); t != "" {
				parts = append(parts, t)
			}
		}
		for _, tbl := range doc.Body.Tables {
			if t := docxTableText(&tbl); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, "\n\n"), nil
	}
	return "", fmt.Errorf("document.xml not found in DOCX")
}

func docxParagraphText(para *docxParagraph) string {
	var parts []string
	for _, run := range para.Runs {
		for _, text := range run.Text {
			parts = append(parts, text.Content)
		}
		for range run.Tab {
			parts = append(parts, "\t")
		}
	}
	for _, link := range para.Hyperlinks {
		for _, run := range link.Runs {
			for _, text := range run.Text {
				parts = append(parts, text.Content)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}

func docxTableText(tbl *docxTable) string {
	var rows []string
	for _, row := range tbl.Rows {
		var cells []string
		for _, cell := range row.Cells {
			var cellText []string
			for _, para := range cell.Paragraphs {
				if t := docxParagraphText(&para); t != "" {
					cellText = append(cellText, t)
				}
			}
			cells = append(cells, strings.Join(cellText, " "))
		}
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, " | "))
		}
	}
	return strings.Join(rows, "\n")
}

func extractDocxCoreProperties(zipReader *zip.Reader) (map[string]interface{}, error) {
	for _, file := range zipReader.File {
		if file.Name != "docProps/core.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, err
		}

		var core docxCoreProperties
		if err := xml.Unmarshal(content, &core); err != nil {
			return nil, err
		}

		props := make(map[string]interface{})
		if core.Title != "" {
			props["title"] = core.Title
		}
		if core.Subject != "" {
			props["subject"] = core.Subject
		}
		if core.Creator != "" {
			props["author"] = core.Creator
		}
		if core.Keywords != "" {
			props["keywords"] = core.Keywords
		}
		if core.Description != "" {
			props["description"] = core.Description
		}
		if core.Created != "" {
			props["created"] = core.Created
		}
		if core.Modified != "" {
			props["modified"] = core.Modified
		}
		return props, nil
	}
	return map[string]interface{}{}, nil
}
