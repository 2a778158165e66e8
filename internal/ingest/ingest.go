// Package ingest parses documentation files into markdown chunks for the
// local answer service's index.
package ingest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"docs-chat/internal/config"
)

const (
	defaultChunkSize    = 1000 // bytes
	defaultChunkOverlap = 500  // bytes
	defaultPageNumber   = 1
)

type Ingester struct {
	chunkSize    int
	chunkOverlap int
}

func New(cfg *config.RAGConfig) *Ingester {
	in := &Ingester{
		chunkSize:    defaultChunkSize,
		chunkOverlap: defaultChunkOverlap,
	}
	if cfg != nil {
		if cfg.ChunkSize > 0 {
			in.chunkSize = cfg.ChunkSize
		}
		if cfg.ChunkOverlap > 0 {
			in.chunkOverlap = cfg.ChunkOverlap
		}
	}
	return in
}

// Parse turns one documentation file into markdown chunks.
func (in *Ingester) Parse(filePath string) ([]Chunk, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".md", ".mdx", ".markdown", ".txt":
		return in.parseText(filePath)
	case ".pdf":
		return in.parsePDF(filePath)
	case ".docx":
		return in.parseDOCX(filePath)
	case ".pptx":
		return in.parsePPTX(filePath)
	case ".xlsx":
		return in.parseXLSX(filePath)
	case ".ods":
		return in.parseODS(filePath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func (in *Ingester) parseText(filePath string) ([]Chunk, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	markdown, err := convertToMarkdown(string(data))
	if err != nil {
		return nil, err
	}
	return in.chunksFor(markdown, defaultPageNumber), nil
}

func (in *Ingester) parsePDF(filePath string) ([]Chunk, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	for i := 1; i <= reader.NumPage(); i++ {
		pageText, err := reader.Page(i).GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		markdown, err := convertToMarkdown(pageText)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, in.chunksFor(markdown, i)...)
	}
	return chunks, nil
}

func (in *Ingester) parseDOCX(filePath string) ([]Chunk, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var chunks []Chunk
	for _, p := range strings.Split(content, "\n") {
		if p == "" {
			continue
		}
		markdown, err := convertToMarkdown(p)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(markdown) != "" {
			chunks = append(chunks, Chunk{Content: markdown, PageNumber: defaultPageNumber})
		}
	}
	return chunks, nil
}

func (in *Ingester) parsePPTX(filePath string) ([]Chunk, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var chunks []Chunk
	for slideNum, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		markdown, err := convertToMarkdown(extractTextFromXML(string(data)))
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(markdown) != "" {
			chunks = append(chunks, Chunk{Content: markdown, PageNumber: slideNum + 1})
		}
	}
	return chunks, nil
}

func (in *Ingester) parseXLSX(filePath string) ([]Chunk, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		markdown, err := convertToMarkdown(text.String())
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(markdown) != "" {
			chunks = append(chunks, Chunk{Content: markdown, PageNumber: sheetNum + 1})
		}
	}
	return chunks, nil
}

func (in *Ingester) parseODS(filePath string) ([]Chunk, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var chunks []Chunk
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		markdown, err := convertToMarkdown(text.String())
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(markdown) != "" {
			chunks = append(chunks, Chunk{Content: markdown, PageNumber: sheetNum + 1})
		}
	}
	return chunks, nil
}

func (in *Ingester) chunksFor(content string, pageNumber int) []Chunk {
	var chunks []Chunk
	for i, piece := range splitContent(content, in.chunkSize, in.chunkOverlap) {
		chunks = append(chunks, Chunk{
			Content:    piece,
			PageNumber: pageNumber,
			ChunkID:    i + 1,
		})
	}
	return chunks
}

func convertToMarkdown(text string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return strings.Trim(buf.String(), " \t\n\r"), nil
}

func extractTextFromXML(xmlContent string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		if endIdx := strings.Index(part, "</a:t>"); endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return text.String()
}
