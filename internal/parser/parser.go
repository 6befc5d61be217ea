package parser

import (
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
)

// Extractor converts raw document bytes into plain text.
type Extractor interface {
	Extract(r io.Reader) (string, error)
}

// Options tunes extractor behavior.
type Options struct {
	// FallbackPdftotext retries PDFs with the pdftotext binary when the Go
	// library fails or finds no text.
	FallbackPdftotext bool
}

// Content types recognized by ForContent. Anything else is read as text.
const (
	TypePDF      = "application/pdf"
	TypeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeHTML     = "text/html"
	TypeMarkdown = "text/markdown"
	TypeCSV      = "text/csv"
)

var extensionTypes = map[string]string{
	".pdf":      TypePDF,
	".docx":     TypeDOCX,
	".html":     TypeHTML,
	".htm":      TypeHTML,
	".md":       TypeMarkdown,
	".markdown": TypeMarkdown,
	".csv":      TypeCSV,
}

// ForContent picks an extractor from the declared content type, falling
// back to the filename extension when the type is missing or generic.
func ForContent(contentType, filename string, opts Options) Extractor {
	switch detectType(contentType, filename) {
	case TypePDF:
		return &PDFExtractor{FallbackPdftotext: opts.FallbackPdftotext}
	case TypeDOCX:
		return &DOCXExtractor{}
	case TypeHTML:
		return &HTMLExtractor{}
	case TypeMarkdown:
		return &MarkdownExtractor{}
	case TypeCSV:
		return &CSVExtractor{}
	default:
		return &TextExtractor{}
	}
}

// Extract is a convenience wrapper around ForContent.
func Extract(r io.Reader, contentType, filename string, opts Options) (string, error) {
	text, err := ForContent(contentType, filename, opts).Extract(r)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filename, err)
	}
	return text, nil
}

func detectType(contentType, filename string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		mt = strings.ToLower(mt)
		switch mt {
		case TypePDF, TypeDOCX, TypeHTML, TypeMarkdown, TypeCSV:
			return mt
		case "text/x-markdown":
			return TypeMarkdown
		case "application/xhtml+xml":
			return TypeHTML
		}
	}
	return extensionTypes[strings.ToLower(filepath.Ext(filename))]
}

// paragraphs accumulates non-empty blocks and joins them with blank lines.
type paragraphs []string

func (p *paragraphs) add(s string) {
	s = strings.TrimSpace(s)
	if s != "" {
		*p = append(*p, s)
	}
}

func (p paragraphs) String() string {
	return strings.Join(p, "\n\n")
}
