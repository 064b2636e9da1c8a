// Package parse extracts text (and, where available, section/page
// metadata) from uploaded documents, routed by file extension.
package parse

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Span is one unit of extracted text with its locality metadata: either a
// PDF page range or a Markdown section title, never both.
type Span struct {
	Text      string
	PageStart *int
	PageEnd   *int
	Section   string
}

// Document routes on file extension and returns the ordered spans a
// document should be chunked from.
func Document(path string, data []byte) ([]Span, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return parsePDFSpans(data)
	case ".md", ".markdown":
		return parseMarkdownSpans(data)
	case ".txt", "":
		return []Span{{Text: string(data)}}, nil
	default:
		return nil, fmt.Errorf("parse.Document: unsupported extension %q", ext)
	}
}

func intPtr(n int) *int { return &n }
