package parse

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// parsePDFSpans extracts one Span per page, with PageStart==PageEnd set to
// the 1-based page number. Page-level spans preserve the per-page dedup
// boundary the chunking pipeline resets at.
func parsePDFSpans(data []byte) ([]Span, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse.pdf: open: %w", err)
	}

	total := reader.NumPage()
	spans := make([]Span, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		textReader, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("parse.pdf: page %d: %w", i, err)
		}
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, textReader); err != nil {
			return nil, fmt.Errorf("parse.pdf: page %d: read: %w", i, err)
		}
		spans = append(spans, Span{
			Text:      buf.String(),
			PageStart: intPtr(i),
			PageEnd:   intPtr(i),
		})
	}
	return spans, nil
}
