package parse

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var mdParser = goldmark.New()

type headingSpan struct {
	start int
	title string
}

// parseMarkdownSpans splits Markdown source on ATX headings, attaching each
// span's nearest preceding heading as its Section. Content before the first
// heading (or a document with no headings at all) gets an empty Section.
func parseMarkdownSpans(data []byte) ([]Span, error) {
	reader := text.NewReader(data)
	root := mdParser.Parser().Parse(reader)

	var headings []headingSpan
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		lines := h.Lines()
		if lines == nil || lines.Len() == 0 {
			return ast.WalkContinue, nil
		}
		headings = append(headings, headingSpan{
			start: lines.At(0).Start,
			title: strings.TrimSpace(string(h.Text(data))),
		})
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, err
	}

	if len(headings) == 0 {
		body := strings.TrimSpace(string(data))
		if body == "" {
			return nil, nil
		}
		return []Span{{Text: body}}, nil
	}

	var spans []Span
	if intro := strings.TrimSpace(string(data[:headings[0].start])); intro != "" {
		spans = append(spans, Span{Text: intro})
	}
	for i, h := range headings {
		end := len(data)
		if i+1 < len(headings) {
			end = headings[i+1].start
		}
		body := strings.TrimSpace(string(data[h.start:end]))
		if body == "" {
			continue
		}
		spans = append(spans, Span{Text: body, Section: h.title})
	}
	return spans, nil
}
