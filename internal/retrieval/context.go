package retrieval

import (
	"fmt"
	"strings"

	"github.com/connexus-ai/secondbrain/internal/model"
	"github.com/connexus-ai/secondbrain/internal/textutil"
)

// DefaultMaxContextChars is the assembled-context ceiling used when no
// override is configured.
const DefaultMaxContextChars = 14000

// AssembleContext builds the generator-facing context block from ranked
// hits: a numbered header per hit (citation contract) followed by its
// text, blank-line separated, truncated to maxChars.
func AssembleContext(hits []model.Hit, maxChars int) string {
	var b strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&b, "[%d] doc=%s chunk=%d", i+1, h.OriginalName, h.ChunkIndex)
		if h.PageStart != nil {
			end := *h.PageStart
			if h.PageEnd != nil {
				end = *h.PageEnd
			}
			fmt.Fprintf(&b, " pages=%d-%d", *h.PageStart, end)
		}
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(h.Text))
		b.WriteString("\n\n")
	}
	out := strings.TrimSpace(b.String())
	return textutil.TruncateRunes(out, maxChars)
}
