package generate

import (
	"context"
	"strings"
)

const (
	extractiveMinLineLen = 40
	extractiveMaxChars   = 1200
	extractiveMaxLines   = 8
	extractiveFallback   = 6
)

// Extractive builds an answer by picking substantial lines straight out of
// the assembled context, with no model call. It is the default generator
// when no LLM provider is configured.
type Extractive struct{}

// Generate implements Generator.
func (Extractive) Generate(_ context.Context, _ string, contextText string) (string, error) {
	var lines []string
	for _, raw := range strings.Split(contextText, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return noSourcesFallback, nil
	}

	var picked []string
	total := 0
	for _, ln := range lines {
		if len(ln) < extractiveMinLineLen {
			continue
		}
		if total+len(ln) > extractiveMaxChars {
			break
		}
		picked = append(picked, ln)
		total += len(ln)
		if len(picked) >= extractiveMaxLines {
			break
		}
	}
	if len(picked) == 0 {
		limit := extractiveFallback
		if limit > len(lines) {
			limit = len(lines)
		}
		picked = lines[:limit]
	}

	out := make([]string, len(picked))
	for i, p := range picked {
		out[i] = "- " + p
	}
	return strings.Join(out, "\n"), nil
}
