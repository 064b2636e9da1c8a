package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/connexus-ai/secondbrain/internal/model"
	"github.com/connexus-ai/secondbrain/internal/retrieval"
)

// noContentFallback is the answer when retrieval finds no sources, and when
// the generator's answer comes back empty after postprocessing.
const noContentFallback = "I couldn't find anything in the sources for this question."

// ChatResult is the response shape of POST /chat.
type ChatResult struct {
	Answer  string      `json:"answer"`
	Sources []model.Hit `json:"sources"`
	Refused bool        `json:"refused"`
	Reason  string      `json:"reason"`
}

// Chat runs retrieval, assembles a citation-numbered context, and generates
// an answer. refused is strictly true iff retrieval found no hits — the
// Python source's dead "bulamad" substring re-check is not reproduced here
// (see DESIGN.md).
func (s *AppService) Chat(ctx context.Context, query string, topK int) (*ChatResult, error) {
	hits, err := s.Search(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("service.Chat: %w", err)
	}
	if len(hits) == 0 {
		return &ChatResult{Answer: noContentFallback, Sources: []model.Hit{}, Refused: true, Reason: "no_sources"}, nil
	}

	contextText := retrieval.AssembleContext(hits, s.cfg.MaxContextChars)
	answer, err := s.generator.Generate(ctx, query, contextText)
	if err != nil {
		return nil, fmt.Errorf("service.Chat: generate: %w", err)
	}

	return &ChatResult{Answer: postprocessAnswer(answer), Sources: hits, Refused: false}, nil
}

// postprocessAnswer trims the generator's output, normalizes the bullet
// character U+2022 to a plain hyphen, and substitutes a stock message for
// an empty answer.
func postprocessAnswer(answer string) string {
	a := strings.TrimSpace(answer)
	if a == "" {
		return noContentFallback
	}
	return strings.ReplaceAll(a, "•", "-")
}
