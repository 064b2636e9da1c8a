package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/connexus-ai/secondbrain/internal/model"
)

// maxPassageChars bounds how much of each hit's text is shown to an LLM
// judge, keeping prompts bounded regardless of chunk size.
const maxPassageChars = 900

// IdentityReranker returns hits unchanged. It is the default reranker.
type IdentityReranker struct{}

// Rerank implements Reranker.
func (IdentityReranker) Rerank(_ context.Context, _ string, hits []model.Hit) []model.Hit {
	return hits
}

// CrossEncoderScorer scores a single (query, passage) pair; higher is more
// relevant. Implementations typically call a local or hosted cross-encoder
// model.
type CrossEncoderScorer interface {
	Score(ctx context.Context, query, passage string) (float64, error)
}

// CrossEncoderReranker scores every hit against the query with a
// CrossEncoderScorer and sorts descending by that score.
type CrossEncoderReranker struct {
	Scorer CrossEncoderScorer
}

// Rerank implements Reranker. Scoring failures degrade that hit's score to
// 0 rather than aborting the whole rerank, preserving totality.
func (r CrossEncoderReranker) Rerank(ctx context.Context, query string, hits []model.Hit) []model.Hit {
	out := make([]model.Hit, len(hits))
	copy(out, hits)
	for i := range out {
		score, err := r.Scorer.Score(ctx, query, out[i].Text)
		if err != nil {
			slog.Warn("cross-encoder score failed, treating as zero", "chunk_id", out[i].ChunkID, "error", err)
			score = 0
		}
		out[i].Score = score
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// LLMJudgeReranker asks an LLM (via Ollama's generate endpoint) to order
// passages by relevance, parsing its response as a best-to-worst index
// list. Any I/O or parse failure degrades to the identity order.
type LLMJudgeReranker struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	Client  *http.Client
}

// NewLLMJudgeReranker builds an LLMJudgeReranker with a bounded HTTP client.
func NewLLMJudgeReranker(baseURL, model string, timeout time.Duration) *LLMJudgeReranker {
	return &LLMJudgeReranker{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Timeout: timeout,
		Client:  &http.Client{Timeout: timeout},
	}
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// Rerank implements Reranker.
func (r *LLMJudgeReranker) Rerank(ctx context.Context, query string, hits []model.Hit) []model.Hit {
	if len(hits) == 0 {
		return hits
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	prompt := buildJudgePrompt(query, hits)
	reqBody, err := json.Marshal(ollamaGenerateRequest{Model: r.Model, Prompt: prompt, Stream: false})
	if err != nil {
		slog.Warn("llm judge: encode request failed, returning identity order", "error", err)
		return hits
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		slog.Warn("llm judge: build request failed, returning identity order", "error", err)
		return hits
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		slog.Warn("llm judge: request failed, returning identity order", "error", err)
		return hits
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		slog.Warn("llm judge: non-200 response, returning identity order", "status", resp.StatusCode)
		return hits
	}

	var decoded ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		slog.Warn("llm judge: decode response failed, returning identity order", "error", err)
		return hits
	}

	order := parseJudgeOrder(decoded.Response, len(hits))
	if len(order) == 0 {
		return hits
	}
	return applyOrder(hits, order)
}

func buildJudgePrompt(query string, hits []model.Hit) string {
	var b strings.Builder
	b.WriteString("You are ranking passages for a question. Return ONLY a JSON array of indices from best to worst.\n")
	b.WriteString("Question:\n")
	b.WriteString(query)
	b.WriteString("\nPassages:\n")
	for i, h := range hits {
		text := strings.ReplaceAll(h.Text, "\n", " ")
		text = strings.TrimSpace(text)
		if len(text) > maxPassageChars {
			text = text[:maxPassageChars]
		}
		fmt.Fprintf(&b, "[%d] %s\n", i, text)
	}
	b.WriteString("Return JSON array now.")
	return b.String()
}

var judgeIntPattern = regexp.MustCompile(`\b\d+\b`)

// parseJudgeOrder parses s as a JSON array of indices first; if that fails
// or yields nothing usable, it falls back to scanning integer tokens in
// [0,n). Either path dedups preserving first occurrence.
func parseJudgeOrder(s string, n int) []int {
	trimmed := strings.TrimSpace(s)

	var raw []json.Number
	if err := json.Unmarshal([]byte(trimmed), &raw); err == nil {
		var out []int
		seen := make(map[int]struct{})
		for _, v := range raw {
			idx, err := strconv.Atoi(string(v))
			if err != nil {
				continue
			}
			if idx < 0 || idx >= n {
				continue
			}
			if _, dup := seen[idx]; dup {
				continue
			}
			seen[idx] = struct{}{}
			out = append(out, idx)
		}
		if len(out) > 0 {
			return out
		}
	}

	var out []int
	seen := make(map[int]struct{})
	for _, m := range judgeIntPattern.FindAllString(trimmed, -1) {
		idx, err := strconv.Atoi(m)
		if err != nil || idx < 0 || idx >= n {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out
}

// applyOrder reorders hits per order, appending any indices order omitted
// in their original relative order, so the result is always total.
func applyOrder(hits []model.Hit, order []int) []model.Hit {
	used := make(map[int]struct{}, len(order))
	out := make([]model.Hit, 0, len(hits))
	for _, idx := range order {
		if idx < 0 || idx >= len(hits) {
			continue
		}
		if _, dup := used[idx]; dup {
			continue
		}
		used[idx] = struct{}{}
		out = append(out, hits[idx])
	}
	for i, h := range hits {
		if _, ok := used[i]; !ok {
			out = append(out, h)
		}
	}
	return out
}
