// Package eval computes retrieval precision/recall metrics against a set
// of labeled queries.
package eval

import (
	"context"
	"fmt"

	"github.com/connexus-ai/secondbrain/internal/model"
)

// Searcher is the subset of the retriever the eval harness exercises.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]model.Hit, error)
}

// Item is one labeled query: a question plus the document and/or chunk ids
// considered relevant.
type Item struct {
	Question         string   `json:"question"`
	ExpectedDocIDs   []string `json:"expected_doc_ids,omitempty"`
	ExpectedChunkIDs []string `json:"expected_chunk_ids,omitempty"`
}

// ItemResult holds the per-item metrics and a capped preview of the hits
// the retriever actually returned.
type ItemResult struct {
	Question        string   `json:"question"`
	PrecisionAtK    float64  `json:"precision_at_k"`
	RecallAtKDocs   float64  `json:"recall_at_k_docs"`
	RecallAtKChunks float64  `json:"recall_at_k_chunks"`
	TopDocs         []string `json:"top_docs"`
	TopChunks       []string `json:"top_chunks"`
}

// Metrics aggregates per-item results across an eval run.
type Metrics struct {
	TopK            int          `json:"top_k"`
	Count           int          `json:"count"`
	PrecisionAtK    float64      `json:"precision_at_k"`
	RecallAtKDocs   float64      `json:"recall_at_k_docs"`
	RecallAtKChunks float64      `json:"recall_at_k_chunks"`
	PerItem         []ItemResult `json:"per_item"`
}

const previewLimit = 5

// Run searches for every item and aggregates precision/recall@k. When an
// item specifies expected chunk ids, those drive precision and chunk
// recall; otherwise expected doc ids drive precision, and chunk recall is
// 0 for that item. Doc recall is computed whenever expected doc ids are
// given, independent of which set drove precision.
func Run(ctx context.Context, searcher Searcher, items []Item, k int) (*Metrics, error) {
	results := make([]ItemResult, 0, len(items))
	var precisionSum, recallDocsSum, recallChunksSum float64

	for _, item := range items {
		hits, err := searcher.Search(ctx, item.Question, k)
		if err != nil {
			return nil, fmt.Errorf("eval.Run: search %q: %w", item.Question, err)
		}

		gotDocs := make([]string, len(hits))
		gotChunks := make([]string, len(hits))
		for i, h := range hits {
			gotDocs[i] = h.DocID
			gotChunks[i] = h.ChunkID
		}
		gotDocSet := toSet(gotDocs)
		gotChunkSet := toSet(gotChunks)
		expDocSet := toSet(item.ExpectedDocIDs)
		expChunkSet := toSet(item.ExpectedChunkIDs)

		denom := maxInt(1, k)
		var precision, recallChunks float64
		if len(expChunkSet) > 0 {
			correct := intersectionSize(expChunkSet, gotChunkSet)
			precision = float64(correct) / float64(denom)
			recallChunks = float64(correct) / float64(maxInt(1, len(expChunkSet)))
		} else {
			correct := intersectionSize(expDocSet, gotDocSet)
			precision = float64(correct) / float64(denom)
			recallChunks = 0
		}

		var recallDocs float64
		if len(expDocSet) > 0 {
			recallDocs = float64(intersectionSize(expDocSet, gotDocSet)) / float64(maxInt(1, len(expDocSet)))
		}

		precisionSum += precision
		recallDocsSum += recallDocs
		recallChunksSum += recallChunks

		results = append(results, ItemResult{
			Question:        item.Question,
			PrecisionAtK:    precision,
			RecallAtKDocs:   recallDocs,
			RecallAtKChunks: recallChunks,
			TopDocs:         truncate(gotDocs, previewLimit),
			TopChunks:       truncate(gotChunks, previewLimit),
		})
	}

	n := maxInt(1, len(items))
	return &Metrics{
		TopK:            k,
		Count:           len(items),
		PrecisionAtK:    precisionSum / float64(n),
		RecallAtKDocs:   recallDocsSum / float64(n),
		RecallAtKChunks: recallChunksSum / float64(n),
		PerItem:         results,
	}, nil
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func intersectionSize(a, b map[string]struct{}) int {
	n := 0
	for id := range a {
		if _, ok := b[id]; ok {
			n++
		}
	}
	return n
}

func truncate(ids []string, limit int) []string {
	if len(ids) <= limit {
		return ids
	}
	return ids[:limit]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
