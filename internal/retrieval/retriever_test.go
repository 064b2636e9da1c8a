package retrieval

import (
	"context"
	"testing"
	"time"

	"github.com/connexus-ai/secondbrain/internal/cache"
	"github.com/connexus-ai/secondbrain/internal/index"
	"github.com/connexus-ai/secondbrain/internal/model"
)

type fakeVectorSearcher struct {
	hits []index.Scored
	meta map[int]model.ChunkMeta
}

func (f *fakeVectorSearcher) Search(query []float32, k int) []index.Scored { return f.hits }
func (f *fakeVectorSearcher) Meta(row int) model.ChunkMeta                 { return f.meta[row] }
func (f *fakeVectorSearcher) Len() int                                     { return len(f.meta) }

type fakeLexicalSearcher struct {
	hits []index.Scored
	n    int
}

func (f *fakeLexicalSearcher) Search(query string, k int) []index.Scored { return f.hits }
func (f *fakeLexicalSearcher) Len() int                                  { return f.n }

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return [][]float32{{1, 0, 0}}, nil
}

// countingEmbedder tracks how many times it was asked to embed, so tests can
// assert the embedding cache actually short-circuits repeat queries.
type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls++
	return [][]float32{{1, 0, 0}}, nil
}

type fakeJoiner struct {
	rows map[string]JoinedChunk
}

func (f *fakeJoiner) FetchChunksByIDs(ctx context.Context, ids []string) (map[string]JoinedChunk, error) {
	out := make(map[string]JoinedChunk, len(ids))
	for _, id := range ids {
		if jc, ok := f.rows[id]; ok {
			out[id] = jc
		}
	}
	return out, nil
}

type identityReranker struct{}

func (identityReranker) Rerank(ctx context.Context, query string, hits []model.Hit) []model.Hit {
	return hits
}

func setup(t *testing.T) (*Retriever, *fakeVectorSearcher, *fakeLexicalSearcher) {
	t.Helper()
	meta := map[int]model.ChunkMeta{
		0: {ChunkID: "c0", DocID: "d1", ChunkIndex: 0},
		1: {ChunkID: "c1", DocID: "d1", ChunkIndex: 1},
		2: {ChunkID: "c2", DocID: "d2", ChunkIndex: 0},
	}
	vec := &fakeVectorSearcher{
		hits: []index.Scored{{Row: 0, Score: 0.9}, {Row: 1, Score: 0.5}, {Row: 2, Score: 0.1}},
		meta: meta,
	}
	lex := &fakeLexicalSearcher{
		hits: []index.Scored{{Row: 2, Score: 5.0}, {Row: 0, Score: 1.0}},
		n:    3,
	}
	joiner := &fakeJoiner{rows: map[string]JoinedChunk{
		"c0": {Chunk: model.Chunk{ID: "c0", DocumentID: "d1", ChunkIndex: 0, Text: "alpha"}, OriginalName: "a.txt"},
		"c1": {Chunk: model.Chunk{ID: "c1", DocumentID: "d1", ChunkIndex: 1, Text: "beta"}, OriginalName: "a.txt"},
		"c2": {Chunk: model.Chunk{ID: "c2", DocumentID: "d2", ChunkIndex: 0, Text: "gamma"}, OriginalName: "b.txt"},
	}}
	r := New(vec, lex, fakeEmbedder{}, joiner, identityReranker{}, nil, 0.65)
	return r, vec, lex
}

func TestSearch_EmptyQueryReturnsEmpty(t *testing.T) {
	r, _, _ := setup(t)
	hits, err := r.Search(context.Background(), "   ", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected 0 hits for empty query, got %d", len(hits))
	}
}

func TestSearch_EmptyIndexReturnsEmpty(t *testing.T) {
	vec := &fakeVectorSearcher{meta: map[int]model.ChunkMeta{}}
	lex := &fakeLexicalSearcher{}
	r := New(vec, lex, fakeEmbedder{}, &fakeJoiner{}, identityReranker{}, nil, 0.65)

	hits, err := r.Search(context.Background(), "hello", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected 0 hits for empty index, got %d", len(hits))
	}
}

func TestSearch_FusesAndOrdersByScore(t *testing.T) {
	r, _, _ := setup(t)
	hits, err := r.Search(context.Background(), "find alpha", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits (union of both sides), got %d", len(hits))
	}
	// c0 has the top vector score and a mid BM25 score; c2 has the lowest
	// vector score but the top BM25 score. Either could lead depending on
	// alpha, but c1 (present only on the vector side, mid-ranked) must
	// never be ranked above c0.
	var rankC0, rankC1 int
	for i, h := range hits {
		if h.ChunkID == "c0" {
			rankC0 = i
		}
		if h.ChunkID == "c1" {
			rankC1 = i
		}
	}
	if rankC0 > rankC1 {
		t.Errorf("c0 (higher vec+bm25) ranked below c1 (vec-only, mid score)")
	}
}

func TestSearch_RespectsK(t *testing.T) {
	r, _, _ := setup(t)
	hits, err := r.Search(context.Background(), "find alpha", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected 2 hits, got %d", len(hits))
	}
}

func TestSearch_ReusesCachedQueryEmbedding(t *testing.T) {
	meta := map[int]model.ChunkMeta{0: {ChunkID: "c0", DocID: "d1", ChunkIndex: 0}}
	vec := &fakeVectorSearcher{hits: []index.Scored{{Row: 0, Score: 0.9}}, meta: meta}
	lex := &fakeLexicalSearcher{n: 1}
	joiner := &fakeJoiner{rows: map[string]JoinedChunk{
		"c0": {Chunk: model.Chunk{ID: "c0", DocumentID: "d1", ChunkIndex: 0, Text: "alpha"}, OriginalName: "a.txt"},
	}}
	embedder := &countingEmbedder{}
	embedCache := cache.NewEmbeddingCache(time.Minute)
	defer embedCache.Stop()
	r := New(vec, lex, embedder, joiner, identityReranker{}, embedCache, 0.65)

	if _, err := r.Search(context.Background(), "find alpha", 5); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if _, err := r.Search(context.Background(), "find alpha", 5); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if embedder.calls != 1 {
		t.Errorf("expected embedder called once with a populated cache, got %d calls", embedder.calls)
	}
}

func TestSearch_DropsUnjoinableRows(t *testing.T) {
	meta := map[int]model.ChunkMeta{0: {ChunkID: "missing", DocID: "d1", ChunkIndex: 0}}
	vec := &fakeVectorSearcher{hits: []index.Scored{{Row: 0, Score: 0.9}}, meta: meta}
	lex := &fakeLexicalSearcher{n: 1}
	r := New(vec, lex, fakeEmbedder{}, &fakeJoiner{rows: map[string]JoinedChunk{}}, identityReranker{}, nil, 0.65)

	hits, err := r.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected unjoinable row to be dropped, got %d hits", len(hits))
	}
}
