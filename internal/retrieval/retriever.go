// Package retrieval implements the hybrid vector+lexical retriever, its
// pluggable reranker variants, and context assembly for the generator.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/connexus-ai/secondbrain/internal/cache"
	"github.com/connexus-ai/secondbrain/internal/index"
	"github.com/connexus-ai/secondbrain/internal/model"
	"github.com/connexus-ai/secondbrain/internal/textutil"
)

// minScoreGap is the minimum spread between a side's min and max score
// below which that side is treated as uniformly zero rather than dividing
// by a near-zero denominator.
const minScoreGap = 1e-9

// VectorSearcher abstracts the vector index for testability.
type VectorSearcher interface {
	Search(query []float32, k int) []index.Scored
	Meta(row int) model.ChunkMeta
	Len() int
}

// LexicalSearcher abstracts the lexical index for testability.
type LexicalSearcher interface {
	Search(query string, k int) []index.Scored
	Len() int
}

// QueryEmbedder abstracts query embedding for testability.
type QueryEmbedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// JoinedChunk mirrors store.JoinedChunk without coupling this package to it.
type JoinedChunk struct {
	Chunk        model.Chunk
	OriginalName string
	StoredName   string
}

// ChunkJoiner resolves chunk ids to their joined document metadata.
type ChunkJoiner interface {
	FetchChunksByIDs(ctx context.Context, ids []string) (map[string]JoinedChunk, error)
}

// Reranker reorders hits for a query. Implementations must be total: never
// drop an input hit, never fail to terminate.
type Reranker interface {
	Rerank(ctx context.Context, query string, hits []model.Hit) []model.Hit
}

// Retriever runs the hybrid vector+lexical search pipeline of the engine's
// core algorithm. The vector index's metadata sidecar is the single source
// of row→chunk identity; the lexical index is built over the same row
// ordering and is only ever queried for its scores.
type Retriever struct {
	vector     VectorSearcher
	lexical    LexicalSearcher
	embedder   QueryEmbedder
	joiner     ChunkJoiner
	reranker   Reranker
	embedCache *cache.EmbeddingCache
	alpha      float64
}

// New builds a Retriever. alpha is the dense/lexical fusion weight in [0,1].
// embedCache may be nil, in which case every query is embedded directly.
func New(vector VectorSearcher, lexical LexicalSearcher, embedder QueryEmbedder, joiner ChunkJoiner, reranker Reranker, embedCache *cache.EmbeddingCache, alpha float64) *Retriever {
	return &Retriever{
		vector:     vector,
		lexical:    lexical,
		embedder:   embedder,
		joiner:     joiner,
		reranker:   reranker,
		embedCache: embedCache,
		alpha:      alpha,
	}
}

// Search executes the full hybrid pipeline: normalize, embed, fan out to
// both indexes, fuse scores, dedup, rerank, and truncate to k.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]model.Hit, error) {
	normalized := textutil.Normalize(query)
	if normalized == "" || r.vector.Len() == 0 {
		return []model.Hit{}, nil
	}

	queryVec, err := r.embedQuery(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("retrieval.Search: embed: %w", err)
	}

	candidateK := k * 4
	if candidateK < k {
		candidateK = k
	}

	var vecHits, bm25Hits []index.Scored
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		vecHits = r.vector.Search(queryVec, candidateK)
		return nil
	})
	g.Go(func() error {
		bm25Hits = r.lexical.Search(normalized, candidateK)
		return nil
	})
	_ = g.Wait()

	slog.Info("retrieval search", "query_len", len(normalized), "vec_candidates", len(vecHits), "bm25_candidates", len(bm25Hits))

	vecScores := toScoreMap(vecHits)
	bm25Scores := toScoreMap(bm25Hits)
	normV := minMaxNormalize(vecScores)
	normB := minMaxNormalize(bm25Scores)

	rows := unionRows(vecScores, bm25Scores)

	type fusedRow struct {
		row      int
		score    float64
		vecScore float64
		chunkID  string
	}
	fusedRows := make([]fusedRow, 0, len(rows))
	for row := range rows {
		fusedRows = append(fusedRows, fusedRow{
			row:      row,
			score:    r.alpha*normV[row] + (1-r.alpha)*normB[row],
			vecScore: vecScores[row],
			chunkID:  r.vector.Meta(row).ChunkID,
		})
	}

	sort.Slice(fusedRows, func(i, j int) bool {
		a, b := fusedRows[i], fusedRows[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.vecScore != b.vecScore {
			return a.vecScore > b.vecScore
		}
		return a.chunkID < b.chunkID
	})
	if len(fusedRows) > candidateK {
		fusedRows = fusedRows[:candidateK]
	}

	ids := make([]string, len(fusedRows))
	for i, f := range fusedRows {
		ids[i] = f.chunkID
	}

	joined, err := r.joiner.FetchChunksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("retrieval.Search: fetch joined chunks: %w", err)
	}

	candidates := make([]model.Hit, 0, len(fusedRows))
	seen := make(map[string]struct{}, len(fusedRows))
	for _, f := range fusedRows {
		jc, ok := joined[f.chunkID]
		if !ok {
			continue
		}
		dedupKey := fmt.Sprintf("%s:%d", jc.Chunk.DocumentID, jc.Chunk.ChunkIndex)
		if _, dup := seen[dedupKey]; dup {
			continue
		}
		seen[dedupKey] = struct{}{}

		candidates = append(candidates, model.Hit{
			ChunkID:      jc.Chunk.ID,
			DocID:        jc.Chunk.DocumentID,
			OriginalName: jc.OriginalName,
			StoredName:   jc.StoredName,
			ChunkIndex:   jc.Chunk.ChunkIndex,
			PageStart:    jc.Chunk.PageStart,
			PageEnd:      jc.Chunk.PageEnd,
			Section:      jc.Chunk.Section,
			Score:        f.score,
			VecScore:     vecScores[f.row],
			BM25Score:    bm25Scores[f.row],
			Text:         jc.Chunk.Text,
		})
	}

	reranked := r.reranker.Rerank(ctx, normalized, candidates)
	if len(reranked) > k {
		reranked = reranked[:k]
	}
	return reranked, nil
}

// embedQuery embeds a normalized query, consulting the embedding cache first
// when one is configured.
func (r *Retriever) embedQuery(ctx context.Context, normalized string) ([]float32, error) {
	if r.embedCache == nil {
		vecs, err := r.embedder.Embed(ctx, []string{normalized})
		if err != nil {
			return nil, err
		}
		return vecs[0], nil
	}

	hash := cache.EmbeddingQueryHash(normalized)
	if vec, ok := r.embedCache.Get(hash); ok {
		return vec, nil
	}

	vecs, err := r.embedder.Embed(ctx, []string{normalized})
	if err != nil {
		return nil, err
	}
	queryVec := vecs[0]
	r.embedCache.Set(hash, queryVec)
	return queryVec, nil
}

func toScoreMap(hits []index.Scored) map[int]float64 {
	out := make(map[int]float64, len(hits))
	for _, h := range hits {
		out[h.Row] = float64(h.Score)
	}
	return out
}

func minMaxNormalize(scores map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(scores))
	if len(scores) == 0 {
		return out
	}
	min, max := minMax(scores)
	gap := max - min
	for row, s := range scores {
		if gap < minScoreGap {
			out[row] = 0
			continue
		}
		out[row] = (s - min) / gap
	}
	return out
}

func minMax(scores map[int]float64) (float64, float64) {
	first := true
	var min, max float64
	for _, s := range scores {
		if first {
			min, max = s, s
			first = false
			continue
		}
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return min, max
}

func unionRows(a, b map[int]float64) map[int]struct{} {
	out := make(map[int]struct{}, len(a)+len(b))
	for row := range a {
		out[row] = struct{}{}
	}
	for row := range b {
		out[row] = struct{}{}
	}
	return out
}
