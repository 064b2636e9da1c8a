package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/connexus-ai/secondbrain/internal/embed"
	"github.com/connexus-ai/secondbrain/internal/index"
	"github.com/connexus-ai/secondbrain/internal/model"
	"github.com/connexus-ai/secondbrain/internal/textutil"
)

// ChunkSource supplies the canonical, created_at-ordered chunk rows the
// index is built from.
type ChunkSource interface {
	FetchChunksForIndex(ctx context.Context) ([]model.Chunk, error)
}

// RetrievalEngine owns the vector and lexical indexes and the single-writer/
// multi-reader discipline of §5: each VectorView/LexicalView call takes the
// shared lock only for that call, not for a whole query, while a rebuild
// prepares both indexes off to the side and swaps them in under an
// exclusive lock. A query's several calls can therefore interleave with a
// concurrent rebuild's swap. That's safe only because rebuilds are
// append-only under created_at ASC ordering, so row positions already
// handed out never change meaning or disappear out from under an
// in-flight query — a rebuild that reordered or removed rows would need a
// lock held for the query's duration instead.
type RetrievalEngine struct {
	mu      sync.RWMutex
	vector  *index.VectorIndex
	lexical *index.LexicalIndex

	dataDir  string
	chunks   ChunkSource
	embedder embed.Embedder
}

// NewRetrievalEngine builds an engine with explicitly empty indexes; call
// LoadOrBuild before serving queries.
func NewRetrievalEngine(dataDir string, chunks ChunkSource, embedder embed.Embedder) *RetrievalEngine {
	return &RetrievalEngine{
		vector:   index.NewVectorIndex(embedder.Dim()),
		lexical:  index.BuildLexical(nil, nil),
		dataDir:  dataDir,
		chunks:   chunks,
		embedder: embedder,
	}
}

func (e *RetrievalEngine) indexDir() string {
	return filepath.Join(e.dataDir, "index")
}

// LoadOrBuild implements the startup sequence of §4.7: it pulls the
// canonical chunk rows, attempts to load a persisted vector index, and
// rebuilds from scratch whenever no persisted index exists or the load
// fails its own sidecar-length check. The lexical index is never persisted
// — it is cheap to rebuild in memory and is always rebuilt fresh here.
func (e *RetrievalEngine) LoadOrBuild(ctx context.Context) error {
	chunks, err := e.chunks.FetchChunksForIndex(ctx)
	if err != nil {
		return fmt.Errorf("service.LoadOrBuild: fetch chunks: %w", err)
	}

	dir := e.indexDir()
	if index.Exists(dir) {
		v, err := index.Load(dir)
		if err == nil {
			lex := buildLexical(chunks)
			e.mu.Lock()
			e.vector = v
			e.lexical = lex
			e.mu.Unlock()
			slog.Info("index loaded", "rows", v.Len())
			return nil
		}
		slog.Warn("index load failed, rebuilding", "error", err)
	}

	return e.rebuildFrom(ctx, chunks)
}

// Rebuild re-fetches the canonical chunk rows and rebuilds both indexes
// from scratch, then swaps them in atomically. Ingestion triggers this
// after committing a new document's rows.
func (e *RetrievalEngine) Rebuild(ctx context.Context) error {
	chunks, err := e.chunks.FetchChunksForIndex(ctx)
	if err != nil {
		return fmt.Errorf("service.Rebuild: fetch chunks: %w", err)
	}
	return e.rebuildFrom(ctx, chunks)
}

func (e *RetrievalEngine) rebuildFrom(ctx context.Context, chunks []model.Chunk) error {
	texts := make([]string, len(chunks))
	meta := make([]model.ChunkMeta, len(chunks))
	for i, c := range chunks {
		texts[i] = textutil.Normalize(c.Text)
		meta[i] = model.ChunkMeta{
			ChunkID:    c.ID,
			DocID:      c.DocumentID,
			ChunkIndex: c.ChunkIndex,
			PageStart:  c.PageStart,
			PageEnd:    c.PageEnd,
			Section:    c.Section,
		}
	}

	var vectors [][]float32
	if len(texts) > 0 {
		embedded, err := e.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("service.Rebuild: embed: %w", err)
		}
		vectors = embedded
	}

	v, err := index.Build(vectors, meta)
	if err != nil {
		return fmt.Errorf("service.Rebuild: build vector index: %w", err)
	}
	if err := v.Save(e.indexDir()); err != nil {
		return fmt.Errorf("service.Rebuild: save vector index: %w", err)
	}

	lex := index.BuildLexical(texts, meta)

	e.mu.Lock()
	e.vector = v
	e.lexical = lex
	e.mu.Unlock()

	slog.Info("index rebuilt", "rows", len(chunks))
	return nil
}

func buildLexical(chunks []model.Chunk) *index.LexicalIndex {
	texts := make([]string, len(chunks))
	meta := make([]model.ChunkMeta, len(chunks))
	for i, c := range chunks {
		texts[i] = textutil.Normalize(c.Text)
		meta[i] = model.ChunkMeta{
			ChunkID:    c.ID,
			DocID:      c.DocumentID,
			ChunkIndex: c.ChunkIndex,
			PageStart:  c.PageStart,
			PageEnd:    c.PageEnd,
			Section:    c.Section,
		}
	}
	return index.BuildLexical(texts, meta)
}

// VectorView exposes the engine as a retrieval.VectorSearcher, re-reading
// the current index under a shared lock on every call so it stays valid
// across rebuild swaps.
type VectorView struct{ e *RetrievalEngine }

// Vector returns a VectorView over the engine.
func (e *RetrievalEngine) Vector() VectorView { return VectorView{e} }

func (v VectorView) Search(query []float32, k int) []index.Scored {
	v.e.mu.RLock()
	defer v.e.mu.RUnlock()
	return v.e.vector.Search(query, k)
}

func (v VectorView) Meta(row int) model.ChunkMeta {
	v.e.mu.RLock()
	defer v.e.mu.RUnlock()
	return v.e.vector.Meta(row)
}

func (v VectorView) Len() int {
	v.e.mu.RLock()
	defer v.e.mu.RUnlock()
	return v.e.vector.Len()
}

// LexicalView exposes the engine as a retrieval.LexicalSearcher.
type LexicalView struct{ e *RetrievalEngine }

// Lexical returns a LexicalView over the engine.
func (e *RetrievalEngine) Lexical() LexicalView { return LexicalView{e} }

func (l LexicalView) Search(query string, k int) []index.Scored {
	l.e.mu.RLock()
	defer l.e.mu.RUnlock()
	return l.e.lexical.Search(query, k)
}
