package handler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/connexus-ai/secondbrain/internal/cache"
	"github.com/connexus-ai/secondbrain/internal/config"
	"github.com/connexus-ai/secondbrain/internal/model"
	"github.com/connexus-ai/secondbrain/internal/retrieval"
	"github.com/connexus-ai/secondbrain/internal/service"
	"github.com/connexus-ai/secondbrain/internal/store"
)

// fakeStore is an in-memory backing for AppService that satisfies every
// repository/source interface the service layer needs, without a database.
type fakeStore struct {
	mu     sync.Mutex
	docs   []model.Document
	chunks []model.Chunk
}

func (f *fakeStore) InsertDocumentAndChunks(_ context.Context, doc model.Document, chunks []model.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append([]model.Document{doc}, f.docs...)
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeStore) ListDocuments(_ context.Context) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Document(nil), f.docs...), nil
}

func (f *fakeStore) GetDocument(_ context.Context, id string) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.docs {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) FetchChunksForIndex(_ context.Context) ([]model.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Chunk(nil), f.chunks...), nil
}

func (f *fakeStore) FetchChunksByIDs(_ context.Context, ids []string) (map[string]store.JoinedChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byID := make(map[string]model.Chunk, len(f.chunks))
	for _, c := range f.chunks {
		byID[c.ID] = c
	}
	byDoc := make(map[string]model.Document, len(f.docs))
	for _, d := range f.docs {
		byDoc[d.ID] = d
	}
	out := make(map[string]store.JoinedChunk, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			continue
		}
		d := byDoc[c.DocumentID]
		out[id] = store.JoinedChunk{Chunk: c, OriginalName: d.OriginalName, StoredName: d.Filename}
	}
	return out, nil
}

type fakeEmbedder struct{ dim int }

func (e fakeEmbedder) Dim() int { return e.dim }

func (e fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, e.dim)
		for j := range vec {
			vec[j] = float32(len(t) + j)
		}
		out[i] = vec
	}
	return out, nil
}

type stubGenerator struct{ answer string }

func (g stubGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	return g.answer, nil
}

func newTestApp(t *testing.T) (*service.AppService, *fakeStore) {
	t.Helper()
	ds := &fakeStore{}
	cfg := &config.Config{DataDir: t.TempDir(), HybridAlpha: 0.65, MaxContextChars: 14000, TopK: 8}
	engine := service.NewRetrievalEngine(cfg.DataDir, ds, fakeEmbedder{dim: 8})
	if err := engine.LoadOrBuild(context.Background()); err != nil {
		t.Fatalf("LoadOrBuild: %v", err)
	}
	queries := cache.New(time.Minute)
	t.Cleanup(queries.Stop)
	app := service.New(cfg, ds, ds, engine, stubGenerator{answer: "an answer"}, retrieval.IdentityReranker{}, fakeEmbedder{dim: 8}, nil, queries)
	return app, ds
}
