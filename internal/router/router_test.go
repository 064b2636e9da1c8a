package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/connexus-ai/secondbrain/internal/cache"
	"github.com/connexus-ai/secondbrain/internal/config"
	"github.com/connexus-ai/secondbrain/internal/middleware"
	"github.com/connexus-ai/secondbrain/internal/model"
	"github.com/connexus-ai/secondbrain/internal/retrieval"
	"github.com/connexus-ai/secondbrain/internal/service"
	"github.com/connexus-ai/secondbrain/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

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
	return nil, store.ErrNotFound
}

func (f *fakeStore) FetchChunksForIndex(_ context.Context) ([]model.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Chunk(nil), f.chunks...), nil
}

func (f *fakeStore) FetchChunksByIDs(_ context.Context, ids []string) (map[string]store.JoinedChunk, error) {
	return map[string]store.JoinedChunk{}, nil
}

type fakeEmbedder struct{ dim int }

func (e fakeEmbedder) Dim() int { return e.dim }
func (e fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, e.dim)
	}
	return out, nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, _, _ string) (string, error) { return "ok", nil }

func buildRouter(t *testing.T) http.Handler {
	t.Helper()
	ds := &fakeStore{}
	cfg := &config.Config{DataDir: t.TempDir(), HybridAlpha: 0.65, MaxContextChars: 14000, TopK: 8}
	engine := service.NewRetrievalEngine(cfg.DataDir, ds, fakeEmbedder{dim: 4})
	if err := engine.LoadOrBuild(context.Background()); err != nil {
		t.Fatalf("LoadOrBuild: %v", err)
	}
	queries := cache.New(time.Minute)
	t.Cleanup(queries.Stop)
	app := service.New(cfg, ds, ds, engine, stubGenerator{}, retrieval.IdentityReranker{}, fakeEmbedder{dim: 4}, nil, queries)

	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(reg)

	return New(Config{
		App:            app,
		Metrics:        metrics,
		Version:        "test",
		CORSOrigin:     "http://localhost:3000",
		DefaultTopK:    8,
		MaxUploadBytes: 50 << 20,
		RequestTimeout: 5 * time.Second,
	})
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	r := buildRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
}

func TestRouter_EndToEndUploadSearchChat(t *testing.T) {
	r := buildRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "notes.txt")
	part.Write([]byte("the mitochondrion is the powerhouse of the cell"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/documents/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body = %s", rec.Code, rec.Body.String())
	}

	searchBody, _ := json.Marshal(map[string]interface{}{"query": "powerhouse of the cell", "top_k": 5})
	req = httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(searchBody))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d, body = %s", rec.Code, rec.Body.String())
	}

	chatBody, _ := json.Marshal(map[string]interface{}{"query": "powerhouse of the cell", "top_k": 5, "include_sources": true})
	req = httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(chatBody))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("chat status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_CORSRejectsUnknownOrigin(t *testing.T) {
	r := buildRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/search", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}
