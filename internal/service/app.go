// Package service wires the core retrieval engine (internal/index,
// internal/retrieval, internal/embed, internal/generate, internal/eval)
// into the application's upload/search/chat/eval operations.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/connexus-ai/secondbrain/internal/cache"
	"github.com/connexus-ai/secondbrain/internal/config"
	evalpkg "github.com/connexus-ai/secondbrain/internal/eval"
	"github.com/connexus-ai/secondbrain/internal/generate"
	"github.com/connexus-ai/secondbrain/internal/model"
	"github.com/connexus-ai/secondbrain/internal/retrieval"
	"github.com/connexus-ai/secondbrain/internal/store"
)

// DocumentRepository persists documents and their chunks.
type DocumentRepository interface {
	InsertDocumentAndChunks(ctx context.Context, doc model.Document, chunks []model.Chunk) error
	ListDocuments(ctx context.Context) ([]model.Document, error)
	GetDocument(ctx context.Context, id string) (*model.Document, error)
}

// ChunkJoinRepository resolves chunk ids to their joined document metadata,
// the shape the hybrid retriever needs after fusing scores.
type ChunkJoinRepository interface {
	FetchChunksByIDs(ctx context.Context, ids []string) (map[string]store.JoinedChunk, error)
}

// AppService is the process-wide application context: it owns the store
// repositories, the retrieval engine, the generator, and the query cache,
// and exposes the five operations the HTTP surface drives.
type AppService struct {
	cfg       *config.Config
	docs      DocumentRepository
	engine    *RetrievalEngine
	retriever *retrieval.Retriever
	generator generate.Generator
	queries   *cache.QueryCache
}

// New builds an AppService. Callers must call engine.LoadOrBuild before
// serving traffic. embedCache may be nil to disable query-embedding reuse.
func New(cfg *config.Config, docs DocumentRepository, chunkRepo ChunkJoinRepository, engine *RetrievalEngine, generator generate.Generator, reranker retrieval.Reranker, embedder retrieval.QueryEmbedder, embedCache *cache.EmbeddingCache, queries *cache.QueryCache) *AppService {
	retriever := retrieval.New(engine.Vector(), engine.Lexical(), embedder, chunkJoiner{chunkRepo}, reranker, embedCache, cfg.HybridAlpha)
	return &AppService{
		cfg:       cfg,
		docs:      docs,
		engine:    engine,
		retriever: retriever,
		generator: generator,
		queries:   queries,
	}
}

// chunkJoiner adapts a ChunkJoinRepository to retrieval.ChunkJoiner.
type chunkJoiner struct{ repo ChunkJoinRepository }

func (j chunkJoiner) FetchChunksByIDs(ctx context.Context, ids []string) (map[string]retrieval.JoinedChunk, error) {
	rows, err := j.repo.FetchChunksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]retrieval.JoinedChunk, len(rows))
	for id, jc := range rows {
		out[id] = retrieval.JoinedChunk{Chunk: jc.Chunk, OriginalName: jc.OriginalName, StoredName: jc.StoredName}
	}
	return out, nil
}

// ListDocuments returns every document, newest first.
func (s *AppService) ListDocuments(ctx context.Context) ([]model.Document, error) {
	docs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ListDocuments: %w", err)
	}
	return docs, nil
}

// UploadAndIndex writes the upload to disk, parses and chunks it, commits
// the document and chunk rows in one transaction, triggers an index
// rebuild, and invalidates the query cache.
func (s *AppService) UploadAndIndex(ctx context.Context, originalName, mimeType string, content []byte) (*model.Document, error) {
	docID := uuid.NewString()
	digest := sha256Hex(content)

	stored, err := writeUpload(s.cfg.DataDir, docID, originalName, content)
	if err != nil {
		return nil, fmt.Errorf("service.UploadAndIndex: %w", err)
	}
	doc := newDocument(docID, stored, originalName, mimeType, int64(len(content)), digest)

	chunks, err := extractChunks(originalName, content)
	if err != nil {
		return nil, fmt.Errorf("service.UploadAndIndex: %w", err)
	}
	for i := range chunks {
		chunks[i].DocumentID = docID
		chunks[i].CreatedAt = doc.CreatedAt
	}
	doc.ChunkCount = len(chunks)

	if err := s.docs.InsertDocumentAndChunks(ctx, doc, chunks); err != nil {
		return nil, fmt.Errorf("service.UploadAndIndex: %w", err)
	}

	if err := s.engine.Rebuild(ctx); err != nil {
		return nil, fmt.Errorf("service.UploadAndIndex: rebuild: %w", err)
	}
	s.queries.Reset()

	slog.Info("document indexed", "document_id", docID, "chunk_count", len(chunks))
	return &doc, nil
}

// Search runs the hybrid retrieval pipeline for query, serving from the
// query cache when available.
func (s *AppService) Search(ctx context.Context, query string, topK int) ([]model.Hit, error) {
	if cached, ok := s.queries.Get(query, topK, s.cfg.HybridAlpha); ok {
		return cached, nil
	}
	hits, err := s.retriever.Search(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("service.Search: %w", err)
	}
	s.queries.Set(query, topK, s.cfg.HybridAlpha, hits)
	return hits, nil
}

// BuildEvalMetrics runs the eval harness (internal/eval) against the live
// retriever.
func (s *AppService) BuildEvalMetrics(ctx context.Context, items []evalpkg.Item, topK int) (*evalpkg.Metrics, error) {
	metrics, err := evalpkg.Run(ctx, evalSearcher{s}, items, topK)
	if err != nil {
		return nil, fmt.Errorf("service.BuildEvalMetrics: %w", err)
	}
	return metrics, nil
}

// evalSearcher adapts AppService.Search (cache included) to eval.Searcher.
type evalSearcher struct{ s *AppService }

func (e evalSearcher) Search(ctx context.Context, query string, k int) ([]model.Hit, error) {
	return e.s.Search(ctx, query, k)
}
