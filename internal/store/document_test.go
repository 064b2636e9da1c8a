package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/connexus-ai/secondbrain/internal/model"
)

func setupRepos(t *testing.T) (*DocumentRepo, *ChunkRepo, func()) {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := NewPool(ctx, dbURL, 5)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	schema, err := os.ReadFile("../../migrations/001_initial_schema.up.sql")
	if err != nil {
		pool.Close()
		t.Fatalf("read migration: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		pool.Close()
		t.Fatalf("apply migration: %v", err)
	}

	return NewDocumentRepo(pool), NewChunkRepo(pool), func() { pool.Close() }
}

func TestInsertDocumentAndChunks_RoundTrip(t *testing.T) {
	docRepo, chunkRepo, teardown := setupRepos(t)
	defer teardown()

	ctx := context.Background()
	docID := uuid.NewString()
	now := time.Now().UTC()

	doc := model.Document{
		ID:           docID,
		Filename:     docID + "_file.txt",
		OriginalName: "file.txt",
		MimeType:     "text/plain",
		SizeBytes:    42,
		SHA256:       "deadbeef",
		CreatedAt:    now,
	}
	chunks := []model.Chunk{
		{ID: uuid.NewString(), DocumentID: docID, ChunkIndex: 0, Text: "hello world", TextLen: 11, SHA256: "aaa", CreatedAt: now},
		{ID: uuid.NewString(), DocumentID: docID, ChunkIndex: 1, Text: "second chunk", TextLen: 12, SHA256: "bbb", CreatedAt: now.Add(time.Millisecond)},
	}

	if err := docRepo.InsertDocumentAndChunks(ctx, doc, chunks); err != nil {
		t.Fatalf("InsertDocumentAndChunks: %v", err)
	}

	got, err := docRepo.GetDocument(ctx, docID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.OriginalName != "file.txt" {
		t.Errorf("OriginalName = %q, want file.txt", got.OriginalName)
	}

	indexed, err := chunkRepo.FetchChunksForIndex(ctx)
	if err != nil {
		t.Fatalf("FetchChunksForIndex: %v", err)
	}
	found := 0
	for _, c := range indexed {
		if c.DocumentID == docID {
			found++
		}
	}
	if found != 2 {
		t.Errorf("expected 2 chunks for document, found %d", found)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	docRepo, _, teardown := setupRepos(t)
	defer teardown()

	_, err := docRepo.GetDocument(context.Background(), uuid.NewString())
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
