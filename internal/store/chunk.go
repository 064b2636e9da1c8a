package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/connexus-ai/secondbrain/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup by id finds no row.
var ErrNotFound = errors.New("store: not found")

// ChunkRepo queries chunk rows.
type ChunkRepo struct {
	pool *pgxpool.Pool
}

// NewChunkRepo creates a ChunkRepo.
func NewChunkRepo(pool *pgxpool.Pool) *ChunkRepo {
	return &ChunkRepo{pool: pool}
}

// FetchChunksForIndex returns every chunk row ordered by created_at ascending.
// This ordering defines the canonical row positions in both the vector and
// lexical indexes.
func (r *ChunkRepo) FetchChunksForIndex(ctx context.Context) ([]model.Chunk, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doc_id, chunk_index, page_start, page_end, section, text, text_len, sha256, created_at
		FROM chunks
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("store.FetchChunksForIndex: query: %w", err)
	}
	defer rows.Close()

	var chunks []model.Chunk
	for rows.Next() {
		var c model.Chunk
		var section *string
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.PageStart, &c.PageEnd, &section, &c.Text, &c.TextLen, &c.SHA256, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("store.FetchChunksForIndex: scan: %w", err)
		}
		if section != nil {
			c.Section = *section
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// JoinedChunk is a chunk row joined with its owning document's names, the
// shape the hybrid retriever needs to build a Hit.
type JoinedChunk struct {
	Chunk        model.Chunk
	OriginalName string
	StoredName   string
}

// FetchChunksByIDs bulk-fetches chunk rows (joined with their document) for
// the given ids via a single query.
func (r *ChunkRepo) FetchChunksByIDs(ctx context.Context, ids []string) (map[string]JoinedChunk, error) {
	if len(ids) == 0 {
		return map[string]JoinedChunk{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.doc_id, c.chunk_index, c.page_start, c.page_end, c.section, c.text, c.text_len, c.sha256, c.created_at,
		       d.original_name, d.filename
		FROM chunks c
		JOIN documents d ON d.id = c.doc_id
		WHERE c.id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("store.FetchChunksByIDs: query: %w", err)
	}
	defer rows.Close()

	out := make(map[string]JoinedChunk, len(ids))
	for rows.Next() {
		var jc JoinedChunk
		var section *string
		if err := rows.Scan(&jc.Chunk.ID, &jc.Chunk.DocumentID, &jc.Chunk.ChunkIndex, &jc.Chunk.PageStart, &jc.Chunk.PageEnd,
			&section, &jc.Chunk.Text, &jc.Chunk.TextLen, &jc.Chunk.SHA256, &jc.Chunk.CreatedAt,
			&jc.OriginalName, &jc.StoredName); err != nil {
			return nil, fmt.Errorf("store.FetchChunksByIDs: scan: %w", err)
		}
		if section != nil {
			jc.Chunk.Section = *section
		}
		out[jc.Chunk.ID] = jc
	}
	return out, rows.Err()
}

// CountChunks returns the total number of chunk rows.
func (r *ChunkRepo) CountChunks(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM chunks`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store.CountChunks: %w", err)
	}
	return n, nil
}
