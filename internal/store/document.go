package store

import (
	"context"
	"fmt"

	"github.com/connexus-ai/secondbrain/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRepo persists Document and Chunk rows.
type DocumentRepo struct {
	pool *pgxpool.Pool
}

// NewDocumentRepo creates a DocumentRepo.
func NewDocumentRepo(pool *pgxpool.Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

// InsertDocumentAndChunks writes the document row and all of its chunk rows in
// a single transaction: a parser or chunk-write failure never leaves an
// orphaned document row.
func (r *DocumentRepo) InsertDocumentAndChunks(ctx context.Context, doc model.Document, chunks []model.Chunk) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store.InsertDocumentAndChunks: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO documents (id, filename, original_name, mime_type, bytes, sha256, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		doc.ID, doc.Filename, doc.OriginalName, doc.MimeType, doc.SizeBytes, doc.SHA256, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("store.InsertDocumentAndChunks: insert document: %w", err)
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(`
			INSERT INTO chunks (id, doc_id, chunk_index, page_start, page_end, section, text, text_len, sha256, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			c.ID, c.DocumentID, c.ChunkIndex, c.PageStart, c.PageEnd, nullableString(c.Section), c.Text, c.TextLen, c.SHA256, c.CreatedAt)
	}
	br := tx.SendBatch(ctx, batch)
	for range chunks {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("store.InsertDocumentAndChunks: insert chunk: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("store.InsertDocumentAndChunks: close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store.InsertDocumentAndChunks: commit: %w", err)
	}
	return nil
}

// ListDocuments returns all documents with their chunk counts, newest first.
func (r *DocumentRepo) ListDocuments(ctx context.Context) ([]model.Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT d.id, d.filename, d.original_name, d.mime_type, d.bytes, d.sha256, d.created_at,
		       COUNT(c.id) AS chunk_count
		FROM documents d
		LEFT JOIN chunks c ON c.doc_id = d.id
		GROUP BY d.id
		ORDER BY d.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store.ListDocuments: query: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.Filename, &d.OriginalName, &d.MimeType, &d.SizeBytes, &d.SHA256, &d.CreatedAt, &d.ChunkCount); err != nil {
			return nil, fmt.Errorf("store.ListDocuments: scan: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetDocument fetches a single document by id.
func (r *DocumentRepo) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var d model.Document
	err := r.pool.QueryRow(ctx, `
		SELECT id, filename, original_name, mime_type, bytes, sha256, created_at
		FROM documents WHERE id = $1`, id).
		Scan(&d.ID, &d.Filename, &d.OriginalName, &d.MimeType, &d.SizeBytes, &d.SHA256, &d.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store.GetDocument: %w", err)
	}
	return &d, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
