// Package model defines the core data types shared across the retrieval engine.
package model

import "time"

// Document is an uploaded file. It is created once on ingestion and never mutated.
type Document struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`     // sanitized, on-disk name
	OriginalName string    `json:"originalName"` // name as uploaded
	MimeType     string    `json:"mimeType"`
	SizeBytes    int64     `json:"sizeBytes"`
	SHA256       string    `json:"sha256"`
	ChunkCount   int       `json:"chunkCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Chunk is a bounded, sentence-aligned slice of one document's normalized text.
// Created once during ingestion and never mutated.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	ChunkIndex int       `json:"chunkIndex"`
	PageStart  *int      `json:"pageStart,omitempty"`
	PageEnd    *int      `json:"pageEnd,omitempty"`
	Section    string    `json:"section,omitempty"`
	Text       string    `json:"text"`
	TextLen    int       `json:"textLen"`
	SHA256     string    `json:"sha256"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ChunkMeta is one row of the vector index's positional sidecar. Its index in
// the sidecar array is the chunk's row number in both the vector and lexical
// indexes.
type ChunkMeta struct {
	ChunkID    string `json:"chunk_id"`
	DocID      string `json:"doc_id"`
	ChunkIndex int    `json:"chunk_index"`
	PageStart  *int   `json:"page_start,omitempty"`
	PageEnd    *int   `json:"page_end,omitempty"`
	Section    string `json:"section,omitempty"`
}

// Hit is a single retrieval result, joined with its owning document and
// carrying every score the hybrid retriever computed for it.
type Hit struct {
	ChunkID      string  `json:"chunk_id"`
	DocID        string  `json:"doc_id"`
	OriginalName string  `json:"original_name"`
	StoredName   string  `json:"stored_name"`
	ChunkIndex   int     `json:"chunk_index"`
	PageStart    *int    `json:"page_start,omitempty"`
	PageEnd      *int    `json:"page_end,omitempty"`
	Section      string  `json:"section,omitempty"`
	Score        float64 `json:"score"`
	VecScore     float64 `json:"vec_score"`
	BM25Score    float64 `json:"bm25_score"`
	Text         string  `json:"text"`
}

// DocumentSummary wraps a single Document. It carries no chunk count, and the
// document listing endpoint returns plain Documents rather than this type.
type DocumentSummary struct {
	Document Document `json:"document"`
}
