package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/connexus-ai/secondbrain/internal/model"
	"github.com/connexus-ai/secondbrain/internal/parse"
	"github.com/connexus-ai/secondbrain/internal/textutil"
)

const maxSafeFilenameLen = 180

// safeFilename strips any path components and replaces every character
// outside [A-Za-z0-9._-] with an underscore, matching the upload path's
// `<doc_id>_<safe_original_name>` naming contract.
func safeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		out = "file"
	}
	if len(out) > maxSafeFilenameLen {
		out = out[:maxSafeFilenameLen]
	}
	return out
}

func sha256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// extractChunks parses a document's bytes by extension and turns every span
// into normalized, deduped chunk texts carrying that span's page/section
// metadata. Dedup runs per span: PDFs dedup per page, since the reference
// importer resets the sliding window at page boundaries; Markdown dedups per
// heading section and plain text over the whole document. DocumentID and CreatedAt are left zero for the caller to
// fill in once the owning document's id is known.
func extractChunks(originalName string, data []byte) ([]model.Chunk, error) {
	spans, err := parse.Document(originalName, data)
	if err != nil {
		return nil, fmt.Errorf("service.extractChunks: %w", err)
	}

	var chunks []model.Chunk
	index := 0
	for _, span := range spans {
		text := textutil.Normalize(span.Text)
		if text == "" {
			continue
		}
		parts := textutil.Chunk(text, textutil.DefaultChunkParams())
		parts = textutil.SoftDedup(parts, textutil.DefaultDedupThreshold)
		for _, p := range parts {
			normalized := textutil.Normalize(p)
			if normalized == "" {
				continue
			}
			chunks = append(chunks, model.Chunk{
				ID:         uuid.NewString(),
				ChunkIndex: index,
				PageStart:  span.PageStart,
				PageEnd:    span.PageEnd,
				Section:    span.Section,
				Text:       normalized,
				TextLen:    len(normalized),
				SHA256:     sha256Hex([]byte(normalized)),
			})
			index++
		}
	}
	return chunks, nil
}

// writeUpload persists the original upload bytes under dataDir/uploads,
// returning the stored (sanitized, doc-id-prefixed) filename.
func writeUpload(dataDir, docID, originalName string, content []byte) (string, error) {
	dir := filepath.Join(dataDir, "uploads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("service.writeUpload: create dir: %w", err)
	}
	stored := fmt.Sprintf("%s_%s", docID, safeFilename(originalName))
	if err := os.WriteFile(filepath.Join(dir, stored), content, 0o644); err != nil {
		return "", fmt.Errorf("service.writeUpload: write file: %w", err)
	}
	return stored, nil
}

func newDocument(id, stored, originalName, mimeType string, size int64, digest string) model.Document {
	return model.Document{
		ID:           id,
		Filename:     stored,
		OriginalName: originalName,
		MimeType:     mimeType,
		SizeBytes:    size,
		SHA256:       digest,
		CreatedAt:    time.Now().UTC(),
	}
}
