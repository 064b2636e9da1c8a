package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/connexus-ai/secondbrain/internal/service"
)

// UploadDocument returns a handler that ingests one multipart file upload,
// indexes it, and returns the resulting document record.
// POST /documents/upload (multipart form, field name "file")
func UploadDocument(app *service.AppService, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			respondError(w, http.StatusBadRequest, "file exceeds upload size limit or malformed multipart body")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			respondError(w, http.StatusBadRequest, "missing \"file\" form field")
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to read upload")
			return
		}
		if len(content) == 0 {
			respondError(w, http.StatusBadRequest, "empty upload")
			return
		}

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		doc, err := app.UploadAndIndex(r.Context(), header.Filename, mimeType, content)
		if err != nil {
			respondError(w, http.StatusInternalServerError, fmt.Sprintf("upload failed: %v", err))
			return
		}

		respondJSON(w, http.StatusOK, envelope{Success: true, Data: doc})
	}
}

// ListDocuments returns a handler listing every ingested document, newest
// first.
// GET /documents
func ListDocuments(app *service.AppService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := app.ListDocuments(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to list documents")
			return
		}
		respondJSON(w, http.StatusOK, envelope{Success: true, Data: docs})
	}
}
