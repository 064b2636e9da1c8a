package handler

import (
	"net/http"

	"github.com/connexus-ai/secondbrain/internal/service"
)

// SearchRequest is the request body for /search.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// SearchResponse is the response body for /search.
type SearchResponse struct {
	Query   string      `json:"query"`
	TopK    int         `json:"top_k"`
	Sources interface{} `json:"sources"`
}

// Search returns a handler running the hybrid retrieval pipeline for one
// query.
// POST /search {query, top_k} -> {query, top_k, sources}
func Search(app *service.AppService, defaultTopK int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SearchRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Query == "" {
			respondError(w, http.StatusBadRequest, "query is required")
			return
		}
		topK := req.TopK
		if topK <= 0 {
			topK = defaultTopK
		}

		hits, err := app.Search(r.Context(), req.Query, topK)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "search failed")
			return
		}

		respondJSON(w, http.StatusOK, envelope{Success: true, Data: SearchResponse{
			Query:   req.Query,
			TopK:    topK,
			Sources: hits,
		}})
	}
}
