package handler

import (
	"net/http"

	"github.com/connexus-ai/secondbrain/internal/model"
	"github.com/connexus-ai/secondbrain/internal/service"
)

// ChatRequest is the request body for /chat. Style is accepted but not
// forwarded to the generator — this service has a single answer style.
// IncludeSources controls whether the response body carries the Sources
// field; refused/reason are always computed regardless.
type ChatRequest struct {
	Query          string `json:"query"`
	TopK           int    `json:"top_k"`
	Style          string `json:"style,omitempty"`
	IncludeSources bool   `json:"include_sources"`
}

// ChatResponse is the response body for /chat.
type ChatResponse struct {
	Answer  string      `json:"answer"`
	Sources []model.Hit `json:"sources,omitempty"`
	Refused bool        `json:"refused"`
	Reason  string      `json:"reason,omitempty"`
}

// Chat returns a handler that retrieves grounding chunks and composes an
// answer.
// POST /chat {query, top_k, style, include_sources} -> {answer, sources, refused, reason}
func Chat(app *service.AppService, defaultTopK int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
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

		result, err := app.Chat(r.Context(), req.Query, topK)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "chat failed")
			return
		}

		resp := ChatResponse{Answer: result.Answer, Refused: result.Refused, Reason: result.Reason}
		if req.IncludeSources {
			resp.Sources = result.Sources
		}
		respondJSON(w, http.StatusOK, envelope{Success: true, Data: resp})
	}
}
