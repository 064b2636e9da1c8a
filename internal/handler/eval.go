package handler

import (
	"net/http"

	"github.com/connexus-ai/secondbrain/internal/eval"
	"github.com/connexus-ai/secondbrain/internal/service"
)

// EvalRequest is the request body for /eval/run.
type EvalRequest struct {
	Items []eval.Item `json:"items"`
	TopK  int         `json:"top_k"`
}

// RunEval returns a handler running the eval harness against the live
// retriever.
// POST /eval/run {items, top_k} -> metrics object
func RunEval(app *service.AppService, defaultTopK int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EvalRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(req.Items) == 0 {
			respondError(w, http.StatusBadRequest, "items must not be empty")
			return
		}
		topK := req.TopK
		if topK <= 0 {
			topK = defaultTopK
		}

		metrics, err := app.BuildEvalMetrics(r.Context(), req.Items, topK)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "eval run failed")
			return
		}

		respondJSON(w, http.StatusOK, envelope{Success: true, Data: metrics})
	}
}
