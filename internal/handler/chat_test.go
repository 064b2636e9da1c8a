package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChat_RefusedOnEmptyCorpus(t *testing.T) {
	app, _ := newTestApp(t)

	body, _ := json.Marshal(ChatRequest{Query: "anything", TopK: 5, IncludeSources: true})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	Chat(app, 8).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data ChatResponse `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Data.Refused || resp.Data.Reason != "no_sources" {
		t.Fatalf("expected refusal with no_sources, got %+v", resp.Data)
	}
}

func TestChat_OmitsSourcesWhenNotRequested(t *testing.T) {
	app, _ := newTestApp(t)
	if _, err := app.UploadAndIndex(context.Background(), "a.txt", "text/plain", []byte("the quick brown fox jumps over the lazy dog")); err != nil {
		t.Fatalf("UploadAndIndex: %v", err)
	}

	body, _ := json.Marshal(ChatRequest{Query: "quick fox", TopK: 5, IncludeSources: false})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	Chat(app, 8).ServeHTTP(rec, req)

	var resp struct {
		Data ChatResponse `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Data.Refused {
		t.Fatalf("expected no refusal, got %+v", resp.Data)
	}
	if len(resp.Data.Sources) != 0 {
		t.Fatalf("expected sources omitted, got %d", len(resp.Data.Sources))
	}
}

func TestChat_EmptyQueryRejected(t *testing.T) {
	app, _ := newTestApp(t)
	body, _ := json.Marshal(ChatRequest{Query: ""})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	Chat(app, 8).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
