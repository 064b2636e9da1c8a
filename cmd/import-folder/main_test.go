package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestRun_MissingFolderArgExits2(t *testing.T) {
	if got := run(nil); got != 2 {
		t.Fatalf("run(nil) = %d, want 2", got)
	}
}

func TestRun_EmptyFolderExits1(t *testing.T) {
	dir := t.TempDir()
	if got := run([]string{dir}); got != 1 {
		t.Fatalf("run(%q) = %d, want 1", dir, got)
	}
}

func TestCollectFiles_FiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.md", "skip.docx", "c.PDF"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	files, err := collectFiles(dir)
	if err != nil {
		t.Fatalf("collectFiles: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 supported files, got %d: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "a.md" || filepath.Base(files[1]) != "b.txt" {
		t.Fatalf("expected sorted order, got %v", files)
	}
}

func TestRun_UploadsEachFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var uploadCount int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploadCount++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if got := run([]string{dir, srv.URL}); got != 0 {
		t.Fatalf("run(...) = %d, want 0", got)
	}
	if uploadCount != 1 {
		t.Fatalf("expected 1 upload, got %d", uploadCount)
	}
}

func TestRun_ReportsFailureStatus(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if got := run([]string{dir, srv.URL}); got != 1 {
		t.Fatalf("run(...) = %d, want 1", got)
	}
}
