// import-folder walks a directory for .pdf/.md/.txt files, in sorted order,
// and uploads each to a running server's /documents/upload endpoint.
//
// Usage:
//
//	go run ./cmd/import-folder <folder> [api_base]
//
// api_base defaults to http://localhost:8080. Exits 2 if the folder argument
// is missing, 1 if the folder has no supported files, otherwise 0.
package main

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var supportedExt = map[string]bool{".pdf": true, ".md": true, ".txt": true}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: import-folder <folder> [api_base]")
		return 2
	}
	folder := args[0]
	api := "http://localhost:8080"
	if len(args) > 1 {
		api = args[1]
	}
	api = strings.TrimRight(api, "/")

	files, err := collectFiles(folder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "import-folder: %v\n", err)
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no supported files")
		return 1
	}

	client := &http.Client{Timeout: 180 * time.Second}
	failures := 0
	for _, p := range files {
		if err := uploadFile(client, api, p); err != nil {
			fmt.Fprintf(os.Stderr, "failed %s: %v\n", filepath.Base(p), err)
			failures++
			continue
		}
		fmt.Fprintf(os.Stdout, "uploaded %s\n", filepath.Base(p))
	}
	if failures > 0 {
		return 1
	}
	return 0
}

func collectFiles(folder string) ([]string, error) {
	var files []string
	err := filepath.Walk(folder, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if supportedExt[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", folder, err)
	}
	sort.Strings(files)
	return files, nil
}

func uploadFile(client *http.Client, api, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, api+"/documents/upload", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
