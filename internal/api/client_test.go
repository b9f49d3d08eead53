package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://localhost:5000/", "secret")
	if c.baseURL != "http://localhost:5000" {
		t.Errorf("expected trailing slash trimmed, got %s", c.baseURL)
	}
	if c.apiKey != "secret" {
		t.Errorf("expected apiKey=secret, got %s", c.apiKey)
	}
}

func TestHealthcheck(t *testing.T) {
	status := http.StatusOK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != healthPath {
			t.Errorf("expected path %s, got %s", healthPath, r.URL.Path)
		}
		w.WriteHeader(status)
	}))
	defer server.Close()

	c := New(server.URL, "")
	if err := c.Healthcheck(context.Background()); err != nil {
		t.Errorf("Healthcheck failed: %v", err)
	}

	status = http.StatusInternalServerError
	if err := c.Healthcheck(context.Background()); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestHealthcheck_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	if err := New(url, "").Healthcheck(context.Background()); err == nil {
		t.Error("expected error for unreachable server")
	}
}

func TestUpload(t *testing.T) {
	got := map[string]string{}
	var content string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != uploadPath || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for k, v := range r.MultipartForm.Value {
			got[k] = v[0]
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("failed to get file: %v", err)
			return
		}
		defer file.Close()
		b, _ := io.ReadAll(file)
		content = string(b)

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "5f0c_20260212_213836.json.gz")
	if err := os.WriteFile(path, []byte("export"), 0644); err != nil {
		t.Fatal(err)
	}

	started := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)
	err := New(server.URL, "mysecret").Upload(context.Background(), path, SessionUpload{
		SessionID: "5f0c",
		Codec:     "protobuf",
		StartedAt: started,
		EndedAt:   started.Add(time.Minute),
		Accepted:  12,
		Rejected:  3,
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	want := map[string]string{
		"secret":    "mysecret",
		"filename":  "5f0c_20260212_213836.json.gz",
		"sessionId": "5f0c",
		"codec":     "protobuf",
		"startedAt": "2026-02-12T21:38:36Z",
		"endedAt":   "2026-02-12T21:39:36Z",
		"accepted":  "12",
		"rejected":  "3",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("field %s: expected %q, got %q", k, v, got[k])
		}
	}
	if content != "export" {
		t.Errorf("expected file content 'export', got %q", content)
	}
}

func TestUpload_FileNotFound(t *testing.T) {
	err := New("http://localhost:5000", "secret").Upload(context.Background(), "/nonexistent/file.json.gz", SessionUpload{})
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestUpload_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := New(server.URL, "wrong").Upload(context.Background(), path, SessionUpload{}); err == nil {
		t.Error("expected error for 403 response")
	}
}
