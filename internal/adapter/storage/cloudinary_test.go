package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/eslsoft/untranslatable/internal/infrastructure/config"
)

func TestCloudinaryStorage_Unconfigured(t *testing.T) {
	cfg := &config.Config{}
	cfg.Audio.Folder = "untranslatable"
	s, err := NewCloudinaryStorage(cfg)
	if err != nil {
		t.Fatalf("unconfigured storage should build: %v", err)
	}
	if _, err := s.Upload(context.Background(), strings.NewReader("x"), "a.mp3"); err != errNotConfigured {
		t.Fatalf("expected errNotConfigured, got %v", err)
	}
}

func TestCloudinaryStorage_KeepsUploadParams(t *testing.T) {
	cfg := &config.Config{}
	cfg.Audio = config.AudioConfig{
		CloudName: "demo", APIKey: "key", APISecret: "secret",
		Folder: "untranslatable", Format: "mp3", ResourceType: "video",
	}
	s, err := NewCloudinaryStorage(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if s.cld == nil || s.folder != "untranslatable" || s.format != "mp3" || s.resourceType != "video" {
		t.Fatalf("unexpected storage %+v", s)
	}
}

// uploadCapture records the form of the last upload and answers with body.
type uploadCapture struct {
	mu   sync.Mutex
	path string
	form map[string]string
	body string
}

func (c *uploadCapture) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.path = r.URL.Path
	c.form = map[string]string{}
	if err := r.ParseMultipartForm(1 << 20); err == nil {
		for key, values := range r.MultipartForm.Value {
			c.form[key] = values[0]
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, c.body)
}

func newTestCloudinaryStorage(t *testing.T, body string) (*CloudinaryStorage, *uploadCapture) {
	t.Helper()
	capture := &uploadCapture{body: body}
	srv := httptest.NewServer(capture)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Audio = config.AudioConfig{
		CloudName: "demo", APIKey: "key", APISecret: "secret",
		Folder: "untranslatable", Format: "mp3", ResourceType: "video",
	}
	s, err := NewCloudinaryStorage(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	s.cld.Upload.Config.API.UploadPrefix = srv.URL
	return s, capture
}

func TestCloudinaryStorage_UploadSendsFolderAndFormat(t *testing.T) {
	s, capture := newTestCloudinaryStorage(t, `{"secure_url":"https://res.example/a.mp3"}`)

	url, err := s.Upload(context.Background(), strings.NewReader("ID3 audio"), "a.mp3")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://res.example/a.mp3" {
		t.Fatalf("unexpected url %q", url)
	}

	capture.mu.Lock()
	defer capture.mu.Unlock()
	if capture.form["folder"] != "untranslatable" || capture.form["format"] != "mp3" {
		t.Fatalf("unexpected upload form %v", capture.form)
	}
	if capture.form["resource_type"] != "video" && !strings.Contains(capture.path, "/video/") {
		t.Fatalf("resource type video not sent: path %q form %v", capture.path, capture.form)
	}
}

func TestCloudinaryStorage_UploadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"provider error", `{"error":{"message":"Invalid image file"}}`, "Invalid image file"},
		{"no url", `{}`, "empty url"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestCloudinaryStorage(t, tc.body)
			url, err := s.Upload(context.Background(), strings.NewReader("x"), "a.mp3")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got url %q err %v", tc.want, url, err)
			}
		})
	}
}
