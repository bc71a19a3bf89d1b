package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/untranslatable/internal/adapter/realtime"
	"github.com/eslsoft/untranslatable/internal/adapter/rest"
	"github.com/eslsoft/untranslatable/internal/entity"
	"github.com/eslsoft/untranslatable/internal/infrastructure/config"
	"github.com/eslsoft/untranslatable/internal/usecase"
)

type memStore struct {
	mu sync.Mutex
	ds *entity.Dataset
}

func (s *memStore) Read(context.Context) (*entity.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ds.Clone(), nil
}

func (s *memStore) Write(_ context.Context, ds *entity.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ds = ds.Clone()
	return nil
}

type noAudio struct{}

func (noAudio) Upload(context.Context, io.Reader, string) (string, error) {
	return "", io.ErrClosedPipe
}

func newTestServer(t *testing.T) (*httptest.Server, *realtime.Hub) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, CORSOrigins: []string{"*"}}}

	hub := realtime.NewHub(logger)
	words := usecase.NewWordUsecase(&memStore{ds: entity.NewDataset()}, hub, logger)
	words.Load(context.Background())
	audio := usecase.NewAudioUsecase(noAudio{}, cfg, logger)
	srv := NewServer(cfg, logger, hub, rest.NewWordHandler(words, logger), rest.NewAudioHandler(audio, logger))

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.Run(ctx) }()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return ts, hub
}

func TestServer_Healthz(t *testing.T) {
	ts, _ := newTestServer(t)
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set("Origin", "https://example.com")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != `{"status":"ok"}` {
		t.Fatalf("unexpected %d %s", resp.StatusCode, body)
	}
	if resp.Header.Get(requestIDHeader) == "" {
		t.Fatal("missing request id header")
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing cors header: %v", resp.Header)
	}
}

func dialSession(t *testing.T, ts *httptest.Server, hub *realtime.Hub) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	deadline := time.Now().Add(2 * time.Second)
	for hub.Members() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("session never joined")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func postJSON[T any](t *testing.T, url, body string) T {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func readEvent(t *testing.T, conn *websocket.Conn) entity.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event entity.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return event
}

type newWordReply struct {
	Task string      `json:"task"`
	Word entity.Word `json:"word"`
}

func TestServer_NewWordIsBroadcast(t *testing.T) {
	ts, hub := newTestServer(t)
	conn := dialSession(t, ts, hub)

	reply := postJSON[newWordReply](t, ts.URL+"/newWord",
		`{"word":"saudade","language":"Portuguese","definition":"a longing"}`)
	if reply.Task != "success" {
		t.Fatalf("unexpected reply %#v", reply)
	}

	event := readEvent(t, conn)
	if event.Type != entity.EventNewWord || event.Word == nil {
		t.Fatalf("unexpected event %#v", event)
	}
	if !reflect.DeepEqual(*event.Word, reply.Word) {
		t.Fatalf("broadcast word differs from reply:\nreply %#v\nevent %#v", reply.Word, *event.Word)
	}
}

func TestServer_NewCommentIsBroadcast(t *testing.T) {
	ts, hub := newTestServer(t)
	conn := dialSession(t, ts, hub)

	reply := postJSON[newWordReply](t, ts.URL+"/newWord", `{"word":"saudade"}`)
	_ = readEvent(t, conn)

	body := fmt.Sprintf(`{"wordId":%d,"comment":"beautiful word"}`, reply.Word.ID)
	if got := postJSON[map[string]string](t, ts.URL+"/addComment", body); got["task"] != "success" {
		t.Fatalf("unexpected reply %v", got)
	}

	event := readEvent(t, conn)
	if event.Type != entity.EventNewComment || event.Comment == nil {
		t.Fatalf("unexpected event %#v", event)
	}
	if event.Comment.WordID != reply.Word.ID || event.Comment.Comment.Text != "beautiful word" {
		t.Fatalf("unexpected comment event %#v", event.Comment)
	}

	list := struct {
		Words []entity.Word `json:"words"`
	}{}
	resp, err := http.Get(ts.URL + "/getWords")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list.Words) != 1 || !reflect.DeepEqual(list.Words[0].Comments, []entity.Comment{event.Comment.Comment}) {
		t.Fatalf("stored comments %#v differ from broadcast %#v", list.Words, event.Comment.Comment)
	}
}

func TestRequestLogger_EchoesIDAndLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := mux.NewRouter()
	r.Use(requestLogger(logger))
	r.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(requestIDHeader, "abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Header().Get(requestIDHeader) != "abc" {
		t.Fatalf("request id not echoed: %v", rec.Header())
	}
	line := buf.String()
	if !strings.Contains(line, "level=WARN") || !strings.Contains(line, "request_id=abc") || !strings.Contains(line, "status=404") {
		t.Fatalf("unexpected log line %q", line)
	}
}

func TestDetermineLogLevel(t *testing.T) {
	cases := map[int]slog.Level{200: slog.LevelInfo, 400: slog.LevelWarn, 404: slog.LevelWarn, 500: slog.LevelError}
	for status, want := range cases {
		if got := determineLogLevel(status); got != want {
			t.Fatalf("%d: got %v want %v", status, got, want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	cfg := &config.Config{Log: config.LogConfig{Level: "debug", Format: "text"}}
	logger, err := NewLogger(cfg)
	if err != nil || logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("unexpected (%v, %v)", logger, err)
	}
	cfg.Log.Level = "loud"
	if _, err := NewLogger(cfg); err == nil {
		t.Fatal("expected parse error")
	}
}
