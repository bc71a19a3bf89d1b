package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/gorilla/websocket"

	"github.com/eslsoft/untranslatable/internal/entity"
)

// fakeServer serves a fixed list, forwards pushed events to the single session
// and records the write requests it receives.
type fakeServer struct {
	words  []entity.Word
	events chan entity.Event

	mu       sync.Mutex
	uploads  map[string]string
	created  []map[string]any
	comments []map[string]any
}

func (f *fakeServer) record(dst *[]map[string]any, r *http.Request) map[string]any {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.mu.Lock()
	defer f.mu.Unlock()
	*dst = append(*dst, body)
	return body
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/getWords", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"words": f.words})
	})
	mux.HandleFunc("/uploadAudio", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("audio")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"No audio file"}`)
			return
		}
		defer file.Close()
		if header.Filename == "big.mp3" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"Audio file too large"}`)
			return
		}
		data, _ := io.ReadAll(file)
		f.mu.Lock()
		if f.uploads == nil {
			f.uploads = map[string]string{}
		}
		f.uploads[header.Filename] = string(data)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"audioUrl": "https://cdn.example/" + header.Filename})
	})
	mux.HandleFunc("/newWord", func(w http.ResponseWriter, r *http.Request) {
		body := f.record(&f.created, r)
		word, _ := body["word"].(string)
		_ = json.NewEncoder(w).Encode(map[string]any{"task": "success", "word": entity.Word{ID: 3, Word: word, Comments: []entity.Comment{}}})
	})
	mux.HandleFunc("/addComment", func(w http.ResponseWriter, r *http.Request) {
		body := f.record(&f.comments, r)
		if id, _ := body["wordId"].(float64); id == 99 {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"task":"error","message":"Word not found"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"task": "success"})
	})
	upgrader := websocket.Upgrader{}
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for event := range f.events {
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})
	return mux
}

func nextView(t *testing.T, views <-chan View) View {
	t.Helper()
	select {
	case v := <-views:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for render")
		return View{}
	}
}

func TestClient_FetchesThenAppliesEvents(t *testing.T) {
	fake := &fakeServer{words: words(1, 2), events: make(chan entity.Event, 4)}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	views := make(chan View, 8)
	client, err := NewClient(srv.URL, RendererFunc(func(v View) { views <- v }))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	initial := nextView(t, views)
	assert.Equal(t, len(initial.Words), 2)
	assert.Equal(t, initial.Cursor, 0)

	// comment on the displayed word re-renders
	fake.events <- entity.NewCommentEvent(1, entity.Comment{Text: "beautiful word"})
	v := nextView(t, views)
	assert.Equal(t, v.Words[0].Comments[0].Text, "beautiful word")

	// not following: a new word is appended without a render, a later comment on word 1 still renders
	fake.events <- entity.NewWordEvent(entity.Word{ID: 3, Word: "hygge"})
	fake.events <- entity.NewCommentEvent(1, entity.Comment{Text: "second"})
	v = nextView(t, views)
	assert.Equal(t, len(v.Words), 3)
	assert.Equal(t, v.Cursor, 0)
	assert.Equal(t, len(v.Words[0].Comments), 2)

	close(fake.events)
	select {
	case err := <-done:
		assert.Equal(t, err, nil)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop after close")
	}
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com", nil)
	assert.NotEqual(t, err, nil)
}

func TestClient_SubmitWordWithAudio(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()
	client, err := NewClient(srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	url, err := client.UploadAudio(ctx, strings.NewReader("ID3..."), "saudade.mp3")
	assert.Equal(t, err, nil)
	assert.Equal(t, url, "https://cdn.example/saudade.mp3")

	word, err := client.SubmitWord(ctx, "saudade", "Portuguese", "a longing", url)
	assert.Equal(t, err, nil)
	assert.Equal(t, word.Word, "saudade")

	_, err = client.SubmitWord(ctx, "hygge", "Danish", "coziness", "")
	assert.Equal(t, err, nil)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, fake.uploads["saudade.mp3"], "ID3...")
	assert.Equal(t, len(fake.created), 2)
	assert.Equal(t, fake.created[0]["audioUrl"], "https://cdn.example/saudade.mp3")
	assert.Equal(t, fake.created[0]["language"], "Portuguese")
	audio, present := fake.created[1]["audioUrl"]
	assert.Equal(t, present, true)
	assert.Equal(t, audio, nil)
}

func TestClient_UploadAudioReportsServerError(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()
	client, _ := NewClient(srv.URL, nil)

	_, err := client.UploadAudio(context.Background(), strings.NewReader("x"), "big.mp3")
	assert.NotEqual(t, err, nil)
	assert.Equal(t, strings.Contains(err.Error(), "Audio file too large"), true)
}

func TestClient_AddCommentTargetsCurrentWord(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()
	client, _ := NewClient(srv.URL, nil)
	ctx := context.Background()

	assert.Equal(t, errors.Is(client.AddComment(ctx, "early"), ErrNoCurrentWord), true)

	client.State().Reset(words(1, 2, 99))
	client.State().Next()
	assert.Equal(t, client.AddComment(ctx, "beautiful word"), nil)

	client.State().Next()
	err := client.AddComment(ctx, "gone")
	assert.NotEqual(t, err, nil)
	assert.Equal(t, strings.Contains(err.Error(), "Word not found"), true)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, len(fake.comments), 2)
	assert.Equal(t, fake.comments[0]["wordId"], float64(2))
	assert.Equal(t, fake.comments[0]["comment"], "beautiful word")
}
