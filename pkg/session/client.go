package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/eslsoft/untranslatable/internal/entity"
)

// ErrNoCurrentWord is returned when a comment is attempted on an empty list.
var ErrNoCurrentWord = errors.New("no word is displayed")

// Renderer is told about every state change that needs a redraw.
type Renderer interface {
	Render(View)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(View)

func (f RendererFunc) Render(v View) { f(v) }

// Client connects one viewer to a server: one full fetch, then broadcast events.
type Client struct {
	base     *url.URL
	http     *http.Client
	dialer   *websocket.Dialer
	state    *State
	renderer Renderer
}

func NewClient(baseURL string, renderer Renderer) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("server url must be http or https, got %q", baseURL)
	}
	if renderer == nil {
		renderer = RendererFunc(func(View) {})
	}
	return &Client{
		base:     base,
		http:     http.DefaultClient,
		dialer:   websocket.DefaultDialer,
		state:    NewState(),
		renderer: renderer,
	}, nil
}

// State exposes the client's state for navigation.
func (c *Client) State() *State {
	return c.state
}

// Run subscribes, fetches the list once and applies events until ctx ends or the
// connection drops. The subscription is opened first so no event falls between
// the fetch and the first read.
func (c *Client) Run(ctx context.Context) error {
	wsURL := c.base.JoinPath("ws")
	if c.base.Scheme == "https" {
		wsURL.Scheme = "wss"
	} else {
		wsURL.Scheme = "ws"
	}
	conn, _, err := c.dialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	words, err := c.fetchWords(ctx)
	if err != nil {
		return err
	}
	c.state.Reset(words)
	c.renderer.Render(c.state.View())

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("failed to read event: %w", err)
		}
		var event entity.Event
		if err := json.Unmarshal(msg, &event); err != nil {
			// unknown or malformed events are skipped
			continue
		}
		if c.state.Apply(event) {
			c.renderer.Render(c.state.View())
		}
	}
}

func (c *Client) fetchWords(ctx context.Context) ([]entity.Word, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.JoinPath("getWords").String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch words: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch words: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out struct {
		Words []entity.Word `json:"words"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode words: %w", err)
	}
	return out.Words, nil
}

// UploadAudio posts a pronunciation and returns the hosted URL.
func (c *Client) UploadAudio(ctx context.Context, audio io.Reader, filename string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var out struct {
		AudioURL string `json:"audioUrl"`
	}
	if err := c.post(ctx, "uploadAudio", mw.FormDataContentType(), &body, &out); err != nil {
		return "", err
	}
	return out.AudioURL, nil
}

// SubmitWord creates a word. An empty audioURL is sent as null.
// The word reaches the local list through the broadcast, not through the reply.
func (c *Client) SubmitWord(ctx context.Context, word, language, definition, audioURL string) (*entity.Word, error) {
	payload := map[string]any{
		"word":       word,
		"language":   language,
		"definition": definition,
		"audioUrl":   nil,
	}
	if audioURL != "" {
		payload["audioUrl"] = audioURL
	}
	var out struct {
		Word *entity.Word `json:"word"`
	}
	if err := c.postJSON(ctx, "newWord", payload, &out); err != nil {
		return nil, err
	}
	return out.Word, nil
}

// AddComment comments on the word under the cursor.
func (c *Client) AddComment(ctx context.Context, text string) error {
	word, ok := c.state.View().Current()
	if !ok {
		return ErrNoCurrentWord
	}
	payload := map[string]any{"wordId": word.ID, "comment": text}
	return c.postJSON(ctx, "addComment", payload, nil)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	return c.post(ctx, path, "application/json", bytes.NewReader(data), out)
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.JoinPath(path).String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		reason := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &failure) == nil {
			if failure.Error != "" {
				reason = failure.Error
			} else if failure.Message != "" {
				reason = failure.Message
			}
		}
		return fmt.Errorf("%s: %s: %s", path, resp.Status, reason)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
