package repository

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/google/go-github/v72/github"
	"github.com/samber/lo"

	"github.com/eslsoft/untranslatable/internal/entity"
	repo "github.com/eslsoft/untranslatable/internal/repository"
)

var _ repo.DocumentStore = (*GistStore)(nil)

// GistStore keeps the dataset in one file of a hosted gist.
type GistStore struct {
	client   *github.Client
	gistID   string
	filename string
}

// NewGistStore builds a store for the named file inside gist gistID.
// baseURL points at the API root, e.g. https://api.github.com.
func NewGistStore(httpClient *http.Client, baseURL, gistID, token, filename string) (*GistStore, error) {
	client := github.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if baseURL != "" {
		base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse gist base url: %w", err)
		}
		client.BaseURL = base
	}
	return &GistStore{client: client, gistID: gistID, filename: filename}, nil
}

// Read fetches the gist and parses the configured file as the dataset.
func (s *GistStore) Read(ctx context.Context) (*entity.Dataset, error) {
	gist, _, err := s.client.Gists.Get(ctx, s.gistID)
	if err != nil {
		return nil, fmt.Errorf("gist get: %w", err)
	}
	if gist.Files == nil {
		return nil, fmt.Errorf("%w: gist response has no files", entity.ErrDocumentMissing)
	}
	file, ok := gist.Files[github.GistFilename(s.filename)]
	if !ok {
		names := lo.Map(lo.Keys(gist.Files), func(name github.GistFilename, _ int) string { return string(name) })
		sort.Strings(names)
		return nil, fmt.Errorf("%w: file %q not found in gist, available files: %s",
			entity.ErrDocumentMissing, s.filename, strings.Join(names, ", "))
	}

	content := []byte(file.GetContent())
	// the API cuts large files short and reports the full size
	if file.GetRawURL() != "" && file.GetSize() > len(content) {
		if content, err = s.fetchRaw(ctx, file.GetRawURL()); err != nil {
			return nil, fmt.Errorf("fetch truncated gist file: %w", err)
		}
	}
	return decodeDataset(content)
}

// Write replaces the file content with the formatted dataset.
func (s *GistStore) Write(ctx context.Context, dataset *entity.Dataset) error {
	content, err := encodeDataset(dataset)
	if err != nil {
		return err
	}
	patch := &github.Gist{Files: map[github.GistFilename]github.GistFile{
		github.GistFilename(s.filename): {Content: github.Ptr(string(content))},
	}}
	if _, _, err := s.client.Gists.Edit(ctx, s.gistID, patch); err != nil {
		return fmt.Errorf("gist edit: %w", err)
	}
	return nil
}

func (s *GistStore) fetchRaw(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := s.client.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := s.client.Do(ctx, req, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
