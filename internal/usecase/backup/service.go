package backup

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/untranslatable/internal/entity"
	"github.com/eslsoft/untranslatable/internal/repository"
)

const (
	formatVersion = 1
	wordsSection  = "words"
	metaType      = "meta"
)

// ProgressReporter receives export and import progress per section.
type ProgressReporter interface {
	StartSection(section string, total int)
	Increment(section string, delta int)
	FinishSection(section string)
}

type noopProgress struct{}

func (noopProgress) StartSection(string, int) {}
func (noopProgress) Increment(string, int)    {}
func (noopProgress) FinishSection(string)     {}

// Service moves the dataset between a document store and an NDJSON stream.
type Service struct {
	store    repository.DocumentStore
	reporter ProgressReporter
	now      func() time.Time
}

type Option func(*Service)

func WithProgressReporter(reporter ProgressReporter) Option {
	return func(s *Service) {
		if reporter != nil {
			s.reporter = reporter
		}
	}
}

func NewService(store repository.DocumentStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("backup: document store is required")
	}
	s := &Service{store: store, reporter: noopProgress{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ImportOption tunes how an import combines with what the store already holds.
type ImportOption func(*importConfig)

type importConfig struct {
	merge bool
}

// WithMerge keeps existing words and appends only backup words with unseen ids.
func WithMerge(merge bool) ImportOption {
	return func(c *importConfig) {
		c.merge = merge
	}
}

type record struct {
	Type       string          `json:"type"`
	Version    int             `json:"version,omitempty"`
	ExportedAt *time.Time      `json:"exported_at,omitempty"`
	Count      int             `json:"count,omitempty"`
	Checksum   string          `json:"checksum,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Export writes a meta record followed by one record per word.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	dataset, err := s.store.Read(ctx)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	if dataset == nil {
		dataset = entity.NewDataset()
	}
	dataset.Normalize()

	payloads := make([]json.RawMessage, 0, len(dataset.Words))
	for _, word := range dataset.Words {
		raw, err := json.Marshal(word)
		if err != nil {
			return fmt.Errorf("encode word %d: %w", word.ID, err)
		}
		payloads = append(payloads, raw)
	}

	writer := bufio.NewWriter(w)
	now := s.now().UTC()
	meta := record{
		Type:       metaType,
		Version:    formatVersion,
		ExportedAt: &now,
		Count:      len(payloads),
		Checksum:   checksum(payloads),
	}
	if err := writeRecord(writer, meta); err != nil {
		return err
	}

	s.reporter.StartSection(wordsSection, len(payloads))
	for _, raw := range payloads {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeRecord(writer, record{Type: wordsSection, Payload: raw}); err != nil {
			return err
		}
		s.reporter.Increment(wordsSection, 1)
	}
	s.reporter.FinishSection(wordsSection)
	return writer.Flush()
}

// Import reads a backup and writes the resulting dataset to the store in one write.
func (s *Service) Import(ctx context.Context, r io.Reader, opts ...ImportOption) error {
	cfg := importConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	meta, words, err := s.readBackup(r)
	if err != nil {
		return err
	}

	dataset := entity.NewDataset()
	if cfg.merge {
		existing, err := s.store.Read(ctx)
		if err != nil && !errors.Is(err, entity.ErrDocumentMissing) {
			return fmt.Errorf("read dataset: %w", err)
		}
		if existing != nil {
			dataset = existing.Normalize()
		}
	}

	seen := lo.SliceToMap(dataset.Words, func(w entity.Word) (entity.WordID, struct{}) { return w.ID, struct{}{} })
	s.reporter.StartSection(wordsSection, meta.Count)
	for _, word := range words {
		if _, dup := seen[word.ID]; !dup {
			seen[word.ID] = struct{}{}
			dataset.Words = append(dataset.Words, word)
		}
		s.reporter.Increment(wordsSection, 1)
	}
	s.reporter.FinishSection(wordsSection)

	if err := s.store.Write(ctx, dataset.Normalize()); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}

func (s *Service) readBackup(r io.Reader) (record, []entity.Word, error) {
	br := bufio.NewReader(r)
	var (
		meta     record
		metaSeen bool
		words    []entity.Word
		payloads []json.RawMessage
	)

	for {
		line, err := br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return record{}, nil, fmt.Errorf("read backup: %w", err)
		}
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var rec record
			if err := json.Unmarshal(line, &rec); err != nil {
				return record{}, nil, fmt.Errorf("decode record: %w", err)
			}
			switch rec.Type {
			case metaType:
				metaSeen = true
				meta = rec
			case wordsSection:
				if len(rec.Payload) == 0 {
					return record{}, nil, errors.New("backup: missing payload for word record")
				}
				var word entity.Word
				if err := json.Unmarshal(rec.Payload, &word); err != nil {
					return record{}, nil, fmt.Errorf("decode word: %w", err)
				}
				words = append(words, word)
				payloads = append(payloads, rec.Payload)
			default:
				// records from newer sections are skipped
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}

	if !metaSeen {
		return record{}, nil, errors.New("backup: missing meta record")
	}
	if meta.Version != formatVersion {
		return record{}, nil, fmt.Errorf("backup: unsupported format version %d", meta.Version)
	}
	if meta.Count != len(words) {
		return record{}, nil, fmt.Errorf("backup: meta declares %d words, found %d", meta.Count, len(words))
	}
	if meta.Checksum != "" && meta.Checksum != checksum(payloads) {
		return record{}, nil, errors.New("backup: checksum mismatch")
	}
	return meta, words, nil
}

func writeRecord(w io.Writer, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func checksum(payloads []json.RawMessage) string {
	h := sha256.New()
	for _, p := range payloads {
		h.Write(p)
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
