package backup

import (
	"bytes"
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	storeadapter "github.com/eslsoft/untranslatable/internal/adapter/repository"
	"github.com/eslsoft/untranslatable/internal/entity"
)

type countingProgress struct {
	started  map[string]int
	counts   map[string]int
	finished []string
}

func newCountingProgress() *countingProgress {
	return &countingProgress{started: map[string]int{}, counts: map[string]int{}}
}

func (p *countingProgress) StartSection(section string, total int) { p.started[section] = total }
func (p *countingProgress) Increment(section string, delta int)    { p.counts[section] += delta }
func (p *countingProgress) FinishSection(section string)           { p.finished = append(p.finished, section) }

func seedDataset() *entity.Dataset {
	audio := "https://cdn.example/saudade.mp3"
	return &entity.Dataset{Words: []entity.Word{
		{ID: 1700000000000, Word: "saudade", Language: "Portuguese", Definition: "a longing", AudioURL: &audio,
			Comments: []entity.Comment{{Text: "beautiful word", Timestamp: "2025-01-01T00:00:00.000Z"}}},
		{ID: 1700000000001, Word: "hygge", Language: "Danish", Definition: "coziness", Comments: []entity.Comment{}},
	}}
}

func TestServiceExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := storeadapter.NewFileStore(filepath.Join(t.TempDir(), "src.json"))
	if err := src.Write(ctx, seedDataset()); err != nil {
		t.Fatal(err)
	}

	progress := newCountingProgress()
	exporter, err := NewService(src, WithProgressReporter(progress))
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	exporter.now = func() time.Time { return time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC) }

	var buf bytes.Buffer
	if err := exporter.Export(ctx, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.Contains(lines[0], `"type":"meta"`) || !strings.Contains(lines[0], `"count":2`) {
		t.Fatalf("unexpected backup:\n%s", buf.String())
	}
	if progress.started[wordsSection] != 2 || progress.counts[wordsSection] != 2 || len(progress.finished) != 1 {
		t.Fatalf("unexpected progress %+v", progress)
	}

	dst := storeadapter.NewFileStore(filepath.Join(t.TempDir(), "dst.json"))
	importer, err := NewService(dst)
	if err != nil {
		t.Fatal(err)
	}
	if err := importer.Import(ctx, bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	got, err := dst.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, seedDataset()) {
		t.Fatalf("round trip mismatch:\nwant %#v\ngot  %#v", seedDataset(), got)
	}
}

func TestServiceImportMerge(t *testing.T) {
	ctx := context.Background()
	src := storeadapter.NewFileStore(filepath.Join(t.TempDir(), "src.json"))
	if err := src.Write(ctx, seedDataset()); err != nil {
		t.Fatal(err)
	}
	exporter, _ := NewService(src)
	var buf bytes.Buffer
	if err := exporter.Export(ctx, &buf); err != nil {
		t.Fatal(err)
	}

	dst := storeadapter.NewFileStore(filepath.Join(t.TempDir(), "dst.json"))
	existing := &entity.Dataset{Words: []entity.Word{
		{ID: 1700000000001, Word: "hygge (local)", Comments: []entity.Comment{}},
		{ID: 5, Word: "local only", Comments: []entity.Comment{}},
	}}
	if err := dst.Write(ctx, existing); err != nil {
		t.Fatal(err)
	}

	importer, _ := NewService(dst)
	if err := importer.Import(ctx, bytes.NewReader(buf.Bytes()), WithMerge(true)); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	got, _ := dst.Read(ctx)
	if len(got.Words) != 3 {
		t.Fatalf("expected 3 words after merge, got %#v", got.Words)
	}
	if got.Words[0].Word != "hygge (local)" || got.Words[2].Word != "saudade" {
		t.Fatalf("merge should keep local entries first: %#v", got.Words)
	}
}

func TestServiceImportRejectsBadBackups(t *testing.T) {
	dst := storeadapter.NewFileStore(filepath.Join(t.TempDir(), "dst.json"))
	importer, _ := NewService(dst)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no meta", `{"type":"words","payload":{"id":1}}`, "missing meta"},
		{"version", `{"type":"meta","version":9}`, "unsupported format version"},
		{"count", `{"type":"meta","version":1,"count":2}` + "\n" + `{"type":"words","payload":{"id":1}}`, "declares 2 words"},
		{"checksum", `{"type":"meta","version":1,"count":1,"checksum":"abc"}` + "\n" + `{"type":"words","payload":{"id":1}}`, "checksum"},
		{"garbage", `not json`, "decode record"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := importer.Import(context.Background(), strings.NewReader(tc.input))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}

	if ds, _ := dst.Read(context.Background()); ds != nil {
		t.Fatal("failed imports must not write")
	}
}

func TestNewServiceRequiresStore(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error")
	}
}
