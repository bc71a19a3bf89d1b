package entity

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// TimestampLayout is the ISO-8601 layout used for comment timestamps (UTC, millisecond precision).
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// WordID identifies a word entry. It is the creation time in unix milliseconds.
type WordID int64

// UnmarshalJSON accepts both JSON numbers and numeric strings. Anything else
// decodes to the zero ID, which never matches a stored word.
func (id *WordID) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	*id = parseWordID(raw)
	return nil
}

func parseWordID(raw string) WordID {
	if raw == "" || raw == "null" {
		return 0
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return WordID(n)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0
	}
	return WordID(f)
}

// Word is a submitted vocabulary item. Words are append-only: only Comments grow.
type Word struct {
	ID         WordID    `json:"id"`
	Word       string    `json:"word"`
	Language   string    `json:"language"`
	Definition string    `json:"definition"`
	AudioURL   *string   `json:"audioUrl"`
	Comments   []Comment `json:"comments"`
}

// Comment is owned by its parent word and never changes after creation.
type Comment struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NewComment stamps text with the given instant.
func NewComment(text string, at time.Time) Comment {
	return Comment{Text: text, Timestamp: FormatTimestamp(at)}
}

// FormatTimestamp renders t the way comment timestamps are persisted.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Clone returns a deep copy of the word.
func (w Word) Clone() Word {
	out := w
	if w.AudioURL != nil {
		audio := *w.AudioURL
		out.AudioURL = &audio
	}
	out.Comments = append(make([]Comment, 0, len(w.Comments)), w.Comments...)
	return out
}

// HasAudio reports whether a pronunciation is attached.
func (w Word) HasAudio() bool {
	return w.AudioURL != nil && *w.AudioURL != ""
}

// Dataset is the whole persisted document: every word in insertion order.
type Dataset struct {
	Words []Word `json:"words"`
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{Words: []Word{}}
}

// Normalize replaces nil slices so the document always serialises as arrays.
func (d *Dataset) Normalize() *Dataset {
	if d.Words == nil {
		d.Words = []Word{}
	}
	for i := range d.Words {
		if d.Words[i].Comments == nil {
			d.Words[i].Comments = []Comment{}
		}
	}
	return d
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return NewDataset()
	}
	return &Dataset{Words: lo.Map(d.Words, func(w Word, _ int) Word { return w.Clone() })}
}

// IndexOf returns the position of the word with the given id, or -1.
func (d *Dataset) IndexOf(id WordID) int {
	_, idx, found := lo.FindIndexOf(d.Words, func(w Word) bool { return w.ID == id })
	if !found {
		return -1
	}
	return idx
}

// MaxID returns the largest id in the dataset, or zero when empty.
func (d *Dataset) MaxID() WordID {
	var max WordID
	for _, w := range d.Words {
		if w.ID > max {
			max = w.ID
		}
	}
	return max
}
