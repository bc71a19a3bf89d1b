// Package session keeps one viewer's local copy of the word list in step with
// the server's broadcast events.
package session

import (
	"sync"

	"github.com/samber/lo"

	"github.com/eslsoft/untranslatable/internal/entity"
)

// State is a viewer's word list, the cursor into it and whether the viewer is
// following the newest word. It is safe for concurrent use.
type State struct {
	mu        sync.Mutex
	words     []entity.Word
	cursor    int
	following bool
}

// View is an immutable snapshot of a State.
type View struct {
	Words     []entity.Word
	Cursor    int
	Following bool
}

// Current returns the word under the cursor.
func (v View) Current() (entity.Word, bool) {
	if v.Cursor < 0 || v.Cursor >= len(v.Words) {
		return entity.Word{}, false
	}
	return v.Words[v.Cursor], true
}

func NewState() *State {
	return &State{following: true}
}

// Reset replaces the list after a full fetch and moves the cursor to the first word.
func (s *State) Reset(words []entity.Word) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words = lo.Map(words, func(w entity.Word, _ int) entity.Word { return w.Clone() })
	s.cursor = 0
	s.following = len(s.words) <= 1
}

// ApplyWordCreated appends w. The cursor jumps to it only when the list was
// empty or the viewer is following; the return value says whether to re-render.
// Words already present are ignored.
func (s *State) ApplyWordCreated(w entity.Word) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lo.ContainsBy(s.words, func(x entity.Word) bool { return x.ID == w.ID }) {
		return false
	}
	wasEmpty := len(s.words) == 0
	s.words = append(s.words, w.Clone())
	if wasEmpty || s.following {
		s.cursor = len(s.words) - 1
		s.following = true
		return true
	}
	return false
}

// ApplyCommentCreated appends c to the word with the given id and reports
// whether that word is the one on screen.
func (s *State) ApplyCommentCreated(id entity.WordID, c entity.Comment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, idx, found := lo.FindIndexOf(s.words, func(w entity.Word) bool { return w.ID == id })
	if !found {
		return false
	}
	s.words[idx].Comments = append(s.words[idx].Comments, c)
	return idx == s.cursor
}

// Apply dispatches a broadcast event and reports whether to re-render.
func (s *State) Apply(event entity.Event) bool {
	switch event.Type {
	case entity.EventNewWord:
		if event.Word == nil {
			return false
		}
		return s.ApplyWordCreated(*event.Word)
	case entity.EventNewComment:
		if event.Comment == nil {
			return false
		}
		return s.ApplyCommentCreated(event.Comment.WordID, event.Comment.Comment)
	default:
		return false
	}
}

// Next advances the cursor, wrapping to the first word.
func (s *State) Next() {
	s.move(1)
}

// Prev moves the cursor back, wrapping to the last word.
func (s *State) Prev() {
	s.move(-1)
}

func (s *State) move(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.words)
	if n == 0 {
		return
	}
	s.cursor = ((s.cursor+delta)%n + n) % n
	s.following = s.cursor == n-1
}

// View returns a deep copy of the current state.
func (s *State) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Words:     lo.Map(s.words, func(w entity.Word, _ int) entity.Word { return w.Clone() }),
		Cursor:    s.cursor,
		Following: s.following,
	}
}
