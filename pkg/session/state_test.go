package session

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/eslsoft/untranslatable/internal/entity"
)

func words(ids ...entity.WordID) []entity.Word {
	out := make([]entity.Word, 0, len(ids))
	for _, id := range ids {
		out = append(out, entity.Word{ID: id, Comments: []entity.Comment{}})
	}
	return out
}

func TestState_ResetStartsAtFirstWord(t *testing.T) {
	s := NewState()
	s.Reset(words(1, 2, 3))
	v := s.View()
	assert.Equal(t, v.Cursor, 0)
	assert.Equal(t, v.Following, false)

	cur, ok := v.Current()
	assert.Equal(t, ok, true)
	assert.Equal(t, cur.ID, entity.WordID(1))

	s.Reset(nil)
	_, ok = s.View().Current()
	assert.Equal(t, ok, false)
}

func TestState_FollowingSessionsAdvanceOthersStay(t *testing.T) {
	// B idles on the last word, C browses an earlier one.
	b := NewState()
	b.Reset(words(1, 2, 3))
	b.Prev()
	assert.Equal(t, b.View().Cursor, 2)
	assert.Equal(t, b.View().Following, true)

	c := NewState()
	c.Reset(words(1, 2, 3))
	c.Next()
	assert.Equal(t, c.View().Following, false)

	created := entity.Word{ID: 4, Word: "saudade", Comments: []entity.Comment{}}
	assert.Equal(t, b.ApplyWordCreated(created), true)
	assert.Equal(t, c.ApplyWordCreated(created), false)

	bv, cv := b.View(), c.View()
	assert.Equal(t, bv.Cursor, 3)
	assert.Equal(t, bv.Words[bv.Cursor].Word, "saudade")
	assert.Equal(t, cv.Cursor, 1)
	assert.Equal(t, len(cv.Words), 4)
}

func TestState_EmptyListFollowsFirstWord(t *testing.T) {
	s := NewState()
	s.Reset(nil)
	assert.Equal(t, s.ApplyWordCreated(entity.Word{ID: 1}), true)
	assert.Equal(t, s.View().Cursor, 0)
	assert.Equal(t, s.ApplyWordCreated(entity.Word{ID: 2}), true)
	assert.Equal(t, s.View().Cursor, 1)
}

func TestState_DuplicateWordIgnored(t *testing.T) {
	s := NewState()
	s.Reset(words(1, 2))
	assert.Equal(t, s.ApplyWordCreated(entity.Word{ID: 2}), false)
	assert.Equal(t, len(s.View().Words), 2)
}

func TestState_NavigationWraps(t *testing.T) {
	s := NewState()
	s.Reset(words(1, 2, 3))
	s.Prev()
	assert.Equal(t, s.View().Cursor, 2)
	s.Next()
	assert.Equal(t, s.View().Cursor, 0)
	s.Next()
	s.Next()
	s.Next()
	assert.Equal(t, s.View().Cursor, 0)

	empty := NewState()
	empty.Next()
	empty.Prev()
	assert.Equal(t, empty.View().Cursor, 0)
}

func TestState_CommentOnDisplayedWord(t *testing.T) {
	s := NewState()
	s.Reset(words(1, 2))
	comment := entity.Comment{Text: "beautiful word", Timestamp: "2025-01-01T00:00:00.000Z"}

	assert.Equal(t, s.ApplyCommentCreated(1, comment), true)
	assert.Equal(t, s.ApplyCommentCreated(2, comment), false)
	assert.Equal(t, s.ApplyCommentCreated(9, comment), false)

	v := s.View()
	assert.Equal(t, len(v.Words[0].Comments), 1)
	assert.Equal(t, v.Words[0].Comments[0].Text, "beautiful word")
	assert.Equal(t, len(v.Words[1].Comments), 1)
}

func TestState_ApplyDispatchesEvents(t *testing.T) {
	s := NewState()
	s.Reset(words(1))
	assert.Equal(t, s.Apply(entity.NewWordEvent(entity.Word{ID: 2})), true)
	assert.Equal(t, s.Apply(entity.NewCommentEvent(2, entity.Comment{Text: "x"})), true)
	assert.Equal(t, s.Apply(entity.Event{Type: entity.EventNewWord}), false)
}

func TestState_ViewIsACopy(t *testing.T) {
	s := NewState()
	s.Reset(words(1))
	v := s.View()
	v.Words[0].Comments = append(v.Words[0].Comments, entity.Comment{Text: "leak"})
	assert.Equal(t, len(s.View().Words[0].Comments), 0)
}
