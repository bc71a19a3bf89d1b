package entity

import (
	"encoding/json"
	"fmt"
)

// EventType names a broadcast event kind.
type EventType string

const (
	EventNewWord    EventType = "newWord"
	EventNewComment EventType = "newComment"
)

// CommentCreated is the payload of a newComment event.
type CommentCreated struct {
	WordID  WordID  `json:"wordId"`
	Comment Comment `json:"comment"`
}

// Event is a tagged variant pushed to every connected session.
// Exactly one of Word or Comment is set, matching Type.
type Event struct {
	Type    EventType
	Word    *Word
	Comment *CommentCreated
}

// NewWordEvent announces a created word.
func NewWordEvent(w Word) Event {
	return Event{Type: EventNewWord, Word: &w}
}

// NewCommentEvent announces a comment appended to the word with the given id.
func NewCommentEvent(id WordID, c Comment) Event {
	return Event{Type: EventNewComment, Comment: &CommentCreated{WordID: id, Comment: c}}
}

type eventFrame struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	var payload any
	switch e.Type {
	case EventNewWord:
		payload = e.Word
	case EventNewComment:
		payload = e.Comment
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(eventFrame{Type: e.Type, Payload: raw})
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var frame eventFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return err
	}
	out := Event{Type: frame.Type}
	switch frame.Type {
	case EventNewWord:
		out.Word = &Word{}
		if err := json.Unmarshal(frame.Payload, out.Word); err != nil {
			return fmt.Errorf("decode %s payload: %w", frame.Type, err)
		}
		if out.Word.Comments == nil {
			out.Word.Comments = []Comment{}
		}
	case EventNewComment:
		out.Comment = &CommentCreated{}
		if err := json.Unmarshal(frame.Payload, out.Comment); err != nil {
			return fmt.Errorf("decode %s payload: %w", frame.Type, err)
		}
	default:
		return fmt.Errorf("unknown event type %q", frame.Type)
	}
	*e = out
	return nil
}
