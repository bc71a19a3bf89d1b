package rest

import (
	"cmp"

	"github.com/eslsoft/untranslatable/internal/entity"
	"github.com/eslsoft/untranslatable/pkg/filterexpr"
)

// listWordsSchema lists the variables a /getWords filter may reference and the
// keys order_by accepts. Default ordering is insertion order, which is id asc.
var listWordsSchema = filterexpr.Schema{
	Fields: map[string]filterexpr.ValueKind{
		"id":            filterexpr.KindInt,
		"word":          filterexpr.KindString,
		"language":      filterexpr.KindString,
		"definition":    filterexpr.KindString,
		"has_audio":     filterexpr.KindBool,
		"comment_count": filterexpr.KindInt,
	},
	Order: filterexpr.OrderSchema{
		DefaultPrimary: "id",
		FallbackKey:    "word",
		Keys:           []string{"id", "word", "language", "comment_count"},
	},
}

func wordVars(w entity.Word) map[string]any {
	return map[string]any{
		"id":            int64(w.ID),
		"word":          w.Word,
		"language":      w.Language,
		"definition":    w.Definition,
		"has_audio":     w.HasAudio(),
		"comment_count": int64(len(w.Comments)),
	}
}

func compareWords(a, b entity.Word, key string) int {
	switch key {
	case "word":
		return cmp.Compare(a.Word, b.Word)
	case "language":
		return cmp.Compare(a.Language, b.Language)
	case "comment_count":
		return cmp.Compare(len(a.Comments), len(b.Comments))
	default:
		return cmp.Compare(a.ID, b.ID)
	}
}
