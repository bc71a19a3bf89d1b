package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/untranslatable/internal/adapter/mapping"
	"github.com/eslsoft/untranslatable/internal/entity"
	"github.com/eslsoft/untranslatable/internal/usecase"
	"github.com/eslsoft/untranslatable/pkg/filterexpr"
)

const maxJSONBody = 1 << 20

// WordHandler serves the word list, word creation and comment endpoints.
type WordHandler struct {
	words  usecase.WordUsecase
	logger *logrus.Logger
}

func NewWordHandler(words usecase.WordUsecase, logger *logrus.Logger) *WordHandler {
	return &WordHandler{words: words, logger: logger}
}

func (h *WordHandler) Register(r *mux.Router) {
	r.Methods(http.MethodGet).Path("/getWords").HandlerFunc(h.GetWords)
	r.Methods(http.MethodPost).Path("/newWord").HandlerFunc(h.NewWord)
	r.Methods(http.MethodPost).Path("/addComment").HandlerFunc(h.AddComment)
}

type listWordsResponse struct {
	Words []entity.Word `json:"words"`
}

type newWordRequest struct {
	Word       string  `json:"word"`
	Language   string  `json:"language"`
	Definition string  `json:"definition"`
	AudioURL   *string `json:"audioUrl"`
}

type newWordResponse struct {
	Task string       `json:"task"`
	Word *entity.Word `json:"word"`
}

type addCommentRequest struct {
	WordID  entity.WordID `json:"wordId"`
	Comment string        `json:"comment"`
}

// GetWords returns every word, optionally narrowed by a CEL filter and reordered by order_by.
func (h *WordHandler) GetWords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter, err := filterexpr.Compile(query.Get("filter"), listWordsSchema.Fields)
	if err != nil {
		writeError(w, r, h.logger, fmt.Errorf("%w: %v", entity.ErrInvalidFilter, err))
		return
	}
	order, err := filterexpr.ParseOrderBy(query.Get("order_by"), listWordsSchema.Order)
	if err != nil {
		writeError(w, r, h.logger, fmt.Errorf("%w: order_by: %v", entity.ErrInvalidFilter, err))
		return
	}

	words, err := h.words.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if words, err = filterexpr.Apply(words, filter, wordVars); err != nil {
		writeError(w, r, h.logger, fmt.Errorf("%w: %v", entity.ErrInvalidFilter, err))
		return
	}
	if !order.IsDefault(listWordsSchema.Order) {
		filterexpr.Sort(words, order, compareWords)
	}
	writeJSON(w, h.logger, http.StatusOK, listWordsResponse{Words: words})
}

// NewWord stores the submitted fields verbatim. Only a malformed body is rejected.
func (h *WordHandler) NewWord(w http.ResponseWriter, r *http.Request) {
	var req newWordRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	word, err := h.words.Create(r.Context(), usecase.NewWordInput{
		Word:       req.Word,
		Language:   req.Language,
		Definition: req.Definition,
		AudioURL:   req.AudioURL,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, newWordResponse{Task: "success", Word: word})
}

func (h *WordHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req addCommentRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if _, err := h.words.AddComment(r.Context(), req.WordID, req.Comment); err != nil {
		status, msg := mapping.ToHTTPStatus(err)
		if status == http.StatusNotFound {
			writeJSON(w, h.logger, status, taskResponse{Task: "error", Message: msg})
			return
		}
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, taskResponse{Task: "success"})
}

// decodeBody treats an empty body as an empty object.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrInvalidPayload, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrInvalidPayload, err)
	}
	return nil
}
