package rest

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/untranslatable/internal/entity"
	"github.com/eslsoft/untranslatable/internal/usecase"
)

// multipartOverhead leaves room for boundaries and part headers around the file itself.
const multipartOverhead = 64 << 10

type AudioHandler struct {
	audio  usecase.AudioUsecase
	logger *logrus.Logger
}

func NewAudioHandler(audio usecase.AudioUsecase, logger *logrus.Logger) *AudioHandler {
	return &AudioHandler{audio: audio, logger: logger}
}

func (h *AudioHandler) Register(r *mux.Router) {
	r.Methods(http.MethodPost).Path("/uploadAudio").HandlerFunc(h.UploadAudio)
}

type uploadAudioResponse struct {
	AudioURL string `json:"audioUrl"`
}

// UploadAudio accepts a multipart field named "audio" and returns the hosted URL.
func (h *AudioHandler) UploadAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.audio.MaxBytes()+multipartOverhead)
	file, header, err := r.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, r, h.logger, entity.ErrAudioTooLarge)
		default:
			// missing field, wrong content type, or a body that is not multipart
			writeError(w, r, h.logger, entity.ErrNoAudioFile)
		}
		return
	}
	defer file.Close()

	if header.Size > h.audio.MaxBytes() {
		writeError(w, r, h.logger, entity.ErrAudioTooLarge)
		return
	}

	url, err := h.audio.Upload(r.Context(), file, header.Filename)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, uploadAudioResponse{AudioURL: url})
}
