package mapping

import (
	"errors"
	"net/http"

	"github.com/eslsoft/untranslatable/internal/entity"
)

// ToHTTPStatus maps a domain error to the status code and public message sent to clients.
func ToHTTPStatus(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, entity.ErrWordNotFound):
		return http.StatusNotFound, "Word not found"
	case errors.Is(err, entity.ErrNoAudioFile):
		return http.StatusBadRequest, "No audio file"
	case errors.Is(err, entity.ErrAudioTooLarge):
		return http.StatusBadRequest, "Audio file too large"
	case errors.Is(err, entity.ErrInvalidPayload), errors.Is(err, entity.ErrInvalidFilter):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, entity.ErrAudioUpload):
		return http.StatusInternalServerError, "Upload failed"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
