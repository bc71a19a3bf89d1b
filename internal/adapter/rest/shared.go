package rest

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/untranslatable/internal/adapter/mapping"
)

type errorResponse struct {
	Error string `json:"error"`
}

type taskResponse struct {
	Task    string `json:"task"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *logrus.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Warn("write response")
	}
}

// writeError maps err to a status and a public message. Internal causes are only logged.
func writeError(w http.ResponseWriter, r *http.Request, logger *logrus.Logger, err error) {
	status, msg := mapping.ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	writeJSON(w, logger, status, errorResponse{Error: msg})
}
