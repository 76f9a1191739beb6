package handler

import (
	"encoding/json"
	"net/http"

	errx "github.com/carbon-assistant/server/internal/core/error"
	logx "github.com/carbon-assistant/server/pkg/logger"
)

// RespondJSON writes payload as a JSON body.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logx.Error().Err(err).Msg("failed to encode response")
	}
}

// RespondError writes {"error": message}.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// RespondAppError maps err to its status and caller-safe message.
func RespondAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := errx.Status(err)
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	} else {
		logx.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request rejected")
	}
	RespondError(w, status, errx.PublicMessage(err))
}
