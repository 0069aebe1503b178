package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kalambet/mocktalk/internal/history"
	"github.com/kalambet/mocktalk/internal/interview"
	"github.com/kalambet/mocktalk/internal/sessions"
)

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case interview.IsValidation(err):
		httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "%v", err)
	case errors.Is(err, interview.ErrInvalidStage):
		httpError(w, http.StatusConflict, "invalid_state", "%v", err)
	case interview.IsRemote(err):
		httpError(w, http.StatusBadGateway, "api_error", "%v", err)
	case interview.IsPersistence(err):
		httpError(w, http.StatusInternalServerError, "storage_error", "%v", err)
	case errors.Is(err, sessions.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "session not found")
	case errors.Is(err, history.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "session record not found")
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}
