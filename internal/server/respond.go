package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"scribe/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// StatusForError maps pipeline error kinds to HTTP status codes.
func StatusForError(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, services.ErrTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrDecode):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrEmptyTranscript):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrConfiguration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusForError(err), errorResponse{Error: err.Error(), Kind: services.Kind(err)})
}
