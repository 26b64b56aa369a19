package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ilepins/userauth/internal/shared"
)

// Envelope is the standard API response wrapper used across handlers.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Code: status, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, message, nil)
}

// writeOutcome maps a service error to the boundary status-code contract:
// 409 for AlreadyExists, 401 for InvalidCredentials and InvalidToken, 404 for
// UserNotFound, 423 for AccountLocked, 400 for validation failures, and 500
// for anything else.
func writeOutcome(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials), errors.Is(err, shared.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, shared.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrAccountLocked):
		writeError(w, http.StatusLocked, err.Error())
	case errors.Is(err, shared.ErrWeakPassword),
		errors.Is(err, shared.ErrInvalidUsername),
		errors.Is(err, shared.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		// do not echo lower-layer fault details to callers
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
