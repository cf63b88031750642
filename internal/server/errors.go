package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/desertthunder/ytcat/internal/shared"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StatusFor maps an error to its HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrFetchFailed):
		return http.StatusBadGateway, "fetch_failed"
	case errors.Is(err, shared.ErrAPIRequest):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, shared.ErrDuplicateName):
		return http.StatusConflict, "duplicate_name"
	case errors.Is(err, shared.ErrAlreadyCategorized):
		return http.StatusConflict, "already_categorized"
	case errors.Is(err, shared.ErrInvalidCategory):
		return http.StatusBadRequest, "invalid_category"
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrMissingCredentials):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, shared.ErrAuthFailed):
		return http.StatusUnauthorized, "auth_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorStatus(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// writeError writes err with its mapped status. Internal errors are not echoed to the client.
func writeError(w http.ResponseWriter, err error) {
	status, code := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	writeErrorStatus(w, status, code, message)
}
