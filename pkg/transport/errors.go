package transport

import (
	"encoding/json"
	"net/http"

	"github.com/rhuss/chatwire/pkg/api"
)

// HTTPStatusFromError returns the HTTP status for an APIError: its own
// StatusCode when set, otherwise one derived from its type. Used by the
// test and mock servers that speak the chat completions protocol.
func HTTPStatusFromError(err *api.APIError) int {
	if err.StatusCode != 0 {
		return err.StatusCode
	}
	switch err.Type {
	case api.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case api.ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case api.ErrorTypeNotFound:
		return http.StatusNotFound
	case api.ErrorTypeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse writes the error envelope with the given status.
func WriteErrorResponse(w http.ResponseWriter, apiErr *api.APIError, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}

// WriteAPIError writes the error envelope, deriving the status from the error.
func WriteAPIError(w http.ResponseWriter, apiErr *api.APIError) {
	WriteErrorResponse(w, apiErr, HTTPStatusFromError(apiErr))
}
