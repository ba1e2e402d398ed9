package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the standardized error body.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RespondError writes a standardized error response.
func RespondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// RespondErrorWithDetails writes an error response with additional details.
func RespondErrorWithDetails(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   code,
		Message: message,
		Details: details,
	})
}

// RespondInternalError writes an internal server error response.
func RespondInternalError(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// RespondNotFound writes a not found error response.
func RespondNotFound(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusNotFound, code, message)
}

// RespondUnauthorized writes an unauthorized error response.
func RespondUnauthorized(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusUnauthorized, code, message)
}

// RespondBadRequest writes a bad request error response.
func RespondBadRequest(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusBadRequest, code, message)
}

// RespondConflict writes a conflict error response.
func RespondConflict(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusConflict, code, message)
}
