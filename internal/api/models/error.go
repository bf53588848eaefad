package models

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every error response: {"error": "..."}.
type ErrorResponse struct {
	// Error is a human-readable message.
	Error string `json:"error"`

	// TraceID is the request identifier for debugging.
	TraceID string `json:"traceId,omitempty"`

	// Errors contains field validation errors for 400 responses.
	Errors []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewError creates an ErrorResponse.
func NewError(traceID, message string) *ErrorResponse {
	return &ErrorResponse{Error: message, TraceID: traceID}
}

// Write writes the error as JSON with the given status.
func (e *ErrorResponse) Write(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	if e.TraceID != "" {
		w.Header().Set("X-Request-Id", e.TraceID)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(e)
}
