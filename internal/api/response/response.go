// Package response provides utilities for HTTP response handling.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/geocycle/geocycle/internal/api/middleware"
	"github.com/geocycle/geocycle/internal/api/models"
)

// JSON writes a JSON response with the given status code.
// Includes X-Request-Id header for correlation.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error writes an {"error": message} response with the given status.
func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	models.NewError(middleware.GetRequestID(r.Context()), message).Write(w, status)
}

// Notice writes an {"error": message} body with status 200. It reports
// business rejections that are not request failures.
func Notice(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusOK, message)
}

// BadRequest writes a 400 Bad Request error response.
func BadRequest(w http.ResponseWriter, r *http.Request, message string, errors []models.FieldError) {
	e := models.NewError(middleware.GetRequestID(r.Context()), message)
	e.Errors = errors
	e.Write(w, http.StatusBadRequest)
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusInternalServerError, message)
}

// BadGateway writes a 502 Bad Gateway response.
func BadGateway(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusBadGateway, message)
}

// ServiceUnavailable writes a 503 Service Unavailable error response.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusServiceUnavailable, message)
}
