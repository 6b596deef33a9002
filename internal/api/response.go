// Package api exposes the analytics facade over HTTP with JSON responses.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

var (
	ErrNotFound     = errors.New("requested resource not found")
	ErrInvalidInput = errors.New("invalid input provided")
	ErrInternal     = errors.New("internal server error")
)

// AppError carries an HTTP status alongside the user-facing message and
// the internal cause.
type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

// WrapError attaches a user-facing message and status code to err.
func WrapError(err error, message string, code int) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// WriteResponse sends data as JSON with the given status code.
func WriteResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError sends the error as a JSON envelope, defaulting to 500 for
// errors that are not AppErrors.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		slog.Error("request failed", "error", appErr.Err, "message", appErr.Message)
		WriteResponse(w, appErr.Code, map[string]string{"error": appErr.Message})
		return
	}

	slog.Error("request failed", "error", err)
	WriteResponse(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
