// Package response writes the {success, data} JSON envelope for handlers that
// run outside huma (middleware, the SSE stream).
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/todosync/todosync-server/internal/errors"
)

// ErrorBody is the error half of the envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Envelope provides a consistent JSON response structure.
type Envelope struct {
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
	Success bool       `json:"success"`
}

// Error writes err as an error envelope. Domain errors keep their code,
// message and details; anything else is logged and reported as INTERNAL.
func Error(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		if logger != nil {
			logger.Error("Unhandled error", slog.String("error", err.Error()))
		}
		domainErr = domainerrors.Internal("internal server error")
	}

	write(w, domainErr.HTTPStatus(), Envelope{
		Error: &ErrorBody{
			Code:    string(domainErr.Code),
			Message: domainErr.Message,
			Details: domainErr.Details,
		},
	}, logger)
}

// Unauthenticated writes a 401 UNAUTHENTICATED response.
func Unauthenticated(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, domainerrors.Unauthenticated(message), logger)
}

// TooManyRequests writes a 429 RATE_LIMITED response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, domainerrors.RateLimited(message), logger)
}

func write(w http.ResponseWriter, status int, envelope Envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		if logger != nil {
			logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}
