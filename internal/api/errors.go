package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/todosync/todosync-server/internal/errors"
)

// APIError is a custom error type that implements huma.StatusError.
// It carries huma's own failures (bad JSON, schema violations, unknown
// routes) in the same shape as domain errors.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		details := map[string]string{}
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}

			var detail *huma.ErrorDetail
			if errors.As(err, &detail) {
				details[detailKey(detail.Location)] = detail.Message
			}
		}

		code := statusToCode(status)
		if code == domainerrors.CodeInternal {
			// Never leak the cause of an unexpected failure.
			message = "internal server error"
		}

		apiErr := &APIError{
			status:  code.HTTPStatus(),
			Code:    string(code),
			Message: message,
		}
		if len(details) > 0 {
			apiErr.Details = details
		}
		return apiErr
	}
}

// detailKey turns huma's "body.title" style locations into the field path
// used by the validator.
func detailKey(location string) string {
	for _, prefix := range []string{"body.", "query.", "path."} {
		if len(location) > len(prefix) && location[:len(prefix)] == prefix {
			return location[len(prefix):]
		}
	}
	return location
}

// statusToCode maps HTTP status codes to our domain error codes. Schema and
// parse failures (400, 413, 422) all count as constraint violations.
func statusToCode(status int) domainerrors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return domainerrors.CodeConstraintViolation
	case http.StatusUnauthorized:
		return domainerrors.CodeUnauthenticated
	case http.StatusNotFound:
		return domainerrors.CodeNotFound
	case http.StatusConflict:
		return domainerrors.CodeInvalidOperation
	case http.StatusTooManyRequests:
		return domainerrors.CodeRateLimited
	default:
		return domainerrors.CodeInternal
	}
}
