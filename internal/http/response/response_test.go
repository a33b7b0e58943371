package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/todosync/todosync-server/internal/errors"
	"github.com/todosync/todosync-server/internal/logger"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var result Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

func TestError_DomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", domainerrors.NotFound("Todo not found"), http.StatusNotFound, "NOT_FOUND"},
		{"constraint", domainerrors.ConstraintViolation("bad"), http.StatusBadRequest, "CONSTRAINT_VIOLATION"},
		{"reference", domainerrors.InvalidReference("bad ref"), http.StatusUnprocessableEntity, "INVALID_REFERENCE"},
		{"operation", domainerrors.InvalidOperation("nope"), http.StatusConflict, "INVALID_OPERATION"},
		{"wrapped", fmt.Errorf("service: %w", domainerrors.NotFound("gone")), http.StatusNotFound, "NOT_FOUND"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Error(w, tt.err, logger.Discard())

			assert.Equal(t, tt.status, w.Code)
			result := decode(t, w)
			assert.False(t, result.Success)
			assert.Nil(t, result.Data)
			require.NotNil(t, result.Error)
			assert.Equal(t, tt.code, result.Error.Code)
		})
	}
}

func TestError_UnknownErrorHidesMessage(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, errors.New("password=hunter2"), nil)

	result := decode(t, w)
	require.NotNil(t, result.Error)
	assert.Equal(t, "internal server error", result.Error.Message)
}

func TestError_Details(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, domainerrors.ConstraintViolationWithDetails("Validation failed", map[string]string{"title": "required"}), nil)

	result := decode(t, w)
	require.NotNil(t, result.Error)
	assert.Equal(t, map[string]any{"title": "required"}, result.Error.Details)
}

func TestUnauthenticatedAndTooManyRequests(t *testing.T) {
	w := httptest.NewRecorder()
	Unauthenticated(w, "Authentication required", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHENTICATED", decode(t, w).Error.Code)

	w = httptest.NewRecorder()
	TooManyRequests(w, "Too many requests", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", decode(t, w).Error.Code)
}
