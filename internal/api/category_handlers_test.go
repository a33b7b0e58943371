package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todosync/todosync-server/internal/domain"
)

func TestCreateCategory(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.bearer(t, "user-1")

	cat := ts.createCategory(t, authHeader, "Work", "#FF9800")
	assert.NotEmpty(t, cat.ID)
	assert.Equal(t, domain.DefaultCategoryIcon, cat.Icon)
	assert.Zero(t, cat.TodoCount)

	resp := ts.api.Post("/api/v1/categories", authHeader, map[string]any{"name": "Work", "color": "#000"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	env := decode[any](t, resp.Body.Bytes())
	assert.Equal(t, "CONSTRAINT_VIOLATION", env.Error.Code)
	assert.Equal(t, "Category with this name already exists", env.Error.Message)

	resp = ts.api.Post("/api/v1/categories", authHeader, map[string]any{"name": "Blue", "color": "blue"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	details, ok := decode[any](t, resp.Body.Bytes()).Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "color")
}

func TestListCategories_WithCounts(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.bearer(t, "user-1")

	resp := ts.api.Post("/api/v1/categories/defaults", authHeader)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	defaults := decode[[]*domain.CategorySummary](t, resp.Body.Bytes()).Data
	require.Len(t, defaults, 4)

	work := defaults[1]
	require.Equal(t, "Work", work.Name)
	ts.createTodo(t, authHeader, map[string]any{"title": "report", "category_id": work.ID})
	ts.createTodo(t, authHeader, map[string]any{"title": "slides", "category_id": work.ID})

	resp = ts.api.Get("/api/v1/categories", authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	listed := decode[[]*domain.CategorySummary](t, resp.Body.Bytes()).Data
	require.Len(t, listed, 4)
	assert.Equal(t, "General", listed[0].Name, "default category first")
	assert.True(t, listed[0].IsDefault)

	counts := map[string]int{}
	for _, c := range listed {
		counts[c.Name] = c.TodoCount
	}
	assert.Equal(t, map[string]int{"General": 0, "Work": 2, "Personal": 0, "Shopping": 0}, counts)

	resp = ts.api.Get("/api/v1/categories/"+work.ID, authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 2, decode[*domain.CategorySummary](t, resp.Body.Bytes()).Data.TodoCount)

	assert.Empty(t, decode[[]*domain.CategorySummary](t, ts.api.Get("/api/v1/categories", ts.bearer(t, "user-2")).Body.Bytes()).Data)
}

func TestCreateDefaultCategories_OnlyOnce(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.bearer(t, "user-1")

	require.Equal(t, http.StatusCreated, ts.api.Post("/api/v1/categories/defaults", authHeader).Code)

	resp := ts.api.Post("/api/v1/categories/defaults", authHeader)
	require.Equal(t, http.StatusConflict, resp.Code)
	env := decode[any](t, resp.Body.Bytes())
	assert.Equal(t, "INVALID_OPERATION", env.Error.Code)
	assert.Equal(t, "Default categories already exist", env.Error.Message)
}

func TestUpdateCategory_DefaultRules(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.bearer(t, "user-1")

	resp := ts.api.Post("/api/v1/categories/defaults", authHeader)
	general := decode[[]*domain.CategorySummary](t, resp.Body.Bytes()).Data[0]

	resp = ts.api.Put("/api/v1/categories/"+general.ID, authHeader, map[string]any{"name": "Misc"})
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "Cannot change name of default category", decode[any](t, resp.Body.Bytes()).Error.Message)

	resp = ts.api.Put("/api/v1/categories/"+general.ID, authHeader, map[string]any{"color": "#123456", "icon": "star"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decode[*domain.CategorySummary](t, resp.Body.Bytes()).Data
	assert.Equal(t, "General", updated.Name)
	assert.Equal(t, "#123456", updated.Color)
	assert.Equal(t, "star", updated.Icon)

	resp = ts.api.Delete("/api/v1/categories/"+general.ID, authHeader)
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "Cannot delete default category", decode[any](t, resp.Body.Bytes()).Error.Message)
}

func TestDeleteCategory_BlockedWhileNonEmpty(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.bearer(t, "user-1")

	cat := ts.createCategory(t, authHeader, "Errands", "#abc")
	todo := ts.createTodo(t, authHeader, map[string]any{"title": "post office", "category_id": cat.ID})

	resp := ts.api.Delete("/api/v1/categories/"+cat.ID, authHeader)
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t,
		"Cannot delete category. It contains 1 todo(s). Please move or delete the todos first.",
		decode[any](t, resp.Body.Bytes()).Error.Message,
	)

	require.Equal(t, http.StatusOK, ts.api.Delete("/api/v1/todos/"+todo.ID, authHeader).Code)

	resp = ts.api.Delete("/api/v1/categories/"+cat.ID, authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Category deleted successfully", decode[MessageResponse](t, resp.Body.Bytes()).Data.Message)

	assert.Equal(t, http.StatusNotFound, ts.api.Get("/api/v1/categories/"+cat.ID, authHeader).Code)
}

func TestCategoryRename_ReachesTodoProjection(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.bearer(t, "user-1")

	cat := ts.createCategory(t, authHeader, "Home", "#4CAF50")
	todo := ts.createTodo(t, authHeader, map[string]any{"title": "mow lawn", "category_id": cat.ID})

	resp := ts.api.Put("/api/v1/categories/"+cat.ID, authHeader, map[string]any{"name": "House", "color": "#111"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/todos/"+todo.ID, authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	got := decode[*domain.Todo](t, resp.Body.Bytes()).Data
	require.NotNil(t, got.Category)
	assert.Equal(t, "House", got.Category.Name)
	assert.Equal(t, "#111", got.Category.Color)
}
