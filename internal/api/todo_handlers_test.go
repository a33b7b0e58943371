package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todosync/todosync-server/internal/domain"
	"github.com/todosync/todosync-server/internal/service"
	"github.com/todosync/todosync-server/internal/store"
)

func (ts *testServer) createTodo(t *testing.T, authHeader string, body map[string]any) *domain.Todo {
	t.Helper()
	resp := ts.api.Post("/api/v1/todos", authHeader, body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[*domain.Todo](t, resp.Body.Bytes()).Data
}

func (ts *testServer) createCategory(t *testing.T, authHeader, name, color string) *domain.CategorySummary {
	t.Helper()
	resp := ts.api.Post("/api/v1/categories", authHeader, map[string]any{"name": name, "color": color})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[*domain.CategorySummary](t, resp.Body.Bytes()).Data
}

func TestTodoLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.bearer(t, "user-1")

	work := ts.createCategory(t, authHeader, "Work", "#FF9800")

	created := ts.createTodo(t, authHeader, map[string]any{
		"title":       "  Write report ",
		"category_id": work.ID,
		"priority":    "high",
		"tags":        []string{"q3", " ", "finance"},
		"due_date":    "2030-01-15",
		"subtasks": []map[string]any{
			{"title": "outline", "completed": true},
			{"title": "draft"},
		},
	})
	assert.Equal(t, "Write report", created.Title)
	assert.Equal(t, domain.PriorityHigh, created.Priority)
	assert.Equal(t, []string{"q3", "finance"}, created.Tags)
	assert.Equal(t, 50, created.Progress)
	require.NotNil(t, created.DueDate)
	assert.Equal(t, "2030-01-15", created.DueDate.Format("2006-01-02"))
	require.NotNil(t, created.Category)
	assert.Equal(t, domain.CategoryRef{ID: work.ID, Name: "Work", Color: "#FF9800", Icon: domain.DefaultCategoryIcon}, *created.Category)

	resp := ts.api.Get("/api/v1/todos/"+created.ID, authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, created.ID, decode[*domain.Todo](t, resp.Body.Bytes()).Data.ID)

	resp = ts.api.Put("/api/v1/todos/"+created.ID, authHeader, map[string]any{
		"title":       "Write final report",
		"category_id": "",
		"due_date":    nil,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decode[*domain.Todo](t, resp.Body.Bytes()).Data
	assert.Equal(t, "Write final report", updated.Title)
	assert.Nil(t, updated.Category)
	assert.Empty(t, updated.CategoryID)
	assert.Nil(t, updated.DueDate)
	assert.Equal(t, 50, updated.Progress, "untouched subtasks keep progress")

	resp = ts.api.Patch("/api/v1/todos/"+created.ID+"/toggle", authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	toggled := decode[*domain.Todo](t, resp.Body.Bytes()).Data
	assert.True(t, toggled.Completed)
	assert.NotNil(t, toggled.CompletedAt)
	assert.Equal(t, 100, toggled.Progress, "completing forces full progress")

	resp = ts.api.Delete("/api/v1/todos/"+created.ID, authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Todo deleted successfully", decode[MessageResponse](t, resp.Body.Bytes()).Data.Message)

	resp = ts.api.Get("/api/v1/todos/"+created.ID, authHeader)
	require.Equal(t, http.StatusNotFound, resp.Code)
	env := decode[any](t, resp.Body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
	assert.Equal(t, "Todo not found", env.Error.Message)
}

func TestCreateTodo_Errors(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.bearer(t, "user-1")
	other := ts.createCategory(t, ts.bearer(t, "user-2"), "Theirs", "#000")

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
		field  string
	}{
		{"missing title", map[string]any{"priority": "low"}, http.StatusBadRequest, "CONSTRAINT_VIOLATION", "title"},
		{"title too long", map[string]any{"title": strings.Repeat("x", 101)}, http.StatusBadRequest, "CONSTRAINT_VIOLATION", "title"},
		{"unknown priority", map[string]any{"title": "x", "priority": "urgent"}, http.StatusBadRequest, "CONSTRAINT_VIOLATION", "priority"},
		{"progress out of range", map[string]any{"title": "x", "progress": 150}, http.StatusBadRequest, "CONSTRAINT_VIOLATION", "progress"},
		{"foreign category", map[string]any{"title": "x", "category_id": other.ID}, http.StatusUnprocessableEntity, "INVALID_REFERENCE", ""},
		{"unparseable date", map[string]any{"title": "x", "due_date": "next tuesday"}, http.StatusBadRequest, "CONSTRAINT_VIOLATION", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/todos", authHeader, tt.body)
			require.Equal(t, tt.status, resp.Code, resp.Body.String())

			env := decode[any](t, resp.Body.Bytes())
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			if tt.field != "" {
				details, ok := env.Error.Details.(map[string]any)
				require.True(t, ok, "details: %#v", env.Error.Details)
				assert.Contains(t, details, tt.field)
			}
		})
	}
}

func TestTodos_OwnerIsolation(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.bearer(t, "user-1")
	bob := ts.bearer(t, "user-2")

	todo := ts.createTodo(t, alice, map[string]any{"title": "private"})

	assert.Equal(t, http.StatusNotFound, ts.api.Get("/api/v1/todos/"+todo.ID, bob).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Put("/api/v1/todos/"+todo.ID, bob, map[string]any{"title": "mine"}).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Patch("/api/v1/todos/"+todo.ID+"/toggle", bob).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Delete("/api/v1/todos/"+todo.ID, bob).Code)

	resp := ts.api.Get("/api/v1/todos", bob)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[store.TodoPage](t, resp.Body.Bytes()).Data.Items)
}

func TestListTodos_PaginationAndFilters(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.bearer(t, "user-1")

	ts.createTodo(t, authHeader, map[string]any{"title": "Foobar", "tags": []string{"home"}})
	ts.createTodo(t, authHeader, map[string]any{"title": "bar", "priority": "critical"})
	done := ts.createTodo(t, authHeader, map[string]any{"title": "baz", "tags": []string{"work"}})
	require.Equal(t, http.StatusOK, ts.api.Patch("/api/v1/todos/"+done.ID+"/toggle", authHeader).Code)

	resp := ts.api.Get("/api/v1/todos?limit=2", authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	page := decode[store.TodoPage](t, resp.Body.Bytes()).Data
	assert.Len(t, page.Items, 2)
	assert.Equal(t, store.Pagination{Current: 1, Total: 2, Count: 2, TotalCount: 3, HasNext: true, HasPrev: false}, page.Pagination)

	resp = ts.api.Get("/api/v1/todos?limit=2&page=2", authHeader)
	page = decode[store.TodoPage](t, resp.Body.Bytes()).Data
	assert.Len(t, page.Items, 1)
	assert.False(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrev)

	titles := func(query string) []string {
		t.Helper()
		resp := ts.api.Get("/api/v1/todos?"+query, authHeader)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		var out []string
		for _, todo := range decode[store.TodoPage](t, resp.Body.Bytes()).Data.Items {
			out = append(out, todo.Title)
		}
		return out
	}

	assert.Equal(t, []string{"Foobar"}, titles("search=foo"))
	assert.Equal(t, []string{"baz"}, titles("status=completed"))
	assert.ElementsMatch(t, []string{"Foobar", "bar"}, titles("status=pending"))
	assert.Equal(t, []string{"bar"}, titles("priority=critical"))
	assert.ElementsMatch(t, []string{"Foobar", "baz"}, titles("tags=home,work"))
	assert.Equal(t, []string{"bar", "baz", "Foobar"}, titles("sort_by=title&sort_order=asc"), "titles sort case-insensitively")

	resp = ts.api.Get("/api/v1/todos?priority=urgent", authHeader)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestReorderTodos(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.bearer(t, "user-1")

	a := ts.createTodo(t, authHeader, map[string]any{"title": "A"})
	b := ts.createTodo(t, authHeader, map[string]any{"title": "B"})
	c := ts.createTodo(t, authHeader, map[string]any{"title": "C"})

	resp := ts.api.Patch("/api/v1/todos/reorder", authHeader, map[string]any{
		"todo_ids": []string{c.ID, a.ID, b.ID},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	out := decode[ReorderTodosResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, "Todos reordered successfully", out.Message)
	assert.Equal(t, 3, out.Count)

	resp = ts.api.Get("/api/v1/todos?sort_by=position&sort_order=asc", authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	items := decode[store.TodoPage](t, resp.Body.Bytes()).Data.Items
	require.Len(t, items, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{items[0].Title, items[1].Title, items[2].Title})
	assert.Equal(t, []int{0, 1, 2}, []int{items[0].Position, items[1].Position, items[2].Position})

	resp = ts.api.Patch("/api/v1/todos/reorder", authHeader, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.Code, "todo_ids is required")
}

func TestBulkUpdateTodos(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.bearer(t, "user-1")

	a := ts.createTodo(t, authHeader, map[string]any{"title": "A"})
	b := ts.createTodo(t, authHeader, map[string]any{"title": "B"})
	foreign := ts.createTodo(t, ts.bearer(t, "user-2"), map[string]any{"title": "theirs"})

	resp := ts.api.Patch("/api/v1/todos/bulk", authHeader, map[string]any{
		"todo_ids": []string{a.ID, b.ID, foreign.ID},
		"updates":  map[string]any{"completed": true, "priority": "low"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	out := decode[BulkUpdateTodosResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, "2 todos updated successfully", out.Message)
	assert.Equal(t, 2, out.ModifiedCount)

	resp = ts.api.Get("/api/v1/todos?status=completed", authHeader)
	page := decode[store.TodoPage](t, resp.Body.Bytes()).Data
	assert.Len(t, page.Items, 2)
	for _, todo := range page.Items {
		assert.Equal(t, domain.PriorityLow, todo.Priority)
		assert.NotNil(t, todo.CompletedAt)
	}

	resp = ts.api.Patch("/api/v1/todos/bulk", authHeader, map[string]any{
		"todo_ids": []string{a.ID},
		"updates":  map[string]any{"subtasks": []map[string]any{{"title": "nope"}}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestTodoStats(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.bearer(t, "user-1")

	first := ts.createTodo(t, authHeader, map[string]any{"title": "one"})
	ts.createTodo(t, authHeader, map[string]any{"title": "two"})
	ts.createTodo(t, authHeader, map[string]any{"title": "three"})
	require.Equal(t, http.StatusOK, ts.api.Patch("/api/v1/todos/"+first.ID+"/toggle", authHeader).Code)

	resp := ts.api.Get("/api/v1/todos/stats", authHeader)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	stats := decode[domain.TodoStats](t, resp.Body.Bytes()).Data
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 33, stats.CompletionRate)
	assert.Equal(t, []domain.CategoryCount{{Name: domain.UncategorizedName, Count: 3}}, stats.ByCategory)
}

func TestSearchTodos(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.bearer(t, "user-1")

	milk := ts.createTodo(t, authHeader, map[string]any{"title": "Buy milk", "description": "semi skimmed"})
	ts.createTodo(t, authHeader, map[string]any{"title": "Walk the dog"})
	ts.createTodo(t, ts.bearer(t, "user-2"), map[string]any{"title": "Buy milk"})

	resp := ts.api.Get("/api/v1/todos/search?q=milk", authHeader)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	results := decode[service.SearchResults](t, resp.Body.Bytes()).Data
	require.Len(t, results.Items, 1)
	assert.Equal(t, milk.ID, results.Items[0].ID)

	resp = ts.api.Get("/api/v1/todos/search?q=", authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[service.SearchResults](t, resp.Body.Bytes()).Data.Items)
}

func TestSearchTodos_WithoutIndex(t *testing.T) {
	ts := setupTestServer(t)
	ts.services.Search = nil
	authHeader := ts.bearer(t, "user-1")

	ts.createTodo(t, authHeader, map[string]any{"title": "Foobar"})
	ts.createTodo(t, authHeader, map[string]any{"title": "bar"})

	resp := ts.api.Get("/api/v1/todos/search?q=foo", authHeader)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	results := decode[service.SearchResults](t, resp.Body.Bytes()).Data
	require.Len(t, results.Items, 1)
	assert.Equal(t, "Foobar", results.Items[0].Title)
	assert.Equal(t, uint64(1), results.Total)
}

func TestTodoMutations_PublishToOwnerStream(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.bearer(t, "user-1")

	client, err := ts.sse.Connect("user-1")
	require.NoError(t, err)
	t.Cleanup(func() { ts.sse.Disconnect(client.ID) })

	ctx := t.Context()
	go ts.sse.Start(ctx)

	todo := ts.createTodo(t, authHeader, map[string]any{"title": "watched"})

	event := <-client.EventChan
	assert.Equal(t, "todo.create", string(event.Type))
	created, ok := event.Data.(*domain.Todo)
	require.True(t, ok, "payload is the created todo")
	assert.Equal(t, todo.ID, created.ID)
}
