package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todosync/todosync-server/internal/domain"
	"github.com/todosync/todosync-server/internal/logger"
	"github.com/todosync/todosync-server/internal/search"
)

func setupSearch(t *testing.T, env *testEnv) (*SearchService, *search.Index) {
	t.Helper()
	index, err := search.Open(search.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	env.store.SetSearchIndexer(index)
	return NewSearchService(index, env.store, logger.Discard()), index
}

func TestSearchTodos_FollowsCommittedWrites(t *testing.T) {
	env := setupTestEnv(t)
	svc, _ := setupSearch(t, env)
	ctx := context.Background()

	milk := env.createTodo(t, "user-1", "Buy milk")
	env.createTodo(t, "user-1", "Walk the dog")
	env.createTodo(t, "user-2", "Buy milk too")

	res, err := svc.SearchTodos(ctx, search.Params{OwnerID: "user-1", Query: "milk"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, milk.ID, res.Items[0].ID)

	_, err = env.todos.UpdateTodo(ctx, "user-1", milk.ID, domain.TodoPatch{Title: ptr("Buy oat drink")})
	require.NoError(t, err)

	res, err = svc.SearchTodos(ctx, search.Params{OwnerID: "user-1", Query: "oat"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)

	require.NoError(t, env.todos.DeleteTodo(ctx, "user-1", milk.ID))
	res, err = svc.SearchTodos(ctx, search.Params{OwnerID: "user-1", Query: "oat"})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestSearchTodos_DropsStaleHits(t *testing.T) {
	env := setupTestEnv(t)
	svc, index := setupSearch(t, env)
	ctx := context.Background()

	ghost := &domain.Todo{ID: "todo-ghost", OwnerID: "user-1", Title: "Haunted todo", Priority: domain.PriorityLow}
	require.NoError(t, index.IndexTodo(ctx, ghost))

	res, err := svc.SearchTodos(ctx, search.Params{OwnerID: "user-1", Query: "haunted"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Total)
	assert.Empty(t, res.Items)
}

func TestReindexOwner(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	// Written before any indexer is attached.
	env.createTodo(t, "user-1", "Renew passport")
	env.createTodo(t, "user-1", "Book dentist")

	svc, index := setupSearch(t, env)

	res, err := svc.SearchTodos(ctx, search.Params{OwnerID: "user-1", Query: "passport"})
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	n, err := svc.ReindexOwner(ctx, index, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res, err = svc.SearchTodos(ctx, search.Params{OwnerID: "user-1", Query: "passport"})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
}

func TestReindexAll(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.createTodo(t, "user-1", "Renew passport")
	env.createTodo(t, "user-2", "Passport photos")

	svc, index := setupSearch(t, env)

	n, err := svc.ReindexAll(ctx, index)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, owner := range []string{"user-1", "user-2"} {
		res, err := svc.SearchTodos(ctx, search.Params{OwnerID: owner, Query: "passport"})
		require.NoError(t, err)
		assert.Len(t, res.Items, 1, owner)
	}
}
