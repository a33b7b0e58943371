package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todosync/todosync-server/internal/domain"
)

func TestGetTodoStats_EmptyOwner(t *testing.T) {
	env := setupTestEnv(t)

	stats, err := env.stats.GetTodoStats(context.Background(), "user-no-todos")
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.CompletionRate)
	assert.Empty(t, stats.ByPriority)
	assert.NotNil(t, stats.ByCategory)
	assert.Empty(t, stats.ByCategory)
}

func TestGetTodoStats_ThreeTodosOneCompleted(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	first := env.createTodo(t, "user-1", "one")
	env.createTodo(t, "user-1", "two")
	env.createTodo(t, "user-1", "three")
	_, err := env.todos.ToggleTodo(ctx, "user-1", first.ID)
	require.NoError(t, err)

	stats, err := env.stats.GetTodoStats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 33, stats.CompletionRate)
	assert.Equal(t, []domain.PriorityCount{{Priority: domain.PriorityMedium, Count: 3}}, stats.ByPriority)
}

func TestGetTodoStats_Breakdowns(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	work, err := env.categories.CreateCategory(ctx, "user-1", domain.CategoryInput{Name: "Work", Color: "#FF9800"})
	require.NoError(t, err)

	yesterday := testNow.Add(-24 * time.Hour)
	tonight := testNow.Add(3 * time.Hour)
	nextWeek := testNow.Add(8 * 24 * time.Hour)

	inputs := []domain.TodoInput{
		{Title: "overdue", DueDate: &yesterday, Priority: domain.PriorityCritical, CategoryID: work.ID},
		{Title: "tonight", DueDate: &tonight, Priority: domain.PriorityLow, CategoryID: work.ID},
		{Title: "later", DueDate: &nextWeek},
		{Title: "done late", DueDate: &yesterday, Completed: true},
	}
	for _, in := range inputs {
		_, err := env.todos.CreateTodo(ctx, "user-1", in)
		require.NoError(t, err)
	}

	stats, err := env.stats.GetTodoStats(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Overdue)
	assert.Equal(t, 1, stats.DueToday)
	assert.Equal(t, 1, stats.DueThisWeek)
	assert.Equal(t, 25, stats.CompletionRate)

	assert.Equal(t, []domain.PriorityCount{
		{Priority: domain.PriorityLow, Count: 1},
		{Priority: domain.PriorityMedium, Count: 2},
		{Priority: domain.PriorityCritical, Count: 1},
	}, stats.ByPriority, "rank order, empty priorities omitted")

	assert.ElementsMatch(t, []domain.CategoryCount{
		{CategoryID: work.ID, Name: "Work", Color: "#FF9800", Count: 2},
		{Name: domain.UncategorizedName, Count: 2},
	}, stats.ByCategory)
}
