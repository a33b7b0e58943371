package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todosync/todosync-server/internal/domain"
	domainerrors "github.com/todosync/todosync-server/internal/errors"
)

func TestCreateCategory(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	cat, err := env.categories.CreateCategory(ctx, "user-1", domain.CategoryInput{
		Name:        " Work ",
		Color:       "#FF9800",
		Description: "Office stuff",
	})
	require.NoError(t, err)
	assert.Equal(t, "Work", cat.Name)
	assert.Equal(t, domain.DefaultCategoryIcon, cat.Icon)
	assert.False(t, cat.IsDefault)
	assert.Zero(t, cat.TodoCount)

	_, err = env.categories.CreateCategory(ctx, "user-1", domain.CategoryInput{Name: "Work", Color: "#000"})
	assert.ErrorIs(t, err, domainerrors.ErrConstraintViolation, "name unique per owner")

	_, err = env.categories.CreateCategory(ctx, "user-2", domain.CategoryInput{Name: "Work", Color: "#000"})
	assert.NoError(t, err, "names are scoped to the owner")

	assert.Empty(t, env.publisher.Events(), "category changes are not published")
}

func TestCreateCategory_Validation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    domain.CategoryInput
		field string
	}{
		{"missing name", domain.CategoryInput{Color: "#fff"}, "name"},
		{"long name", domain.CategoryInput{Name: "abcdefghijklmnopqrstuvwxyz12345", Color: "#fff"}, "name"},
		{"missing color", domain.CategoryInput{Name: "x"}, "color"},
		{"four digit color", domain.CategoryInput{Name: "x", Color: "#ffff"}, "color"},
		{"no hash", domain.CategoryInput{Name: "x", Color: "ffffff"}, "color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.categories.CreateCategory(ctx, "user-1", tt.in)
			require.ErrorIs(t, err, domainerrors.ErrConstraintViolation)

			var de *domainerrors.Error
			require.ErrorAs(t, err, &de)
			assert.Contains(t, de.Details, tt.field)
		})
	}
}

func TestGetCategory_CountsTodos(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	cat, err := env.categories.CreateCategory(ctx, "user-1", domain.CategoryInput{Name: "Home", Color: "#4CAF50"})
	require.NoError(t, err)
	_, err = env.todos.CreateTodo(ctx, "user-1", domain.TodoInput{Title: "mop", CategoryID: cat.ID})
	require.NoError(t, err)

	got, err := env.categories.GetCategory(ctx, "user-1", cat.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TodoCount)

	_, err = env.categories.GetCategory(ctx, "user-2", cat.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestUpdateCategory(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	cat, err := env.categories.CreateCategory(ctx, "user-1", domain.CategoryInput{Name: "Home", Color: "#4CAF50"})
	require.NoError(t, err)
	_, err = env.categories.CreateCategory(ctx, "user-1", domain.CategoryInput{Name: "Garden", Color: "#4CAF50"})
	require.NoError(t, err)

	updated, err := env.categories.UpdateCategory(ctx, "user-1", cat.ID, domain.CategoryPatch{
		Name:  ptr("House"),
		Color: ptr("#abc"),
	})
	require.NoError(t, err)
	assert.Equal(t, "House", updated.Name)
	assert.Equal(t, "#abc", updated.Color)

	_, err = env.categories.UpdateCategory(ctx, "user-1", cat.ID, domain.CategoryPatch{Name: ptr("Garden")})
	assert.ErrorIs(t, err, domainerrors.ErrConstraintViolation)

	_, err = env.categories.UpdateCategory(ctx, "user-1", cat.ID, domain.CategoryPatch{Color: ptr("blue")})
	assert.ErrorIs(t, err, domainerrors.ErrConstraintViolation)

	_, err = env.categories.UpdateCategory(ctx, "user-2", cat.ID, domain.CategoryPatch{Color: ptr("#000")})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestUpdateCategory_DefaultCannotBeRenamed(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	defaults, err := env.categories.CreateDefaultCategories(ctx, "user-1")
	require.NoError(t, err)
	general := defaults[0]
	require.True(t, general.IsDefault)

	_, err = env.categories.UpdateCategory(ctx, "user-1", general.ID, domain.CategoryPatch{Name: ptr("Misc")})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOperation)

	recolored, err := env.categories.UpdateCategory(ctx, "user-1", general.ID, domain.CategoryPatch{Color: ptr("#111111")})
	require.NoError(t, err)
	assert.Equal(t, "General", recolored.Name)
	assert.Equal(t, "#111111", recolored.Color)
}

func TestDeleteCategory_BlockedWhileNonEmpty(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	cat, err := env.categories.CreateCategory(ctx, "user-1", domain.CategoryInput{Name: "Work", Color: "#FF9800"})
	require.NoError(t, err)
	todo, err := env.todos.CreateTodo(ctx, "user-1", domain.TodoInput{Title: "report", CategoryID: cat.ID})
	require.NoError(t, err)

	err = env.categories.DeleteCategory(ctx, "user-1", cat.ID)
	require.ErrorIs(t, err, domainerrors.ErrInvalidOperation)
	assert.Contains(t, err.Error(), "It contains 1 todo(s)")

	still, err := env.categories.GetCategory(ctx, "user-1", cat.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, still.TodoCount)

	kept, err := env.todos.GetTodo(ctx, "user-1", todo.ID)
	require.NoError(t, err)
	assert.Equal(t, cat.ID, kept.CategoryID)

	require.NoError(t, env.todos.DeleteTodo(ctx, "user-1", todo.ID))
	require.NoError(t, env.categories.DeleteCategory(ctx, "user-1", cat.ID))

	_, err = env.categories.GetCategory(ctx, "user-1", cat.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestDeleteCategory_DefaultIsProtected(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	defaults, err := env.categories.CreateDefaultCategories(ctx, "user-1")
	require.NoError(t, err)

	err = env.categories.DeleteCategory(ctx, "user-1", defaults[0].ID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOperation)

	assert.ErrorIs(t, env.categories.DeleteCategory(ctx, "user-2", defaults[1].ID), domainerrors.ErrNotFound)
	assert.NoError(t, env.categories.DeleteCategory(ctx, "user-1", defaults[1].ID))
}

func TestCreateDefaultCategories(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	created, err := env.categories.CreateDefaultCategories(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, created, 4)

	names := make([]string, len(created))
	defaults := 0
	for i, c := range created {
		names[i] = c.Name
		if c.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, []string{"General", "Work", "Personal", "Shopping"}, names)
	assert.Equal(t, 1, defaults)
	assert.Equal(t, "#2196F3", created[0].Color)
	assert.Equal(t, "shopping_cart", created[3].Icon)

	_, err = env.categories.CreateDefaultCategories(ctx, "user-1")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOperation)

	listed, err := env.categories.ListCategories(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, listed, 4, "second call inserts nothing")
	assert.Equal(t, "General", listed[0].Name)
}

func TestCreateDefaultCategories_NameClashRollsBack(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.categories.CreateCategory(ctx, "user-1", domain.CategoryInput{Name: "Shopping", Color: "#000"})
	require.NoError(t, err)

	_, err = env.categories.CreateDefaultCategories(ctx, "user-1")
	assert.ErrorIs(t, err, domainerrors.ErrConstraintViolation)

	listed, err := env.categories.ListCategories(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}
