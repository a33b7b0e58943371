package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityRank(t *testing.T) {
	for i, p := range Priorities {
		assert.Equal(t, i+1, p.Rank())
		assert.True(t, p.Valid())
	}
	assert.False(t, Priority("urgent").Valid())
}

func TestTodoNormalize(t *testing.T) {
	todo := &Todo{
		Title: "  buy milk ",
		Tags:  []string{" home ", "", "  "},
	}
	todo.Normalize()

	assert.Equal(t, "buy milk", todo.Title)
	assert.Equal(t, []string{"home"}, todo.Tags)
	assert.Equal(t, PriorityMedium, todo.Priority)
	assert.NotNil(t, todo.Subtasks)
	assert.NotNil(t, todo.Attachments)
}

func TestTodoPatchApply(t *testing.T) {
	due := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	todo := &Todo{
		Title:      "old",
		CategoryID: "cat-1",
		Category:   &CategoryRef{ID: "cat-1"},
		DueDate:    &due,
		Tags:       []string{"a"},
	}

	title := "new"
	clearCategory := ""
	tags := []string{"b", "c"}
	patch := TodoPatch{
		Title:      &title,
		CategoryID: &clearCategory,
		DueDate:    &time.Time{},
		Tags:       &tags,
	}
	require.False(t, patch.IsEmpty())
	patch.Apply(todo)

	assert.Equal(t, "new", todo.Title)
	assert.Empty(t, todo.CategoryID)
	assert.Nil(t, todo.Category)
	assert.Nil(t, todo.DueDate)
	assert.Equal(t, []string{"b", "c"}, todo.Tags)

	tags[0] = "mutated"
	assert.Equal(t, "b", todo.Tags[0], "patch slices are copied")
}

func TestTodoPatchIsEmpty(t *testing.T) {
	assert.True(t, TodoPatch{}.IsEmpty())
}

func TestCategoryNormalizeAndPatch(t *testing.T) {
	cat := &Category{Name: " Work ", Color: "#fff"}
	cat.Normalize()
	assert.Equal(t, "Work", cat.Name)
	assert.Equal(t, DefaultCategoryIcon, cat.Icon)

	name := "Office"
	CategoryPatch{Name: &name}.Apply(cat)
	assert.Equal(t, "Office", cat.Name)
	assert.Equal(t, &CategoryRef{ID: cat.ID, Name: "Office", Color: "#fff", Icon: "category"}, cat.Ref())
}

func TestStarterCategories_ExactlyOneDefault(t *testing.T) {
	defaults := 0
	for _, sc := range StarterCategories {
		if sc.IsDefault {
			defaults++
			assert.Equal(t, "General", sc.Name)
		}
	}
	assert.Equal(t, 1, defaults)
}
