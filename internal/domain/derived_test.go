package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subtasks(states ...bool) []Subtask {
	out := make([]Subtask, len(states))
	for i, done := range states {
		out[i] = Subtask{Title: "step", Completed: done}
	}
	return out
}

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name      string
		subtasks  []Subtask
		completed bool
		want      int
	}{
		{"no subtasks pending", nil, false, 0},
		{"no subtasks completed", nil, true, 100},
		{"one of three", subtasks(true, false, false), false, 33},
		{"two of three rounds up", subtasks(true, true, false), false, 67},
		{"half", subtasks(true, false), false, 50},
		{"one of eight rounds half up", subtasks(true, false, false, false, false, false, false, false), false, 13},
		{"all done", subtasks(true, true), false, 100},
		{"subtasks win over completed flag", subtasks(false, false), true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeProgress(tt.subtasks, tt.completed))
		})
	}
}

func TestApplyCompletionTransition(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("false to true", func(t *testing.T) {
		tr := ApplyCompletionTransition(false, true, now)
		assert.True(t, tr.Changed)
		require.NotNil(t, tr.CompletedAt)
		assert.Equal(t, now, *tr.CompletedAt)
		require.NotNil(t, tr.ProgressOverride)
		assert.Equal(t, 100, *tr.ProgressOverride)
	})

	t.Run("true to false", func(t *testing.T) {
		tr := ApplyCompletionTransition(true, false, now)
		assert.True(t, tr.Changed)
		assert.Nil(t, tr.CompletedAt)
		assert.Nil(t, tr.ProgressOverride)
	})

	t.Run("no transition", func(t *testing.T) {
		assert.Equal(t, CompletionTransition{}, ApplyCompletionTransition(true, true, now))
		assert.Equal(t, CompletionTransition{}, ApplyCompletionTransition(false, false, now))
	})
}

func TestDeriveState(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("completing without subtasks forces progress to 100", func(t *testing.T) {
		todo := &Todo{Completed: true, Progress: 10}
		DeriveState(todo, false, false, now)

		assert.Equal(t, 100, todo.Progress)
		require.NotNil(t, todo.CompletedAt)
		assert.Equal(t, now, *todo.CompletedAt)
	})

	t.Run("completing with subtasks forces progress to 100", func(t *testing.T) {
		todo := &Todo{Completed: true, Progress: 33, Subtasks: subtasks(true, false, false)}
		DeriveState(todo, false, false, now)

		assert.Equal(t, 100, todo.Progress)
		assert.NotNil(t, todo.CompletedAt)
	})

	t.Run("completing while replacing subtasks still forces 100", func(t *testing.T) {
		todo := &Todo{Completed: true, Subtasks: subtasks(true, false)}
		DeriveState(todo, false, true, now)

		assert.Equal(t, 100, todo.Progress)
	})

	t.Run("reopening without subtasks resets progress and clears timestamp", func(t *testing.T) {
		done := now.Add(-time.Hour)
		todo := &Todo{Completed: false, Progress: 100, CompletedAt: &done}
		DeriveState(todo, true, false, now)

		assert.Equal(t, 0, todo.Progress)
		assert.Nil(t, todo.CompletedAt)
	})

	t.Run("reopening with subtasks recomputes from them", func(t *testing.T) {
		done := now.Add(-time.Hour)
		todo := &Todo{Progress: 100, CompletedAt: &done, Subtasks: subtasks(true, false)}
		DeriveState(todo, true, false, now)

		assert.Equal(t, 50, todo.Progress)
		assert.Nil(t, todo.CompletedAt)
	})

	t.Run("replaced subtasks determine progress", func(t *testing.T) {
		todo := &Todo{Subtasks: subtasks(true, false, false)}
		DeriveState(todo, false, true, now)

		assert.Equal(t, 33, todo.Progress)
		assert.Nil(t, todo.CompletedAt)
	})

	t.Run("emptied subtasks fall back to completion", func(t *testing.T) {
		pending := &Todo{Progress: 50, Subtasks: []Subtask{}}
		DeriveState(pending, false, true, now)
		assert.Equal(t, 0, pending.Progress)

		done := now.Add(-time.Hour)
		completed := &Todo{Completed: true, CompletedAt: &done, Progress: 50, Subtasks: []Subtask{}}
		DeriveState(completed, true, true, now)
		assert.Equal(t, 100, completed.Progress)
		assert.Equal(t, done, *completed.CompletedAt, "no transition keeps the timestamp")
	})

	t.Run("direct override kept when nothing derived changes", func(t *testing.T) {
		todo := &Todo{Progress: 40, Subtasks: subtasks(true, false)}
		DeriveState(todo, false, false, now)

		assert.Equal(t, 40, todo.Progress)
		assert.Nil(t, todo.CompletedAt)
	})
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, IsOverdue(&Todo{DueDate: &past}, now))
	assert.False(t, IsOverdue(&Todo{DueDate: &past, Completed: true}, now))
	assert.False(t, IsOverdue(&Todo{DueDate: &future}, now))
	assert.False(t, IsOverdue(&Todo{}, now))
}

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, 0, CompletionRate(0, 0))
	assert.Equal(t, 33, CompletionRate(1, 3))
	assert.Equal(t, 67, CompletionRate(2, 3))
	assert.Equal(t, 100, CompletionRate(4, 4))
}

func TestStartOfDay(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), StartOfDay(now))
}
