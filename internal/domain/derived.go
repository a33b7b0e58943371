package domain

import "time"

// ComputeProgress derives progress from subtasks. With no subtasks the
// result is 100 for a completed todo and 0 otherwise; with subtasks it is
// the completed share rounded half up.
func ComputeProgress(subtasks []Subtask, completed bool) int {
	total := len(subtasks)
	if total == 0 {
		if completed {
			return 100
		}
		return 0
	}
	done := 0
	for _, st := range subtasks {
		if st.Completed {
			done++
		}
	}
	// Integer round-half-up of 100*done/total.
	return (200*done + total) / (2 * total)
}

// CompletionTransition is the outcome of a change to a todo's completed flag.
type CompletionTransition struct {
	Changed          bool
	CompletedAt      *time.Time
	ProgressOverride *int
}

// ApplyCompletionTransition computes the timestamp and progress effects of
// moving from previous to next. Nothing changes when they are equal.
func ApplyCompletionTransition(previous, next bool, now time.Time) CompletionTransition {
	switch {
	case !previous && next:
		at := now.UTC()
		full := 100
		return CompletionTransition{Changed: true, CompletedAt: &at, ProgressOverride: &full}
	case previous && !next:
		return CompletionTransition{Changed: true}
	default:
		return CompletionTransition{}
	}
}

// DeriveState brings t's derived fields in line after a mutation.
// wasCompleted is the completion state before the mutation and
// subtasksReplaced reports whether the mutation supplied a new subtask list.
//
// Completing a todo forces progress to 100 whatever its subtasks say.
// Otherwise a replaced subtask list, even an empty one, recomputes progress,
// and reopening recomputes it from the current subtasks. When none of that
// applies the stored progress is left as is so a direct override survives.
func DeriveState(t *Todo, wasCompleted, subtasksReplaced bool, now time.Time) {
	tr := ApplyCompletionTransition(wasCompleted, t.Completed, now)
	if tr.Changed {
		t.CompletedAt = tr.CompletedAt
	}

	switch {
	case tr.ProgressOverride != nil:
		t.Progress = *tr.ProgressOverride
	case subtasksReplaced, tr.Changed:
		t.Progress = ComputeProgress(t.Subtasks, t.Completed)
	}
}

// IsOverdue reports whether t is incomplete with a due date before now.
func IsOverdue(t *Todo, now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(now)
}

// StartOfDay returns midnight UTC of the day containing now.
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
