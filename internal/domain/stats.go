package domain

import "math"

// TodoStats is an owner-scoped summary of todo state.
type TodoStats struct {
	Total          int             `json:"total"`
	Completed      int             `json:"completed"`
	Pending        int             `json:"pending"`
	Overdue        int             `json:"overdue"`
	DueToday       int             `json:"due_today"`
	DueThisWeek    int             `json:"due_this_week"`
	CompletionRate int             `json:"completion_rate"`
	ByPriority     []PriorityCount `json:"by_priority"`
	ByCategory     []CategoryCount `json:"by_category"`
}

// PriorityCount is the number of todos with one priority.
type PriorityCount struct {
	Priority Priority `json:"priority"`
	Count    int      `json:"count"`
}

// CategoryCount is the number of todos in one category. Uncategorized todos
// are reported with an empty CategoryID.
type CategoryCount struct {
	CategoryID string `json:"category_id,omitempty"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	Count      int    `json:"count"`
}

// UncategorizedName labels the bucket for todos without a category.
const UncategorizedName = "Uncategorized"

// CompletionRate returns round(100*completed/total), or 0 when total is 0.
func CompletionRate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}
