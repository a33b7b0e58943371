package store

import (
	"strings"
	"time"

	"github.com/todosync/todosync-server/internal/domain"
)

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 1000
)

// Status filters todos by completion.
type Status string

// Status values.
const (
	StatusAny       Status = ""
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
)

// SortField is a whitelisted todo ordering key.
type SortField string

// Sort fields.
const (
	SortCreatedAt   SortField = "created_at"
	SortUpdatedAt   SortField = "updated_at"
	SortDueDate     SortField = "due_date"
	SortCompletedAt SortField = "completed_at"
	SortPriority    SortField = "priority"
	SortTitle       SortField = "title"
	SortPosition    SortField = "position"
)

var sortFieldAliases = map[string]SortField{
	"created_at":   SortCreatedAt,
	"createdat":    SortCreatedAt,
	"updated_at":   SortUpdatedAt,
	"updatedat":    SortUpdatedAt,
	"due_date":     SortDueDate,
	"duedate":      SortDueDate,
	"completed_at": SortCompletedAt,
	"completedat":  SortCompletedAt,
	"priority":     SortPriority,
	"title":        SortTitle,
	"position":     SortPosition,
}

// ParseSortField accepts snake_case or camelCase names. Unknown names fall
// back to created_at.
func ParseSortField(s string) SortField {
	if f, ok := sortFieldAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f
	}
	return SortCreatedAt
}

// SortOrder is ascending or descending.
type SortOrder string

// Sort orders.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder defaults to descending for anything but "asc".
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), string(SortAsc)) {
		return SortAsc
	}
	return SortDesc
}

// TodoFilter is the typed predicate over one owner's todos. Zero fields do
// not constrain. Tags match any-of; everything else is combined with AND.
type TodoFilter struct {
	OwnerID    string
	Status     Status
	Priority   domain.Priority
	CategoryID string
	Tags       []string
	Search     string

	// Due date window, used by statistics. DueFrom is inclusive, DueBefore exclusive.
	DueFrom   *time.Time
	DueBefore *time.Time
}

// TodoQuery is a filter with ordering and a page window.
type TodoQuery struct {
	Filter    TodoFilter
	SortBy    SortField
	SortOrder SortOrder
	Page      int
	Limit     int
}

// Normalize applies defaults and clamps page and limit to at least 1.
func (q *TodoQuery) Normalize() {
	if q.SortBy == "" {
		q.SortBy = SortCreatedAt
	}
	if q.SortOrder != SortAsc {
		q.SortOrder = SortDesc
	}
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	q.Filter.Search = strings.TrimSpace(q.Filter.Search)
	q.Filter.Tags = domain.NormalizeTags(q.Filter.Tags)
}

// Offset is the number of rows skipped before the page.
func (q TodoQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Pagination describes where a page sits in the full result.
type Pagination struct {
	Current    int  `json:"current"`
	Total      int  `json:"total"`
	Count      int  `json:"count"`
	TotalCount int  `json:"total_count"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewPagination computes page metadata. Total pages is ceil(totalCount/limit).
func NewPagination(page, limit, count, totalCount int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (totalCount + limit - 1) / limit
	}
	return Pagination{
		Current:    page,
		Total:      pages,
		Count:      count,
		TotalCount: totalCount,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}

// TodoPage is one page of todos.
type TodoPage struct {
	Items      []*domain.Todo `json:"items"`
	Pagination Pagination     `json:"pagination"`
}
