package domain

import (
	"strings"
	"time"
)

// Priority ranks how urgent a todo is.
type Priority string

// Priority levels, lowest first.
const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists every priority in rank order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities: low=1 .. critical=4, unknown=0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityCritical:
		return 4
	default:
		return 0
	}
}

// Subtask is an ordered checklist item inside a todo.
type Subtask struct {
	Title     string    `json:"title" validate:"required,max=100"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// Attachment is stored metadata about an uploaded file. Content lives elsewhere.
type Attachment struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name,omitempty"`
	MimeType     string    `json:"mime_type,omitempty"`
	Size         int64     `json:"size" validate:"gte=0"`
	URL          string    `json:"url,omitempty"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// CategoryRef is the category projection embedded in returned todos.
type CategoryRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Todo is a user-owned task.
type Todo struct {
	ID            string       `json:"id"`
	OwnerID       string       `json:"owner_id" validate:"required"`
	Title         string       `json:"title" validate:"required,max=100"`
	Description   string       `json:"description,omitempty" validate:"max=500"`
	Completed     bool         `json:"completed"`
	Priority      Priority     `json:"priority" validate:"oneof=low medium high critical"`
	CategoryID    string       `json:"category_id,omitempty"`
	Category      *CategoryRef `json:"category,omitempty" validate:"-"`
	Tags          []string     `json:"tags" validate:"dive,max=20"`
	DueDate       *time.Time   `json:"due_date,omitempty"`
	ReminderDate  *time.Time   `json:"reminder_date,omitempty"`
	Position      int          `json:"position"`
	Subtasks      []Subtask    `json:"subtasks" validate:"dive"`
	Attachments   []Attachment `json:"attachments" validate:"dive"`
	Progress      int          `json:"progress" validate:"gte=0,lte=100"`
	EstimatedTime *int         `json:"estimated_time,omitempty" validate:"omitempty,gte=0"`
	ActualTime    *int         `json:"actual_time,omitempty" validate:"omitempty,gte=0"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`

	// IsOverdue is computed at read time and never stored.
	IsOverdue bool `json:"is_overdue"`
}

// Touch updates the UpdatedAt timestamp.
func (t *Todo) Touch(now time.Time) {
	t.UpdatedAt = now
}

// Normalize trims free-text fields and drops blank tags.
func (t *Todo) Normalize() {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	t.Tags = NormalizeTags(t.Tags)
	for i := range t.Subtasks {
		t.Subtasks[i].Title = strings.TrimSpace(t.Subtasks[i].Title)
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Subtasks == nil {
		t.Subtasks = []Subtask{}
	}
	if t.Attachments == nil {
		t.Attachments = []Attachment{}
	}
}

// NormalizeTags trims each tag and removes empty ones, preserving order.
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// TodoInput holds the caller-settable fields of a new todo.
type TodoInput struct {
	Title         string
	Description   string
	Completed     bool
	Priority      Priority
	CategoryID    string
	Tags          []string
	DueDate       *time.Time
	ReminderDate  *time.Time
	Position      *int
	Subtasks      []Subtask
	Attachments   []Attachment
	Progress      *int
	EstimatedTime *int
	ActualTime    *int
}

// TodoPatch holds a partial todo update. Nil fields are left untouched.
//
// An empty CategoryID clears the category. A zero DueDate or ReminderDate
// clears that date.
type TodoPatch struct {
	Title         *string
	Description   *string
	Completed     *bool
	Priority      *Priority
	CategoryID    *string
	Tags          *[]string
	DueDate       *time.Time
	ReminderDate  *time.Time
	Position      *int
	Subtasks      *[]Subtask
	Attachments   *[]Attachment
	Progress      *int
	EstimatedTime *int
	ActualTime    *int
}

// IsEmpty reports whether the patch changes nothing.
func (p TodoPatch) IsEmpty() bool {
	return p == TodoPatch{}
}

// Apply copies every set field of p onto t. Derived fields are not touched;
// callers run DeriveState afterwards.
func (p TodoPatch) Apply(t *Todo) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
		t.Category = nil
	}
	if p.Tags != nil {
		t.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.DueDate != nil {
		t.DueDate = optionalTime(*p.DueDate)
	}
	if p.ReminderDate != nil {
		t.ReminderDate = optionalTime(*p.ReminderDate)
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
	if p.Subtasks != nil {
		t.Subtasks = append([]Subtask{}, (*p.Subtasks)...)
	}
	if p.Attachments != nil {
		t.Attachments = append([]Attachment{}, (*p.Attachments)...)
	}
	if p.Progress != nil {
		t.Progress = *p.Progress
	}
	if p.EstimatedTime != nil {
		v := *p.EstimatedTime
		t.EstimatedTime = &v
	}
	if p.ActualTime != nil {
		v := *p.ActualTime
		t.ActualTime = &v
	}
}

func optionalTime(v time.Time) *time.Time {
	if v.IsZero() {
		return nil
	}
	v = v.UTC()
	return &v
}
