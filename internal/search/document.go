// Package search keeps a Bleve full-text index of todos for ranked,
// owner-scoped search with fuzzy and prefix matching.
package search

import (
	"time"

	"github.com/todosync/todosync-server/internal/domain"
)

// TodoDocument is the indexed form of a todo.
//
// The category name is denormalized so a search for "work" finds todos
// filed under Work even when the word is not in the title.
type TodoDocument struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	CategoryName string    `json:"category_name,omitempty"`
	Priority     string    `json:"priority"`
	Completed    bool      `json:"completed"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *TodoDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"owner_id":   d.OwnerID,
		"title":      d.Title,
		"priority":   d.Priority,
		"completed":  d.Completed,
		"created_at": d.CreatedAt,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if d.CategoryName != "" {
		m["category_name"] = d.CategoryName
	}
	return m
}

// TodoToDocument builds the index document for t.
func TodoToDocument(t *domain.Todo) *TodoDocument {
	doc := &TodoDocument{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Title:       t.Title,
		Description: t.Description,
		Tags:        t.Tags,
		Priority:    string(t.Priority),
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
	}
	if t.Category != nil {
		doc.CategoryName = t.Category.Name
	}
	return doc
}
