// Package store defines the persistence contract for todos and categories.
package store

import (
	"context"
	"time"

	"github.com/todosync/todosync-server/internal/domain"
)

// Store is the Entity Store. Every read and write is scoped by owner; a row
// owned by someone else behaves exactly like a missing row. Implementations
// must be safe for concurrent use.
type Store interface {
	Close() error
	Ping(ctx context.Context) error
	SetSearchIndexer(indexer SearchIndexer)

	// Categories
	CreateCategory(ctx context.Context, cat *domain.Category) error
	// CreateCategories inserts all categories or none.
	CreateCategories(ctx context.Context, cats []*domain.Category) error
	GetCategory(ctx context.Context, ownerID, id string) (*domain.Category, error)
	ListCategories(ctx context.Context, ownerID string) ([]*domain.CategorySummary, error)
	UpdateCategory(ctx context.Context, cat *domain.Category) error
	// DeleteCategory returns ErrReferenced while any todo still points at it.
	DeleteCategory(ctx context.Context, ownerID, id string) error
	HasDefaultCategory(ctx context.Context, ownerID string) (bool, error)
	CountTodosInCategory(ctx context.Context, ownerID, categoryID string) (int, error)

	// Todos
	// CreateTodo inserts todo. With appendLast the position is set to one
	// past the owner's highest position (0 for the first todo) inside the
	// same transaction.
	CreateTodo(ctx context.Context, todo *domain.Todo, appendLast bool) error
	GetTodo(ctx context.Context, ownerID, id string) (*domain.Todo, error)
	// GetTodos returns the owner's todos among ids, silently skipping the rest.
	GetTodos(ctx context.Context, ownerID string, ids []string) ([]*domain.Todo, error)
	ListTodos(ctx context.Context, q TodoQuery) (*TodoPage, error)
	CountTodos(ctx context.Context, f TodoFilter) (int, error)
	UpdateTodo(ctx context.Context, todo *domain.Todo) error
	// UpdateTodos persists every todo or none.
	UpdateTodos(ctx context.Context, todos []*domain.Todo) error
	DeleteTodo(ctx context.Context, ownerID, id string) error
	// ReorderTodos sets position = index for each of the owner's ids in one
	// transaction and returns the ids that were updated.
	ReorderTodos(ctx context.Context, ownerID string, ids []string, now time.Time) ([]string, error)
	TodoCounts(ctx context.Context, ownerID string, now time.Time) (*TodoCounts, error)

	// OwnerIDs lists every owner with at least one todo (maintenance only).
	OwnerIDs(ctx context.Context) ([]string, error)
}

// TodoCounts are the raw aggregates behind statistics, read in one
// transaction against a single "now".
type TodoCounts struct {
	Total       int
	Completed   int
	Overdue     int
	DueToday    int
	DueThisWeek int
	ByPriority  map[domain.Priority]int
	ByCategory  []domain.CategoryCount
}

// SearchIndexer keeps a secondary search index in step with committed todo
// writes. Failures are logged by the store and never fail the write.
type SearchIndexer interface {
	IndexTodo(ctx context.Context, todo *domain.Todo) error
	DeleteTodo(ctx context.Context, todoID string) error
}

// NoopSearchIndexer is used when search is disabled and in tests.
type NoopSearchIndexer struct{}

func (NoopSearchIndexer) IndexTodo(context.Context, *domain.Todo) error { return nil }
func (NoopSearchIndexer) DeleteTodo(context.Context, string) error      { return nil }

// NewNoopSearchIndexer creates a no-op search indexer.
func NewNoopSearchIndexer() SearchIndexer { return NoopSearchIndexer{} }
