package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"golang.org/x/text/cases"

	"github.com/todosync/todosync-server/internal/domain"
	"github.com/todosync/todosync-server/internal/store"
)

// todoColumns must match the db tags of todoRow.
var todoColumns = []string{
	"t.id", "t.owner_id", "t.title", "t.description", "t.completed", "t.priority",
	"t.category_id", "t.tags", "t.due_date", "t.reminder_date", "t.position",
	"t.subtasks", "t.attachments", "t.progress", "t.estimated_time", "t.actual_time",
	"t.created_at", "t.updated_at", "t.completed_at",
	"c.name AS category_name", "c.color AS category_color", "c.icon AS category_icon",
}

type todoRow struct {
	ID            string         `db:"id"`
	OwnerID       string         `db:"owner_id"`
	Title         string         `db:"title"`
	Description   string         `db:"description"`
	Completed     bool           `db:"completed"`
	Priority      string         `db:"priority"`
	CategoryID    sql.NullString `db:"category_id"`
	Tags          string         `db:"tags"`
	DueDate       sql.NullString `db:"due_date"`
	ReminderDate  sql.NullString `db:"reminder_date"`
	Position      int            `db:"position"`
	Subtasks      string         `db:"subtasks"`
	Attachments   string         `db:"attachments"`
	Progress      int            `db:"progress"`
	EstimatedTime sql.NullInt64  `db:"estimated_time"`
	ActualTime    sql.NullInt64  `db:"actual_time"`
	CreatedAt     string         `db:"created_at"`
	UpdatedAt     string         `db:"updated_at"`
	CompletedAt   sql.NullString `db:"completed_at"`
	CategoryName  sql.NullString `db:"category_name"`
	CategoryColor sql.NullString `db:"category_color"`
	CategoryIcon  sql.NullString `db:"category_icon"`
}

func (r *todoRow) toDomain() (*domain.Todo, error) {
	t := &domain.Todo{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		Title:         r.Title,
		Description:   r.Description,
		Completed:     r.Completed,
		Priority:      domain.Priority(r.Priority),
		Position:      r.Position,
		Progress:      r.Progress,
		EstimatedTime: intPtr(r.EstimatedTime),
		ActualTime:    intPtr(r.ActualTime),
	}

	if r.CategoryID.Valid {
		t.CategoryID = r.CategoryID.String
		if r.CategoryName.Valid {
			t.Category = &domain.CategoryRef{
				ID:    r.CategoryID.String,
				Name:  r.CategoryName.String,
				Color: r.CategoryColor.String,
				Icon:  r.CategoryIcon.String,
			}
		}
	}

	if err := json.Unmarshal([]byte(r.Tags), &t.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(r.Subtasks), &t.Subtasks); err != nil {
		return nil, fmt.Errorf("decode subtasks: %w", err)
	}
	if err := json.Unmarshal([]byte(r.Attachments), &t.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}

	var err error
	if t.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if t.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if t.DueDate, err = parseNullableTime(r.DueDate); err != nil {
		return nil, fmt.Errorf("parse due_date: %w", err)
	}
	if t.ReminderDate, err = parseNullableTime(r.ReminderDate); err != nil {
		return nil, fmt.Errorf("parse reminder_date: %w", err)
	}
	if t.CompletedAt, err = parseNullableTime(r.CompletedAt); err != nil {
		return nil, fmt.Errorf("parse completed_at: %w", err)
	}
	return t, nil
}

func rowsToTodos(rows []todoRow) ([]*domain.Todo, error) {
	out := make([]*domain.Todo, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// foldText is the case-insensitive form used by the search columns.
func foldText(s string) string {
	return cases.Fold().String(s)
}

// todoValues maps the stored columns of t. id and owner_id are included;
// updates drop them.
func todoValues(t *domain.Todo) (map[string]any, error) {
	tags, err := json.Marshal(nonNil(t.Tags))
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	subtasks, err := json.Marshal(nonNil(t.Subtasks))
	if err != nil {
		return nil, fmt.Errorf("encode subtasks: %w", err)
	}
	attachments, err := json.Marshal(nonNil(t.Attachments))
	if err != nil {
		return nil, fmt.Errorf("encode attachments: %w", err)
	}

	return map[string]any{
		"id":               t.ID,
		"owner_id":         t.OwnerID,
		"title":            t.Title,
		"title_fold":       foldText(t.Title),
		"description":      t.Description,
		"description_fold": foldText(t.Description),
		"completed":        boolInt(t.Completed),
		"priority":         string(t.Priority),
		"category_id":      nullString(t.CategoryID),
		"tags":             string(tags),
		"due_date":         nullTimeString(t.DueDate),
		"reminder_date":    nullTimeString(t.ReminderDate),
		"position":         t.Position,
		"subtasks":         string(subtasks),
		"attachments":      string(attachments),
		"progress":         t.Progress,
		"estimated_time":   nullInt(t.EstimatedTime),
		"actual_time":      nullInt(t.ActualTime),
		"created_at":       formatTime(t.CreatedAt),
		"updated_at":       formatTime(t.UpdatedAt),
		"completed_at":     nullTimeString(t.CompletedAt),
	}, nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// CreateTodo inserts todo and its tag rows in one transaction.
func (s *Store) CreateTodo(ctx context.Context, todo *domain.Todo, appendLast bool) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if appendLast {
			pos, err := s.nextPosition(ctx, tx, todo.OwnerID)
			if err != nil {
				return err
			}
			todo.Position = pos
		}

		values, err := todoValues(todo)
		if err != nil {
			return err
		}
		query, args, err := s.sb.Insert("todos").SetMap(values).ToSql()
		if err != nil {
			return fmt.Errorf("build insert todo: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return translate(err)
		}
		return s.replaceTags(ctx, tx, todo.ID, todo.Tags, false)
	})
	if err != nil {
		return err
	}

	s.index(ctx, todo)
	return nil
}

// nextPosition is one past the owner's highest position, or 0 with no todos.
func (s *Store) nextPosition(ctx context.Context, tx *sqlx.Tx, ownerID string) (int, error) {
	query, args, err := s.sb.Select("COALESCE(MAX(position) + 1, 0)").
		From("todos").
		Where(squirrel.Eq{"owner_id": ownerID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build next position: %w", err)
	}
	var pos int
	if err := tx.GetContext(ctx, &pos, query, args...); err != nil {
		return 0, translate(err)
	}
	return pos, nil
}

// replaceTags rewrites the todo_tags rows for todoID.
func (s *Store) replaceTags(ctx context.Context, tx *sqlx.Tx, todoID string, tags []string, existing bool) error {
	if existing {
		query, args, err := s.sb.Delete("todo_tags").Where(squirrel.Eq{"todo_id": todoID}).ToSql()
		if err != nil {
			return fmt.Errorf("build delete tags: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return translate(err)
		}
	}

	seen := make(map[string]bool, len(tags))
	insert := s.sb.Insert("todo_tags").Columns("todo_id", "tag")
	n := 0
	for _, tag := range tags {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		insert = insert.Values(todoID, tag)
		n++
	}
	if n == 0 {
		return nil
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return translate(err)
	}
	return nil
}

// GetTodo returns the owner's todo with its category projection.
func (s *Store) GetTodo(ctx context.Context, ownerID, id string) (*domain.Todo, error) {
	query, args, err := s.todoSelect().
		Where(squirrel.Eq{"t.id": id, "t.owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get todo: %w", err)
	}

	var row todoRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, translate(err)
	}
	return row.toDomain()
}

// GetTodos returns the owner's todos among ids in position order.
func (s *Store) GetTodos(ctx context.Context, ownerID string, ids []string) ([]*domain.Todo, error) {
	if len(ids) == 0 {
		return []*domain.Todo{}, nil
	}
	query, args, err := s.todoSelect().
		Where(squirrel.Eq{"t.owner_id": ownerID, "t.id": ids}).
		OrderBy("t.position ASC", "t.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get todos: %w", err)
	}

	var rows []todoRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, translate(err)
	}
	return rowsToTodos(rows)
}

// ListTodos returns one page of todos matching q together with the total
// number of matches.
func (s *Store) ListTodos(ctx context.Context, q store.TodoQuery) (*store.TodoPage, error) {
	q.Normalize()

	query, args, err := s.todoSelect().
		Where(todoPredicate(q.Filter)).
		OrderBy(todoOrder(q.SortBy, q.SortOrder)...).
		Limit(uint64(q.Limit)).
		Offset(uint64(q.Offset())).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list todos: %w", err)
	}

	var rows []todoRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, translate(err)
	}
	items, err := rowsToTodos(rows)
	if err != nil {
		return nil, err
	}

	total, err := s.CountTodos(ctx, q.Filter)
	if err != nil {
		return nil, err
	}

	return &store.TodoPage{
		Items:      items,
		Pagination: store.NewPagination(q.Page, q.Limit, len(items), total),
	}, nil
}

// CountTodos counts todos matching f.
func (s *Store) CountTodos(ctx context.Context, f store.TodoFilter) (int, error) {
	query, args, err := s.sb.Select("COUNT(*)").
		From("todos t").
		Where(todoPredicate(f)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count todos: %w", err)
	}
	var n int
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, translate(err)
	}
	return n, nil
}

// OwnerIDs lists every owner that has at least one todo. Used only by
// maintenance jobs such as a full search reindex.
func (s *Store) OwnerIDs(ctx context.Context) ([]string, error) {
	query, args, err := s.sb.Select("DISTINCT owner_id").
		From("todos").
		OrderBy("owner_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build owner ids: %w", err)
	}
	owners := []string{}
	if err := s.db.SelectContext(ctx, &owners, query, args...); err != nil {
		return nil, translate(err)
	}
	return owners, nil
}

// UpdateTodo replaces the stored state of the owner's todo.
func (s *Store) UpdateTodo(ctx context.Context, todo *domain.Todo) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		return s.updateTodo(ctx, tx, todo)
	})
	if err != nil {
		return err
	}
	s.index(ctx, todo)
	return nil
}

// UpdateTodos replaces every todo in one transaction.
func (s *Store) UpdateTodos(ctx context.Context, todos []*domain.Todo) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, todo := range todos {
			if err := s.updateTodo(ctx, tx, todo); err != nil {
				return fmt.Errorf("update todo %s: %w", todo.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, todo := range todos {
		s.index(ctx, todo)
	}
	return nil
}

func (s *Store) updateTodo(ctx context.Context, tx *sqlx.Tx, todo *domain.Todo) error {
	values, err := todoValues(todo)
	if err != nil {
		return err
	}
	delete(values, "id")
	delete(values, "owner_id")
	delete(values, "created_at")

	query, args, err := s.sb.Update("todos").
		SetMap(values).
		Where(squirrel.Eq{"id": todo.ID, "owner_id": todo.OwnerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update todo: %w", err)
	}
	if err := s.execAffectingOne(ctx, tx, query, args); err != nil {
		return err
	}
	return s.replaceTags(ctx, tx, todo.ID, todo.Tags, true)
}

// DeleteTodo removes the owner's todo. Tag rows cascade.
func (s *Store) DeleteTodo(ctx context.Context, ownerID, id string) error {
	query, args, err := s.sb.Delete("todos").
		Where(squirrel.Eq{"id": id, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete todo: %w", err)
	}
	if err := s.execAffectingOne(ctx, s.db, query, args); err != nil {
		return err
	}

	if err := s.searchIndexer.DeleteTodo(ctx, id); err != nil {
		s.logger.Warn("failed to remove todo from search index", "todo_id", id, "error", err)
	}
	return nil
}

// ReorderTodos assigns position = index to each id the owner owns.
func (s *Store) ReorderTodos(ctx context.Context, ownerID string, ids []string, now time.Time) ([]string, error) {
	applied := make([]string, 0, len(ids))
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		applied = applied[:0]
		for i, todoID := range ids {
			query, args, err := s.sb.Update("todos").
				Set("position", i).
				Set("updated_at", formatTime(now)).
				Where(squirrel.Eq{"id": todoID, "owner_id": ownerID}).
				ToSql()
			if err != nil {
				return fmt.Errorf("build reorder todo: %w", err)
			}
			err = s.execAffectingOne(ctx, tx, query, args)
			switch {
			case err == nil:
				applied = append(applied, todoID)
			case errors.Is(err, store.ErrNotFound):
				// Not the owner's todo.
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// index pushes a committed todo into the search index. Failures are logged.
func (s *Store) index(ctx context.Context, todo *domain.Todo) {
	if err := s.searchIndexer.IndexTodo(ctx, todo); err != nil {
		s.logger.Warn("failed to index todo", "todo_id", todo.ID, "error", err)
	}
}
