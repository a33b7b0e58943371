package sqlstore

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/todosync/todosync-server/internal/domain"
	"github.com/todosync/todosync-server/internal/store"
)

var categoryColumns = []string{
	"c.id", "c.owner_id", "c.name", "c.color", "c.icon", "c.description",
	"c.is_default", "c.created_at", "c.updated_at",
}

type categoryRow struct {
	ID          string `db:"id"`
	OwnerID     string `db:"owner_id"`
	Name        string `db:"name"`
	Color       string `db:"color"`
	Icon        string `db:"icon"`
	Description string `db:"description"`
	IsDefault   bool   `db:"is_default"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
	TodoCount   int    `db:"todo_count"`
}

func (r *categoryRow) toDomain() (*domain.Category, error) {
	cat := &domain.Category{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Name:        r.Name,
		Color:       r.Color,
		Icon:        r.Icon,
		Description: r.Description,
		IsDefault:   r.IsDefault,
	}
	var err error
	if cat.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, fmt.Errorf("parse category created_at: %w", err)
	}
	if cat.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("parse category updated_at: %w", err)
	}
	return cat, nil
}

func categoryValues(cat *domain.Category) map[string]any {
	return map[string]any{
		"id":          cat.ID,
		"owner_id":    cat.OwnerID,
		"name":        cat.Name,
		"color":       cat.Color,
		"icon":        cat.Icon,
		"description": cat.Description,
		"is_default":  boolInt(cat.IsDefault),
		"created_at":  formatTime(cat.CreatedAt),
		"updated_at":  formatTime(cat.UpdatedAt),
	}
}

func (s *Store) insertCategory(ctx context.Context, ext sqlx.ExtContext, cat *domain.Category) error {
	query, args, err := s.sb.Insert("categories").SetMap(categoryValues(cat)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert category: %w", err)
	}
	if _, err := ext.ExecContext(ctx, query, args...); err != nil {
		return translate(err)
	}
	return nil
}

// CreateCategory inserts a category. Returns store.ErrAlreadyExists when the
// owner already has a category with that name, or already has a default.
func (s *Store) CreateCategory(ctx context.Context, cat *domain.Category) error {
	return s.insertCategory(ctx, s.db, cat)
}

// CreateCategories inserts every category in one transaction.
func (s *Store) CreateCategories(ctx context.Context, cats []*domain.Category) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, cat := range cats {
			if err := s.insertCategory(ctx, tx, cat); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetCategory returns the owner's category or store.ErrNotFound.
func (s *Store) GetCategory(ctx context.Context, ownerID, id string) (*domain.Category, error) {
	query, args, err := s.sb.Select(categoryColumns...).
		From("categories c").
		Where(squirrel.Eq{"c.id": id, "c.owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get category: %w", err)
	}

	var row categoryRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, translate(err)
	}
	return row.toDomain()
}

// ListCategories returns the owner's categories with their todo counts,
// default first and then oldest first.
func (s *Store) ListCategories(ctx context.Context, ownerID string) ([]*domain.CategorySummary, error) {
	columns := append(append([]string{}, categoryColumns...),
		"(SELECT COUNT(*) FROM todos t WHERE t.category_id = c.id AND t.owner_id = c.owner_id) AS todo_count")

	query, args, err := s.sb.Select(columns...).
		From("categories c").
		Where(squirrel.Eq{"c.owner_id": ownerID}).
		OrderBy("c.is_default DESC", "c.created_at ASC", "c.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list categories: %w", err)
	}

	var rows []categoryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, translate(err)
	}

	out := make([]*domain.CategorySummary, 0, len(rows))
	for i := range rows {
		cat, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, &domain.CategorySummary{Category: *cat, TodoCount: rows[i].TodoCount})
	}
	return out, nil
}

// UpdateCategory writes the mutable fields of cat. Owner, default flag and
// creation time never change.
func (s *Store) UpdateCategory(ctx context.Context, cat *domain.Category) error {
	query, args, err := s.sb.Update("categories").
		SetMap(map[string]any{
			"name":        cat.Name,
			"color":       cat.Color,
			"icon":        cat.Icon,
			"description": cat.Description,
			"updated_at":  formatTime(cat.UpdatedAt),
		}).
		Where(squirrel.Eq{"id": cat.ID, "owner_id": cat.OwnerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update category: %w", err)
	}
	return s.execAffectingOne(ctx, s.db, query, args)
}

// DeleteCategory removes the owner's category. The todos foreign key is
// ON DELETE RESTRICT, so a category still in use yields store.ErrReferenced
// and nothing is deleted.
func (s *Store) DeleteCategory(ctx context.Context, ownerID, id string) error {
	query, args, err := s.sb.Delete("categories").
		Where(squirrel.Eq{"id": id, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete category: %w", err)
	}
	return s.execAffectingOne(ctx, s.db, query, args)
}

// HasDefaultCategory reports whether the owner already has a default category.
func (s *Store) HasDefaultCategory(ctx context.Context, ownerID string) (bool, error) {
	query, args, err := s.sb.Select("COUNT(*)").
		From("categories").
		Where(squirrel.Eq{"owner_id": ownerID, "is_default": 1}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build has default category: %w", err)
	}
	var n int
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

// CountTodosInCategory counts the owner's todos filed under categoryID.
func (s *Store) CountTodosInCategory(ctx context.Context, ownerID, categoryID string) (int, error) {
	return s.CountTodos(ctx, store.TodoFilter{OwnerID: ownerID, CategoryID: categoryID})
}

// execAffectingOne runs a write and returns store.ErrNotFound when no row matched.
func (s *Store) execAffectingOne(ctx context.Context, ext sqlx.ExecerContext, query string, args []any) error {
	res, err := ext.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
