package sqlstore

import (
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/todosync/todosync-server/internal/store"
)

// todoSelect selects todos with their category projection.
func (s *Store) todoSelect() squirrel.SelectBuilder {
	return s.sb.Select(todoColumns...).
		From("todos t").
		LeftJoin("categories c ON c.id = t.category_id")
}

// todoPredicate compiles a filter into a WHERE clause over "todos t".
// The owner condition is always present.
func todoPredicate(f store.TodoFilter) squirrel.Sqlizer {
	where := squirrel.And{squirrel.Eq{"t.owner_id": f.OwnerID}}

	switch f.Status {
	case store.StatusCompleted:
		where = append(where, squirrel.Eq{"t.completed": 1})
	case store.StatusPending:
		where = append(where, squirrel.Eq{"t.completed": 0})
	}

	if f.Priority != "" {
		where = append(where, squirrel.Eq{"t.priority": string(f.Priority)})
	}
	if f.CategoryID != "" {
		where = append(where, squirrel.Eq{"t.category_id": f.CategoryID})
	}
	if len(f.Tags) > 0 {
		where = append(where, tagsAnyOf(f.Tags))
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(foldText(f.Search)) + "%"
		where = append(where, squirrel.Expr(
			`(t.title_fold LIKE ? ESCAPE '\' OR t.description_fold LIKE ? ESCAPE '\')`,
			pattern, pattern,
		))
	}
	if f.DueFrom != nil {
		where = append(where, squirrel.GtOrEq{"t.due_date": formatTime(*f.DueFrom)})
	}
	if f.DueBefore != nil {
		where = append(where, squirrel.Lt{"t.due_date": formatTime(*f.DueBefore)})
	}

	return where
}

// tagsAnyOf matches todos carrying at least one of tags.
func tagsAnyOf(tags []string) squirrel.Sqlizer {
	sub := squirrel.Select("1").
		From("todo_tags tt").
		Where("tt.todo_id = t.id").
		Where(squirrel.Eq{"tt.tag": tags})
	query, args, err := sub.ToSql()
	if err != nil {
		// Only reachable with an empty Eq, which callers exclude.
		return squirrel.Expr("1 = 0")
	}
	return squirrel.Expr("EXISTS ("+query+")", args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in user input match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

const priorityRankExpr = "CASE t.priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 WHEN 'critical' THEN 4 ELSE 0 END"

// todoOrder returns ORDER BY terms. Nullable dates sort last in either
// direction and id breaks ties so paging is deterministic.
func todoOrder(field store.SortField, order store.SortOrder) []string {
	dir := "DESC"
	if order == store.SortAsc {
		dir = "ASC"
	}

	var terms []string
	switch field {
	case store.SortDueDate, store.SortCompletedAt:
		col := "t." + string(field)
		terms = []string{col + " IS NULL", col + " " + dir}
	case store.SortUpdatedAt:
		terms = []string{"t.updated_at " + dir}
	case store.SortPriority:
		terms = []string{priorityRankExpr + " " + dir}
	case store.SortTitle:
		terms = []string{"t.title_fold " + dir}
	case store.SortPosition:
		terms = []string{"t.position " + dir}
	default:
		terms = []string{"t.created_at " + dir}
	}
	return append(terms, "t.id ASC")
}
