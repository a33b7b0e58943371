package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/todosync/todosync-server/internal/domain"
	"github.com/todosync/todosync-server/internal/store"
)

type scalarCounts struct {
	Total       int `db:"total"`
	Completed   int `db:"completed"`
	Overdue     int `db:"overdue"`
	DueToday    int `db:"due_today"`
	DueThisWeek int `db:"due_this_week"`
}

type priorityCountRow struct {
	Priority string `db:"priority"`
	Count    int    `db:"todo_count"`
}

type categoryCountRow struct {
	CategoryID sql.NullString `db:"category_id"`
	Name       sql.NullString `db:"name"`
	Color      sql.NullString `db:"color"`
	Count      int            `db:"todo_count"`
}

// TodoCounts reads every statistic for ownerID in one transaction.
//
// Overdue is due < now and not completed. Due today is the UTC calendar
// day containing now. Due this week runs from the start of today up to
// now + 7 days, exclusive.
func (s *Store) TodoCounts(ctx context.Context, ownerID string, now time.Time) (*store.TodoCounts, error) {
	startOfDay := domain.StartOfDay(now)
	nowStr := formatTime(now)
	todayStr := formatTime(startOfDay)
	tomorrowStr := formatTime(startOfDay.AddDate(0, 0, 1))
	weekEndStr := formatTime(now.Add(7 * 24 * time.Hour))

	scalar, scalarArgs, err := s.sb.Select(
		"COUNT(*) AS total",
		"COALESCE(SUM(CASE WHEN completed = 1 THEN 1 ELSE 0 END), 0) AS completed",
	).
		Column(squirrel.Expr("COALESCE(SUM(CASE WHEN completed = 0 AND due_date < ? THEN 1 ELSE 0 END), 0) AS overdue", nowStr)).
		Column(squirrel.Expr("COALESCE(SUM(CASE WHEN due_date >= ? AND due_date < ? THEN 1 ELSE 0 END), 0) AS due_today", todayStr, tomorrowStr)).
		Column(squirrel.Expr("COALESCE(SUM(CASE WHEN due_date >= ? AND due_date < ? THEN 1 ELSE 0 END), 0) AS due_this_week", todayStr, weekEndStr)).
		From("todos").
		Where(squirrel.Eq{"owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build todo counts: %w", err)
	}

	byPriority, byPriorityArgs, err := s.sb.Select("priority", "COUNT(*) AS todo_count").
		From("todos").
		Where(squirrel.Eq{"owner_id": ownerID}).
		GroupBy("priority").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build priority counts: %w", err)
	}

	byCategory, byCategoryArgs, err := s.sb.Select("t.category_id", "c.name", "c.color", "COUNT(*) AS todo_count").
		From("todos t").
		LeftJoin("categories c ON c.id = t.category_id").
		Where(squirrel.Eq{"t.owner_id": ownerID}).
		GroupBy("t.category_id", "c.name", "c.color").
		OrderBy("todo_count DESC", "c.name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category counts: %w", err)
	}

	counts := &store.TodoCounts{ByPriority: make(map[domain.Priority]int)}
	err = s.withReadTx(ctx, func(tx *sqlx.Tx) error {
		var sc scalarCounts
		if err := tx.GetContext(ctx, &sc, scalar, scalarArgs...); err != nil {
			return translate(err)
		}
		counts.Total = sc.Total
		counts.Completed = sc.Completed
		counts.Overdue = sc.Overdue
		counts.DueToday = sc.DueToday
		counts.DueThisWeek = sc.DueThisWeek

		var prows []priorityCountRow
		if err := tx.SelectContext(ctx, &prows, byPriority, byPriorityArgs...); err != nil {
			return translate(err)
		}
		for _, r := range prows {
			counts.ByPriority[domain.Priority(r.Priority)] = r.Count
		}

		var crows []categoryCountRow
		if err := tx.SelectContext(ctx, &crows, byCategory, byCategoryArgs...); err != nil {
			return translate(err)
		}
		counts.ByCategory = make([]domain.CategoryCount, 0, len(crows))
		for _, r := range crows {
			cc := domain.CategoryCount{Count: r.Count, Name: domain.UncategorizedName}
			if r.CategoryID.Valid {
				cc.CategoryID = r.CategoryID.String
				cc.Name = r.Name.String
				cc.Color = r.Color.String
			}
			counts.ByCategory = append(counts.ByCategory, cc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
