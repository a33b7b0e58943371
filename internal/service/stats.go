package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/todosync/todosync-server/internal/domain"
	"github.com/todosync/todosync-server/internal/store"
)

// StatsService is the Statistics Aggregator.
type StatsService struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewStatsService creates a new stats service.
func NewStatsService(store store.Store, logger *slog.Logger) *StatsService {
	return &StatsService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// GetTodoStats summarizes the owner's todos. Every window is measured
// against one captured now.
func (s *StatsService) GetTodoStats(ctx context.Context, ownerID string) (*domain.TodoStats, error) {
	now := s.now().UTC()

	counts, err := s.store.TodoCounts(ctx, ownerID, now)
	if err != nil {
		return nil, storeError(err, msgTodoNotFound)
	}

	stats := &domain.TodoStats{
		Total:          counts.Total,
		Completed:      counts.Completed,
		Pending:        counts.Total - counts.Completed,
		Overdue:        counts.Overdue,
		DueToday:       counts.DueToday,
		DueThisWeek:    counts.DueThisWeek,
		CompletionRate: domain.CompletionRate(counts.Completed, counts.Total),
		ByPriority:     make([]domain.PriorityCount, 0, len(domain.Priorities)),
		ByCategory:     counts.ByCategory,
	}
	for _, p := range domain.Priorities {
		if n := counts.ByPriority[p]; n > 0 {
			stats.ByPriority = append(stats.ByPriority, domain.PriorityCount{Priority: p, Count: n})
		}
	}
	if stats.ByCategory == nil {
		stats.ByCategory = []domain.CategoryCount{}
	}

	s.logger.Debug("todo stats computed",
		"owner_id", ownerID,
		"total", stats.Total,
		"completion_rate", stats.CompletionRate,
	)
	return stats, nil
}
