package service

import (
	"context"
	"log/slog"

	"github.com/todosync/todosync-server/internal/domain"
	"github.com/todosync/todosync-server/internal/search"
	"github.com/todosync/todosync-server/internal/store"
)

// TodoSearcher runs ranked queries. Implemented by *search.Index.
type TodoSearcher interface {
	Search(ctx context.Context, params search.Params) (*search.Result, error)
}

// SearchService bridges the search index with the store: the index ranks,
// the store supplies the current state of each hit.
type SearchService struct {
	index  TodoSearcher
	store  store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index TodoSearcher, store store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  store,
		logger: logger,
	}
}

// SearchResults are ranked todos.
type SearchResults struct {
	Query string         `json:"query"`
	Total uint64         `json:"total"`
	Items []*domain.Todo `json:"items"`
}

// SearchTodos returns the owner's todos matching q in rank order. Hits
// whose todo no longer exists are dropped.
func (s *SearchService) SearchTodos(ctx context.Context, params search.Params) (*SearchResults, error) {
	res, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	out := &SearchResults{Query: res.Query, Total: res.Total, Items: []*domain.Todo{}}
	if len(res.Hits) == 0 {
		return out, nil
	}

	ids := make([]string, len(res.Hits))
	for i, h := range res.Hits {
		ids[i] = h.ID
	}
	todos, err := s.store.GetTodos(ctx, params.OwnerID, ids)
	if err != nil {
		return nil, storeError(err, msgTodoNotFound)
	}

	byID := make(map[string]*domain.Todo, len(todos))
	for _, t := range todos {
		byID[t.ID] = t
	}
	for _, h := range res.Hits {
		if t, ok := byID[h.ID]; ok {
			out.Items = append(out.Items, t)
		} else {
			s.logger.Debug("dropping stale search hit", "todo_id", h.ID)
		}
	}
	return out, nil
}

// Reindexer accepts full reindex batches. Implemented by *search.Index.
type Reindexer interface {
	IndexTodos(ctx context.Context, todos []*domain.Todo) error
}

// ReindexOwner pushes every todo of ownerID into idx. Returns the number
// indexed.
func (s *SearchService) ReindexOwner(ctx context.Context, idx Reindexer, ownerID string) (int, error) {
	q := store.TodoQuery{
		Filter:    store.TodoFilter{OwnerID: ownerID},
		SortBy:    store.SortCreatedAt,
		SortOrder: store.SortAsc,
		Page:      1,
		Limit:     store.MaxLimit,
	}

	total := 0
	for {
		page, err := s.store.ListTodos(ctx, q)
		if err != nil {
			return total, storeError(err, msgTodoNotFound)
		}
		if err := idx.IndexTodos(ctx, page.Items); err != nil {
			return total, err
		}
		total += len(page.Items)
		if !page.Pagination.HasNext {
			break
		}
		q.Page++
	}

	s.logger.Info("search index rebuilt for owner", "owner_id", ownerID, "count", total)
	return total, nil
}

// ReindexAll rebuilds idx for every owner that has todos. Returns the
// number of todos indexed.
func (s *SearchService) ReindexAll(ctx context.Context, idx Reindexer) (int, error) {
	owners, err := s.store.OwnerIDs(ctx)
	if err != nil {
		return 0, storeError(err, msgTodoNotFound)
	}

	total := 0
	for _, ownerID := range owners {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.ReindexOwner(ctx, idx, ownerID)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
