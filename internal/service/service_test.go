package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/todosync/todosync-server/internal/domain"
	"github.com/todosync/todosync-server/internal/logger"
	"github.com/todosync/todosync-server/internal/store/sqlstore"
	"github.com/todosync/todosync-server/internal/validation"
)

var testNow = time.Date(2026, 4, 10, 15, 0, 0, 0, time.UTC)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
	owners []string
}

func (p *recordingPublisher) Publish(ownerID string, event domain.ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.owners = append(p.owners, ownerID)
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Events() []domain.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.ChangeEvent(nil), p.events...)
}

func (p *recordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
	p.owners = nil
}

type testEnv struct {
	store      *sqlstore.Store
	publisher  *recordingPublisher
	todos      *TodoService
	categories *CategoryService
	stats      *StatsService
	clock      *time.Time
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlstore.Open(sqlstore.Config{Path: filepath.Join(t.TempDir(), "test.db")}, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := testNow
	now := func() time.Time { return clock }

	v := validation.New()
	pub := &recordingPublisher{}

	env := &testEnv{
		store:      s,
		publisher:  pub,
		todos:      NewTodoService(s, pub, v, logger.Discard()),
		categories: NewCategoryService(s, v, logger.Discard()),
		stats:      NewStatsService(s, logger.Discard()),
		clock:      &clock,
	}
	env.todos.now = now
	env.categories.now = now
	env.stats.now = now
	return env
}

// advance moves the shared clock forward.
func (e *testEnv) advance(d time.Duration) {
	*e.clock = e.clock.Add(d)
}

func (e *testEnv) createTodo(t *testing.T, owner, title string) *domain.Todo {
	t.Helper()
	todo, err := e.todos.CreateTodo(context.Background(), owner, domain.TodoInput{Title: title})
	require.NoError(t, err)
	e.advance(time.Second)
	return todo
}

func ptr[T any](v T) *T {
	return &v
}
