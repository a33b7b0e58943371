package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todosync/todosync-server/internal/domain"
	"github.com/todosync/todosync-server/internal/logger"
)

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case e := <-c.EventChan:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case e := <-c.EventChan:
		t.Fatalf("unexpected event %q", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func startManager(t *testing.T, opts Options) *Manager {
	t.Helper()
	m := NewManager(opts, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)
	return m
}

func TestNewChangeEvent(t *testing.T) {
	tests := []struct {
		action domain.ChangeAction
		want   EventType
	}{
		{domain.ActionCreate, EventTodoCreated},
		{domain.ActionUpdate, EventTodoUpdated},
		{domain.ActionDelete, EventTodoDeleted},
		{domain.ActionReordered, EventTodosReordered},
		{domain.ChangeAction("archived"), EventType("todo.archived")},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			e := NewChangeEvent(domain.ChangeEvent{Action: tt.action, OwnerID: "user-1", Payload: 1})
			assert.Equal(t, tt.want, e.Type)
			assert.Equal(t, "user-1", e.UserID)
			assert.NotEmpty(t, e.ID)
			assert.Equal(t, 1, e.Data)
		})
	}
}

func TestManager_PublishReachesOnlyOwnerSessions(t *testing.T) {
	m := startManager(t, Options{HeartbeatInterval: time.Hour})

	phone, err := m.Connect("user-1")
	require.NoError(t, err)
	laptop, err := m.Connect("user-1")
	require.NoError(t, err)
	other, err := m.Connect("user-2")
	require.NoError(t, err)
	assert.Equal(t, 3, m.ClientCount())

	m.Publish("user-1", domain.ChangeEvent{
		Action:  domain.ActionDelete,
		Payload: domain.TodoDeleted{ID: "todo-1"},
	})

	for _, c := range []*Client{phone, laptop} {
		e := receive(t, c)
		assert.Equal(t, EventTodoDeleted, e.Type)
		assert.Equal(t, domain.TodoDeleted{ID: "todo-1"}, e.Data)
	}
	assertNothing(t, other)
}

func TestManager_HeartbeatGoesToEveryone(t *testing.T) {
	m := startManager(t, Options{HeartbeatInterval: 10 * time.Millisecond})

	a, err := m.Connect("user-1")
	require.NoError(t, err)
	b, err := m.Connect("user-2")
	require.NoError(t, err)

	assert.Equal(t, EventHeartbeat, receive(t, a).Type)
	assert.Equal(t, EventHeartbeat, receive(t, b).Type)
}

func TestManager_SlowClientDropsInsteadOfBlocking(t *testing.T) {
	m := NewManager(Options{ClientBuffer: 1}, logger.Discard())

	c, err := m.Connect("user-1")
	require.NoError(t, err)

	m.broadcast(NewChangeEvent(domain.ChangeEvent{Action: domain.ActionCreate, OwnerID: "user-1"}))
	m.broadcast(NewChangeEvent(domain.ChangeEvent{Action: domain.ActionUpdate, OwnerID: "user-1"}))

	assert.Len(t, c.EventChan, 1)
	assert.Equal(t, EventTodoCreated, (<-c.EventChan).Type)
}

func TestManager_EmitNeverBlocks(t *testing.T) {
	m := NewManager(Options{EventBuffer: 1}, logger.Discard())

	done := make(chan struct{})
	go func() {
		for range 5 {
			m.Publish("user-1", domain.ChangeEvent{Action: domain.ActionCreate})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
	assert.Len(t, m.events, 1)
}

func TestManager_Disconnect(t *testing.T) {
	m := NewManager(Options{}, logger.Discard())

	c, err := m.Connect("user-1")
	require.NoError(t, err)

	m.Disconnect(c.ID)
	m.Disconnect(c.ID)

	assert.Zero(t, m.ClientCount())
	_, open := <-c.Done
	assert.False(t, open)
}

func TestManager_Shutdown(t *testing.T) {
	m := startManager(t, Options{HeartbeatInterval: time.Hour})

	c, err := m.Connect("user-1")
	require.NoError(t, err)

	m.Publish("user-1", domain.ChangeEvent{Action: domain.ActionCreate})
	assert.Equal(t, EventTodoCreated, receive(t, c).Type)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	require.NoError(t, m.Shutdown(ctx))

	// Dropped silently after shutdown.
	m.Publish("user-1", domain.ChangeEvent{Action: domain.ActionUpdate})
	assert.Zero(t, m.ClientCount())

	_, open := <-c.Done
	assert.False(t, open)
}
