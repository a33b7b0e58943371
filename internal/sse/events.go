// Package sse implements Server-Sent Events for pushing todo changes to every
// live session of the owning user.
package sse

import (
	"time"

	"github.com/google/uuid"

	"github.com/todosync/todosync-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventTodoCreated is sent after a todo was created.
	EventTodoCreated EventType = "todo.create"
	// EventTodoUpdated is sent after a todo was updated, toggled or bulk updated.
	EventTodoUpdated EventType = "todo.update"
	// EventTodoDeleted is sent after a todo was deleted.
	EventTodoDeleted EventType = "todo.delete"
	// EventTodosReordered is sent after the owner's todos were reordered.
	EventTodosReordered EventType = "todo.reordered"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
	// EventConnected is the first event written on a new stream.
	EventConnected EventType = "connected"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	ID        string    `json:"id"`
	Type      EventType `json:"type"`

	// UserID scopes delivery. Empty means every client.
	UserID string `json:"-"`
}

// eventTypes maps change actions to their wire names.
var eventTypes = map[domain.ChangeAction]EventType{
	domain.ActionCreate:    EventTodoCreated,
	domain.ActionUpdate:    EventTodoUpdated,
	domain.ActionDelete:    EventTodoDeleted,
	domain.ActionReordered: EventTodosReordered,
}

// NewChangeEvent converts a committed change into an event for its owner.
// Unknown actions are passed through as "todo.<action>".
func NewChangeEvent(change domain.ChangeEvent) Event {
	typ, ok := eventTypes[change.Action]
	if !ok {
		typ = EventType("todo." + string(change.Action))
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Data:      change.Payload,
		Timestamp: time.Now().UTC(),
		UserID:    change.OwnerID,
	}
}

// NewHeartbeatEvent creates a keepalive event for every client.
func NewHeartbeatEvent() Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      EventHeartbeat,
		Data:      map[string]any{},
		Timestamp: time.Now().UTC(),
	}
}
