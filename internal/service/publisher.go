package service

import "github.com/todosync/todosync-server/internal/domain"

// Publisher fans a change event out to every live session of ownerID.
// Publish must not block and has no failure mode the caller can observe.
type Publisher interface {
	Publish(ownerID string, event domain.ChangeEvent)
}

// NoopPublisher drops every event. Used when no subscriber transport is wired.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(string, domain.ChangeEvent) {}

func (s *TodoService) publish(ownerID string, action domain.ChangeAction, payload any) {
	s.publisher.Publish(ownerID, domain.ChangeEvent{
		Action:  action,
		OwnerID: ownerID,
		Payload: payload,
	})
}
