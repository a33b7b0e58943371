package domain

// ChangeAction names what happened to the owner's todos.
type ChangeAction string

// Change actions.
const (
	ActionCreate    ChangeAction = "create"
	ActionUpdate    ChangeAction = "update"
	ActionDelete    ChangeAction = "delete"
	ActionReordered ChangeAction = "reordered"
)

// ChangeEvent is published to every live session of OwnerID after a
// committed mutation.
type ChangeEvent struct {
	Action  ChangeAction `json:"action"`
	OwnerID string       `json:"owner_id"`
	Payload any          `json:"payload"`
}

// TodoDeleted is the payload of a delete event.
type TodoDeleted struct {
	ID string `json:"id"`
}

// TodosReordered is the payload of a reordered event.
type TodosReordered struct {
	TodoIDs []string `json:"todo_ids"`
}
