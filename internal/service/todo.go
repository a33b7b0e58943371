package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/todosync/todosync-server/internal/domain"
	domainerrors "github.com/todosync/todosync-server/internal/errors"
	"github.com/todosync/todosync-server/internal/id"
	"github.com/todosync/todosync-server/internal/store"
	"github.com/todosync/todosync-server/internal/validation"
)

// TodoService is the Mutation Coordinator and read path for todos.
// Every mutation derives state, validates, persists and only then publishes.
type TodoService struct {
	store     store.Store
	publisher Publisher
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewTodoService creates a new todo service. A nil publisher disables
// change notification.
func NewTodoService(store store.Store, publisher Publisher, validator *validation.Validator, logger *slog.Logger) *TodoService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &TodoService{
		store:     store,
		publisher: publisher,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// ListTodos returns one page of the owner's todos. The owner is taken from
// q.Filter.OwnerID.
func (s *TodoService) ListTodos(ctx context.Context, q store.TodoQuery) (*store.TodoPage, error) {
	if q.Filter.Priority != "" && !q.Filter.Priority.Valid() {
		return nil, domainerrors.ConstraintViolationWithDetails("invalid filter", map[string]string{
			"priority": "must be one of: low medium high critical",
		})
	}
	switch q.Filter.Status {
	case store.StatusAny, store.StatusCompleted, store.StatusPending:
	default:
		return nil, domainerrors.ConstraintViolationWithDetails("invalid filter", map[string]string{
			"status": "must be one of: completed pending",
		})
	}

	page, err := s.store.ListTodos(ctx, q)
	if err != nil {
		return nil, storeError(err, msgTodoNotFound)
	}
	s.markOverdue(page.Items...)
	return page, nil
}

// GetTodo returns the owner's todo.
func (s *TodoService) GetTodo(ctx context.Context, ownerID, todoID string) (*domain.Todo, error) {
	todo, err := s.store.GetTodo(ctx, ownerID, todoID)
	if err != nil {
		return nil, storeError(err, msgTodoNotFound)
	}
	s.markOverdue(todo)
	return todo, nil
}

// CreateTodo creates a todo for ownerID. Without an explicit position the
// todo is appended after the owner's last one.
func (s *TodoService) CreateTodo(ctx context.Context, ownerID string, in domain.TodoInput) (*domain.Todo, error) {
	now := s.now().UTC()

	todoID, err := id.Generate(id.PrefixTodo)
	if err != nil {
		return nil, err
	}

	todo := &domain.Todo{
		ID:            todoID,
		OwnerID:       ownerID,
		Title:         in.Title,
		Description:   in.Description,
		Completed:     in.Completed,
		Priority:      in.Priority,
		CategoryID:    in.CategoryID,
		Tags:          in.Tags,
		DueDate:       utcPtr(in.DueDate),
		ReminderDate:  utcPtr(in.ReminderDate),
		Subtasks:      in.Subtasks,
		Attachments:   in.Attachments,
		EstimatedTime: in.EstimatedTime,
		ActualTime:    in.ActualTime,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.Position != nil {
		todo.Position = *in.Position
	}
	if in.Progress != nil {
		todo.Progress = *in.Progress
	}
	todo.Normalize()
	stampSubtasks(todo.Subtasks, now)
	domain.DeriveState(todo, false, len(todo.Subtasks) > 0, now)

	if err := s.validator.Validate(todo); err != nil {
		return nil, err
	}
	if err := s.resolveCategory(ctx, todo); err != nil {
		return nil, err
	}

	if err := s.store.CreateTodo(ctx, todo, in.Position == nil); err != nil {
		return nil, storeError(err, msgTodoNotFound)
	}

	s.markOverdue(todo)
	s.publish(ownerID, domain.ActionCreate, todo)

	s.logger.Info("todo created",
		"owner_id", ownerID,
		"todo_id", todo.ID,
		"position", todo.Position,
	)
	return todo, nil
}

// UpdateTodo applies patch to the owner's todo. Replaced subtasks always
// recompute progress; a completion change stamps or clears completed_at.
func (s *TodoService) UpdateTodo(ctx context.Context, ownerID, todoID string, patch domain.TodoPatch) (*domain.Todo, error) {
	todo, err := s.store.GetTodo(ctx, ownerID, todoID)
	if err != nil {
		return nil, storeError(err, msgTodoNotFound)
	}

	now := s.now().UTC()
	if err := s.applyPatch(ctx, todo, patch, now); err != nil {
		return nil, err
	}

	if err := s.store.UpdateTodo(ctx, todo); err != nil {
		return nil, storeError(err, msgTodoNotFound)
	}

	s.markOverdue(todo)
	s.publish(ownerID, domain.ActionUpdate, todo)

	s.logger.Info("todo updated", "owner_id", ownerID, "todo_id", todo.ID)
	return todo, nil
}

// ToggleTodo flips the completed flag of the owner's todo.
func (s *TodoService) ToggleTodo(ctx context.Context, ownerID, todoID string) (*domain.Todo, error) {
	todo, err := s.store.GetTodo(ctx, ownerID, todoID)
	if err != nil {
		return nil, storeError(err, msgTodoNotFound)
	}

	now := s.now().UTC()
	was := todo.Completed
	todo.Completed = !was
	domain.DeriveState(todo, was, false, now)
	todo.Touch(now)

	if err := s.store.UpdateTodo(ctx, todo); err != nil {
		return nil, storeError(err, msgTodoNotFound)
	}

	s.markOverdue(todo)
	s.publish(ownerID, domain.ActionUpdate, todo)

	s.logger.Info("todo toggled",
		"owner_id", ownerID,
		"todo_id", todo.ID,
		"completed", todo.Completed,
	)
	return todo, nil
}

// DeleteTodo removes the owner's todo. The delete event carries only the id.
func (s *TodoService) DeleteTodo(ctx context.Context, ownerID, todoID string) error {
	if err := s.store.DeleteTodo(ctx, ownerID, todoID); err != nil {
		return storeError(err, msgTodoNotFound)
	}

	s.publish(ownerID, domain.ActionDelete, domain.TodoDeleted{ID: todoID})

	s.logger.Info("todo deleted", "owner_id", ownerID, "todo_id", todoID)
	return nil
}

// ReorderTodos sets each todo's position to its index in todoIDs. Ids the
// owner does not own are skipped. One reordered event carries the full
// requested order. Returns the number of todos repositioned.
func (s *TodoService) ReorderTodos(ctx context.Context, ownerID string, todoIDs []string) (int, error) {
	if len(todoIDs) == 0 {
		return 0, domainerrors.ConstraintViolation(msgEmptyIDs)
	}

	applied, err := s.store.ReorderTodos(ctx, ownerID, todoIDs, s.now().UTC())
	if err != nil {
		return 0, storeError(err, msgTodoNotFound)
	}

	s.publish(ownerID, domain.ActionReordered, domain.TodosReordered{TodoIDs: todoIDs})

	s.logger.Info("todos reordered",
		"owner_id", ownerID,
		"requested", len(todoIDs),
		"applied", len(applied),
	)
	return len(applied), nil
}

// BulkUpdateTodos applies one patch to every todo in todoIDs that ownerID
// owns; other ids are skipped. Either all affected todos are written or
// none are. One update event is published per affected todo.
func (s *TodoService) BulkUpdateTodos(ctx context.Context, ownerID string, todoIDs []string, patch domain.TodoPatch) (int, error) {
	if len(todoIDs) == 0 {
		return 0, domainerrors.ConstraintViolation(msgEmptyIDs)
	}
	if patch.Subtasks != nil {
		return 0, domainerrors.ConstraintViolation(msgBulkSubtasks)
	}
	if patch.IsEmpty() {
		return 0, domainerrors.ConstraintViolation(msgEmptyPatch)
	}

	todos, err := s.store.GetTodos(ctx, ownerID, todoIDs)
	if err != nil {
		return 0, storeError(err, msgTodoNotFound)
	}
	if len(todos) == 0 {
		return 0, nil
	}

	now := s.now().UTC()
	for _, todo := range todos {
		if err := s.applyPatch(ctx, todo, patch, now); err != nil {
			var de *domainerrors.Error
			if errors.As(err, &de) && de.Code == domainerrors.CodeConstraintViolation {
				return 0, de.WithDetails(map[string]any{"todo_id": todo.ID, "fields": de.Details})
			}
			return 0, err
		}
	}

	if err := s.store.UpdateTodos(ctx, todos); err != nil {
		return 0, storeError(err, msgTodoNotFound)
	}

	for _, todo := range todos {
		s.markOverdue(todo)
		s.publish(ownerID, domain.ActionUpdate, todo)
	}

	s.logger.Info("todos bulk updated",
		"owner_id", ownerID,
		"requested", len(todoIDs),
		"modified", len(todos),
	)
	return len(todos), nil
}

// applyPatch mutates todo in memory: patch, normalize, derive, validate and
// resolve the category projection.
func (s *TodoService) applyPatch(ctx context.Context, todo *domain.Todo, patch domain.TodoPatch, now time.Time) error {
	was := todo.Completed
	patch.Apply(todo)
	todo.Normalize()
	stampSubtasks(todo.Subtasks, now)
	domain.DeriveState(todo, was, patch.Subtasks != nil, now)
	todo.Touch(now)

	if err := s.validator.Validate(todo); err != nil {
		return err
	}
	if patch.CategoryID != nil {
		return s.resolveCategory(ctx, todo)
	}
	return nil
}

// resolveCategory checks that todo's category belongs to its owner and
// fills the projection.
func (s *TodoService) resolveCategory(ctx context.Context, todo *domain.Todo) error {
	if todo.CategoryID == "" {
		todo.Category = nil
		return nil
	}
	cat, err := s.store.GetCategory(ctx, todo.OwnerID, todo.CategoryID)
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.InvalidReference(msgInvalidCategoryRef).WithDetails(map[string]string{
			"category_id": todo.CategoryID,
		})
	}
	if err != nil {
		return fmt.Errorf("resolve category: %w", err)
	}
	todo.Category = cat.Ref()
	return nil
}

func (s *TodoService) markOverdue(todos ...*domain.Todo) {
	now := s.now()
	for _, t := range todos {
		t.IsOverdue = domain.IsOverdue(t, now)
	}
}

// stampSubtasks gives new subtasks a creation time.
func stampSubtasks(subtasks []domain.Subtask, now time.Time) {
	for i := range subtasks {
		if subtasks[i].CreatedAt.IsZero() {
			subtasks[i].CreatedAt = now
		}
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}
