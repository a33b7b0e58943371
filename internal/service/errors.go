package service

import (
	"errors"
	"fmt"

	domainerrors "github.com/todosync/todosync-server/internal/errors"
	"github.com/todosync/todosync-server/internal/store"
)

// Messages shared by the category rules.
const (
	msgCategoryNotFound       = "Category not found"
	msgTodoNotFound           = "Todo not found"
	msgCategoryNameTaken      = "Category with this name already exists"
	msgDefaultsExist          = "Default categories already exist"
	msgRenameDefault          = "Cannot change name of default category"
	msgDeleteDefault          = "Cannot delete default category"
	msgInvalidCategoryRef     = "Category not found or does not belong to you"
	msgBulkSubtasks           = "subtasks cannot be changed in a bulk update"
	msgEmptyPatch             = "no fields to update"
	msgEmptyIDs               = "todo_ids must not be empty"
	msgCategoryHasTodosFormat = "Cannot delete category. It contains %d todo(s). Please move or delete the todos first."
)

// storeError converts store sentinels into domain errors. notFound is the
// message used for store.ErrNotFound.
func storeError(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(notFound)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.ConstraintViolation("already exists").WithCause(err)
	case errors.Is(err, store.ErrReferenced):
		return domainerrors.InvalidOperation("still referenced").WithCause(err)
	default:
		return fmt.Errorf("store: %w", err)
	}
}
