package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/todosync/todosync-server/internal/domain"
	"github.com/todosync/todosync-server/internal/search"
	"github.com/todosync/todosync-server/internal/service"
	"github.com/todosync/todosync-server/internal/store"
)

var bearerAuth = []map[string][]string{{"bearer": {}}}

func (s *Server) registerTodoRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTodos",
		Method:      http.MethodGet,
		Path:        "/api/v1/todos",
		Summary:     "List todos",
		Description: "Returns one page of the current user's todos, filtered and sorted",
		Tags:        []string{"Todos"},
		Security:    bearerAuth,
	}, s.handleListTodos)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createTodo",
		Method:        http.MethodPost,
		Path:          "/api/v1/todos",
		Summary:       "Create todo",
		Description:   "Creates a todo, appended after the user's last one unless a position is given",
		Tags:          []string{"Todos"},
		DefaultStatus: http.StatusCreated,
		Security:      bearerAuth,
	}, s.handleCreateTodo)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTodoStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/todos/stats",
		Summary:     "Todo statistics",
		Description: "Returns completion, due date, priority and category breakdowns",
		Tags:        []string{"Todos"},
		Security:    bearerAuth,
	}, s.handleGetTodoStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchTodos",
		Method:      http.MethodGet,
		Path:        "/api/v1/todos/search",
		Summary:     "Search todos",
		Description: "Ranked full-text search over title, description and tags",
		Tags:        []string{"Todos"},
		Security:    bearerAuth,
	}, s.handleSearchTodos)

	huma.Register(s.api, huma.Operation{
		OperationID: "reorderTodos",
		Method:      http.MethodPatch,
		Path:        "/api/v1/todos/reorder",
		Summary:     "Reorder todos",
		Description: "Sets each todo's position to its index in todo_ids",
		Tags:        []string{"Todos"},
		Security:    bearerAuth,
	}, s.handleReorderTodos)

	huma.Register(s.api, huma.Operation{
		OperationID: "bulkUpdateTodos",
		Method:      http.MethodPatch,
		Path:        "/api/v1/todos/bulk",
		Summary:     "Bulk update todos",
		Description: "Applies one set of updates to many todos",
		Tags:        []string{"Todos"},
		Security:    bearerAuth,
	}, s.handleBulkUpdateTodos)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTodo",
		Method:      http.MethodGet,
		Path:        "/api/v1/todos/{id}",
		Summary:     "Get todo",
		Description: "Returns a todo by ID",
		Tags:        []string{"Todos"},
		Security:    bearerAuth,
	}, s.handleGetTodo)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTodo",
		Method:      http.MethodPut,
		Path:        "/api/v1/todos/{id}",
		Summary:     "Update todo",
		Description: "Updates the fields present in the body",
		Tags:        []string{"Todos"},
		Security:    bearerAuth,
	}, s.handleUpdateTodo)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTodo",
		Method:      http.MethodDelete,
		Path:        "/api/v1/todos/{id}",
		Summary:     "Delete todo",
		Description: "Deletes a todo",
		Tags:        []string{"Todos"},
		Security:    bearerAuth,
	}, s.handleDeleteTodo)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleTodo",
		Method:      http.MethodPatch,
		Path:        "/api/v1/todos/{id}/toggle",
		Summary:     "Toggle todo",
		Description: "Flips the completed flag",
		Tags:        []string{"Todos"},
		Security:    bearerAuth,
	}, s.handleToggleTodo)
}

// === DTOs ===

// SubtaskRequest is a subtask in a create or update body.
type SubtaskRequest struct {
	Title     string `json:"title" doc:"Subtask title"`
	Completed bool   `json:"completed,omitempty" doc:"Whether the subtask is done"`
}

// AttachmentRequest is attachment metadata in a create or update body.
type AttachmentRequest struct {
	Filename     string `json:"filename" doc:"Stored file name"`
	OriginalName string `json:"original_name,omitempty" doc:"Name of the uploaded file"`
	MimeType     string `json:"mime_type,omitempty" doc:"MIME type"`
	Size         int64  `json:"size,omitempty" doc:"Size in bytes"`
	URL          string `json:"url,omitempty" doc:"Download URL"`
}

// CreateTodoRequest is the request body for creating a todo.
type CreateTodoRequest struct {
	Title         string              `json:"title,omitempty" doc:"Title, at most 100 characters"`
	Description   string              `json:"description,omitempty" doc:"Description, at most 500 characters"`
	Completed     bool                `json:"completed,omitempty" doc:"Create as already completed"`
	Priority      string              `json:"priority,omitempty" doc:"low, medium, high or critical"`
	CategoryID    string              `json:"category_id,omitempty" doc:"One of the user's categories"`
	Tags          []string            `json:"tags,omitempty" doc:"Free-form tags"`
	DueDate       FlexTime            `json:"due_date,omitempty" doc:"Due date"`
	ReminderDate  FlexTime            `json:"reminder_date,omitempty" doc:"Reminder date"`
	Position      *int                `json:"position,omitempty" doc:"Explicit position; appended last when omitted"`
	Subtasks      []SubtaskRequest    `json:"subtasks,omitempty" doc:"Checklist items"`
	Attachments   []AttachmentRequest `json:"attachments,omitempty" doc:"Attachment metadata"`
	Progress      *int                `json:"progress,omitempty" doc:"Manual progress, 0-100; ignored when subtasks exist"`
	EstimatedTime *int                `json:"estimated_time,omitempty" doc:"Estimate in minutes"`
	ActualTime    *int                `json:"actual_time,omitempty" doc:"Time spent in minutes"`
}

func (r CreateTodoRequest) toInput() domain.TodoInput {
	return domain.TodoInput{
		Title:         r.Title,
		Description:   r.Description,
		Completed:     r.Completed,
		Priority:      domain.Priority(r.Priority),
		CategoryID:    r.CategoryID,
		Tags:          r.Tags,
		DueDate:       r.DueDate.Value(),
		ReminderDate:  r.ReminderDate.Value(),
		Position:      r.Position,
		Subtasks:      toSubtasks(r.Subtasks),
		Attachments:   toAttachments(r.Attachments),
		Progress:      r.Progress,
		EstimatedTime: r.EstimatedTime,
		ActualTime:    r.ActualTime,
	}
}

// UpdateTodoRequest is the request body for updating a todo. Only fields
// present in the body change. An empty category_id removes the category;
// a null or empty date clears it.
type UpdateTodoRequest struct {
	Title         *string             `json:"title,omitempty" doc:"Title"`
	Description   *string             `json:"description,omitempty" doc:"Description"`
	Completed     *bool               `json:"completed,omitempty" doc:"Completion flag"`
	Priority      *string             `json:"priority,omitempty" doc:"low, medium, high or critical"`
	CategoryID    *string             `json:"category_id,omitempty" doc:"Category ID, empty to clear"`
	Tags          []string            `json:"tags,omitempty" doc:"Replacement tags"`
	DueDate       FlexTime            `json:"due_date,omitempty" doc:"Due date"`
	ReminderDate  FlexTime            `json:"reminder_date,omitempty" doc:"Reminder date"`
	Position      *int                `json:"position,omitempty" doc:"Position"`
	Subtasks      []SubtaskRequest    `json:"subtasks,omitempty" doc:"Replacement subtasks"`
	Attachments   []AttachmentRequest `json:"attachments,omitempty" doc:"Replacement attachments"`
	Progress      *int                `json:"progress,omitempty" doc:"Manual progress, 0-100"`
	EstimatedTime *int                `json:"estimated_time,omitempty" doc:"Estimate in minutes"`
	ActualTime    *int                `json:"actual_time,omitempty" doc:"Time spent in minutes"`
}

func (r UpdateTodoRequest) toPatch() domain.TodoPatch {
	patch := domain.TodoPatch{
		Title:         r.Title,
		Description:   r.Description,
		Completed:     r.Completed,
		CategoryID:    r.CategoryID,
		DueDate:       r.DueDate.Patch(),
		ReminderDate:  r.ReminderDate.Patch(),
		Position:      r.Position,
		Progress:      r.Progress,
		EstimatedTime: r.EstimatedTime,
		ActualTime:    r.ActualTime,
	}
	if r.Priority != nil {
		p := domain.Priority(*r.Priority)
		patch.Priority = &p
	}
	if r.Tags != nil {
		tags := r.Tags
		patch.Tags = &tags
	}
	if r.Subtasks != nil {
		subtasks := toSubtasks(r.Subtasks)
		patch.Subtasks = &subtasks
	}
	if r.Attachments != nil {
		attachments := toAttachments(r.Attachments)
		patch.Attachments = &attachments
	}
	return patch
}

func toSubtasks(in []SubtaskRequest) []domain.Subtask {
	if in == nil {
		return nil
	}
	out := make([]domain.Subtask, len(in))
	for i, st := range in {
		out[i] = domain.Subtask{Title: st.Title, Completed: st.Completed}
	}
	return out
}

func toAttachments(in []AttachmentRequest) []domain.Attachment {
	if in == nil {
		return nil
	}
	out := make([]domain.Attachment, len(in))
	for i, a := range in {
		out[i] = domain.Attachment{
			Filename:     a.Filename,
			OriginalName: a.OriginalName,
			MimeType:     a.MimeType,
			Size:         a.Size,
			URL:          a.URL,
		}
	}
	return out
}

// ListTodosInput contains parameters for listing todos.
type ListTodosInput struct {
	Status    string `query:"status" doc:"completed or pending; omit for all"`
	Priority  string `query:"priority" doc:"low, medium, high or critical"`
	Category  string `query:"category" doc:"Category ID"`
	Tags      string `query:"tags" doc:"Comma-separated tags; a todo matches if it has any of them"`
	Search    string `query:"search" doc:"Case-insensitive substring of title or description"`
	SortBy    string `query:"sort_by" doc:"created_at, updated_at, due_date, completed_at, priority, title or position"`
	SortOrder string `query:"sort_order" doc:"asc or desc (default)"`
	Page      int    `query:"page" doc:"Page number, from 1"`
	Limit     int    `query:"limit" doc:"Page size"`
}

func (in *ListTodosInput) query(ownerID string) store.TodoQuery {
	var tags []string
	if in.Tags != "" {
		tags = strings.Split(in.Tags, ",")
	}
	return store.TodoQuery{
		Filter: store.TodoFilter{
			OwnerID:    ownerID,
			Status:     store.Status(strings.ToLower(strings.TrimSpace(in.Status))),
			Priority:   domain.Priority(strings.ToLower(strings.TrimSpace(in.Priority))),
			CategoryID: in.Category,
			Tags:       tags,
			Search:     in.Search,
		},
		SortBy:    store.ParseSortField(in.SortBy),
		SortOrder: store.ParseSortOrder(in.SortOrder),
		Page:      in.Page,
		Limit:     in.Limit,
	}
}

// TodoPageOutput wraps a page of todos for Huma.
type TodoPageOutput struct {
	Body *store.TodoPage
}

// CreateTodoInput wraps the create todo request for Huma.
type CreateTodoInput struct {
	Body CreateTodoRequest
}

// TodoOutput wraps a todo for Huma.
type TodoOutput struct {
	Body *domain.Todo
}

// TodoIDInput addresses a single todo.
type TodoIDInput struct {
	ID string `path:"id" doc:"Todo ID"`
}

// UpdateTodoInput wraps the update todo request for Huma.
type UpdateTodoInput struct {
	ID   string `path:"id" doc:"Todo ID"`
	Body UpdateTodoRequest
}

// MessageResponse carries a confirmation message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// ReorderTodosRequest is the request body for reordering todos.
type ReorderTodosRequest struct {
	TodoIDs []string `json:"todo_ids" doc:"Todo IDs in their new order"`
}

// ReorderTodosInput wraps the reorder request for Huma.
type ReorderTodosInput struct {
	Body ReorderTodosRequest
}

// ReorderTodosResponse reports how many todos were repositioned.
type ReorderTodosResponse struct {
	Message string `json:"message" doc:"Success message"`
	Count   int    `json:"count" doc:"Todos repositioned"`
}

// ReorderTodosOutput wraps the reorder response for Huma.
type ReorderTodosOutput struct {
	Body ReorderTodosResponse
}

// BulkUpdateTodosRequest is the request body for bulk updates.
type BulkUpdateTodosRequest struct {
	TodoIDs []string          `json:"todo_ids" doc:"Todos to update"`
	Updates UpdateTodoRequest `json:"updates" doc:"Fields to set on every todo; subtasks are not allowed"`
}

// BulkUpdateTodosInput wraps the bulk update request for Huma.
type BulkUpdateTodosInput struct {
	Body BulkUpdateTodosRequest
}

// BulkUpdateTodosResponse reports how many todos were updated.
type BulkUpdateTodosResponse struct {
	Message       string `json:"message" doc:"Success message"`
	ModifiedCount int    `json:"modified_count" doc:"Todos updated"`
}

// BulkUpdateTodosOutput wraps the bulk update response for Huma.
type BulkUpdateTodosOutput struct {
	Body BulkUpdateTodosResponse
}

// TodoStatsOutput wraps statistics for Huma.
type TodoStatsOutput struct {
	Body *domain.TodoStats
}

// SearchTodosInput contains parameters for searching todos.
type SearchTodosInput struct {
	Query            string `query:"q" doc:"Search text"`
	IncludeCompleted bool   `query:"include_completed" doc:"Include completed todos"`
	Limit            int    `query:"limit" doc:"Maximum results"`
	Offset           int    `query:"offset" doc:"Results to skip"`
}

// SearchTodosOutput wraps search results for Huma.
type SearchTodosOutput struct {
	Body *service.SearchResults
}

// === Handlers ===

func (s *Server) handleListTodos(ctx context.Context, input *ListTodosInput) (*TodoPageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Todos.ListTodos(ctx, input.query(userID))
	if err != nil {
		return nil, err
	}
	return &TodoPageOutput{Body: page}, nil
}

func (s *Server) handleCreateTodo(ctx context.Context, input *CreateTodoInput) (*TodoOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	todo, err := s.services.Todos.CreateTodo(ctx, userID, input.Body.toInput())
	if err != nil {
		return nil, err
	}
	return &TodoOutput{Body: todo}, nil
}

func (s *Server) handleGetTodoStats(ctx context.Context, _ *struct{}) (*TodoStatsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.services.Stats.GetTodoStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &TodoStatsOutput{Body: stats}, nil
}

func (s *Server) handleSearchTodos(ctx context.Context, input *SearchTodosInput) (*SearchTodosOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if s.services.Search == nil {
		return s.searchWithoutIndex(ctx, userID, input)
	}

	results, err := s.services.Search.SearchTodos(ctx, search.Params{
		OwnerID:          userID,
		Query:            input.Query,
		IncludeCompleted: input.IncludeCompleted,
		Limit:            input.Limit,
		Offset:           input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &SearchTodosOutput{Body: results}, nil
}

// searchWithoutIndex answers a search with the list substring filter when
// the index is disabled.
func (s *Server) searchWithoutIndex(ctx context.Context, userID string, input *SearchTodosInput) (*SearchTodosOutput, error) {
	results := &service.SearchResults{Query: input.Query, Items: []*domain.Todo{}}
	if strings.TrimSpace(input.Query) == "" {
		return &SearchTodosOutput{Body: results}, nil
	}

	q := store.TodoQuery{
		Filter:    store.TodoFilter{OwnerID: userID, Search: input.Query},
		SortBy:    store.SortUpdatedAt,
		SortOrder: store.SortDesc,
		Limit:     search.DefaultLimit,
	}
	if !input.IncludeCompleted {
		q.Filter.Status = store.StatusPending
	}
	if input.Limit > 0 {
		q.Limit = min(input.Limit, search.MaxLimit)
	}

	page, err := s.services.Todos.ListTodos(ctx, q)
	if err != nil {
		return nil, err
	}
	results.Items = page.Items
	results.Total = uint64(page.Pagination.TotalCount)
	return &SearchTodosOutput{Body: results}, nil
}

func (s *Server) handleReorderTodos(ctx context.Context, input *ReorderTodosInput) (*ReorderTodosOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	n, err := s.services.Todos.ReorderTodos(ctx, userID, input.Body.TodoIDs)
	if err != nil {
		return nil, err
	}
	return &ReorderTodosOutput{Body: ReorderTodosResponse{
		Message: "Todos reordered successfully",
		Count:   n,
	}}, nil
}

func (s *Server) handleBulkUpdateTodos(ctx context.Context, input *BulkUpdateTodosInput) (*BulkUpdateTodosOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	n, err := s.services.Todos.BulkUpdateTodos(ctx, userID, input.Body.TodoIDs, input.Body.Updates.toPatch())
	if err != nil {
		return nil, err
	}
	return &BulkUpdateTodosOutput{Body: BulkUpdateTodosResponse{
		Message:       fmt.Sprintf("%d todos updated successfully", n),
		ModifiedCount: n,
	}}, nil
}

func (s *Server) handleGetTodo(ctx context.Context, input *TodoIDInput) (*TodoOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	todo, err := s.services.Todos.GetTodo(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &TodoOutput{Body: todo}, nil
}

func (s *Server) handleUpdateTodo(ctx context.Context, input *UpdateTodoInput) (*TodoOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	todo, err := s.services.Todos.UpdateTodo(ctx, userID, input.ID, input.Body.toPatch())
	if err != nil {
		return nil, err
	}
	return &TodoOutput{Body: todo}, nil
}

func (s *Server) handleDeleteTodo(ctx context.Context, input *TodoIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Todos.DeleteTodo(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Todo deleted successfully"}}, nil
}

func (s *Server) handleToggleTodo(ctx context.Context, input *TodoIDInput) (*TodoOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	todo, err := s.services.Todos.ToggleTodo(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &TodoOutput{Body: todo}, nil
}
