package api

import (
	"github.com/todosync/todosync-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Todos      *service.TodoService
	Categories *service.CategoryService
	Stats      *service.StatsService
	Search     *service.SearchService // Nil when search is disabled
}
