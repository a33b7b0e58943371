package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/todosync/todosync-server/internal/domain"
)

func (s *Server) registerCategoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories",
		Summary:     "List categories",
		Description: "Returns the current user's categories with todo counts, default first",
		Tags:        []string{"Categories"},
		Security:    bearerAuth,
	}, s.handleListCategories)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createCategory",
		Method:        http.MethodPost,
		Path:          "/api/v1/categories",
		Summary:       "Create category",
		Description:   "Creates a category; names are unique per user",
		Tags:          []string{"Categories"},
		DefaultStatus: http.StatusCreated,
		Security:      bearerAuth,
	}, s.handleCreateCategory)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createDefaultCategories",
		Method:        http.MethodPost,
		Path:          "/api/v1/categories/defaults",
		Summary:       "Create default categories",
		Description:   "Inserts the starter category set once per user",
		Tags:          []string{"Categories"},
		DefaultStatus: http.StatusCreated,
		Security:      bearerAuth,
	}, s.handleCreateDefaultCategories)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCategory",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories/{id}",
		Summary:     "Get category",
		Description: "Returns a category by ID with its todo count",
		Tags:        []string{"Categories"},
		Security:    bearerAuth,
	}, s.handleGetCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCategory",
		Method:      http.MethodPut,
		Path:        "/api/v1/categories/{id}",
		Summary:     "Update category",
		Description: "Updates a category; the default category cannot be renamed",
		Tags:        []string{"Categories"},
		Security:    bearerAuth,
	}, s.handleUpdateCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCategory",
		Method:      http.MethodDelete,
		Path:        "/api/v1/categories/{id}",
		Summary:     "Delete category",
		Description: "Deletes an empty, non-default category",
		Tags:        []string{"Categories"},
		Security:    bearerAuth,
	}, s.handleDeleteCategory)
}

// === DTOs ===

// CreateCategoryRequest is the request body for creating a category.
type CreateCategoryRequest struct {
	Name        string `json:"name,omitempty" doc:"Name, at most 30 characters"`
	Color       string `json:"color,omitempty" doc:"Hex color, #RGB or #RRGGBB"`
	Icon        string `json:"icon,omitempty" doc:"Icon name"`
	Description string `json:"description,omitempty" doc:"Description, at most 200 characters"`
}

// CreateCategoryInput wraps the create category request for Huma.
type CreateCategoryInput struct {
	Body CreateCategoryRequest
}

// UpdateCategoryRequest is the request body for updating a category.
type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty" doc:"Name"`
	Color       *string `json:"color,omitempty" doc:"Hex color"`
	Icon        *string `json:"icon,omitempty" doc:"Icon name"`
	Description *string `json:"description,omitempty" doc:"Description"`
}

// UpdateCategoryInput wraps the update category request for Huma.
type UpdateCategoryInput struct {
	ID   string `path:"id" doc:"Category ID"`
	Body UpdateCategoryRequest
}

// CategoryIDInput addresses a single category.
type CategoryIDInput struct {
	ID string `path:"id" doc:"Category ID"`
}

// CategoryOutput wraps a category for Huma.
type CategoryOutput struct {
	Body *domain.CategorySummary
}

// CategoryListOutput wraps a list of categories for Huma.
type CategoryListOutput struct {
	Body []*domain.CategorySummary
}

// === Handlers ===

func (s *Server) handleListCategories(ctx context.Context, _ *struct{}) (*CategoryListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := s.services.Categories.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CategoryListOutput{Body: categories}, nil
}

func (s *Server) handleCreateCategory(ctx context.Context, input *CreateCategoryInput) (*CategoryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	cat, err := s.services.Categories.CreateCategory(ctx, userID, domain.CategoryInput{
		Name:        input.Body.Name,
		Color:       input.Body.Color,
		Icon:        input.Body.Icon,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, err
	}
	return &CategoryOutput{Body: cat}, nil
}

func (s *Server) handleCreateDefaultCategories(ctx context.Context, _ *struct{}) (*CategoryListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := s.services.Categories.CreateDefaultCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CategoryListOutput{Body: categories}, nil
}

func (s *Server) handleGetCategory(ctx context.Context, input *CategoryIDInput) (*CategoryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	cat, err := s.services.Categories.GetCategory(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &CategoryOutput{Body: cat}, nil
}

func (s *Server) handleUpdateCategory(ctx context.Context, input *UpdateCategoryInput) (*CategoryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	cat, err := s.services.Categories.UpdateCategory(ctx, userID, input.ID, domain.CategoryPatch{
		Name:        input.Body.Name,
		Color:       input.Body.Color,
		Icon:        input.Body.Icon,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, err
	}
	return &CategoryOutput{Body: cat}, nil
}

func (s *Server) handleDeleteCategory(ctx context.Context, input *CategoryIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Categories.DeleteCategory(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Category deleted successfully"}}, nil
}
