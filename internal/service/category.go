package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/todosync/todosync-server/internal/domain"
	domainerrors "github.com/todosync/todosync-server/internal/errors"
	"github.com/todosync/todosync-server/internal/id"
	"github.com/todosync/todosync-server/internal/store"
	"github.com/todosync/todosync-server/internal/validation"
)

// CategoryService owns category rules: unique names per owner, a single
// protected default, and no deletion while todos remain.
// Category changes are not published.
type CategoryService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewCategoryService creates a new category service.
func NewCategoryService(store store.Store, validator *validation.Validator, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		store:     store,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// ListCategories returns the owner's categories, default first, with counts.
func (s *CategoryService) ListCategories(ctx context.Context, ownerID string) ([]*domain.CategorySummary, error) {
	cats, err := s.store.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, storeError(err, msgCategoryNotFound)
	}
	return cats, nil
}

// GetCategory returns the owner's category with its todo count.
func (s *CategoryService) GetCategory(ctx context.Context, ownerID, categoryID string) (*domain.CategorySummary, error) {
	cat, err := s.store.GetCategory(ctx, ownerID, categoryID)
	if err != nil {
		return nil, storeError(err, msgCategoryNotFound)
	}
	return s.summarize(ctx, cat)
}

// CreateCategory creates a non-default category for ownerID.
func (s *CategoryService) CreateCategory(ctx context.Context, ownerID string, in domain.CategoryInput) (*domain.CategorySummary, error) {
	cat, err := s.newCategory(ownerID, in, false, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(cat); err != nil {
		return nil, err
	}

	if err := s.store.CreateCategory(ctx, cat); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, nameTaken(cat.Name)
		}
		return nil, storeError(err, msgCategoryNotFound)
	}

	s.logger.Info("category created",
		"owner_id", ownerID,
		"category_id", cat.ID,
		"name", cat.Name,
	)
	return &domain.CategorySummary{Category: *cat}, nil
}

// UpdateCategory applies patch to the owner's category. The default
// category cannot be renamed.
func (s *CategoryService) UpdateCategory(ctx context.Context, ownerID, categoryID string, patch domain.CategoryPatch) (*domain.CategorySummary, error) {
	cat, err := s.store.GetCategory(ctx, ownerID, categoryID)
	if err != nil {
		return nil, storeError(err, msgCategoryNotFound)
	}
	if cat.IsDefault && patch.Name != nil {
		return nil, domainerrors.InvalidOperation(msgRenameDefault)
	}

	patch.Apply(cat)
	cat.Normalize()
	cat.UpdatedAt = s.now().UTC()
	if err := s.validator.Validate(cat); err != nil {
		return nil, err
	}

	if err := s.store.UpdateCategory(ctx, cat); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, nameTaken(cat.Name)
		}
		return nil, storeError(err, msgCategoryNotFound)
	}

	s.logger.Info("category updated", "owner_id", ownerID, "category_id", cat.ID)
	return s.summarize(ctx, cat)
}

// DeleteCategory removes an empty, non-default category.
func (s *CategoryService) DeleteCategory(ctx context.Context, ownerID, categoryID string) error {
	cat, err := s.store.GetCategory(ctx, ownerID, categoryID)
	if err != nil {
		return storeError(err, msgCategoryNotFound)
	}
	if cat.IsDefault {
		return domainerrors.InvalidOperation(msgDeleteDefault)
	}

	count, err := s.store.CountTodosInCategory(ctx, ownerID, categoryID)
	if err != nil {
		return storeError(err, msgCategoryNotFound)
	}
	if count > 0 {
		return categoryInUse(count)
	}

	if err := s.store.DeleteCategory(ctx, ownerID, categoryID); err != nil {
		if errors.Is(err, store.ErrReferenced) {
			// A todo was filed here after the count.
			n, cerr := s.store.CountTodosInCategory(ctx, ownerID, categoryID)
			if cerr != nil || n == 0 {
				n = 1
			}
			return categoryInUse(n)
		}
		return storeError(err, msgCategoryNotFound)
	}

	s.logger.Info("category deleted", "owner_id", ownerID, "category_id", categoryID)
	return nil
}

// CreateDefaultCategories inserts the starter set for ownerID in one
// transaction. It fails when the owner already has a default category.
func (s *CategoryService) CreateDefaultCategories(ctx context.Context, ownerID string) ([]*domain.CategorySummary, error) {
	has, err := s.store.HasDefaultCategory(ctx, ownerID)
	if err != nil {
		return nil, storeError(err, msgCategoryNotFound)
	}
	if has {
		return nil, domainerrors.InvalidOperation(msgDefaultsExist)
	}

	now := s.now().UTC()
	cats := make([]*domain.Category, 0, len(domain.StarterCategories))
	for i, starter := range domain.StarterCategories {
		// Distinct timestamps keep the starter order under created_at sorting.
		cat, err := s.newCategory(ownerID, starter.CategoryInput, starter.IsDefault, now.Add(time.Duration(i)*time.Microsecond))
		if err != nil {
			return nil, err
		}
		cats = append(cats, cat)
	}

	if err := s.store.CreateCategories(ctx, cats); err != nil {
		if !errors.Is(err, store.ErrAlreadyExists) {
			return nil, storeError(err, msgCategoryNotFound)
		}
		// Either a concurrent call won the default slot or a starter name
		// is already taken by a regular category.
		if has, herr := s.store.HasDefaultCategory(ctx, ownerID); herr == nil && has {
			return nil, domainerrors.InvalidOperation(msgDefaultsExist)
		}
		return nil, domainerrors.ConstraintViolation(msgCategoryNameTaken).WithCause(err)
	}

	s.logger.Info("default categories created", "owner_id", ownerID, "count", len(cats))

	out := make([]*domain.CategorySummary, len(cats))
	for i, cat := range cats {
		out[i] = &domain.CategorySummary{Category: *cat}
	}
	return out, nil
}

func (s *CategoryService) newCategory(ownerID string, in domain.CategoryInput, isDefault bool, now time.Time) (*domain.Category, error) {
	catID, err := id.Generate(id.PrefixCategory)
	if err != nil {
		return nil, err
	}
	cat := &domain.Category{
		ID:          catID,
		OwnerID:     ownerID,
		Name:        in.Name,
		Color:       in.Color,
		Icon:        in.Icon,
		Description: in.Description,
		IsDefault:   isDefault,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	cat.Normalize()
	return cat, nil
}

func (s *CategoryService) summarize(ctx context.Context, cat *domain.Category) (*domain.CategorySummary, error) {
	n, err := s.store.CountTodosInCategory(ctx, cat.OwnerID, cat.ID)
	if err != nil {
		return nil, storeError(err, msgCategoryNotFound)
	}
	return &domain.CategorySummary{Category: *cat, TodoCount: n}, nil
}

func nameTaken(name string) error {
	return domainerrors.ConstraintViolationWithDetails(msgCategoryNameTaken, map[string]string{
		"name": "already used by another category: " + name,
	})
}

func categoryInUse(count int) error {
	return domainerrors.InvalidOperationf(msgCategoryHasTodosFormat, count).WithDetails(map[string]int{
		"todo_count": count,
	})
}
