package domain

import (
	"strings"
	"time"
)

// DefaultCategoryIcon is used when a category is created without an icon.
const DefaultCategoryIcon = "category"

// Category groups a user's todos.
type Category struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id" validate:"required"`
	Name        string    `json:"name" validate:"required,max=30"`
	Color       string    `json:"color" validate:"required,hexcolor36"`
	Icon        string    `json:"icon"`
	Description string    `json:"description,omitempty" validate:"max=200"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Ref returns the projection embedded in todos.
func (c *Category) Ref() *CategoryRef {
	return &CategoryRef{ID: c.ID, Name: c.Name, Color: c.Color, Icon: c.Icon}
}

// Normalize trims free-text fields and applies the default icon.
func (c *Category) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Color = strings.TrimSpace(c.Color)
	c.Description = strings.TrimSpace(c.Description)
	c.Icon = strings.TrimSpace(c.Icon)
	if c.Icon == "" {
		c.Icon = DefaultCategoryIcon
	}
}

// CategorySummary is a category with the number of todos filed under it.
type CategorySummary struct {
	Category
	TodoCount int `json:"todo_count"`
}

// CategoryInput holds the caller-settable fields of a new category.
type CategoryInput struct {
	Name        string `yaml:"name"`
	Color       string `yaml:"color"`
	Icon        string `yaml:"icon"`
	Description string `yaml:"description"`
}

// CategoryPatch holds a partial category update.
type CategoryPatch struct {
	Name        *string
	Color       *string
	Icon        *string
	Description *string
}

// Apply copies every set field of p onto c.
func (p CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
}

// StarterCategory is one entry of the default category set.
type StarterCategory struct {
	CategoryInput
	IsDefault bool
}

// StarterCategories is the set inserted by createDefaultCategories. Exactly
// one entry is the default.
var StarterCategories = []StarterCategory{
	{CategoryInput{Name: "General", Color: "#2196F3", Icon: "category", Description: "General todos"}, true},
	{CategoryInput{Name: "Work", Color: "#FF9800", Icon: "work", Description: "Work-related tasks"}, false},
	{CategoryInput{Name: "Personal", Color: "#4CAF50", Icon: "person", Description: "Personal tasks"}, false},
	{CategoryInput{Name: "Shopping", Color: "#E91E63", Icon: "shopping_cart", Description: "Shopping lists"}, false},
}
