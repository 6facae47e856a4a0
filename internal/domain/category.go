package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"size:120;not null" json:"name"`
	Slug      string     `gorm:"size:140;uniqueIndex;not null" json:"slug"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Children  []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Invalid("category name is required")
	}
	if c.ParentID != nil && *c.ParentID == c.ID {
		return Invalid("a category cannot be its own parent")
	}
	return nil
}

type CategoryRepo interface {
	Save(ctx context.Context, c *Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	SlugExists(ctx context.Context, slug string, exceptID uuid.UUID) (bool, error)
	// Roots returns the top level categories with their children loaded.
	Roots(ctx context.Context) ([]Category, error)
	CountChildren(ctx context.Context, id uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
