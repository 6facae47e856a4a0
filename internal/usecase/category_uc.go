package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/phenrril/storefront/internal/domain"
)

// CategoryUC manages the two-level category tree.
type CategoryUC struct {
	Categories domain.CategoryRepo
	Products   domain.ProductRepo
}

// Tree returns the root categories with their children.
func (uc *CategoryUC) Tree(ctx context.Context) ([]domain.Category, error) {
	return uc.Categories.Roots(ctx)
}

func (uc *CategoryUC) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return uc.Categories.FindBySlug(ctx, strings.TrimSpace(slug))
}

// Create validates c and gives it a unique slug, taken from Slug or Name.
func (uc *CategoryUC) Create(ctx context.Context, c *domain.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if err := uc.prepare(ctx, c, c.Slug); err != nil {
		return err
	}
	return uc.Categories.Save(ctx, c)
}

// Update replaces category id with c. An empty slug keeps the old one.
func (uc *CategoryUC) Update(ctx context.Context, id uuid.UUID, c *domain.Category) error {
	existing, err := uc.Categories.FindByID(ctx, id)
	if err != nil {
		return err
	}
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	if c.ParentID != nil {
		n, err := uc.Categories.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.Invalid("a category with subcategories cannot get a parent")
		}
	}
	slug := c.Slug
	if strings.TrimSpace(slug) == "" {
		slug = existing.Slug
	}
	if err := uc.prepare(ctx, c, slug); err != nil {
		return err
	}
	return uc.Categories.Save(ctx, c)
}

// prepare validates c and keeps the tree at most two levels deep.
func (uc *CategoryUC) prepare(ctx context.Context, c *domain.Category, slug string) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Children = nil
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ParentID != nil {
		parent, err := uc.Categories.FindByID(ctx, *c.ParentID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Invalid("parent category does not exist")
		}
		if err != nil {
			return err
		}
		if parent.ParentID != nil {
			return domain.Invalid("categories can only be nested one level deep")
		}
	}
	base := domain.Slugify(slug)
	if base == "" {
		base = domain.Slugify(c.Name)
	}
	unique, err := domain.UniqueSlug(base, func(s string) (bool, error) {
		return uc.Categories.SlugExists(ctx, s, c.ID)
	})
	if err != nil {
		return err
	}
	c.Slug = unique
	return nil
}

// Delete refuses categories that still hold products or subcategories.
func (uc *CategoryUC) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := uc.Categories.FindByID(ctx, id); err != nil {
		return err
	}
	products, err := uc.Products.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	children, err := uc.Categories.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if products > 0 || children > 0 {
		return domain.ErrCategoryInUse
	}
	return uc.Categories.Delete(ctx, id)
}
