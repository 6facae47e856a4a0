package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/phenrril/storefront/internal/domain"
)

// ProductUC manages the catalog and the featured list.
type ProductUC struct {
	Products   domain.ProductRepo
	Categories domain.CategoryRepo
	Featured   domain.FeaturedProductRepo
}

// List is the storefront listing; only published products are visible.
func (uc *ProductUC) List(ctx context.Context, f domain.ProductFilter) (domain.Page[domain.Product], error) {
	f.Status = domain.ProductPublished
	return uc.list(ctx, f)
}

// AdminList sees every status; f.Status narrows it to one.
func (uc *ProductUC) AdminList(ctx context.Context, f domain.ProductFilter) (domain.Page[domain.Product], error) {
	if f.Status != "" && !f.Status.Valid() {
		return domain.Page[domain.Product]{}, domain.Invalid("unknown product status")
	}
	return uc.list(ctx, f)
}

func (uc *ProductUC) list(ctx context.Context, f domain.ProductFilter) (domain.Page[domain.Product], error) {
	f.Normalize()
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return domain.Page[domain.Product]{}, domain.Invalid("min_price cannot exceed max_price")
	}
	items, total, err := uc.Products.List(ctx, f)
	if err != nil {
		return domain.Page[domain.Product]{}, err
	}
	return domain.NewPage(items, total, f.Page, f.PageSize), nil
}

// GetBySlug finds a published product. Drafts and archived products are
// reported as not found.
func (uc *ProductUC) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, domain.Invalid("slug is required")
	}
	p, err := uc.Products.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.ProductPublished {
		return nil, domain.NotFound("product not found")
	}
	return p, nil
}

func (uc *ProductUC) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return uc.Products.FindByID(ctx, id)
}

// Create stores p as a draft unless a status is given. The slug comes from
// Slug or, when empty, Name and is made unique.
func (uc *ProductUC) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = domain.ProductDraft
	}
	if err := uc.prepare(ctx, p, p.Slug); err != nil {
		return err
	}
	if err := uc.Products.Save(ctx, p); err != nil {
		return err
	}
	zlog.Info().Str("product", p.Slug).Msg("product created")
	return nil
}

// Update replaces every editable field of the product.
func (uc *ProductUC) Update(ctx context.Context, id uuid.UUID, p *domain.Product) error {
	existing, err := uc.Products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	if p.Status == "" {
		p.Status = existing.Status
	}
	slug := p.Slug
	if strings.TrimSpace(slug) == "" {
		slug = existing.Slug
	}
	if err := uc.prepare(ctx, p, slug); err != nil {
		return err
	}
	return uc.Products.Save(ctx, p)
}

func (uc *ProductUC) prepare(ctx context.Context, p *domain.Product, slug string) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = nil
	if p.Images == nil {
		p.Images = []string{}
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := uc.Categories.FindByID(ctx, p.CategoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Invalid("category does not exist")
		}
		return err
	}
	base := domain.Slugify(slug)
	if base == "" {
		base = domain.Slugify(p.Name)
	}
	unique, err := domain.UniqueSlug(base, func(s string) (bool, error) {
		return uc.Products.SlugExists(ctx, s, p.ID)
	})
	if err != nil {
		return err
	}
	p.Slug = unique
	return nil
}

// SetStatus publishes, archives or drafts a product.
func (uc *ProductUC) SetStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Product, error) {
	s := domain.ProductStatus(strings.ToLower(strings.TrimSpace(status)))
	if !s.Valid() {
		return nil, domain.Invalid("unknown product status")
	}
	p, err := uc.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Status = s
	p.Category = nil
	if err := uc.Products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the product; order history keeps its item snapshots.
func (uc *ProductUC) Delete(ctx context.Context, id uuid.UUID) error {
	if err := uc.Products.Delete(ctx, id); err != nil {
		return err
	}
	zlog.Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}

func (uc *ProductUC) FeaturedProducts(ctx context.Context) ([]domain.Product, error) {
	return uc.Featured.Products(ctx)
}

// Feature adds the product to the home page list or moves it to order.
func (uc *ProductUC) Feature(ctx context.Context, productID uuid.UUID, order int) error {
	if order < 0 {
		return domain.Invalid("display order cannot be negative")
	}
	if _, err := uc.Products.FindByID(ctx, productID); err != nil {
		return err
	}
	return uc.Featured.Save(ctx, productID, order)
}

func (uc *ProductUC) Unfeature(ctx context.Context, productID uuid.UUID) error {
	return uc.Featured.Remove(ctx, productID)
}
