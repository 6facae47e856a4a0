package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductDraft     ProductStatus = "draft"
	ProductPublished ProductStatus = "published"
	ProductArchived  ProductStatus = "archived"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductDraft, ProductPublished, ProductArchived:
		return true
	}
	return false
}

type Product struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string              `gorm:"size:180;not null" json:"name"`
	Slug        string              `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	Description string              `gorm:"type:text" json:"description"`
	Price       decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"price"`
	SalePrice   decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"sale_price"`
	DiscountPct decimal.Decimal     `gorm:"type:decimal(5,2);not null;default:0" json:"discount_pct"`
	Stock       int                 `gorm:"not null;default:0" json:"stock"`
	Available   bool                `gorm:"not null" json:"available"`
	Status      ProductStatus       `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Images      []string            `gorm:"type:jsonb;serializer:json" json:"images"`
	Sizes       []string            `gorm:"type:jsonb;serializer:json" json:"sizes,omitempty"`
	Colors      []string            `gorm:"type:jsonb;serializer:json" json:"colors,omitempty"`
	CategoryID  uuid.UUID           `gorm:"type:uuid;index;not null" json:"category_id"`
	Category    *Category           `json:"category,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// UnitPrice is the price a customer pays for one unit right now.
func (p *Product) UnitPrice() decimal.Decimal {
	if p.SalePrice.Valid && p.SalePrice.Decimal.IsPositive() && p.SalePrice.Decimal.LessThan(p.Price) {
		return Round2(p.SalePrice.Decimal)
	}
	if p.DiscountPct.IsPositive() {
		off := p.Price.Mul(p.DiscountPct).Div(hundred)
		return Round2(p.Price.Sub(off))
	}
	return Round2(p.Price)
}

func (p *Product) Purchasable() bool {
	return p.Available && p.Status == ProductPublished
}

func (p *Product) AllowsSize(size string) bool { return allows(p.Sizes, size) }

func (p *Product) AllowsColor(color string) bool { return allows(p.Colors, color) }

func allows(set []string, v string) bool {
	if len(set) == 0 {
		return v == ""
	}
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return Invalid("product name is required")
	}
	if !p.Price.IsPositive() {
		return Invalid("price must be greater than zero")
	}
	if p.SalePrice.Valid && p.SalePrice.Decimal.IsNegative() {
		return Invalid("sale price cannot be negative")
	}
	if p.DiscountPct.IsNegative() || p.DiscountPct.GreaterThan(hundred) {
		return Invalid("discount percentage must be between 0 and 100")
	}
	if p.Stock < 0 {
		return Invalid("stock cannot be negative")
	}
	if !p.Status.Valid() {
		return Invalid("unknown product status")
	}
	if p.CategoryID == uuid.Nil {
		return Invalid("category is required")
	}
	return nil
}

type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortName      ProductSort = "name"
)

type ProductFilter struct {
	CategorySlug string
	Query        string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	InStock      bool
	Status       ProductStatus
	Sort         ProductSort
	Page         int
	PageSize     int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps paging values to sane bounds.
func (f *ProductFilter) Normalize() {
	f.Page, f.PageSize = NormalizePaging(f.Page, f.PageSize)
	switch f.Sort {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortName:
	default:
		f.Sort = SortNewest
	}
}

func NormalizePaging(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Pages    int   `json:"pages"`
}

func NewPage[T any](items []T, total int64, page, size int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := int((total + int64(size) - 1) / int64(size))
	if pages == 0 {
		pages = 1
	}
	return Page[T]{Items: items, Total: total, Page: page, PageSize: size, Pages: pages}
}

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

type ProductRepo interface {
	Save(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	SlugExists(ctx context.Context, slug string, exceptID uuid.UUID) (bool, error)
	List(ctx context.Context, f ProductFilter) ([]Product, int64, error)
	// LockByIDs loads the products FOR UPDATE inside a transaction.
	LockByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
	// Delete detaches historical order items from the product before removing it.
	Delete(ctx context.Context, id uuid.UUID) error
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
}

// FeaturedProduct pins a product to the storefront's featured list.
type FeaturedProduct struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"product_id"`
	DisplayOrder int       `gorm:"not null" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

type FeaturedProductRepo interface {
	List(ctx context.Context) ([]FeaturedProduct, error)
	// Save inserts the product or moves it to order when already featured.
	Save(ctx context.Context, productID uuid.UUID, order int) error
	Remove(ctx context.Context, productID uuid.UUID) error
	// Products returns the featured published products in display order.
	Products(ctx context.Context) ([]Product, error)
}

// UniqueSlug returns base, or base-2, base-3 and so on, whichever exists
// reports as free first.
func UniqueSlug(base string, exists func(slug string) (bool, error)) (string, error) {
	if base == "" {
		base = "item"
	}
	slug := base
	for i := 2; ; i++ {
		taken, err := exists(slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
