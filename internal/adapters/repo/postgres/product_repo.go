package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/storefront/internal/domain"
)

// effectivePrice mirrors domain.Product.UnitPrice for filtering and sorting.
const effectivePrice = "(CASE WHEN sale_price > 0 AND sale_price < price THEN sale_price " +
	"WHEN discount_pct > 0 THEN ROUND(price * (100 - discount_pct) / 100, 2) ELSE price END)"

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Save(ctx context.Context, p *domain.Product) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error, "product")
}

func (r *ProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err, "product")
	}
	return &p, nil
}

func (r *ProductRepo) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&p, "slug = ?", slug).Error; err != nil {
		return nil, translate(err, "product")
	}
	return &p, nil
}

func (r *ProductRepo) SlugExists(ctx context.Context, slug string, exceptID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Where("slug = ? AND id <> ?", slug, exceptID).Count(&n).Error
	return n > 0, err
}

func (r *ProductRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	f.Normalize()
	var list []domain.Product
	q := r.db.WithContext(ctx).Model(&domain.Product{})
	if f.CategorySlug != "" {
		q = q.Where("category_id IN (SELECT id FROM categories WHERE slug = ? OR parent_id IN (SELECT id FROM categories WHERE slug = ?))",
			f.CategorySlug, f.CategorySlug)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		like := "%" + query + "%"
		q = q.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}
	if f.MinPrice != nil {
		q = q.Where(effectivePrice+" >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where(effectivePrice+" <= ?", *f.MaxPrice)
	}
	if f.InStock {
		q = q.Where("stock > 0")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	switch f.Sort {
	case domain.SortPriceDesc:
		q = q.Order(effectivePrice + " desc")
	case domain.SortPriceAsc:
		q = q.Order(effectivePrice + " asc")
	case domain.SortName:
		q = q.Order("name asc")
	default:
		q = q.Order("created_at desc")
	}
	offset, limit := paging(f.Page, f.PageSize)
	if err := q.Offset(offset).Limit(limit).Preload("Category").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *ProductRepo) LockByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	var list []domain.Product
	if len(ids) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).Order("id").Find(&list).Error
	return list, err
}

// AdjustStock adds delta to the stock, refusing to go below zero.
func (r *ProductRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if delta < 0 {
			return domain.ErrOutOfStock
		}
		return domain.NotFound("product not found")
	}
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.OrderItem{}).Where("product_id = ?", id).Update("product_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&domain.FeaturedProduct{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Product{}, "id = ?", id)
		if res.Error != nil {
			return translate(res.Error, "product")
		}
		if res.RowsAffected == 0 {
			return domain.NotFound("product not found")
		}
		return nil
	})
}

func (r *ProductRepo) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n, err
}
