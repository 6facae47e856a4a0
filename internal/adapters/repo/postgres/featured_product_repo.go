package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/domain"
)

type FeaturedProductRepo struct{ db *gorm.DB }

func NewFeaturedProductRepo(db *gorm.DB) *FeaturedProductRepo {
	return &FeaturedProductRepo{db: db}
}

func (r *FeaturedProductRepo) List(ctx context.Context) ([]domain.FeaturedProduct, error) {
	var list []domain.FeaturedProduct
	if err := r.db.WithContext(ctx).Order("display_order asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *FeaturedProductRepo) Save(ctx context.Context, productID uuid.UUID, order int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.FeaturedProduct
		err := tx.Where("product_id = ?", productID).First(&existing).Error
		if err == nil {
			return tx.Model(&existing).Update("display_order", order).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		fp := domain.FeaturedProduct{ID: uuid.New(), ProductID: productID, DisplayOrder: order, CreatedAt: time.Now()}
		return translate(tx.Create(&fp).Error, "featured product")
	})
}

func (r *FeaturedProductRepo) Remove(ctx context.Context, productID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&domain.FeaturedProduct{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("featured product not found")
	}
	return nil
}

func (r *FeaturedProductRepo) Products(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.WithContext(ctx).
		Table("products").
		Select("products.*").
		Joins("INNER JOIN featured_products ON products.id = featured_products.product_id").
		Where("products.status = ? AND products.available = ?", domain.ProductPublished, true).
		Order("featured_products.display_order asc").
		Preload("Category").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
