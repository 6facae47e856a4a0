package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/domain"
)

// Migrate creates or updates the schema.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(
		&domain.Category{}, &domain.Product{}, &domain.FeaturedProduct{}, &domain.Coupon{},
		&domain.User{}, &domain.Address{}, &domain.Order{}, &domain.OrderItem{},
	); err != nil {
		return err
	}

	stmts := []string{
		// at most one default address per user
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_addresses_one_default ON addresses (user_id) WHERE is_default",
		`DO $$ BEGIN
			ALTER TABLE products ADD CONSTRAINT chk_products_stock CHECK (stock >= 0);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
		`DO $$ BEGIN
			ALTER TABLE coupons ADD CONSTRAINT chk_coupons_used_count CHECK (used_count >= 0);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	}
	for _, s := range stmts {
		if err := db.Exec(s).Error; err != nil {
			return err
		}
	}
	return backfillSlugs(db)
}

// backfillSlugs fills empty slugs left by rows inserted outside the API.
func backfillSlugs(db *gorm.DB) error {
	var products []domain.Product
	if err := db.Where("slug IS NULL OR slug = ''").Find(&products).Error; err != nil {
		return err
	}
	for _, p := range products {
		base := domain.Slugify(p.Name)
		if base == "" {
			base = p.ID.String()[:8]
		}
		slug, err := domain.UniqueSlug(base, func(s string) (bool, error) {
			var n int64
			err := db.Model(&domain.Product{}).Where("slug = ?", s).Count(&n).Error
			return n > 0, err
		})
		if err != nil {
			return err
		}
		if err := db.Model(&domain.Product{}).Where("id = ?", p.ID).Update("slug", slug).Error; err != nil {
			return err
		}
	}
	return nil
}
