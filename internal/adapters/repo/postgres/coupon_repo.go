package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/storefront/internal/domain"
)

type CouponRepo struct{ db *gorm.DB }

func NewCouponRepo(db *gorm.DB) *CouponRepo { return &CouponRepo{db: db} }

// Save never writes used_count; only IncrementUsage moves it.
func (r *CouponRepo) Save(ctx context.Context, c *domain.Coupon) error {
	c.Code = domain.NormalizeCouponCode(c.Code)
	return translate(r.db.WithContext(ctx).Omit("used_count").Save(c).Error, "coupon")
}

func (r *CouponRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	var c domain.Coupon
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, "coupon")
	}
	return &c, nil
}

func (r *CouponRepo) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	if err := r.db.WithContext(ctx).First(&c, "code = ?", domain.NormalizeCouponCode(code)).Error; err != nil {
		return nil, translate(err, "coupon")
	}
	return &c, nil
}

// LockByCode holds a row lock on the coupon until the transaction ends.
func (r *CouponRepo) LockByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&c, "code = ?", domain.NormalizeCouponCode(code)).Error
	if err != nil {
		return nil, translate(err, "coupon")
	}
	return &c, nil
}

// IncrementUsage bumps used_count in place.
func (r *CouponRepo) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&domain.Coupon{}).Where("id = ?", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("coupon not found")
	}
	return nil
}

func (r *CouponRepo) List(ctx context.Context, page, size int) ([]domain.Coupon, int64, error) {
	var list []domain.Coupon
	var total int64
	q := r.db.WithContext(ctx).Model(&domain.Coupon{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := paging(page, size)
	if err := q.Order("created_at desc").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *CouponRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Coupon{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("coupon not found")
	}
	return nil
}
