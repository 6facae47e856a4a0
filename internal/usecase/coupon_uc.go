package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/phenrril/storefront/internal/domain"
)

type CouponUC struct {
	Coupons domain.CouponRepo
	Now     func() time.Time
}

func (uc *CouponUC) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

// Preview prices code against subtotal. Usage is not touched.
func (uc *CouponUC) Preview(ctx context.Context, code string, subtotal decimal.Decimal) (domain.Discount, error) {
	code = domain.NormalizeCouponCode(code)
	if code == "" {
		return domain.Discount{}, domain.ErrCouponInvalid
	}
	c, err := uc.Coupons.FindByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		c, err = nil, nil
	}
	if err != nil {
		return domain.Discount{}, err
	}
	return domain.EvaluateCoupon(c, subtotal, uc.now())
}

// List pages through every coupon, newest first.
func (uc *CouponUC) List(ctx context.Context, page, size int) (domain.Page[domain.Coupon], error) {
	page, size = domain.NormalizePaging(page, size)
	items, total, err := uc.Coupons.List(ctx, page, size)
	if err != nil {
		return domain.Page[domain.Coupon]{}, err
	}
	return domain.NewPage(items, total, page, size), nil
}

// Get returns the coupon, usage count included.
func (uc *CouponUC) Get(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	return uc.Coupons.FindByID(ctx, id)
}

// Create normalizes the code and stores the coupon with a zero usage count.
// A code already in use is a conflict.
func (uc *CouponUC) Create(ctx context.Context, c *domain.Coupon) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Code = domain.NormalizeCouponCode(c.Code)
	c.UsedCount = 0
	if err := c.Validate(); err != nil {
		return err
	}
	return uc.Coupons.Save(ctx, c)
}

// Update copies the editable fields of in onto the stored coupon.
func (uc *CouponUC) Update(ctx context.Context, id uuid.UUID, in *domain.Coupon) (*domain.Coupon, error) {
	c, err := uc.Coupons.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Code = domain.NormalizeCouponCode(in.Code)
	c.Type = in.Type
	c.Amount = in.Amount
	c.MinOrderAmount = in.MinOrderAmount
	c.UsageLimit = in.UsageLimit
	c.ExpiresAt = in.ExpiresAt
	c.Active = in.Active
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := uc.Coupons.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes the coupon. Orders keep the code they were placed with.
func (uc *CouponUC) Delete(ctx context.Context, id uuid.UUID) error {
	return uc.Coupons.Delete(ctx, id)
}
