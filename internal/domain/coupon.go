package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFixed      CouponType = "fixed"
)

type Coupon struct {
	ID             uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Code           string              `gorm:"size:60;uniqueIndex;not null" json:"code"`
	Type           CouponType          `gorm:"type:varchar(20);not null" json:"type"`
	Amount         decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"amount"`
	MinOrderAmount decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"min_order_amount"`
	UsageLimit     *int                `json:"usage_limit"`
	UsedCount      int                 `gorm:"not null;default:0" json:"used_count"`
	ExpiresAt      *time.Time          `json:"expires_at"`
	Active         bool                `gorm:"not null" json:"active"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (c *Coupon) Validate() error {
	if c.Code == "" {
		return Invalid("coupon code is required")
	}
	switch c.Type {
	case CouponPercentage:
		if !c.Amount.IsPositive() || c.Amount.GreaterThan(hundred) {
			return Invalid("percentage must be greater than 0 and at most 100")
		}
	case CouponFixed:
		if !c.Amount.IsPositive() {
			return Invalid("fixed amount must be greater than zero")
		}
	default:
		return Invalid("coupon type must be percentage or fixed")
	}
	if c.MinOrderAmount.Valid && c.MinOrderAmount.Decimal.IsNegative() {
		return Invalid("minimum order amount cannot be negative")
	}
	if c.UsageLimit != nil && *c.UsageLimit < 0 {
		return Invalid("usage limit cannot be negative")
	}
	return nil
}

type Discount struct {
	Code   string          `json:"code"`
	Type   CouponType      `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Value  decimal.Decimal `json:"discount"`
}

// EvaluateCoupon checks c against subtotal at instant now. A nil coupon means
// the code did not match any row. Checks run in a fixed order and the first
// failure is returned.
func EvaluateCoupon(c *Coupon, subtotal decimal.Decimal, now time.Time) (Discount, error) {
	if c == nil {
		return Discount{}, ErrCouponInvalid
	}
	if !c.Active {
		return Discount{}, ErrCouponInactive
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
		return Discount{}, ErrCouponExpired
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return Discount{}, ErrCouponUsageLimit
	}
	if c.MinOrderAmount.Valid && subtotal.LessThan(c.MinOrderAmount.Decimal) {
		return Discount{}, ErrCouponBelowMinimum
	}

	var value decimal.Decimal
	switch c.Type {
	case CouponPercentage:
		value = Round2(subtotal.Mul(c.Amount).Div(hundred))
	default:
		value = c.Amount
	}
	value = minDecimal(value, subtotal)
	if value.IsNegative() {
		value = decimal.Zero
	}
	return Discount{Code: c.Code, Type: c.Type, Amount: c.Amount, Value: value}, nil
}

type CouponRepo interface {
	Save(ctx context.Context, c *Coupon) error
	FindByID(ctx context.Context, id uuid.UUID) (*Coupon, error)
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	// LockByCode loads the coupon FOR UPDATE inside a transaction.
	LockByCode(ctx context.Context, code string) (*Coupon, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, page, size int) ([]Coupon, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
