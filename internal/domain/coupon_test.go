package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(v int) *int { return &v }

func TestEvaluateCoupon_Percentage(t *testing.T) {
	c := &Coupon{Code: "SAVE10", Type: CouponPercentage, Amount: dec("10"), Active: true}

	d, err := EvaluateCoupon(c, dec("1000"), time.Now())
	require.NoError(t, err)
	require.True(t, dec("100").Equal(d.Value), d.Value.String())
	require.Equal(t, "SAVE10", d.Code)
	require.Equal(t, CouponPercentage, d.Type)
}

func TestEvaluateCoupon_DiscountNeverExceedsSubtotal(t *testing.T) {
	cases := []struct {
		name     string
		typ      CouponType
		amount   string
		subtotal string
		want     string
	}{
		{"fixed capped", CouponFixed, "100", "50", "50"},
		{"fixed under subtotal", CouponFixed, "30", "50", "30"},
		{"full percentage", CouponPercentage, "100", "73.40", "73.40"},
		{"percentage rounds to cents", CouponPercentage, "10", "33.33", "3.33"},
		{"zero subtotal", CouponFixed, "10", "0", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Coupon{Code: "X", Type: tc.typ, Amount: dec(tc.amount), Active: true}
			d, err := EvaluateCoupon(c, dec(tc.subtotal), time.Now())
			require.NoError(t, err)
			require.True(t, dec(tc.want).Equal(d.Value), "got %s", d.Value)
			require.False(t, d.Value.GreaterThan(dec(tc.subtotal)))
		})
	}
}

func TestEvaluateCoupon_ValidationOrder(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name   string
		coupon *Coupon
		want   error
	}{
		{"missing", nil, ErrCouponInvalid},
		{"inactive wins over expired", &Coupon{Type: CouponFixed, Amount: dec("5"), ExpiresAt: &past}, ErrCouponInactive},
		{"expired", &Coupon{Type: CouponFixed, Amount: dec("5"), Active: true, ExpiresAt: &past}, ErrCouponExpired},
		{"expires exactly now", &Coupon{Type: CouponFixed, Amount: dec("5"), Active: true, ExpiresAt: &now}, ErrCouponExpired},
		{"usage limit wins over minimum", &Coupon{Type: CouponFixed, Amount: dec("5"), Active: true, ExpiresAt: &future,
			UsageLimit: intPtr(3), UsedCount: 3, MinOrderAmount: decimal.NewNullDecimal(dec("500"))}, ErrCouponUsageLimit},
		{"below minimum", &Coupon{Type: CouponFixed, Amount: dec("5"), Active: true,
			MinOrderAmount: decimal.NewNullDecimal(dec("500"))}, ErrCouponBelowMinimum},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EvaluateCoupon(tc.coupon, dec("100"), now)
			require.ErrorIs(t, err, tc.want)
			require.True(t, errors.Is(err, ErrBusinessRule))
		})
	}
}

func TestEvaluateCoupon_LimitReachedRejectsOtherwiseValidCoupon(t *testing.T) {
	c := &Coupon{Code: "ONCE", Type: CouponPercentage, Amount: dec("5"), Active: true, UsageLimit: intPtr(1), UsedCount: 1}
	_, err := EvaluateCoupon(c, dec("200"), time.Now())
	require.ErrorIs(t, err, ErrCouponUsageLimit)

	c.UsedCount = 0
	_, err = EvaluateCoupon(c, dec("200"), time.Now())
	require.NoError(t, err)
}

func TestEvaluateCoupon_MinimumIsInclusive(t *testing.T) {
	c := &Coupon{Code: "MIN", Type: CouponFixed, Amount: dec("20"), Active: true, MinOrderAmount: decimal.NewNullDecimal(dec("100"))}
	d, err := EvaluateCoupon(c, dec("100"), time.Now())
	require.NoError(t, err)
	require.True(t, dec("20").Equal(d.Value))
}

func TestCouponValidate(t *testing.T) {
	require.NoError(t, (&Coupon{Code: "A", Type: CouponPercentage, Amount: dec("100")}).Validate())
	require.ErrorIs(t, (&Coupon{Code: "A", Type: CouponPercentage, Amount: dec("101")}).Validate(), ErrValidation)
	require.ErrorIs(t, (&Coupon{Code: "A", Type: CouponFixed, Amount: dec("0")}).Validate(), ErrValidation)
	require.ErrorIs(t, (&Coupon{Code: "A", Type: "bogus", Amount: dec("1")}).Validate(), ErrValidation)
	require.ErrorIs(t, (&Coupon{Type: CouponFixed, Amount: dec("1")}).Validate(), ErrValidation)
	require.Equal(t, "SAVE10", NormalizeCouponCode("  save10 "))
}
