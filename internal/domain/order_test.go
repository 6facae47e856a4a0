package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestComputeTotals(t *testing.T) {
	rates := ShippingRates{Inside: dec("80"), Outside: dec("150")}

	got := ComputeTotals(dec("1000"), dec("100"), rates.Fee(ZoneInside))
	require.True(t, dec("980").Equal(got.Total), got.Total.String())

	got = ComputeTotals(dec("50"), dec("100"), rates.Fee(ZoneOutside))
	require.True(t, dec("50").Equal(got.Discount))
	require.True(t, dec("150").Equal(got.Total))
}

func TestParseOrderStatus(t *testing.T) {
	for _, s := range OrderStatuses {
		got, err := ParseOrderStatus(" " + string(s) + " ")
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
	_, err := ParseOrderStatus("confirmed")
	require.ErrorIs(t, err, ErrValidation)
	_, err = ParseOrderStatus("")
	require.ErrorIs(t, err, ErrValidation)
}

func TestOrder_CancelByCustomer(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	o := &Order{UserID: &owner, Status: OrderPending}
	require.ErrorIs(t, o.CancelByCustomer(other), ErrForbidden)
	require.Equal(t, OrderPending, o.Status)

	require.NoError(t, o.CancelByCustomer(owner))
	require.Equal(t, OrderCancelled, o.Status)

	guest := &Order{Status: OrderPending}
	require.ErrorIs(t, guest.CancelByCustomer(owner), ErrForbidden)

	processing := &Order{UserID: &owner, Status: OrderProcessing}
	require.ErrorIs(t, processing.CancelByCustomer(owner), ErrOrderNotCancellable)
}

func TestOrder_DeliveredIsFrozen(t *testing.T) {
	owner := uuid.New()
	o := &Order{UserID: &owner, Status: OrderDelivered}

	require.ErrorIs(t, o.CancelByCustomer(owner), ErrOrderTerminal)
	require.ErrorIs(t, o.CancelByAdmin(), ErrOrderTerminal)
	for _, s := range OrderStatuses {
		require.ErrorIs(t, o.ForceStatus(s), ErrOrderTerminal)
	}
	require.ErrorIs(t, o.Deletable(), ErrOrderNotDeletable)
	require.Equal(t, OrderDelivered, o.Status)
}

func TestOrder_CancelledOnlyDeletes(t *testing.T) {
	o := &Order{Status: OrderCancelled}
	require.ErrorIs(t, o.ForceStatus(OrderPending), ErrOrderTerminal)
	require.ErrorIs(t, o.CancelByAdmin(), ErrOrderTerminal)
	require.NoError(t, o.Deletable())
}

func TestOrder_AdminTransitions(t *testing.T) {
	for _, from := range []OrderStatus{OrderPending, OrderProcessing, OrderShipped} {
		o := &Order{Status: from}
		require.NoError(t, o.CancelByAdmin())
		require.Equal(t, OrderCancelled, o.Status)
	}

	o := &Order{Status: OrderShipped}
	require.NoError(t, o.ForceStatus(OrderPending))
	require.ErrorIs(t, o.ForceStatus("confirmed"), ErrValidation)
	require.Equal(t, OrderPending, o.Status)
}

func TestSummarize(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	orders := []Order{
		{Status: OrderDelivered, TotalAmount: dec("980"), DiscountAmount: dec("100"), ShippingFee: dec("80"), CouponCode: "SAVE10", PaymentMethod: PaymentCOD},
		{Status: OrderPending, TotalAmount: dec("220"), DiscountAmount: dec("0"), ShippingFee: dec("150"), PaymentMethod: PaymentCard},
		{Status: OrderCancelled, TotalAmount: dec("5000"), DiscountAmount: dec("0"), ShippingFee: dec("80"), PaymentMethod: PaymentCOD},
	}
	s := Summarize(orders, from, from.AddDate(0, 1, 0))
	require.Equal(t, 3, s.Orders)
	require.True(t, dec("1200").Equal(s.Revenue))
	require.True(t, dec("600").Equal(s.AvgOrderValue))
	require.True(t, dec("230").Equal(s.Shipping))
	require.Equal(t, 1, s.StatusCounts[OrderCancelled])
	require.Equal(t, 1, s.CouponUsage["SAVE10"])
	require.Equal(t, 1, s.PaymentMethods[PaymentCOD])
}
