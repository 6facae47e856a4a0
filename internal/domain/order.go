package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderStatuses is the allow-list an administrator may set.
var OrderStatuses = []OrderStatus{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

func ParseOrderStatus(s string) (OrderStatus, error) {
	v := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range OrderStatuses {
		if st == v {
			return v, nil
		}
	}
	return "", Invalid("unknown order status " + strings.TrimSpace(s))
}

func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

type ShippingZone string

const (
	ZoneInside  ShippingZone = "inside"
	ZoneOutside ShippingZone = "outside"
)

func ParseShippingZone(s string) (ShippingZone, error) {
	switch z := ShippingZone(strings.ToLower(strings.TrimSpace(s))); z {
	case ZoneInside, ZoneOutside:
		return z, nil
	}
	return "", Invalid("shipping zone must be inside or outside")
}

// ShippingRates holds the flat fee of each zone.
type ShippingRates struct {
	Inside  decimal.Decimal
	Outside decimal.Decimal
}

func (r ShippingRates) Fee(z ShippingZone) decimal.Decimal {
	if z == ZoneOutside {
		return r.Outside
	}
	return r.Inside
}

type PaymentMethod string

const (
	PaymentCOD   PaymentMethod = "cod"
	PaymentCard  PaymentMethod = "card"
	PaymentBkash PaymentMethod = "bkash"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	v := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case "":
		return PaymentCOD, nil
	case PaymentCOD, PaymentCard, PaymentBkash:
		return v, nil
	}
	return "", Invalid("unknown payment method")
}

type Order struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Number         int64           `gorm:"autoIncrement;uniqueIndex;not null" json:"number"`
	UserID         *uuid.UUID      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Status         OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Name           string          `gorm:"size:140;not null" json:"name"`
	Email          string          `gorm:"size:140;not null" json:"email"`
	Phone          string          `gorm:"size:50;not null" json:"phone"`
	Address        string          `gorm:"size:255;not null" json:"address"`
	City           string          `gorm:"size:80" json:"city"`
	District       string          `gorm:"size:80" json:"district"`
	Area           string          `gorm:"size:80" json:"area"`
	Zip            string          `gorm:"size:20" json:"zip"`
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`
	ShippingZone   ShippingZone    `gorm:"type:varchar(20);not null" json:"shipping_zone"`
	PaymentMethod  PaymentMethod   `gorm:"type:varchar(30);not null;index" json:"payment_method"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_amount"`
	ShippingFee    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shipping_fee"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	CouponCode     string          `gorm:"size:60" json:"coupon_code,omitempty"`
	Items          []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// OrderItem is a snapshot of the product at checkout time. ProductID becomes
// nil once the product is deleted.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"-"`
	Position  int             `gorm:"not null;default:0" json:"position"`
	ProductID *uuid.UUID      `gorm:"type:uuid;index" json:"product_id"`
	Name      string          `gorm:"size:180;not null" json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Size      string          `gorm:"size:40" json:"size,omitempty"`
	Color     string          `gorm:"size:60" json:"color,omitempty"`
}

func (it OrderItem) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

func (o *Order) OwnedBy(userID uuid.UUID) bool {
	return o.UserID != nil && userID != uuid.Nil && *o.UserID == userID
}

// CancelByCustomer applies a self-service cancellation by userID.
func (o *Order) CancelByCustomer(userID uuid.UUID) error {
	if !o.OwnedBy(userID) {
		return Forbidden("order does not belong to the current user")
	}
	if o.Status.Terminal() {
		return ErrOrderTerminal
	}
	if o.Status != OrderPending {
		return ErrOrderNotCancellable
	}
	o.Status = OrderCancelled
	return nil
}

func (o *Order) CancelByAdmin() error {
	if o.Status.Terminal() {
		return ErrOrderTerminal
	}
	o.Status = OrderCancelled
	return nil
}

// ForceStatus lets an administrator move a live order to any allowed status.
func (o *Order) ForceStatus(s OrderStatus) error {
	if _, err := ParseOrderStatus(string(s)); err != nil {
		return err
	}
	if o.Status.Terminal() {
		return ErrOrderTerminal
	}
	o.Status = s
	return nil
}

func (o *Order) Deletable() error {
	if o.Status != OrderCancelled {
		return ErrOrderNotDeletable
	}
	return nil
}

type Totals struct {
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
}

// ComputeTotals is the only place order money is combined.
func ComputeTotals(subtotal, discount, shippingFee decimal.Decimal) Totals {
	discount = minDecimal(discount, subtotal)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return Totals{
		Subtotal:    Round2(subtotal),
		Discount:    Round2(discount),
		ShippingFee: Round2(shippingFee),
		Total:       Round2(subtotal.Sub(discount).Add(shippingFee)),
	}
}

type OrderFilter struct {
	Status   OrderStatus
	UserID   *uuid.UUID
	Page     int
	PageSize int
}

type SalesSummary struct {
	From           time.Time             `json:"from"`
	To             time.Time             `json:"to"`
	Orders         int                   `json:"orders"`
	Revenue        decimal.Decimal       `json:"revenue"`
	Discounts      decimal.Decimal       `json:"discounts"`
	Shipping       decimal.Decimal       `json:"shipping"`
	AvgOrderValue  decimal.Decimal       `json:"avg_order_value"`
	StatusCounts   map[OrderStatus]int   `json:"status_counts"`
	CouponUsage    map[string]int        `json:"coupon_usage"`
	PaymentMethods map[PaymentMethod]int `json:"payment_methods"`
}

// Summarize aggregates orders created in [from, to]. Cancelled orders are
// counted per status but excluded from money totals.
func Summarize(orders []Order, from, to time.Time) SalesSummary {
	s := SalesSummary{
		From:           from,
		To:             to,
		Revenue:        decimal.Zero,
		Discounts:      decimal.Zero,
		Shipping:       decimal.Zero,
		AvgOrderValue:  decimal.Zero,
		StatusCounts:   map[OrderStatus]int{},
		CouponUsage:    map[string]int{},
		PaymentMethods: map[PaymentMethod]int{},
	}
	paid := 0
	for _, o := range orders {
		s.Orders++
		s.StatusCounts[o.Status]++
		if o.Status == OrderCancelled {
			continue
		}
		paid++
		s.Revenue = s.Revenue.Add(o.TotalAmount)
		s.Discounts = s.Discounts.Add(o.DiscountAmount)
		s.Shipping = s.Shipping.Add(o.ShippingFee)
		s.PaymentMethods[o.PaymentMethod]++
		if o.CouponCode != "" {
			s.CouponUsage[o.CouponCode]++
		}
	}
	if paid > 0 {
		s.AvgOrderValue = Round2(s.Revenue.Div(decimal.NewFromInt(int64(paid))))
	}
	return s
}

type OrderRepo interface {
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// LockByID loads the order FOR UPDATE inside a transaction.
	LockByID(ctx context.Context, id uuid.UUID) (*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, s OrderStatus) error
	List(ctx context.Context, f OrderFilter) ([]Order, int64, error)
	ListInRange(ctx context.Context, from, to time.Time) ([]Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
