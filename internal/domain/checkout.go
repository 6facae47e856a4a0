package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutRequest is everything the buyer submits at checkout. ClientTotal
// is accepted for display round-trips and never used.
type CheckoutRequest struct {
	Items         []CartItem       `json:"items"`
	CouponCode    string           `json:"coupon_code"`
	ShippingZone  string           `json:"shipping_zone"`
	PaymentMethod string           `json:"payment_method"`
	AddressID     *uuid.UUID       `json:"address_id,omitempty"`
	Name          string           `json:"name" validate:"required,max=140"`
	Email         string           `json:"email" validate:"required,email"`
	Phone         string           `json:"phone" validate:"required,max=50"`
	Address       string           `json:"address" validate:"required,max=255"`
	City          string           `json:"city" validate:"required,max=80"`
	District      string           `json:"district"`
	Area          string           `json:"area"`
	Zip           string           `json:"zip"`
	Notes         string           `json:"notes"`
	ClientTotal   *decimal.Decimal `json:"total,omitempty"`
}

// FillFromAddress copies a saved address into the empty shipping fields.
func (r *CheckoutRequest) FillFromAddress(a *Address) {
	set := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = v
		}
	}
	set(&r.Name, a.RecipientName)
	set(&r.Phone, a.RecipientPhone)
	set(&r.Address, a.Address)
	set(&r.City, a.City)
	set(&r.District, a.District)
	set(&r.Area, a.Area)
	set(&r.Zip, a.Zip)
}

// Normalize trims the free text fields and lower-cases the email.
func (r *CheckoutRequest) Normalize() {
	for _, f := range []*string{&r.Name, &r.Phone, &r.Address, &r.City, &r.District, &r.Area, &r.Zip, &r.Notes, &r.CouponCode} {
		*f = strings.TrimSpace(*f)
	}
	r.Email = NormalizeEmail(r.Email)
	r.CouponCode = NormalizeCouponCode(r.CouponCode)
}

// Validate runs every check that does not need storage. It returns the parsed
// zone and payment method.
func (r *CheckoutRequest) Validate() (ShippingZone, PaymentMethod, error) {
	if len(MergeCartItems(r.Items)) == 0 {
		return "", "", Invalid("cart is empty")
	}
	if err := Check(r); err != nil {
		return "", "", err
	}
	zone, err := ParseShippingZone(r.ShippingZone)
	if err != nil {
		return "", "", err
	}
	pm, err := ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return "", "", err
	}
	return zone, pm, nil
}
