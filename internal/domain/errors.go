package domain

import "errors"

var (
	ErrValidation   = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrBusinessRule = errors.New("business rule violation")
)

// Error carries a human readable message for the caller while still
// matching its kind through errors.Is.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func Invalid(msg string) error { return &Error{Kind: ErrValidation, Msg: msg} }

func Unauthorized(msg string) error { return &Error{Kind: ErrUnauthorized, Msg: msg} }

func Forbidden(msg string) error { return &Error{Kind: ErrForbidden, Msg: msg} }

func NotFound(msg string) error { return &Error{Kind: ErrNotFound, Msg: msg} }

func Conflict(msg string) error { return &Error{Kind: ErrConflict, Msg: msg} }

func rule(msg string) *Error { return &Error{Kind: ErrBusinessRule, Msg: msg} }

var (
	ErrCouponInvalid      = rule("invalid coupon code")
	ErrCouponInactive     = rule("coupon is not active")
	ErrCouponExpired      = rule("coupon has expired")
	ErrCouponUsageLimit   = rule("coupon usage limit reached")
	ErrCouponBelowMinimum = rule("order subtotal is below the coupon minimum")

	ErrOrderTerminal       = rule("order is already delivered or cancelled")
	ErrOrderNotCancellable = rule("only pending orders can be cancelled")
	ErrOrderNotDeletable   = rule("only cancelled orders can be deleted")

	ErrOutOfStock       = rule("not enough stock")
	ErrProductInactive  = rule("product is not available")
	ErrCategoryInUse    = rule("category still has products or subcategories")
	ErrInvalidResetLink = rule("reset link is invalid or expired")
)

// Message returns the user facing text of err when it is a known domain error.
func Message(err error) (string, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Msg, true
	}
	for _, k := range []error{ErrValidation, ErrUnauthorized, ErrForbidden, ErrNotFound, ErrConflict, ErrBusinessRule} {
		if errors.Is(err, k) {
			return k.Error(), true
		}
	}
	return "", false
}
