package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/phenrril/storefront/internal/domain"
)

// CartUC prices guest carts. It never writes; the cart lives in a cookie.
type CartUC struct {
	Products domain.ProductRepo
}

// Price prices the items from current catalog data.
func (uc *CartUC) Price(ctx context.Context, items []domain.CartItem) (domain.Cart, error) {
	merged := domain.MergeCartItems(items)
	products := make(map[uuid.UUID]*domain.Product, len(merged))
	for _, it := range merged {
		if _, ok := products[it.ProductID]; ok {
			continue
		}
		p, err := uc.Products.FindByID(ctx, it.ProductID)
		if err != nil {
			return domain.Cart{}, err
		}
		products[p.ID] = p
	}
	return domain.PriceCart(merged, products)
}

// Prune drops lines that can no longer be bought at all: the product was
// deleted, unpublished or marked unavailable, or the size or color was
// withdrawn. Lines over the current stock are kept so the buyer can lower
// them. changed reports whether anything was dropped.
func (uc *CartUC) Prune(ctx context.Context, items []domain.CartItem) (kept []domain.CartItem, changed bool, err error) {
	merged := domain.MergeCartItems(items)
	kept = make([]domain.CartItem, 0, len(merged))
	for _, it := range merged {
		p, err := uc.Products.FindByID(ctx, it.ProductID)
		if errors.Is(err, domain.ErrNotFound) {
			changed = true
			continue
		}
		if err != nil {
			return nil, false, err
		}
		if !p.Purchasable() || !p.AllowsSize(it.Size) || !p.AllowsColor(it.Color) {
			changed = true
			continue
		}
		kept = append(kept, it)
	}
	return kept, changed || len(kept) != len(items), nil
}

// Add puts it into the cart, summing with an identical line, and returns the
// new item list only if the result can still be bought.
func (uc *CartUC) Add(ctx context.Context, items []domain.CartItem, it domain.CartItem) ([]domain.CartItem, domain.Cart, error) {
	if it.ProductID == uuid.Nil {
		return nil, domain.Cart{}, domain.Invalid("product_id is required")
	}
	if it.Quantity <= 0 {
		return nil, domain.Cart{}, domain.Invalid("quantity must be at least 1")
	}
	next := domain.MergeCartItems(append(append([]domain.CartItem{}, items...), it))
	cart, err := uc.Price(ctx, next)
	if err != nil {
		return nil, domain.Cart{}, err
	}
	return next, cart, nil
}

// SetQuantity overwrites the quantity of the matching line; zero removes it.
func (uc *CartUC) SetQuantity(ctx context.Context, items []domain.CartItem, it domain.CartItem) ([]domain.CartItem, domain.Cart, error) {
	if it.Quantity < 0 {
		return nil, domain.Cart{}, domain.Invalid("quantity cannot be negative")
	}
	next := make([]domain.CartItem, 0, len(items)+1)
	found := false
	for _, cur := range domain.MergeCartItems(items) {
		if cur.ProductID == it.ProductID && cur.Size == it.Size && cur.Color == it.Color {
			found = true
			cur.Quantity = it.Quantity
		}
		next = append(next, cur)
	}
	if !found && it.Quantity > 0 {
		next = append(next, it)
	}
	next = domain.MergeCartItems(next)
	cart, err := uc.Price(ctx, next)
	if err != nil {
		return nil, domain.Cart{}, err
	}
	return next, cart, nil
}
