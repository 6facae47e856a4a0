// Package memory is an in-process implementation of domain.Store used by
// tests and by the server's --in-memory development mode.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/storefront/internal/domain"
)

type state struct {
	products   map[uuid.UUID]domain.Product
	featured   map[uuid.UUID]domain.FeaturedProduct
	categories map[uuid.UUID]domain.Category
	coupons    map[uuid.UUID]domain.Coupon
	orders     map[uuid.UUID]domain.Order
	addresses  map[uuid.UUID]domain.Address
	users      map[uuid.UUID]domain.User
	orderSeq   int64
}

func newState() *state {
	return &state{
		products:   map[uuid.UUID]domain.Product{},
		featured:   map[uuid.UUID]domain.FeaturedProduct{},
		categories: map[uuid.UUID]domain.Category{},
		coupons:    map[uuid.UUID]domain.Coupon{},
		orders:     map[uuid.UUID]domain.Order{},
		addresses:  map[uuid.UUID]domain.Address{},
		users:      map[uuid.UUID]domain.User{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		c.products[k] = cloneProduct(v)
	}
	for k, v := range s.featured {
		c.featured[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.coupons {
		c.coupons[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = cloneOrder(v)
	}
	for k, v := range s.addresses {
		c.addresses[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	c.orderSeq = s.orderSeq
	return c
}

// Store keeps every entity in maps guarded by one mutex. Transactions are
// serialized and write to a copy that is discarded on rollback.
type Store struct {
	mu   sync.Mutex
	data *state
	last time.Time
}

func New() *Store { return &Store{data: newState()} }

func (s *Store) Products() domain.ProductRepo { return productRepo{s} }
func (s *Store) Featured() domain.FeaturedProductRepo { return featuredRepo{s} }
func (s *Store) Categories() domain.CategoryRepo { return categoryRepo{s} }
func (s *Store) Coupons() domain.CouponRepo { return couponRepo{s} }
func (s *Store) Orders() domain.OrderRepo { return orderRepo{s} }
func (s *Store) Addresses() domain.AddressRepo { return addressRepo{s} }
func (s *Store) Users() domain.UserRepo { return userRepo{s} }

// WithinTx runs fn against a private copy of the data and swaps it in only
// when fn succeeds and ctx is still live. s.mu is held throughout, so writes
// from outside the transaction wait for it instead of being lost on rollback.
func (s *Store) WithinTx(ctx context.Context, fn func(r domain.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &Store{data: s.data.clone(), last: s.last}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data, s.last = tx.data, tx.last
	return nil
}

// now is strictly increasing so creation order survives equal clock reads.
// Callers hold s.mu.
func (s *Store) now() time.Time {
	t := time.Now()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func touch(createdAt, updatedAt *time.Time, now time.Time) {
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}

func window[T any](items []T, page, size int) []T {
	page, size = domain.NormalizePaging(page, size)
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneProduct(p domain.Product) domain.Product {
	p.Images = cloneStrings(p.Images)
	p.Sizes = cloneStrings(p.Sizes)
	p.Colors = cloneStrings(p.Colors)
	p.Category = nil
	return p
}

func cloneOrder(o domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(o.Items))
	for i, it := range o.Items {
		if it.ProductID != nil {
			id := *it.ProductID
			it.ProductID = &id
		}
		items[i] = it
	}
	o.Items = items
	if o.UserID != nil {
		id := *o.UserID
		o.UserID = &id
	}
	return o
}
