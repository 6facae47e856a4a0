package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/storefront/internal/domain"
)

type couponRepo struct{ s *Store }

func (r couponRepo) Save(_ context.Context, c *domain.Coupon) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.Code = domain.NormalizeCouponCode(c.Code)
	for id, other := range r.s.data.coupons {
		if id != c.ID && other.Code == c.Code {
			return domain.Conflict("coupon already exists")
		}
	}
	if prev, ok := r.s.data.coupons[c.ID]; ok {
		c.UsedCount = prev.UsedCount
	} else {
		c.UsedCount = 0
	}
	touch(&c.CreatedAt, &c.UpdatedAt, r.s.now())
	r.s.data.coupons[c.ID] = *c
	return nil
}

func (r couponRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.coupons[id]
	if !ok {
		return nil, domain.NotFound("coupon not found")
	}
	return &c, nil
}

func (r couponRepo) FindByCode(_ context.Context, code string) (*domain.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	code = domain.NormalizeCouponCode(code)
	for _, c := range r.s.data.coupons {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, domain.NotFound("coupon not found")
}

// LockByCode is FindByCode; transactions are already serialized.
func (r couponRepo) LockByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	return r.FindByCode(ctx, code)
}

func (r couponRepo) IncrementUsage(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.coupons[id]
	if !ok {
		return domain.NotFound("coupon not found")
	}
	c.UsedCount++
	r.s.data.coupons[id] = c
	return nil
}

func (r couponRepo) List(_ context.Context, page, size int) ([]domain.Coupon, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := make([]domain.Coupon, 0, len(r.s.data.coupons))
	for _, c := range r.s.data.coupons {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return window(list, page, size), int64(len(list)), nil
}

func (r couponRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.coupons[id]; !ok {
		return domain.NotFound("coupon not found")
	}
	delete(r.s.data.coupons, id)
	return nil
}

type orderRepo struct{ s *Store }

func (r orderRepo) Create(_ context.Context, o *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.orders[o.ID]; ok {
		return domain.Conflict("order already exists")
	}
	r.s.data.orderSeq++
	o.Number = r.s.data.orderSeq
	touch(&o.CreatedAt, &o.UpdatedAt, r.s.now())
	for i := range o.Items {
		if o.Items[i].ID == uuid.Nil {
			o.Items[i].ID = uuid.New()
		}
		o.Items[i].OrderID = o.ID
	}
	r.s.data.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r orderRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.data.orders[id]
	if !ok {
		return nil, domain.NotFound("order not found")
	}
	out := cloneOrder(o)
	return &out, nil
}

func (r orderRepo) LockByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.FindByID(ctx, id)
}

func (r orderRepo) UpdateStatus(_ context.Context, id uuid.UUID, s domain.OrderStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.data.orders[id]
	if !ok {
		return domain.NotFound("order not found")
	}
	o.Status = s
	o.UpdatedAt = r.s.now()
	r.s.data.orders[id] = o
	return nil
}

func (r orderRepo) sorted(keep func(domain.Order) bool, newestFirst bool) []domain.Order {
	list := []domain.Order{}
	for _, o := range r.s.data.orders {
		if keep(o) {
			list = append(list, cloneOrder(o))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if newestFirst {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

func (r orderRepo) List(_ context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := r.sorted(func(o domain.Order) bool {
		if f.Status != "" && o.Status != f.Status {
			return false
		}
		if f.UserID != nil && (o.UserID == nil || *o.UserID != *f.UserID) {
			return false
		}
		return true
	}, true)
	return window(list, f.Page, f.PageSize), int64(len(list)), nil
}

func (r orderRepo) ListInRange(_ context.Context, from, to time.Time) ([]domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(func(o domain.Order) bool {
		return !o.CreatedAt.Before(from) && !o.CreatedAt.After(to)
	}, false), nil
}

func (r orderRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.orders[id]; !ok {
		return domain.NotFound("order not found")
	}
	delete(r.s.data.orders, id)
	return nil
}
