package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/storefront/internal/domain"
)

func TestWithinTxRestoresSnapshotOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	c := &domain.Coupon{ID: uuid.New(), Code: "save10", Type: domain.CouponPercentage, Amount: decimal.NewFromInt(10), Active: true}
	require.NoError(t, s.Coupons().Save(ctx, c))

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(r domain.Repos) error {
		require.NoError(t, r.Coupons().IncrementUsage(ctx, c.ID))
		require.NoError(t, r.Orders().Create(ctx, &domain.Order{ID: uuid.New(), Status: domain.OrderPending}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Coupons().FindByCode(ctx, "SAVE10")
	require.NoError(t, err)
	require.Zero(t, got.UsedCount)
	_, total, err := s.Orders().List(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	require.Zero(t, total)

	require.NoError(t, s.WithinTx(ctx, func(r domain.Repos) error {
		return r.Coupons().IncrementUsage(ctx, c.ID)
	}))
	got, err = s.Coupons().FindByID(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.UsedCount)
}

func TestWithinTxDiscardsWritesWhenContextEnds(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	err := s.WithinTx(ctx, func(r domain.Repos) error {
		require.NoError(t, r.Orders().Create(ctx, &domain.Order{ID: uuid.New(), Status: domain.OrderPending}))
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	_, total, err := s.Orders().List(context.Background(), domain.OrderFilter{})
	require.NoError(t, err)
	require.Zero(t, total)

	called := false
	err = s.WithinTx(ctx, func(domain.Repos) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}

func TestRollbackKeepsConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	entered := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- s.WithinTx(ctx, func(r domain.Repos) error {
			close(entered)
			<-release
			return errors.New("rollback")
		})
	}()
	<-entered

	u := &domain.User{ID: uuid.New(), Name: "Ana", Email: "ana@example.com", Role: domain.RoleUser}
	saved := make(chan error, 1)
	go func() { saved <- s.Users().Save(ctx, u) }()

	close(release)
	require.Error(t, <-txDone)
	require.NoError(t, <-saved)

	got, err := s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", got.Email)
}

func TestCouponSaveKeepsUsedCount(t *testing.T) {
	ctx := context.Background()
	s := New()
	c := &domain.Coupon{ID: uuid.New(), Code: "x", Type: domain.CouponFixed, Amount: decimal.NewFromInt(5), Active: true}
	require.NoError(t, s.Coupons().Save(ctx, c))
	require.NoError(t, s.Coupons().IncrementUsage(ctx, c.ID))

	c.UsedCount = 0
	c.Active = false
	require.NoError(t, s.Coupons().Save(ctx, c))
	got, err := s.Coupons().FindByID(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.UsedCount)
	require.False(t, got.Active)

	dup := &domain.Coupon{ID: uuid.New(), Code: "X", Type: domain.CouponFixed, Amount: decimal.NewFromInt(5)}
	require.ErrorIs(t, s.Coupons().Save(ctx, dup), domain.ErrConflict)
}

func TestOrderNumbersAndProductDetach(t *testing.T) {
	ctx := context.Background()
	s := New()
	cat := &domain.Category{ID: uuid.New(), Name: "Tees", Slug: "tees"}
	require.NoError(t, s.Categories().Save(ctx, cat))
	p := &domain.Product{ID: uuid.New(), Name: "Tee", Slug: "tee", Price: decimal.NewFromInt(10), Stock: 2,
		Available: true, Status: domain.ProductPublished, CategoryID: cat.ID}
	require.NoError(t, s.Products().Save(ctx, p))
	require.NoError(t, s.Featured().Save(ctx, p.ID, 1))

	pid := p.ID
	first := &domain.Order{ID: uuid.New(), Items: []domain.OrderItem{{ProductID: &pid, Name: "Tee", Quantity: 1}}}
	second := &domain.Order{ID: uuid.New()}
	require.NoError(t, s.Orders().Create(ctx, first))
	require.NoError(t, s.Orders().Create(ctx, second))
	require.Equal(t, first.Number+1, second.Number)

	require.ErrorIs(t, s.Categories().Delete(ctx, cat.ID), domain.ErrConflict)
	require.NoError(t, s.Products().Delete(ctx, p.ID))

	got, err := s.Orders().FindByID(ctx, first.ID)
	require.NoError(t, err)
	require.Nil(t, got.Items[0].ProductID)
	require.Equal(t, "Tee", got.Items[0].Name)

	featured, err := s.Featured().List(ctx)
	require.NoError(t, err)
	require.Empty(t, featured)
}

func TestAdjustStock(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := &domain.Product{ID: uuid.New(), Slug: "a", Stock: 1}
	require.NoError(t, s.Products().Save(ctx, p))

	require.ErrorIs(t, s.Products().AdjustStock(ctx, p.ID, -2), domain.ErrOutOfStock)
	require.NoError(t, s.Products().AdjustStock(ctx, p.ID, -1))
	require.NoError(t, s.Products().AdjustStock(ctx, p.ID, 3))
	got, err := s.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 3, got.Stock)
}

func TestProductListFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	parent := &domain.Category{ID: uuid.New(), Name: "Men", Slug: "men"}
	child := &domain.Category{ID: uuid.New(), Name: "Shirts", Slug: "shirts", ParentID: &parent.ID}
	other := &domain.Category{ID: uuid.New(), Name: "Home", Slug: "home"}
	for _, c := range []*domain.Category{parent, child, other} {
		require.NoError(t, s.Categories().Save(ctx, c))
	}
	mk := func(name string, cat uuid.UUID, price int64, stock int) *domain.Product {
		p := &domain.Product{ID: uuid.New(), Name: name, Slug: domain.Slugify(name), Price: decimal.NewFromInt(price),
			Stock: stock, Available: true, Status: domain.ProductPublished, CategoryID: cat}
		require.NoError(t, s.Products().Save(ctx, p))
		return p
	}
	oxford := mk("Oxford Shirt", child.ID, 300, 1)
	belt := mk("Leather Belt", parent.ID, 100, 0)
	mk("Vase", other.ID, 50, 4)

	list, total, err := s.Products().List(ctx, domain.ProductFilter{CategorySlug: "men", Sort: domain.SortPriceAsc})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Equal(t, belt.ID, list[0].ID)
	require.Equal(t, oxford.ID, list[1].ID)
	require.Equal(t, "Shirts", list[1].Category.Name)

	list, _, err = s.Products().List(ctx, domain.ProductFilter{Query: "shirt", InStock: true})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, total, err = s.Products().List(ctx, domain.ProductFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, list, 1)

	roots, err := s.Categories().Roots(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	require.Equal(t, "Home", roots[0].Name)
	require.Len(t, roots[1].Children, 1)
}
