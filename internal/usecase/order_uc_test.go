package usecase

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/phenrril/storefront/internal/adapters/repo/memory"
	"github.com/phenrril/storefront/internal/domain"
)

type fakeReport struct {
	orders  []domain.Order
	summary domain.SalesSummary
}

func (f *fakeReport) Write(w io.Writer, orders []domain.Order, summary domain.SalesSummary) error {
	f.orders, f.summary = orders, summary
	_, err := w.Write([]byte("report"))
	return err
}

type OrderSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	uc       *OrderUC
	report   *fakeReport
	shirt    *domain.Product
	mug      *domain.Product
	customer domain.Actor
}

func TestOrderSuite(t *testing.T) { suite.Run(t, new(OrderSuite)) }

func (s *OrderSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.report = &fakeReport{}
	s.uc = &OrderUC{
		Store:    s.store,
		Shipping: domain.ShippingRates{Inside: decimal.NewFromInt(80), Outside: decimal.NewFromInt(150)},
		Report:   s.report,
	}
	cat := &domain.Category{ID: uuid.New(), Name: "Apparel", Slug: "apparel"}
	s.Require().NoError(s.store.Categories().Save(s.ctx, cat))
	s.shirt = s.product(cat.ID, "Shirt", 500, 5)
	s.mug = s.product(cat.ID, "Mug", 50, 3)
	s.customer = domain.Actor{UserID: uuid.New(), Role: domain.RoleUser}
}

func (s *OrderSuite) product(categoryID uuid.UUID, name string, price int64, stock int) *domain.Product {
	p := &domain.Product{
		ID:         uuid.New(),
		Name:       name,
		Slug:       domain.Slugify(name),
		Price:      decimal.NewFromInt(price),
		Stock:      stock,
		Available:  true,
		Status:     domain.ProductPublished,
		CategoryID: categoryID,
	}
	s.Require().NoError(s.store.Products().Save(s.ctx, p))
	return p
}

func (s *OrderSuite) coupon(code string, typ domain.CouponType, amount int64) *domain.Coupon {
	c := &domain.Coupon{ID: uuid.New(), Code: code, Type: typ, Amount: decimal.NewFromInt(amount), Active: true}
	s.Require().NoError(s.store.Coupons().Save(s.ctx, c))
	return c
}

func (s *OrderSuite) checkout(items ...domain.CartItem) domain.CheckoutRequest {
	return domain.CheckoutRequest{
		Items:         items,
		ShippingZone:  "inside",
		PaymentMethod: "cod",
		Name:          "Rafi Ahmed",
		Email:         "Rafi@Example.com ",
		Phone:         "01700000000",
		Address:       "House 4, Road 2",
		City:          "Dhaka",
	}
}

func (s *OrderSuite) stock(id uuid.UUID) int {
	p, err := s.store.Products().FindByID(s.ctx, id)
	s.Require().NoError(err)
	return p.Stock
}

func (s *OrderSuite) TestPlaceWithPercentageCoupon() {
	s.coupon("SAVE10", domain.CouponPercentage, 10)
	req := s.checkout(domain.CartItem{ProductID: s.shirt.ID, Quantity: 2})
	req.CouponCode = "save10"

	o, err := s.uc.Place(s.ctx, s.customer, req)
	s.Require().NoError(err)
	s.Equal("1000", o.Subtotal.String())
	s.Equal("100", o.DiscountAmount.String())
	s.Equal("80", o.ShippingFee.String())
	s.Equal("980", o.TotalAmount.String())
	s.Equal("SAVE10", o.CouponCode)
	s.Equal(domain.OrderPending, o.Status)
	s.Equal("rafi@example.com", o.Email)
	s.Require().NotNil(o.UserID)
	s.Equal(s.customer.UserID, *o.UserID)
	s.Require().Len(o.Items, 1)
	s.Equal("Shirt", o.Items[0].Name)
	s.Equal("500", o.Items[0].UnitPrice.String())

	s.Equal(3, s.stock(s.shirt.ID))
	c, err := s.store.Coupons().FindByCode(s.ctx, "SAVE10")
	s.Require().NoError(err)
	s.Equal(1, c.UsedCount)
}

func (s *OrderSuite) TestFixedCouponNeverExceedsSubtotal() {
	s.coupon("FIXED100", domain.CouponFixed, 100)
	req := s.checkout(domain.CartItem{ProductID: s.mug.ID, Quantity: 1})
	req.CouponCode = "FIXED100"
	req.ShippingZone = "outside"

	o, err := s.uc.Place(s.ctx, domain.Actor{}, req)
	s.Require().NoError(err)
	s.Equal("50", o.DiscountAmount.String())
	s.Equal("150", o.TotalAmount.String())
	s.Nil(o.UserID)
}

func (s *OrderSuite) TestClientPricesAreIgnored() {
	cheap := decimal.NewFromInt(1)
	req := s.checkout(domain.CartItem{ProductID: s.shirt.ID, Quantity: 1, Price: &cheap})
	req.ClientTotal = &cheap

	o, err := s.uc.Place(s.ctx, s.customer, req)
	s.Require().NoError(err)
	s.Equal("580", o.TotalAmount.String())
}

func (s *OrderSuite) TestCancelledRequestPlacesNothing() {
	s.coupon("SAVE10", domain.CouponPercentage, 10)
	req := s.checkout(domain.CartItem{ProductID: s.shirt.ID, Quantity: 1})
	req.CouponCode = "SAVE10"
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	o, err := s.uc.Place(ctx, s.customer, req)
	s.Require().ErrorIs(err, context.Canceled)
	s.Nil(o)
	s.Equal(5, s.stock(s.shirt.ID))
	_, total, err := s.store.Orders().List(s.ctx, domain.OrderFilter{})
	s.Require().NoError(err)
	s.Zero(total)
	c, err := s.store.Coupons().FindByCode(s.ctx, "SAVE10")
	s.Require().NoError(err)
	s.Zero(c.UsedCount)
}

func (s *OrderSuite) TestItemsKeepCheckoutOrder() {
	o, err := s.uc.Place(s.ctx, s.customer, s.checkout(
		domain.CartItem{ProductID: s.shirt.ID, Quantity: 1},
		domain.CartItem{ProductID: s.mug.ID, Quantity: 1},
	))
	s.Require().NoError(err)

	got, err := s.uc.Get(s.ctx, o.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Items, 2)
	s.Equal("Shirt", got.Items[0].Name)
	s.Equal(1, got.Items[0].Position)
	s.Equal("Mug", got.Items[1].Name)
	s.Equal(2, got.Items[1].Position)
}

func (s *OrderSuite) TestFailedCheckoutLeavesNothingBehind() {
	s.coupon("SAVE10", domain.CouponPercentage, 10)
	req := s.checkout(
		domain.CartItem{ProductID: s.shirt.ID, Quantity: 1},
		domain.CartItem{ProductID: s.mug.ID, Quantity: 4},
	)
	req.CouponCode = "SAVE10"

	_, err := s.uc.Place(s.ctx, s.customer, req)
	s.Require().ErrorIs(err, domain.ErrOutOfStock)

	s.Equal(5, s.stock(s.shirt.ID))
	s.Equal(3, s.stock(s.mug.ID))
	c, err := s.store.Coupons().FindByCode(s.ctx, "SAVE10")
	s.Require().NoError(err)
	s.Zero(c.UsedCount)
	page, err := s.uc.List(s.ctx, "", 1, 20)
	s.Require().NoError(err)
	s.Zero(page.Total)
}

func (s *OrderSuite) TestRejectedCouponFailsCheckout() {
	limit := 1
	c := s.coupon("ONCE", domain.CouponFixed, 10)
	c.UsageLimit = &limit
	s.Require().NoError(s.store.Coupons().Save(s.ctx, c))

	req := s.checkout(domain.CartItem{ProductID: s.mug.ID, Quantity: 1})
	req.CouponCode = "ONCE"
	_, err := s.uc.Place(s.ctx, s.customer, req)
	s.Require().NoError(err)

	_, err = s.uc.Place(s.ctx, s.customer, req)
	s.Require().ErrorIs(err, domain.ErrCouponUsageLimit)
	s.Equal(2, s.stock(s.mug.ID))

	req.CouponCode = "NOPE"
	_, err = s.uc.Place(s.ctx, s.customer, req)
	s.Require().ErrorIs(err, domain.ErrCouponInvalid)
}

func (s *OrderSuite) TestValidationErrors() {
	_, err := s.uc.Place(s.ctx, s.customer, s.checkout())
	s.Require().ErrorIs(err, domain.ErrValidation)

	req := s.checkout(domain.CartItem{ProductID: s.mug.ID, Quantity: 1})
	req.Email = "not-an-email"
	_, err = s.uc.Place(s.ctx, s.customer, req)
	s.Require().ErrorIs(err, domain.ErrValidation)

	req = s.checkout(domain.CartItem{ProductID: s.mug.ID, Quantity: 1})
	req.ShippingZone = "moon"
	_, err = s.uc.Place(s.ctx, s.customer, req)
	s.Require().ErrorIs(err, domain.ErrValidation)

	req = s.checkout(domain.CartItem{ProductID: uuid.New(), Quantity: 1})
	_, err = s.uc.Place(s.ctx, s.customer, req)
	s.Require().ErrorIs(err, domain.ErrNotFound)
}

func (s *OrderSuite) TestSavedAddressFillsShipping() {
	addr := &domain.Address{RecipientName: "Nadia", RecipientPhone: "017", Address: "Lane 9", City: "Sylhet"}
	s.Require().NoError((&AddressUC{Store: s.store}).Create(s.ctx, s.customer.UserID, addr))

	req := domain.CheckoutRequest{
		Items:        []domain.CartItem{{ProductID: s.mug.ID, Quantity: 1}},
		ShippingZone: "outside",
		Email:        "nadia@example.com",
		AddressID:    &addr.ID,
	}
	o, err := s.uc.Place(s.ctx, s.customer, req)
	s.Require().NoError(err)
	s.Equal("Nadia", o.Name)
	s.Equal("Sylhet", o.City)

	_, err = s.uc.Place(s.ctx, domain.Actor{}, req)
	s.Require().ErrorIs(err, domain.ErrUnauthorized)

	stranger := domain.Actor{UserID: uuid.New()}
	_, err = s.uc.Place(s.ctx, stranger, req)
	s.Require().ErrorIs(err, domain.ErrNotFound)
}

func (s *OrderSuite) TestCustomerCancelRestocks() {
	o, err := s.uc.Place(s.ctx, s.customer, s.checkout(domain.CartItem{ProductID: s.shirt.ID, Quantity: 2}))
	s.Require().NoError(err)
	s.Equal(3, s.stock(s.shirt.ID))

	_, err = s.uc.CancelByCustomer(s.ctx, domain.Actor{UserID: uuid.New()}, o.ID)
	s.Require().ErrorIs(err, domain.ErrForbidden)

	got, err := s.uc.CancelByCustomer(s.ctx, s.customer, o.ID)
	s.Require().NoError(err)
	s.Equal(domain.OrderCancelled, got.Status)
	s.Equal(5, s.stock(s.shirt.ID))

	_, err = s.uc.CancelByCustomer(s.ctx, s.customer, o.ID)
	s.Require().ErrorIs(err, domain.ErrBusinessRule)
	s.Equal(5, s.stock(s.shirt.ID))
}

func (s *OrderSuite) TestCustomerCannotCancelProcessingOrder() {
	o, err := s.uc.Place(s.ctx, s.customer, s.checkout(domain.CartItem{ProductID: s.mug.ID, Quantity: 1}))
	s.Require().NoError(err)
	_, err = s.uc.SetStatusByAdmin(s.ctx, o.ID, "processing")
	s.Require().NoError(err)

	_, err = s.uc.CancelByCustomer(s.ctx, s.customer, o.ID)
	s.Require().ErrorIs(err, domain.ErrOrderNotCancellable)

	got, err := s.uc.CancelByAdmin(s.ctx, o.ID)
	s.Require().NoError(err)
	s.Equal(domain.OrderCancelled, got.Status)
	s.Equal(3, s.stock(s.mug.ID))
}

func (s *OrderSuite) TestAdminStatusRules() {
	o, err := s.uc.Place(s.ctx, s.customer, s.checkout(domain.CartItem{ProductID: s.mug.ID, Quantity: 1}))
	s.Require().NoError(err)

	_, err = s.uc.SetStatusByAdmin(s.ctx, o.ID, "confirmed")
	s.Require().ErrorIs(err, domain.ErrValidation)

	_, err = s.uc.SetStatusByAdmin(s.ctx, o.ID, "delivered")
	s.Require().NoError(err)
	_, err = s.uc.SetStatusByAdmin(s.ctx, o.ID, "shipped")
	s.Require().ErrorIs(err, domain.ErrOrderTerminal)
	_, err = s.uc.CancelByAdmin(s.ctx, o.ID)
	s.Require().ErrorIs(err, domain.ErrOrderTerminal)
	s.Require().ErrorIs(s.uc.DeleteByAdmin(s.ctx, o.ID), domain.ErrOrderNotDeletable)
}

func (s *OrderSuite) TestDeleteOnlyCancelled() {
	o, err := s.uc.Place(s.ctx, s.customer, s.checkout(domain.CartItem{ProductID: s.mug.ID, Quantity: 1}))
	s.Require().NoError(err)
	s.Require().ErrorIs(s.uc.DeleteByAdmin(s.ctx, o.ID), domain.ErrOrderNotDeletable)

	_, err = s.uc.CancelByAdmin(s.ctx, o.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.uc.DeleteByAdmin(s.ctx, o.ID))
	_, err = s.uc.Get(s.ctx, o.ID)
	s.Require().ErrorIs(err, domain.ErrNotFound)
}

func (s *OrderSuite) TestOwnershipOnReads() {
	o, err := s.uc.Place(s.ctx, s.customer, s.checkout(domain.CartItem{ProductID: s.mug.ID, Quantity: 1}))
	s.Require().NoError(err)
	_, err = s.uc.Place(s.ctx, domain.Actor{}, s.checkout(domain.CartItem{ProductID: s.mug.ID, Quantity: 1}))
	s.Require().NoError(err)

	mine, err := s.uc.ListMine(s.ctx, s.customer, 1, 10)
	s.Require().NoError(err)
	s.EqualValues(1, mine.Total)

	_, err = s.uc.GetMine(s.ctx, domain.Actor{UserID: uuid.New()}, o.ID)
	s.Require().ErrorIs(err, domain.ErrForbidden)
	admin := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin}
	_, err = s.uc.GetMine(s.ctx, admin, o.ID)
	s.Require().NoError(err)

	pending, err := s.uc.List(s.ctx, "pending", 1, 10)
	s.Require().NoError(err)
	s.EqualValues(2, pending.Total)
	_, err = s.uc.List(s.ctx, "lost", 1, 10)
	s.Require().ErrorIs(err, domain.ErrValidation)
}

func (s *OrderSuite) TestSalesExport() {
	from := time.Now().Add(-time.Hour)
	_, err := s.uc.Place(s.ctx, s.customer, s.checkout(domain.CartItem{ProductID: s.shirt.ID, Quantity: 1}))
	s.Require().NoError(err)
	cancelled, err := s.uc.Place(s.ctx, s.customer, s.checkout(domain.CartItem{ProductID: s.mug.ID, Quantity: 1}))
	s.Require().NoError(err)
	_, err = s.uc.CancelByAdmin(s.ctx, cancelled.ID)
	s.Require().NoError(err)
	to := time.Now().Add(time.Hour)

	var buf bytes.Buffer
	s.Require().NoError(s.uc.ExportXLSX(s.ctx, &buf, from, to))
	s.Equal("report", buf.String())
	s.Len(s.report.orders, 2)
	s.Equal(2, s.report.summary.Orders)
	s.Equal("580", s.report.summary.Revenue.String())
	s.Equal(1, s.report.summary.StatusCounts[domain.OrderCancelled])

	_, _, err = s.uc.SalesSummary(s.ctx, to, from)
	s.Require().ErrorIs(err, domain.ErrValidation)
}

func TestRestockSkipsDeletedProducts(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	gone := uuid.New()
	o := &domain.Order{Items: []domain.OrderItem{{ProductID: &gone, Quantity: 2}, {Quantity: 1}}}
	require.NoError(t, restock(ctx, store.Products(), o))
}
