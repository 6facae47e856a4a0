package usecase

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/storefront/internal/domain"
)

// OrdersReport renders orders and their summary into a downloadable file.
type OrdersReport interface {
	Write(w io.Writer, orders []domain.Order, summary domain.SalesSummary) error
}

// OrderUC places orders and moves them through their lifecycle.
type OrderUC struct {
	Store    domain.Store
	Shipping domain.ShippingRates
	Report   OrdersReport
	Now      func() time.Time
}

func (uc *OrderUC) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

// Place turns a checkout request into a persisted order. Pricing, coupon
// usage, stock and the order row are written in one transaction.
func (uc *OrderUC) Place(ctx context.Context, actor domain.Actor, req domain.CheckoutRequest) (*domain.Order, error) {
	if req.AddressID != nil {
		if !actor.Authenticated() {
			return nil, domain.Unauthorized("sign in to use a saved address")
		}
		addr, err := uc.Store.Addresses().FindForUser(ctx, actor.UserID, *req.AddressID)
		if err != nil {
			return nil, err
		}
		req.FillFromAddress(addr)
	}
	req.Normalize()
	zone, payment, err := req.Validate()
	if err != nil {
		return nil, err
	}
	items := domain.MergeCartItems(req.Items)

	var order *domain.Order
	err = uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		ids := make([]uuid.UUID, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ProductID)
		}
		locked, err := r.Products().LockByIDs(ctx, ids)
		if err != nil {
			return err
		}
		products := make(map[uuid.UUID]*domain.Product, len(locked))
		for i := range locked {
			products[locked[i].ID] = &locked[i]
		}
		cart, err := domain.PriceCart(items, products)
		if err != nil {
			return err
		}

		discount := decimal.Zero
		couponCode := ""
		if req.CouponCode != "" {
			c, err := r.Coupons().LockByCode(ctx, req.CouponCode)
			if errors.Is(err, domain.ErrNotFound) {
				c, err = nil, nil
			}
			if err != nil {
				return err
			}
			d, err := domain.EvaluateCoupon(c, cart.Subtotal, uc.now())
			if err != nil {
				return err
			}
			if err := r.Coupons().IncrementUsage(ctx, c.ID); err != nil {
				return err
			}
			discount, couponCode = d.Value, c.Code
		}
		totals := domain.ComputeTotals(cart.Subtotal, discount, uc.Shipping.Fee(zone))

		o := &domain.Order{
			ID:             uuid.New(),
			Status:         domain.OrderPending,
			Name:           req.Name,
			Email:          req.Email,
			Phone:          req.Phone,
			Address:        req.Address,
			City:           req.City,
			District:       req.District,
			Area:           req.Area,
			Zip:            req.Zip,
			Notes:          req.Notes,
			ShippingZone:   zone,
			PaymentMethod:  payment,
			Subtotal:       totals.Subtotal,
			DiscountAmount: totals.Discount,
			ShippingFee:    totals.ShippingFee,
			TotalAmount:    totals.Total,
			CouponCode:     couponCode,
		}
		if actor.Authenticated() {
			uid := actor.UserID
			o.UserID = &uid
		}
		taken := map[uuid.UUID]int{}
		for _, line := range cart.Lines {
			pid := line.ProductID
			o.Items = append(o.Items, domain.OrderItem{
				ID:        uuid.New(),
				Position:  len(o.Items) + 1,
				ProductID: &pid,
				Name:      line.Name,
				UnitPrice: line.UnitPrice,
				Quantity:  line.Quantity,
				Size:      line.Size,
				Color:     line.Color,
			})
			taken[pid] += line.Quantity
		}
		for _, p := range locked {
			if qty := taken[p.ID]; qty > 0 {
				if err := r.Products().AdjustStock(ctx, p.ID, -qty); err != nil {
					return err
				}
			}
		}
		if err := r.Orders().Create(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	zlog.Info().
		Int64("number", order.Number).
		Str("total", order.TotalAmount.StringFixed(2)).
		Str("coupon", order.CouponCode).
		Msg("order placed")
	return order, nil
}

// CancelByCustomer cancels the actor's own pending order and restocks it.
func (uc *OrderUC) CancelByCustomer(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Order, error) {
	if !actor.Authenticated() {
		return nil, domain.Unauthorized("sign in to cancel an order")
	}
	return uc.transition(ctx, id, func(o *domain.Order) error { return o.CancelByCustomer(actor.UserID) })
}

// CancelByAdmin cancels any order that is not delivered or already cancelled.
func (uc *OrderUC) CancelByAdmin(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return uc.transition(ctx, id, func(o *domain.Order) error { return o.CancelByAdmin() })
}

// SetStatusByAdmin forces an allow-listed status onto a live order.
func (uc *OrderUC) SetStatusByAdmin(ctx context.Context, id uuid.UUID, status string) (*domain.Order, error) {
	s, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	return uc.transition(ctx, id, func(o *domain.Order) error { return o.ForceStatus(s) })
}

// transition locks the order, applies change and persists the new status.
// Moving into cancelled puts the items back on the shelf.
func (uc *OrderUC) transition(ctx context.Context, id uuid.UUID, change func(o *domain.Order) error) (*domain.Order, error) {
	var out *domain.Order
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		o, err := r.Orders().LockByID(ctx, id)
		if err != nil {
			return err
		}
		from := o.Status
		if err := change(o); err != nil {
			return err
		}
		if err := r.Orders().UpdateStatus(ctx, o.ID, o.Status); err != nil {
			return err
		}
		if o.Status == domain.OrderCancelled && from != domain.OrderCancelled {
			if err := restock(ctx, r.Products(), o); err != nil {
				return err
			}
		}
		zlog.Info().Int64("number", o.Number).Str("from", string(from)).Str("to", string(o.Status)).Msg("order status changed")
		out = o
		return nil
	})
	return out, err
}

func restock(ctx context.Context, products domain.ProductRepo, o *domain.Order) error {
	for _, it := range o.Items {
		if it.ProductID == nil {
			continue
		}
		err := products.AdjustStock(ctx, *it.ProductID, it.Quantity)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	return nil
}

// DeleteByAdmin permanently removes a cancelled order.
func (uc *OrderUC) DeleteByAdmin(ctx context.Context, id uuid.UUID) error {
	return uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		o, err := r.Orders().LockByID(ctx, id)
		if err != nil {
			return err
		}
		if err := o.Deletable(); err != nil {
			return err
		}
		if err := r.Orders().Delete(ctx, id); err != nil {
			return err
		}
		zlog.Info().Int64("number", o.Number).Msg("order deleted")
		return nil
	})
}

// ListMine pages through the actor's orders, newest first.
func (uc *OrderUC) ListMine(ctx context.Context, actor domain.Actor, page, size int) (domain.Page[domain.Order], error) {
	if !actor.Authenticated() {
		return domain.Page[domain.Order]{}, domain.Unauthorized("sign in to see your orders")
	}
	uid := actor.UserID
	return uc.list(ctx, domain.OrderFilter{UserID: &uid, Page: page, PageSize: size})
}

// GetMine returns an order owned by the actor. Admins may read any order.
func (uc *OrderUC) GetMine(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Order, error) {
	if !actor.Authenticated() {
		return nil, domain.Unauthorized("sign in to see your orders")
	}
	o, err := uc.Store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.OwnedBy(actor.UserID) && !actor.IsAdmin() {
		return nil, domain.Forbidden("order does not belong to the current user")
	}
	return o, nil
}

// List is the admin order listing. status may be empty.
func (uc *OrderUC) List(ctx context.Context, status string, page, size int) (domain.Page[domain.Order], error) {
	f := domain.OrderFilter{Page: page, PageSize: size}
	if status != "" {
		s, err := domain.ParseOrderStatus(status)
		if err != nil {
			return domain.Page[domain.Order]{}, err
		}
		f.Status = s
	}
	return uc.list(ctx, f)
}

func (uc *OrderUC) list(ctx context.Context, f domain.OrderFilter) (domain.Page[domain.Order], error) {
	f.Page, f.PageSize = domain.NormalizePaging(f.Page, f.PageSize)
	items, total, err := uc.Store.Orders().List(ctx, f)
	if err != nil {
		return domain.Page[domain.Order]{}, err
	}
	return domain.NewPage(items, total, f.Page, f.PageSize), nil
}

func (uc *OrderUC) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return uc.Store.Orders().FindByID(ctx, id)
}

// SalesSummary totals the orders created in [from, to].
func (uc *OrderUC) SalesSummary(ctx context.Context, from, to time.Time) (domain.SalesSummary, []domain.Order, error) {
	if to.Before(from) {
		return domain.SalesSummary{}, nil, domain.Invalid("from must not be after to")
	}
	orders, err := uc.Store.Orders().ListInRange(ctx, from, to)
	if err != nil {
		return domain.SalesSummary{}, nil, err
	}
	return domain.Summarize(orders, from, to), orders, nil
}

// ExportXLSX writes the orders of [from, to] and their summary to w.
func (uc *OrderUC) ExportXLSX(ctx context.Context, w io.Writer, from, to time.Time) error {
	summary, orders, err := uc.SalesSummary(ctx, from, to)
	if err != nil {
		return err
	}
	return uc.Report.Write(w, orders, summary)
}
