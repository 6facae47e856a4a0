package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/storefront/internal/domain"
)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

// itemsInOrder keeps line items in the order they were placed.
func itemsInOrder(db *gorm.DB) *gorm.DB { return db.Order("position asc") }

// Create inserts the order and its items. Number is assigned by the database.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	return translate(r.db.WithContext(ctx).Create(o).Error, "order")
}

// FindByID loads the order with its items in placement order.
func (r *OrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).Preload("Items", itemsInOrder).First(&o, "id = ?", id).Error; err != nil {
		return nil, translate(err, "order")
	}
	return &o, nil
}

// LockByID is FindByID holding a row lock until the transaction ends.
func (r *OrderRepo) LockByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items", itemsInOrder).First(&o, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "order")
	}
	return &o, nil
}

// UpdateStatus writes only the status column.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, s domain.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", id).Update("status", s)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("order not found")
	}
	return nil
}

// List filters by status and owner and pages newest first.
func (r *OrderRepo) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	var list []domain.Order
	q := r.db.WithContext(ctx).Model(&domain.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := paging(f.Page, f.PageSize)
	err := q.Order("created_at desc").Offset(offset).Limit(limit).Preload("Items", itemsInOrder).Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListInRange returns every order created in [from, to], oldest first.
func (r *OrderRepo) ListInRange(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	var list []domain.Order
	err := r.db.WithContext(ctx).Where("created_at >= ? AND created_at <= ?", from, to).
		Order("created_at asc").Preload("Items", itemsInOrder).Find(&list).Error
	return list, err
}

// Delete removes the order and its items together.
func (r *OrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Order{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.NotFound("order not found")
		}
		return nil
	})
}
