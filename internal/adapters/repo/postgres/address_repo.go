package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/domain"
)

type AddressRepo struct{ db *gorm.DB }

func NewAddressRepo(db *gorm.DB) *AddressRepo { return &AddressRepo{db: db} }

func (r *AddressRepo) Save(ctx context.Context, a *domain.Address) error {
	return translate(r.db.WithContext(ctx).Save(a).Error, "address")
}

func (r *AddressRepo) FindForUser(ctx context.Context, userID, id uuid.UUID) (*domain.Address, error) {
	var a domain.Address
	if err := r.db.WithContext(ctx).First(&a, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, translate(err, "address")
	}
	return &a, nil
}

// ListForUser returns the user's addresses oldest first.
func (r *AddressRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Address, error) {
	list := []domain.Address{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at asc, id asc").Find(&list).Error
	return list, err
}

func (r *AddressRepo) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Address{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *AddressRepo) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&domain.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

func (r *AddressRepo) SetDefault(ctx context.Context, userID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&domain.Address{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_default", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("address not found")
	}
	return nil
}

func (r *AddressRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Address{}, "id = ? AND user_id = ?", id, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("address not found")
	}
	return nil
}
