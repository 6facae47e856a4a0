package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Address struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	Label          string    `gorm:"size:60" json:"label" validate:"max=60"`
	RecipientName  string    `gorm:"size:140;not null" json:"recipient_name" validate:"required,max=140"`
	RecipientPhone string    `gorm:"size:50;not null" json:"recipient_phone" validate:"required,max=50"`
	Address        string    `gorm:"size:255;not null" json:"address" validate:"required,max=255"`
	City           string    `gorm:"size:80;not null" json:"city" validate:"required,max=80"`
	District       string    `gorm:"size:80" json:"district"`
	Area           string    `gorm:"size:80" json:"area"`
	Zip            string    `gorm:"size:20" json:"zip"`
	IsDefault      bool      `gorm:"not null" json:"is_default"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (a *Address) Validate() error {
	a.RecipientName = strings.TrimSpace(a.RecipientName)
	a.RecipientPhone = strings.TrimSpace(a.RecipientPhone)
	a.Address = strings.TrimSpace(a.Address)
	a.City = strings.TrimSpace(a.City)
	return Check(a)
}

type AddressRepo interface {
	Save(ctx context.Context, a *Address) error
	FindForUser(ctx context.Context, userID, id uuid.UUID) (*Address, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Address, error)
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	// ClearDefault unsets the default flag on every address of the user.
	ClearDefault(ctx context.Context, userID uuid.UUID) error
	SetDefault(ctx context.Context, userID, id uuid.UUID) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
