package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Save(ctx context.Context, u *domain.User) error {
	u.Email = domain.NormalizeEmail(u.Email)
	return translate(r.db.WithContext(ctx).Save(u).Error, "user")
}

func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	e := domain.NormalizeEmail(email)
	if e == "" {
		return nil, domain.Invalid("email is required")
	}
	if err := r.db.WithContext(ctx).First(&u, "LOWER(email) = ?", e).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	var u domain.User
	h := strings.TrimSpace(tokenHash)
	if h == "" {
		return nil, domain.NotFound("user not found")
	}
	if err := r.db.WithContext(ctx).First(&u, "reset_token_hash = ?", h).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}
