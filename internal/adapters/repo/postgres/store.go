package postgres

import (
	"context"
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/storefront/internal/domain"
)

// Open connects to PostgreSQL with driver errors translated to gorm's
// portable ones (duplicate key, foreign key).
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

type Store struct{ db *gorm.DB }

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) Products() domain.ProductRepo { return NewProductRepo(s.db) }
func (s *Store) Featured() domain.FeaturedProductRepo { return NewFeaturedProductRepo(s.db) }
func (s *Store) Categories() domain.CategoryRepo { return NewCategoryRepo(s.db) }
func (s *Store) Coupons() domain.CouponRepo { return NewCouponRepo(s.db) }
func (s *Store) Orders() domain.OrderRepo { return NewOrderRepo(s.db) }
func (s *Store) Addresses() domain.AddressRepo { return NewAddressRepo(s.db) }
func (s *Store) Users() domain.UserRepo { return NewUserRepo(s.db) }

func (s *Store) WithinTx(ctx context.Context, fn func(r domain.Repos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFound(what + " not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.Conflict(what + " already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.Conflict(what + " is still referenced")
	}
	return err
}

func paging(page, size int) (offset, limit int) {
	page, size = domain.NormalizePaging(page, size)
	return (page - 1) * size, size
}
