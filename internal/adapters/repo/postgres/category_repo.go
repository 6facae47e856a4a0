package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/storefront/internal/domain"
)

type CategoryRepo struct{ db *gorm.DB }

func NewCategoryRepo(db *gorm.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func byName(db *gorm.DB) *gorm.DB { return db.Order("name asc") }

func (r *CategoryRepo) Save(ctx context.Context, c *domain.Category) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error, "category")
}

func (r *CategoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.WithContext(ctx).Preload("Children", byName).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, "category")
	}
	return &c, nil
}

func (r *CategoryRepo) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.WithContext(ctx).Preload("Children", byName).First(&c, "slug = ?", slug).Error; err != nil {
		return nil, translate(err, "category")
	}
	return &c, nil
}

func (r *CategoryRepo) SlugExists(ctx context.Context, slug string, exceptID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Category{}).Where("slug = ? AND id <> ?", slug, exceptID).Count(&n).Error
	return n > 0, err
}

func (r *CategoryRepo) Roots(ctx context.Context) ([]domain.Category, error) {
	list := []domain.Category{}
	err := r.db.WithContext(ctx).Preload("Children", byName).
		Where("parent_id IS NULL").Order("name asc").Find(&list).Error
	return list, err
}

func (r *CategoryRepo) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Category{}).Where("parent_id = ?", id).Count(&n).Error
	return n, err
}

func (r *CategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Category{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "category")
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("category not found")
	}
	return nil
}
