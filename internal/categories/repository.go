package categories

import (
	"context"
	"errors"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, c *common.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*common.Category, error) {
	var c common.Category
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) Update(ctx context.Context, c *common.Category) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("uuid = ?", id).Delete(&common.Category{})
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) List(ctx context.Context) ([]common.Category, error) {
	var rows []common.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

// ServiceCount counts services of any state filed under the category.
func (r *Repository) ServiceCount(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&common.Service{}).
		Where("category_id = ?", id).
		Count(&count).Error
	return count, err
}
