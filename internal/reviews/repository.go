package reviews

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

func (r *Repository) Create(ctx context.Context, review *common.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*common.Review, error) {
	var review common.Review
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *Repository) Update(ctx context.Context, review *common.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *Repository) ListByBarber(ctx context.Context, barberID uuid.UUID) ([]common.Review, error) {
	var reviews []common.Review
	err := r.db.WithContext(ctx).
		Where("barber_id = ?", barberID).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}
