package catalog

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

func (r *Repository) Create(ctx context.Context, service *common.Service) error {
	return r.db.WithContext(ctx).Create(service).Error
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*common.Service, error) {
	var service common.Service
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&service).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *Repository) Update(ctx context.Context, service *common.Service) error {
	return r.db.WithContext(ctx).Save(service).Error
}

func (r *Repository) ListByBarber(ctx context.Context, barberID uuid.UUID, onlyActive bool) ([]common.Service, error) {
	var services []common.Service
	q := r.db.WithContext(ctx).Where("barber_id = ?", barberID)
	if onlyActive {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order("name ASC").Find(&services).Error
	return services, err
}
