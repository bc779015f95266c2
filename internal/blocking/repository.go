package blocking

import (
	"context"

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

func (r *Repository) Create(ctx context.Context, row *common.BlockedClient) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// Delete reports whether a row was removed.
func (r *Repository) Delete(ctx context.Context, barberID, clientID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("barber_id = ? AND client_id = ?", barberID, clientID).
		Delete(&common.BlockedClient{})
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) Exists(ctx context.Context, barberID, clientID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&common.BlockedClient{}).
		Where("barber_id = ? AND client_id = ?", barberID, clientID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) ListByBarber(ctx context.Context, barberID uuid.UUID) ([]common.BlockedClient, error) {
	var rows []common.BlockedClient
	err := r.db.WithContext(ctx).
		Where("barber_id = ?", barberID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
