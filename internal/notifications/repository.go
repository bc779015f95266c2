package notifications

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

func (r *Repository) Create(ctx context.Context, n *common.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]common.Notification, error) {
	var list []common.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*common.Notification, error) {
	var n common.Notification
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&common.Notification{}).
		Where("uuid = ?", id).
		Update("is_read", true).Error
}

func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&common.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("uuid = ?", id).Delete(&common.Notification{}).Error
}
