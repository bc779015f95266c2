// Package profiles reads user profiles owned by the external auth service.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

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

func (r *Repository) getBy(ctx context.Context, field string, value interface{}) (*common.Profile, error) {
	var profile common.Profile
	err := r.db.WithContext(ctx).Where(field+" = ?", value).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by %s: %w", field, err)
	}
	return &profile, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*common.Profile, error) {
	return r.getBy(ctx, "uuid", id)
}

func (r *Repository) FindByTelegramID(ctx context.Context, telegramID int64) (*common.Profile, error) {
	return r.getBy(ctx, "telegram_id", telegramID)
}

// FindByPhone matches any of the given spellings of one number.
func (r *Repository) FindByPhone(ctx context.Context, phones ...string) (*common.Profile, error) {
	var profile common.Profile
	err := r.db.WithContext(ctx).
		Where("phone IN ? AND is_active = ?", phones, true).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by phone: %w", err)
	}
	return &profile, nil
}

func (r *Repository) LinkTelegram(ctx context.Context, id uuid.UUID, telegramID int64, username string) error {
	return r.db.WithContext(ctx).Model(&common.Profile{}).
		Where("uuid = ?", id).
		Updates(map[string]interface{}{
			"telegram_id": telegramID,
			"telegram":    username,
			"updated_at":  time.Now(),
		}).Error
}
