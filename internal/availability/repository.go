package availability

import (
	"context"
	"errors"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindDay returns nil without error when the barber has no row for the weekday.
func (r *Repository) FindDay(ctx context.Context, barberID uuid.UUID, dayOfWeek int) (*common.Availability, error) {
	var row common.Availability
	err := r.db.WithContext(ctx).
		Where("barber_id = ? AND day_of_week = ?", barberID, dayOfWeek).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) ListByBarber(ctx context.Context, barberID uuid.UUID) ([]common.Availability, error) {
	var rows []common.Availability
	err := r.db.WithContext(ctx).
		Where("barber_id = ?", barberID).
		Order("day_of_week ASC").
		Find(&rows).Error
	return rows, err
}

// InsertMissing never overwrites rows the barber already edited.
func (r *Repository) InsertMissing(ctx context.Context, rows []common.Availability) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "barber_id"}, {Name: "day_of_week"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

func (r *Repository) Upsert(ctx context.Context, rows []common.Availability) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "barber_id"}, {Name: "day_of_week"}},
			DoUpdates: clause.AssignmentColumns([]string{"start_time", "end_time", "is_enabled", "updated_at"}),
		}).
		Create(&rows).Error
}
