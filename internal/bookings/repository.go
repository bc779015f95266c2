package bookings

import (
	"context"
	"errors"
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

func (r *Repository) GetService(ctx context.Context, serviceID uuid.UUID) (*common.Service, error) {
	var service common.Service
	err := r.db.WithContext(ctx).Where("uuid = ? AND is_active = ?", serviceID, true).First(&service).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &service, nil
}

// ListForDay returns the barber's non-cancelled bookings starting within [from, to].
func (r *Repository) ListForDay(ctx context.Context, barberID uuid.UUID, from, to time.Time) ([]common.Booking, error) {
	var bookings []common.Booking
	err := r.db.WithContext(ctx).
		Where("barber_id = ? AND status <> ? AND start_time BETWEEN ? AND ?", barberID, common.StatusCancelled, from, to).
		Order("start_time ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *Repository) Create(ctx context.Context, booking *common.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *Repository) Get(ctx context.Context, bookingID uuid.UUID) (*common.Booking, error) {
	var booking common.Booking
	err := r.db.WithContext(ctx).Where("uuid = ?", bookingID).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *Repository) Update(ctx context.Context, booking *common.Booking) error {
	return r.db.WithContext(ctx).Save(booking).Error
}

func (r *Repository) ListByBarber(ctx context.Context, barberID uuid.UUID) ([]common.Booking, error) {
	var bookings []common.Booking
	err := r.db.WithContext(ctx).Where("barber_id = ?", barberID).Order("start_time DESC").Find(&bookings).Error
	return bookings, err
}

func (r *Repository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]common.Booking, error) {
	var bookings []common.Booking
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).Order("start_time DESC").Find(&bookings).Error
	return bookings, err
}

func (r *Repository) ListAll(ctx context.Context) ([]common.Booking, error) {
	var bookings []common.Booking
	err := r.db.WithContext(ctx).Order("start_time DESC").Find(&bookings).Error
	return bookings, err
}

// HasVisit reports whether the client has a confirmed or completed booking with the barber.
func (r *Repository) HasVisit(ctx context.Context, clientID, barberID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&common.Booking{}).
		Where("client_id = ? AND barber_id = ? AND status IN ?", clientID, barberID,
			[]common.BookingStatus{common.StatusConfirmed, common.StatusCompleted}).
		Count(&count).Error
	return count > 0, err
}

// ExpirePending cancels pending bookings that started before cutoff.
func (r *Repository) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&common.Booking{}).
		Where("status = ? AND start_time < ?", common.StatusPending, cutoff).
		Updates(map[string]interface{}{
			"status":       common.StatusCancelled,
			"cancelled_at": cutoff,
			"updated_at":   cutoff,
		})
	return res.RowsAffected, res.Error
}
