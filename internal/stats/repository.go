package stats

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

func (r *Repository) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("bookings AS b").
		Select(`b.uuid AS booking_id, b.barber_id, b.start_time, b.status, b.total_price,
			COALESCE(bp.full_name, '') AS barber_name,
			COALESCE(cp.full_name, '') AS client_name,
			COALESCE(s.name, '') AS service_name`).
		Joins("LEFT JOIN profiles bp ON bp.uuid = b.barber_id").
		Joins("LEFT JOIN profiles cp ON cp.uuid = b.client_id").
		Joins("LEFT JOIN services s ON s.uuid = b.service_id")
}

// Rows returns bookings joined with names; a nil barberID or empty status means no filter.
func (r *Repository) Rows(ctx context.Context, barberID *uuid.UUID, status common.BookingStatus) ([]Row, error) {
	q := r.base(ctx)
	if barberID != nil {
		q = q.Where("b.barber_id = ?", *barberID)
	}
	if status != "" {
		q = q.Where("b.status = ?", status)
	}
	var rows []Row
	err := q.Order("b.start_time DESC").Scan(&rows).Error
	return rows, err
}
