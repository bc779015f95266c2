package loyalty

import (
	"context"
	"errors"
	"time"

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

func (r *Repository) Get(ctx context.Context, clientID, barberID uuid.UUID) (*common.LoyaltyPoints, error) {
	var row common.LoyaltyPoints
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND barber_id = ?", clientID, barberID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Add credits points in one statement so concurrent visits never lose an increment.
func (r *Repository) Add(ctx context.Context, clientID, barberID uuid.UUID, points int, at time.Time) (*common.LoyaltyPoints, error) {
	row := &common.LoyaltyPoints{
		UUID:          uuid.New(),
		ClientID:      clientID,
		BarberID:      barberID,
		PointsBalance: points,
		UpdatedAt:     at,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "client_id"}, {Name: "barber_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"points_balance": gorm.Expr("loyalty_points.points_balance + ?", points),
				"updated_at":     at,
			}),
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, clientID, barberID)
}

// Deduct reports false when the balance is below points.
func (r *Repository) Deduct(ctx context.Context, clientID, barberID uuid.UUID, points int, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&common.LoyaltyPoints{}).
		Where("client_id = ? AND barber_id = ? AND points_balance >= ?", clientID, barberID, points).
		Updates(map[string]interface{}{
			"points_balance": gorm.Expr("points_balance - ?", points),
			"updated_at":     at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]common.LoyaltyPoints, error) {
	var rows []common.LoyaltyPoints
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("points_balance DESC").
		Find(&rows).Error
	return rows, err
}
