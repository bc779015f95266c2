package barbers

import (
	"context"
	"errors"
	"strings"

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

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*common.Barber, error) {
	var b common.Barber
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) Save(ctx context.Context, b *common.Barber) error {
	return r.db.WithContext(ctx).Save(b).Error
}

// SaveWithName stores the card and the profile name together.
func (r *Repository) SaveWithName(ctx context.Context, b *common.Barber, fullName string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(b).Error; err != nil {
			return err
		}
		res := tx.Model(&common.Profile{}).
			Where("uuid = ?", b.UUID).
			Updates(map[string]interface{}{"full_name": fullName, "updated_at": b.UpdatedAt})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.ErrNotFound
		}
		return nil
	})
}

func (r *Repository) cards(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("barbers AS b").
		Select(`b.uuid AS barber_id, p.full_name, b.bio, b.address,
			b.city_id, COALESCE(c.name, '') AS city_name,
			b.neighborhood_id, COALESCE(n.name, '') AS neighborhood_name,
			b.verification_status, b.verification_note,
			COALESCE(AVG(r.rating), 0) AS rating, COUNT(r.uuid) AS review_count`).
		Joins("JOIN profiles p ON p.uuid = b.uuid").
		Joins("LEFT JOIN cities c ON c.uuid = b.city_id").
		Joins("LEFT JOIN neighborhoods n ON n.uuid = b.neighborhood_id").
		Joins("LEFT JOIN reviews r ON r.barber_id = b.uuid").
		Group("b.uuid, p.full_name, c.name, n.name")
}

func (r *Repository) Card(ctx context.Context, id uuid.UUID) (*Card, error) {
	var cards []Card
	if err := r.cards(ctx).Where("b.uuid = ?", id).Scan(&cards).Error; err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, common.ErrNotFound
	}
	return &cards[0], nil
}

// Discover lists approved barbers with active profiles matching f.
func (r *Repository) Discover(ctx context.Context, f Filter) ([]Card, error) {
	q := r.cards(ctx).
		Where("b.verification_status = ?", common.VerificationApproved).
		Where("p.is_active = ?", true)
	if f.CityID != nil {
		q = q.Where("b.city_id = ?", *f.CityID)
	}
	if f.NeighborhoodID != nil {
		q = q.Where("b.neighborhood_id = ?", *f.NeighborhoodID)
	}
	if f.CategoryID != nil {
		q = q.Where(`EXISTS (SELECT 1 FROM services s
			WHERE s.barber_id = b.uuid AND s.category_id = ? AND s.is_active)`, *f.CategoryID)
	}
	if text := strings.TrimSpace(f.Query); text != "" {
		like := "%" + escapeLike(text) + "%"
		q = q.Where("(p.full_name ILIKE ? OR b.bio ILIKE ? OR b.address ILIKE ?)", like, like, like)
	}
	var cards []Card
	err := q.Order("rating DESC, review_count DESC, p.full_name ASC").
		Limit(f.Limit).
		Offset(f.Offset).
		Scan(&cards).Error
	return cards, err
}

func (r *Repository) ListByStatus(ctx context.Context, status common.VerificationStatus) ([]Card, error) {
	q := r.cards(ctx)
	if status != "" {
		q = q.Where("b.verification_status = ?", status)
	}
	var cards []Card
	err := q.Order("b.updated_at ASC").Scan(&cards).Error
	return cards, err
}

func (r *Repository) Cities(ctx context.Context) ([]common.City, error) {
	var rows []common.City
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) City(ctx context.Context, id uuid.UUID) (*common.City, error) {
	var c common.City
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) CreateCity(ctx context.Context, c *common.City) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *Repository) Neighborhoods(ctx context.Context, cityID uuid.UUID) ([]common.Neighborhood, error) {
	var rows []common.Neighborhood
	err := r.db.WithContext(ctx).Where("city_id = ?", cityID).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) Neighborhood(ctx context.Context, id uuid.UUID) (*common.Neighborhood, error) {
	var n common.Neighborhood
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *Repository) CreateNeighborhood(ctx context.Context, n *common.Neighborhood) error {
	return r.db.WithContext(ctx).Create(n).Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
