// Package catalog manages the services a barber offers.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxDurationMinutes = 8 * 60

type Store interface {
	Create(ctx context.Context, service *common.Service) error
	Get(ctx context.Context, id uuid.UUID) (*common.Service, error)
	Update(ctx context.Context, service *common.Service) error
	ListByBarber(ctx context.Context, barberID uuid.UUID, onlyActive bool) ([]common.Service, error)
}

// Categories resolves category references on services.
type Categories interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Input struct {
	Name       string     `json:"name"`
	Duration   int        `json:"duration"`
	Price      float64    `json:"price"`
	CategoryID *uuid.UUID `json:"category_id"`
}

func (in Input) validate() error {
	verr := &common.ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		verr.Add("name", "is required")
	}
	if in.Duration <= 0 || in.Duration > maxDurationMinutes {
		verr.Add("duration", fmt.Sprintf("must be between 1 and %d minutes", maxDurationMinutes))
	}
	if in.Price < 0 {
		verr.Add("price", "must not be negative")
	}
	return verr.OrNil()
}

type Service struct {
	repo       Store
	categories Categories
	log        *zap.Logger
	now        func() time.Time
}

func NewService(repo Store, categories Categories, log *zap.Logger) *Service {
	return &Service{repo: repo, categories: categories, log: log, now: time.Now}
}

func (s *Service) checkInput(ctx context.Context, in Input) error {
	if err := in.validate(); err != nil {
		return err
	}
	if in.CategoryID == nil {
		return nil
	}
	ok, err := s.categories.Exists(ctx, *in.CategoryID)
	if err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if !ok {
		verr := &common.ValidationError{}
		verr.Add("category_id", "unknown category")
		return verr
	}
	return nil
}

// ListForBarber shows inactive services only to their owner.
func (s *Service) ListForBarber(ctx context.Context, user common.CurrentUser, barberID uuid.UUID) ([]common.Service, error) {
	owner := user.Is(common.RoleBarber) && user.ID == barberID
	return s.repo.ListByBarber(ctx, barberID, !owner)
}

func (s *Service) Create(ctx context.Context, user common.CurrentUser, in Input) (*common.Service, error) {
	if !user.Is(common.RoleBarber) {
		return nil, common.ErrForbidden
	}
	if err := s.checkInput(ctx, in); err != nil {
		return nil, err
	}

	now := s.now()
	service := &common.Service{
		UUID:       uuid.New(),
		BarberID:   user.ID,
		CategoryID: in.CategoryID,
		Name:       strings.TrimSpace(in.Name),
		Duration:   in.Duration,
		Price:      in.Price,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, service); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	s.log.Info("Service created", zap.String("barber_id", user.ID.String()), zap.String("name", service.Name))
	return service, nil
}

func (s *Service) owned(ctx context.Context, user common.CurrentUser, id uuid.UUID) (*common.Service, error) {
	service, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.Is(common.RoleBarber) || service.BarberID != user.ID {
		return nil, common.ErrForbidden
	}
	return service, nil
}

func (s *Service) Update(ctx context.Context, user common.CurrentUser, id uuid.UUID, in Input) (*common.Service, error) {
	service, err := s.owned(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkInput(ctx, in); err != nil {
		return nil, err
	}

	service.Name = strings.TrimSpace(in.Name)
	service.CategoryID = in.CategoryID
	service.Duration = in.Duration
	service.Price = in.Price
	service.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, service); err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}
	return service, nil
}

// Deactivate hides the service from booking; existing bookings keep referencing it.
func (s *Service) Deactivate(ctx context.Context, user common.CurrentUser, id uuid.UUID) error {
	service, err := s.owned(ctx, user, id)
	if err != nil {
		return err
	}
	service.IsActive = false
	service.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, service); err != nil {
		return fmt.Errorf("failed to deactivate service: %w", err)
	}
	return nil
}
