// Package categories keeps the admin-curated list of service categories.
package categories

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/RudinMaxim/BarberMarket/database"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrCategoryExists = errors.New("category with this name already exists")
	ErrCategoryInUse  = errors.New("category is used by services")
)

type Store interface {
	Create(ctx context.Context, c *common.Category) error
	Get(ctx context.Context, id uuid.UUID) (*common.Category, error)
	Update(ctx context.Context, c *common.Category) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]common.Category, error)
	ServiceCount(ctx context.Context, id uuid.UUID) (int64, error)
}

type Input struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
}

func (in Input) validate() error {
	verr := &common.ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		verr.Add("name", "is required")
	}
	if icon := strings.TrimSpace(in.IconURL); icon != "" {
		if u, err := url.Parse(icon); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			verr.Add("icon_url", "must be an http(s) URL")
		}
	}
	return verr.OrNil()
}

type Service struct {
	repo Store
	log  *zap.Logger
	now  func() time.Time
}

func NewService(repo Store, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]common.Category, error) {
	return s.repo.List(ctx)
}

// Exists lets other modules check a category reference.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.repo.Get(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Service) Create(ctx context.Context, user common.CurrentUser, in Input) (*common.Category, error) {
	if !user.Is(common.RoleAdmin) {
		return nil, common.ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := &common.Category{
		UUID:        uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		IconURL:     strings.TrimSpace(in.IconURL),
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	s.log.Info("Category created", zap.String("name", c.Name))
	return c, nil
}

func (s *Service) Update(ctx context.Context, user common.CurrentUser, id uuid.UUID, in Input) (*common.Category, error) {
	if !user.Is(common.RoleAdmin) {
		return nil, common.ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Description = strings.TrimSpace(in.Description)
	c.IconURL = strings.TrimSpace(in.IconURL)
	if err := s.repo.Update(ctx, c); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return c, nil
}

// Delete refuses while any service still points at the category.
func (s *Service) Delete(ctx context.Context, user common.CurrentUser, id uuid.UUID) error {
	if !user.Is(common.RoleAdmin) {
		return common.ErrForbidden
	}
	used, err := s.repo.ServiceCount(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check category usage: %w", err)
	}
	if used > 0 {
		return ErrCategoryInUse
	}
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if !removed {
		return common.ErrNotFound
	}
	s.log.Info("Category deleted", zap.String("category_id", id.String()))
	return nil
}
