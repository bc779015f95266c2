package blocking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/RudinMaxim/BarberMarket/database"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrAlreadyBlocked = errors.New("client is already blocked")

type Store interface {
	Create(ctx context.Context, row *common.BlockedClient) error
	Delete(ctx context.Context, barberID, clientID uuid.UUID) (bool, error)
	Exists(ctx context.Context, barberID, clientID uuid.UUID) (bool, error)
	ListByBarber(ctx context.Context, barberID uuid.UUID) ([]common.BlockedClient, error)
}

type Service struct {
	repo Store
	log  *zap.Logger
	now  func() time.Time
}

func NewService(repo Store, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

func (s *Service) Block(ctx context.Context, user common.CurrentUser, clientID uuid.UUID, reason string) (*common.BlockedClient, error) {
	if !user.Is(common.RoleBarber) {
		return nil, common.ErrForbidden
	}
	if clientID == user.ID {
		verr := &common.ValidationError{}
		verr.Add("client_id", "cannot block yourself")
		return nil, verr
	}

	row := &common.BlockedClient{
		UUID:      uuid.New(),
		BarberID:  user.ID,
		ClientID:  clientID,
		Reason:    strings.TrimSpace(reason),
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadyBlocked
		}
		return nil, fmt.Errorf("failed to block client: %w", err)
	}

	s.log.Info("Client blocked",
		zap.String("barber_id", user.ID.String()),
		zap.String("client_id", clientID.String()))
	return row, nil
}

func (s *Service) Unblock(ctx context.Context, user common.CurrentUser, clientID uuid.UUID) error {
	if !user.Is(common.RoleBarber) {
		return common.ErrForbidden
	}
	removed, err := s.repo.Delete(ctx, user.ID, clientID)
	if err != nil {
		return fmt.Errorf("failed to unblock client: %w", err)
	}
	if !removed {
		return common.ErrNotFound
	}
	return nil
}

func (s *Service) IsBlocked(ctx context.Context, barberID, clientID uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, barberID, clientID)
}

func (s *Service) ListBlocked(ctx context.Context, user common.CurrentUser) ([]common.BlockedClient, error) {
	if !user.Is(common.RoleBarber) {
		return nil, common.ErrForbidden
	}
	return s.repo.ListByBarber(ctx, user.ID)
}
