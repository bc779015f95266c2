// Package notifications stores in-app notifications and fans them out to
// live subscribers and Telegram.
package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const listLimit = 50

type Store interface {
	Create(ctx context.Context, n *common.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]common.Notification, error)
	Get(ctx context.Context, id uuid.UUID) (*common.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Publisher delivers an already stored notification through one channel.
type Publisher interface {
	Publish(ctx context.Context, n common.Notification) error
}

type Service struct {
	repo       Store
	publishers []Publisher
	log        *zap.Logger
	now        func() time.Time
}

func NewService(repo Store, log *zap.Logger, publishers ...Publisher) *Service {
	return &Service{repo: repo, publishers: publishers, log: log, now: time.Now}
}

// AddPublisher registers a delivery channel created after the service, e.g. the bot.
func (s *Service) AddPublisher(p Publisher) {
	s.publishers = append(s.publishers, p)
}

// Notify persists n and then publishes it. Publisher failures are only logged.
func (s *Service) Notify(ctx context.Context, n common.Notification) error {
	if n.UUID == uuid.Nil {
		n.UUID = uuid.New()
	}
	n.IsRead = false
	n.CreatedAt = s.now()

	if err := s.repo.Create(ctx, &n); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	for _, p := range s.publishers {
		if err := p.Publish(ctx, n); err != nil {
			s.log.Warn("Notification delivery failed",
				zap.String("user_id", n.UserID.String()),
				zap.String("kind", n.Kind),
				zap.Error(err))
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, user common.CurrentUser) ([]common.Notification, error) {
	return s.repo.ListByUser(ctx, user.ID, listLimit)
}

func (s *Service) owned(ctx context.Context, user common.CurrentUser, id uuid.UUID) error {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != user.ID {
		return common.ErrForbidden
	}
	return nil
}

func (s *Service) MarkRead(ctx context.Context, user common.CurrentUser, id uuid.UUID) error {
	if err := s.owned(ctx, user, id); err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, id)
}

func (s *Service) MarkAllRead(ctx context.Context, user common.CurrentUser) (int64, error) {
	return s.repo.MarkAllRead(ctx, user.ID)
}

func (s *Service) Delete(ctx context.Context, user common.CurrentUser, id uuid.UUID) error {
	if err := s.owned(ctx, user, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
