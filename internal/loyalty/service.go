// Package loyalty credits clients for completed visits and lets barbers
// redeem the collected points.
package loyalty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotEnoughPoints = errors.New("not enough loyalty points for a reward")

type Store interface {
	Get(ctx context.Context, clientID, barberID uuid.UUID) (*common.LoyaltyPoints, error)
	Add(ctx context.Context, clientID, barberID uuid.UUID, points int, at time.Time) (*common.LoyaltyPoints, error)
	Deduct(ctx context.Context, clientID, barberID uuid.UUID, points int, at time.Time) (bool, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]common.LoyaltyPoints, error)
}

type Notifier interface {
	Notify(ctx context.Context, n common.Notification) error
}

type Rules struct {
	PointsPerVisit  int
	RewardThreshold int
}

func (r Rules) withDefaults() Rules {
	if r.PointsPerVisit <= 0 {
		r.PointsPerVisit = 10
	}
	if r.RewardThreshold <= 0 {
		r.RewardThreshold = 100
	}
	return r
}

// Balance is a client's standing with one barber.
type Balance struct {
	BarberID        uuid.UUID `json:"barber_id"`
	Points          int       `json:"points"`
	NextReward      int       `json:"next_reward"`
	Progress        float64   `json:"progress"`
	RewardAvailable bool      `json:"reward_available"`
}

type Service struct {
	repo     Store
	notifier Notifier
	rules    Rules
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repo Store, notifier Notifier, rules Rules, log *zap.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, rules: rules.withDefaults(), log: log, now: time.Now}
}

func (s *Service) balance(row common.LoyaltyPoints) Balance {
	b := Balance{BarberID: row.BarberID, Points: row.PointsBalance}
	if row.PointsBalance >= s.rules.RewardThreshold {
		b.RewardAvailable = true
		b.Progress = 1
		return b
	}
	b.NextReward = s.rules.RewardThreshold - row.PointsBalance
	b.Progress = float64(row.PointsBalance) / float64(s.rules.RewardThreshold)
	return b
}

// Award credits one visit for a completed booking and tells the client when
// the balance first reaches a reward.
func (s *Service) Award(ctx context.Context, booking common.Booking) error {
	if booking.Status != common.StatusCompleted {
		return nil
	}
	row, err := s.repo.Add(ctx, booking.ClientID, booking.BarberID, s.rules.PointsPerVisit, s.now())
	if err != nil {
		return fmt.Errorf("failed to add loyalty points: %w", err)
	}
	s.log.Info("Loyalty points awarded",
		zap.String("client_id", booking.ClientID.String()),
		zap.String("barber_id", booking.BarberID.String()),
		zap.Int("balance", row.PointsBalance))

	before := row.PointsBalance - s.rules.PointsPerVisit
	if before < s.rules.RewardThreshold && row.PointsBalance >= s.rules.RewardThreshold {
		s.notify(ctx, common.Notification{
			UserID:  booking.ClientID,
			Kind:    "loyalty_reward",
			Title:   "Reward available",
			Message: fmt.Sprintf("You have %d points, enough for a reward on your next visit", row.PointsBalance),
			Link:    "/loyalty",
		})
	}
	return nil
}

func (s *Service) Balances(ctx context.Context, user common.CurrentUser) ([]Balance, error) {
	if !user.Is(common.RoleClient) {
		return nil, common.ErrForbidden
	}
	rows, err := s.repo.ListByClient(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loyalty points: %w", err)
	}
	out := make([]Balance, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.balance(row))
	}
	return out, nil
}

// ClientBalance lets a barber see a client's points before redeeming.
func (s *Service) ClientBalance(ctx context.Context, user common.CurrentUser, clientID uuid.UUID) (Balance, error) {
	if !user.Is(common.RoleBarber) {
		return Balance{}, common.ErrForbidden
	}
	row, err := s.repo.Get(ctx, clientID, user.ID)
	if errors.Is(err, common.ErrNotFound) {
		return s.balance(common.LoyaltyPoints{BarberID: user.ID}), nil
	}
	if err != nil {
		return Balance{}, err
	}
	return s.balance(*row), nil
}

// Redeem spends one reward worth of the client's points with the calling barber.
func (s *Service) Redeem(ctx context.Context, user common.CurrentUser, clientID uuid.UUID) (Balance, error) {
	if !user.Is(common.RoleBarber) {
		return Balance{}, common.ErrForbidden
	}
	ok, err := s.repo.Deduct(ctx, clientID, user.ID, s.rules.RewardThreshold, s.now())
	if err != nil {
		return Balance{}, fmt.Errorf("failed to redeem loyalty points: %w", err)
	}
	if !ok {
		return Balance{}, ErrNotEnoughPoints
	}
	row, err := s.repo.Get(ctx, clientID, user.ID)
	if err != nil {
		return Balance{}, err
	}

	s.log.Info("Loyalty reward redeemed",
		zap.String("client_id", clientID.String()),
		zap.String("barber_id", user.ID.String()))
	s.notify(ctx, common.Notification{
		UserID:  clientID,
		Kind:    "loyalty_redeemed",
		Title:   "Reward redeemed",
		Message: fmt.Sprintf("%d points were spent, %d left", s.rules.RewardThreshold, row.PointsBalance),
		Link:    "/loyalty",
	})
	return s.balance(*row), nil
}

func (s *Service) notify(ctx context.Context, n common.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Warn("Failed to send notification", zap.String("kind", n.Kind), zap.Error(err))
	}
}
