package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/RudinMaxim/BarberMarket/helper"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotLinked      = errors.New("telegram account is not linked")
	ErrUnknownContact = errors.New("no profile with this phone number")
	ErrForeignContact = errors.New("shared contact belongs to another user")
)

type Profiles interface {
	Get(ctx context.Context, id uuid.UUID) (*common.Profile, error)
	FindByTelegramID(ctx context.Context, telegramID int64) (*common.Profile, error)
	FindByPhone(ctx context.Context, phones ...string) (*common.Profile, error)
	LinkTelegram(ctx context.Context, id uuid.UUID, telegramID int64, username string) error
}

type Bookings interface {
	Upcoming(ctx context.Context, user common.CurrentUser) ([]common.Booking, error)
}

type Service struct {
	profiles Profiles
	bookings Bookings
	log      *zap.Logger
}

func NewService(profiles Profiles, bookings Bookings, log *zap.Logger) *Service {
	return &Service{profiles: profiles, bookings: bookings, log: log}
}

// ProfileByTelegramID returns nil without error for chats that were never linked.
func (s *Service) ProfileByTelegramID(ctx context.Context, telegramID int64) (*common.Profile, error) {
	p, err := s.profiles.FindByTelegramID(ctx, telegramID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// LinkContact attaches the Telegram account to the profile registered with
// phone. The contact must be the sender's own: contactUserID has to equal
// telegramID, otherwise ErrForeignContact.
func (s *Service) LinkContact(ctx context.Context, telegramID, contactUserID int64, username, phone string) (*common.Profile, error) {
	if contactUserID != telegramID {
		s.log.Warn("Rejected foreign contact", zap.Int64("telegram_id", telegramID), zap.Int64("contact_user_id", contactUserID))
		return nil, ErrForeignContact
	}

	variants := helper.PhoneVariants(phone)
	if len(variants) == 0 {
		return nil, ErrUnknownContact
	}

	profile, err := s.profiles.FindByPhone(ctx, variants...)
	if errors.Is(err, common.ErrNotFound) {
		return nil, ErrUnknownContact
	}
	if err != nil {
		return nil, err
	}

	if err := s.profiles.LinkTelegram(ctx, profile.UUID, telegramID, username); err != nil {
		return nil, fmt.Errorf("failed to link telegram: %w", err)
	}
	profile.TelegramID = telegramID
	profile.Telegram = username

	s.log.Info("Telegram linked", zap.String("profile_id", profile.UUID.String()), zap.Int64("telegram_id", telegramID))
	return profile, nil
}

func (s *Service) UpcomingBookings(ctx context.Context, telegramID int64) ([]common.Booking, error) {
	profile, err := s.ProfileByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotLinked
	}
	return s.bookings.Upcoming(ctx, common.CurrentUser{ID: profile.UUID, Role: profile.Role})
}

// ChatFor returns the Telegram chat of a user, or 0 when there is none.
func (s *Service) ChatFor(ctx context.Context, userID uuid.UUID) (int64, error) {
	p, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return p.TelegramID, nil
}
