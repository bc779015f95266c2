// Package barbers owns the public barber card: profile editing, admin
// verification, location reference data and client-side discovery.
package barbers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/RudinMaxim/BarberMarket/database"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
	maxBioLength    = 2000
)

var ErrLocationExists = errors.New("location with this name already exists")

// Card is the public view of a barber.
type Card struct {
	BarberID           uuid.UUID                 `json:"barber_id"`
	FullName           string                    `json:"full_name"`
	Bio                string                    `json:"bio"`
	Address            string                    `json:"address"`
	CityID             *uuid.UUID                `json:"city_id,omitempty"`
	CityName           string                    `json:"city_name,omitempty"`
	NeighborhoodID     *uuid.UUID                `json:"neighborhood_id,omitempty"`
	NeighborhoodName   string                    `json:"neighborhood_name,omitempty"`
	VerificationStatus common.VerificationStatus `json:"verification_status"`
	VerificationNote   string                    `json:"verification_note,omitempty"`
	Rating             float64                   `json:"rating"`
	ReviewCount        int64                     `json:"review_count"`
}

// Filter narrows discovery; nil ids and an empty query match everything.
type Filter struct {
	CategoryID     *uuid.UUID
	CityID         *uuid.UUID
	NeighborhoodID *uuid.UUID
	Query          string
	Limit          int
	Offset         int
}

func (f Filter) normalized() Filter {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

type ProfileInput struct {
	FullName       string     `json:"full_name"`
	Bio            string     `json:"bio"`
	Address        string     `json:"address"`
	CityID         *uuid.UUID `json:"city_id"`
	NeighborhoodID *uuid.UUID `json:"neighborhood_id"`
}

type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*common.Barber, error)
	Save(ctx context.Context, b *common.Barber) error
	SaveWithName(ctx context.Context, b *common.Barber, fullName string) error
	Card(ctx context.Context, id uuid.UUID) (*Card, error)
	Discover(ctx context.Context, f Filter) ([]Card, error)
	ListByStatus(ctx context.Context, status common.VerificationStatus) ([]Card, error)

	Cities(ctx context.Context) ([]common.City, error)
	City(ctx context.Context, id uuid.UUID) (*common.City, error)
	CreateCity(ctx context.Context, c *common.City) error
	Neighborhoods(ctx context.Context, cityID uuid.UUID) ([]common.Neighborhood, error)
	Neighborhood(ctx context.Context, id uuid.UUID) (*common.Neighborhood, error)
	CreateNeighborhood(ctx context.Context, n *common.Neighborhood) error
}

type Notifier interface {
	Notify(ctx context.Context, n common.Notification) error
}

type Service struct {
	repo     Store
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repo Store, notifier Notifier, log *zap.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, log: log, now: time.Now}
}

func (s *Service) Discover(ctx context.Context, f Filter) ([]Card, error) {
	cards, err := s.repo.Discover(ctx, f.normalized())
	if err != nil {
		return nil, fmt.Errorf("failed to discover barbers: %w", err)
	}
	return cards, nil
}

// Get hides unapproved barbers from everyone but the barber and admins.
func (s *Service) Get(ctx context.Context, user common.CurrentUser, id uuid.UUID) (*Card, error) {
	card, err := s.repo.Card(ctx, id)
	if err != nil {
		return nil, err
	}
	if card.VerificationStatus != common.VerificationApproved && user.ID != id && !user.Is(common.RoleAdmin) {
		return nil, common.ErrNotFound
	}
	return card, nil
}

// Own returns the caller's card, creating a pending one on first access.
func (s *Service) Own(ctx context.Context, user common.CurrentUser) (*Card, error) {
	if !user.Is(common.RoleBarber) {
		return nil, common.ErrForbidden
	}
	card, err := s.repo.Card(ctx, user.ID)
	if !errors.Is(err, common.ErrNotFound) {
		return card, err
	}
	now := s.now()
	b := &common.Barber{UUID: user.ID, VerificationStatus: common.VerificationPending, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create barber card: %w", err)
	}
	return s.repo.Card(ctx, user.ID)
}

func (s *Service) validateProfile(ctx context.Context, in ProfileInput) error {
	verr := &common.ValidationError{}
	if strings.TrimSpace(in.FullName) == "" {
		verr.Add("full_name", "is required")
	}
	if utf8.RuneCountInString(in.Bio) > maxBioLength {
		verr.Add("bio", fmt.Sprintf("must be at most %d characters", maxBioLength))
	}
	if in.NeighborhoodID != nil && in.CityID == nil {
		verr.Add("neighborhood_id", "requires city_id")
	}
	if verr.HasErrors() {
		return verr
	}

	if in.CityID != nil {
		if _, err := s.repo.City(ctx, *in.CityID); err != nil {
			if !errors.Is(err, common.ErrNotFound) {
				return err
			}
			verr.Add("city_id", "unknown city")
		}
	}
	if in.NeighborhoodID != nil {
		n, err := s.repo.Neighborhood(ctx, *in.NeighborhoodID)
		switch {
		case errors.Is(err, common.ErrNotFound):
			verr.Add("neighborhood_id", "unknown neighborhood")
		case err != nil:
			return err
		case n.CityID != *in.CityID:
			verr.Add("neighborhood_id", "belongs to another city")
		}
	}
	return verr.OrNil()
}

// UpdateProfile edits the caller's card. Verification is left as it was.
func (s *Service) UpdateProfile(ctx context.Context, user common.CurrentUser, in ProfileInput) (*Card, error) {
	if !user.Is(common.RoleBarber) {
		return nil, common.ErrForbidden
	}
	if err := s.validateProfile(ctx, in); err != nil {
		return nil, err
	}

	now := s.now()
	b, err := s.repo.Get(ctx, user.ID)
	if errors.Is(err, common.ErrNotFound) {
		b = &common.Barber{UUID: user.ID, VerificationStatus: common.VerificationPending, CreatedAt: now}
	} else if err != nil {
		return nil, err
	}
	b.Bio = strings.TrimSpace(in.Bio)
	b.Address = strings.TrimSpace(in.Address)
	b.CityID = in.CityID
	b.NeighborhoodID = in.NeighborhoodID
	b.UpdatedAt = now

	if err := s.repo.SaveWithName(ctx, b, strings.TrimSpace(in.FullName)); err != nil {
		return nil, fmt.Errorf("failed to save barber profile: %w", err)
	}
	s.log.Info("Barber profile updated", zap.String("barber_id", user.ID.String()))
	return s.repo.Card(ctx, user.ID)
}

func (s *Service) ListForAdmin(ctx context.Context, user common.CurrentUser, status common.VerificationStatus) ([]Card, error) {
	if !user.Is(common.RoleAdmin) {
		return nil, common.ErrForbidden
	}
	if status != "" && !validStatus(status) {
		verr := &common.ValidationError{}
		verr.Add("status", "must be pending, approved or rejected")
		return nil, verr
	}
	return s.repo.ListByStatus(ctx, status)
}

func validStatus(status common.VerificationStatus) bool {
	switch status {
	case common.VerificationPending, common.VerificationApproved, common.VerificationRejected:
		return true
	}
	return false
}

// SetVerification records an admin decision and tells the barber about it.
func (s *Service) SetVerification(ctx context.Context, user common.CurrentUser, barberID uuid.UUID, status common.VerificationStatus, note string) (*Card, error) {
	if !user.Is(common.RoleAdmin) {
		return nil, common.ErrForbidden
	}
	if !validStatus(status) {
		verr := &common.ValidationError{}
		verr.Add("status", "must be pending, approved or rejected")
		return nil, verr
	}
	b, err := s.repo.Get(ctx, barberID)
	if err != nil {
		return nil, err
	}
	b.VerificationStatus = status
	b.VerificationNote = strings.TrimSpace(note)
	b.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to save verification: %w", err)
	}

	s.log.Info("Barber verification changed",
		zap.String("barber_id", barberID.String()),
		zap.String("status", string(status)),
		zap.String("admin_id", user.ID.String()))
	s.notifyVerification(ctx, b)
	return s.repo.Card(ctx, barberID)
}

func (s *Service) notifyVerification(ctx context.Context, b *common.Barber) {
	if s.notifier == nil || b.VerificationStatus == common.VerificationPending {
		return
	}
	n := common.Notification{
		UserID: b.UUID,
		Kind:   "verification_" + string(b.VerificationStatus),
		Title:  "Profile approved",
		Link:   "/barber/profile",
	}
	n.Message = "Clients can now find you in the search"
	if b.VerificationStatus == common.VerificationRejected {
		n.Title = "Profile rejected"
		n.Message = "Your profile did not pass verification"
		if b.VerificationNote != "" {
			n.Message += ": " + b.VerificationNote
		}
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Warn("Failed to send notification", zap.String("kind", n.Kind), zap.Error(err))
	}
}

func (s *Service) Cities(ctx context.Context) ([]common.City, error) {
	return s.repo.Cities(ctx)
}

func (s *Service) Neighborhoods(ctx context.Context, cityID uuid.UUID) ([]common.Neighborhood, error) {
	if _, err := s.repo.City(ctx, cityID); err != nil {
		return nil, err
	}
	return s.repo.Neighborhoods(ctx, cityID)
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		verr := &common.ValidationError{}
		verr.Add("name", "is required")
		return "", verr
	}
	return name, nil
}

func (s *Service) CreateCity(ctx context.Context, user common.CurrentUser, name string) (*common.City, error) {
	if !user.Is(common.RoleAdmin) {
		return nil, common.ErrForbidden
	}
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	c := &common.City{UUID: uuid.New(), Name: name}
	if err := s.repo.CreateCity(ctx, c); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrLocationExists
		}
		return nil, fmt.Errorf("failed to create city: %w", err)
	}
	return c, nil
}

func (s *Service) CreateNeighborhood(ctx context.Context, user common.CurrentUser, cityID uuid.UUID, name string) (*common.Neighborhood, error) {
	if !user.Is(common.RoleAdmin) {
		return nil, common.ErrForbidden
	}
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.City(ctx, cityID); err != nil {
		return nil, err
	}
	n := &common.Neighborhood{UUID: uuid.New(), CityID: cityID, Name: name}
	if err := s.repo.CreateNeighborhood(ctx, n); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrLocationExists
		}
		return nil, fmt.Errorf("failed to create neighborhood: %w", err)
	}
	return n, nil
}
