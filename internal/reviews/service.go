package reviews

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/RudinMaxim/BarberMarket/database"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrAlreadyReviewed = errors.New("you have already reviewed this barber")
	ErrNoVisit         = errors.New("only clients with a confirmed visit can leave a review")
)

type Store interface {
	Create(ctx context.Context, review *common.Review) error
	Get(ctx context.Context, id uuid.UUID) (*common.Review, error)
	Update(ctx context.Context, review *common.Review) error
	ListByBarber(ctx context.Context, barberID uuid.UUID) ([]common.Review, error)
}

type VisitChecker interface {
	HasVisit(ctx context.Context, clientID, barberID uuid.UUID) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, n common.Notification) error
}

type SubmitRequest struct {
	BarberID uuid.UUID `json:"barber_id"`
	Rating   int       `json:"rating"`
	Comment  string    `json:"comment"`
}

// Summary is a barber's review list with its average rating rounded to one decimal.
type Summary struct {
	Average float64         `json:"average"`
	Count   int             `json:"count"`
	Reviews []common.Review `json:"reviews"`
}

type Service struct {
	repo     Store
	visits   VisitChecker
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repo Store, visits VisitChecker, notifier Notifier, log *zap.Logger) *Service {
	return &Service{repo: repo, visits: visits, notifier: notifier, log: log, now: time.Now}
}

func (s *Service) Submit(ctx context.Context, user common.CurrentUser, req SubmitRequest) (*common.Review, error) {
	if !user.Is(common.RoleClient) {
		return nil, common.ErrForbidden
	}

	verr := &common.ValidationError{}
	if req.Rating < 1 || req.Rating > 5 {
		verr.Add("rating", "must be between 1 and 5")
	}
	if req.BarberID == uuid.Nil {
		verr.Add("barber_id", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	visited, err := s.visits.HasVisit(ctx, user.ID, req.BarberID)
	if err != nil {
		return nil, fmt.Errorf("failed to check visits: %w", err)
	}
	if !visited {
		return nil, ErrNoVisit
	}

	now := s.now()
	review := &common.Review{
		UUID:      uuid.New(),
		BarberID:  req.BarberID,
		ClientID:  user.ID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	if s.notifier != nil {
		n := common.Notification{
			UserID:  req.BarberID,
			Kind:    "review_created",
			Title:   "New review",
			Message: fmt.Sprintf("A client rated you %d/5", req.Rating),
			Link:    "/barber/reviews",
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.log.Warn("Failed to send notification", zap.String("kind", n.Kind), zap.Error(err))
		}
	}
	return review, nil
}

func (s *Service) Reply(ctx context.Context, user common.CurrentUser, reviewID uuid.UUID, text string) (*common.Review, error) {
	review, err := s.repo.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if !user.Is(common.RoleBarber) || review.BarberID != user.ID {
		return nil, common.ErrForbidden
	}

	text = strings.TrimSpace(text)
	if text == "" {
		verr := &common.ValidationError{}
		verr.Add("reply", "is required")
		return nil, verr
	}

	now := s.now()
	review.Reply = text
	review.RepliedAt = &now
	review.UpdatedAt = now
	if err := s.repo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to save reply: %w", err)
	}
	return review, nil
}

func (s *Service) ListForBarber(ctx context.Context, barberID uuid.UUID) (*Summary, error) {
	list, err := s.repo.ListByBarber(ctx, barberID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}

	summary := &Summary{Count: len(list), Reviews: list}
	if len(list) == 0 {
		summary.Reviews = []common.Review{}
		return summary, nil
	}
	total := 0
	for _, r := range list {
		total += r.Rating
	}
	summary.Average = math.Round(float64(total)/float64(len(list))*10) / 10
	return summary, nil
}
