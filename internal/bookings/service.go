package bookings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/RudinMaxim/BarberMarket/database"
	"github.com/RudinMaxim/BarberMarket/internal/slots"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

var (
	ErrSlotsUnavailable  = errors.New("failed to load available time slots")
	ErrSlotUnavailable   = errors.New("selected time slot is not available")
	ErrClientBlocked     = errors.New("client is blocked by this barber")
	ErrInvalidTransition = errors.New("booking status change is not allowed")
	ErrBookingInPast     = errors.New("cannot cancel past bookings")
)

type Store interface {
	GetService(ctx context.Context, serviceID uuid.UUID) (*common.Service, error)
	ListForDay(ctx context.Context, barberID uuid.UUID, from, to time.Time) ([]common.Booking, error)
	Create(ctx context.Context, booking *common.Booking) error
	Get(ctx context.Context, bookingID uuid.UUID) (*common.Booking, error)
	Update(ctx context.Context, booking *common.Booking) error
	ListByBarber(ctx context.Context, barberID uuid.UUID) ([]common.Booking, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]common.Booking, error)
	ListAll(ctx context.Context) ([]common.Booking, error)
	ExpirePending(ctx context.Context, cutoff time.Time) (int64, error)
}

type Windows interface {
	Window(ctx context.Context, barberID uuid.UUID, weekday time.Weekday) (*slots.Window, error)
}

type BlockChecker interface {
	IsBlocked(ctx context.Context, barberID, clientID uuid.UUID) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, n common.Notification) error
}

type CalendarSync interface {
	AddBooking(ctx context.Context, booking *common.Booking) (string, error)
	RemoveBooking(ctx context.Context, eventID string) error
}

// Loyalty credits the client for a completed visit.
type Loyalty interface {
	Award(ctx context.Context, booking common.Booking) error
}

type Deps struct {
	Repo       Store
	Windows    Windows
	Blocks     BlockChecker
	Notifier   Notifier
	Calendar   CalendarSync
	Loyalty    Loyalty
	Calculator *slots.Calculator
	Location   *time.Location
	Now        func() time.Time
	Log        *zap.Logger
}

type Service struct {
	repo     Store
	windows  Windows
	blocks   BlockChecker
	notifier Notifier
	calendar CalendarSync
	loyalty  Loyalty
	calc     *slots.Calculator
	loc      *time.Location
	now      func() time.Time
	log      *zap.Logger
}

func NewService(d Deps) *Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Calculator == nil {
		d.Calculator = slots.NewCalculator(slots.DefaultStepMinutes, d.Now)
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Service{
		repo:     d.Repo,
		windows:  d.Windows,
		blocks:   d.Blocks,
		notifier: d.Notifier,
		calendar: d.Calendar,
		loyalty:  d.Loyalty,
		calc:     d.Calculator,
		loc:      d.Location,
		now:      d.Now,
		log:      d.Log,
	}
}

// ParseDate reads a YYYY-MM-DD civil date in the barber time zone.
func (s *Service) ParseDate(value string) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, value, s.loc)
	if err != nil {
		verr := &common.ValidationError{}
		verr.Add("date", "must be YYYY-MM-DD")
		return time.Time{}, verr
	}
	return day, nil
}

// AvailableSlots computes the candidate slots of a service for a civil date.
func (s *Service) AvailableSlots(ctx context.Context, serviceID uuid.UUID, day time.Time) ([]slots.Slot, error) {
	service, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSlotsUnavailable, err)
	}
	return s.slotsFor(ctx, service, day)
}

func (s *Service) slotsFor(ctx context.Context, service *common.Service, day time.Time) ([]slots.Slot, error) {
	day = day.In(s.loc)

	window, err := s.windows.Window(ctx, service.BarberID, day.Weekday())
	if err != nil {
		if errors.Is(err, slots.ErrInvalidAvailabilityWindow) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSlotsUnavailable, err)
	}

	from, to := slots.DayBounds(day)
	existing, err := s.repo.ListForDay(ctx, service.BarberID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSlotsUnavailable, err)
	}

	booked := make([]slots.Interval, 0, len(existing))
	for _, b := range existing {
		booked = append(booked, slots.Interval{Start: b.StartTime, End: b.EndTime})
	}

	return s.calc.Compute(day, window, booked, service.Duration)
}

type CreateRequest struct {
	ServiceID uuid.UUID `json:"service_id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
}

// Create books a pending appointment for the calling client.
func (s *Service) Create(ctx context.Context, user common.CurrentUser, req CreateRequest) (*common.Booking, error) {
	if !user.Is(common.RoleClient) {
		return nil, common.ErrForbidden
	}

	day, err := s.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}

	service, err := s.repo.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}

	blocked, err := s.blocks.IsBlocked(ctx, service.BarberID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check blocked clients: %w", err)
	}
	if blocked {
		return nil, ErrClientBlocked
	}

	candidates, err := s.slotsFor(ctx, service, day)
	if err != nil {
		return nil, err
	}
	slot, ok := slots.Find(candidates, req.Time)
	if !ok || !slot.IsAvailable {
		return nil, ErrSlotUnavailable
	}

	now := s.now()
	booking := &common.Booking{
		UUID:       uuid.New(),
		BarberID:   service.BarberID,
		ClientID:   user.ID,
		ServiceID:  service.UUID,
		StartTime:  slot.Start,
		EndTime:    slot.End,
		TotalPrice: service.Price,
		Status:     common.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		if database.IsExclusionViolation(err) {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.UUID.String()),
		zap.String("barber_id", booking.BarberID.String()),
		zap.Time("start", booking.StartTime))

	s.notify(ctx, common.Notification{
		UserID:  booking.BarberID,
		Kind:    "booking_created",
		Title:   "New booking request",
		Message: fmt.Sprintf("%s on %s", service.Name, booking.StartTime.In(s.loc).Format("02.01.2006 15:04")),
		Link:    "/barber/bookings?highlight=" + booking.UUID.String(),
	})

	return booking, nil
}

var transitions = map[common.BookingStatus][]common.BookingStatus{
	common.StatusPending:   {common.StatusConfirmed, common.StatusCancelled},
	common.StatusConfirmed: {common.StatusCompleted, common.StatusCancelled},
}

func CanTransition(from, to common.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateStatus is the barber side of the booking lifecycle.
func (s *Service) UpdateStatus(ctx context.Context, user common.CurrentUser, bookingID uuid.UUID, status common.BookingStatus) (*common.Booking, error) {
	booking, err := s.repo.Get(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	isOwner := user.Is(common.RoleBarber) && booking.BarberID == user.ID
	if !isOwner && !user.Is(common.RoleAdmin) {
		return nil, common.ErrForbidden
	}
	if !CanTransition(booking.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, status)
	}

	now := s.now()
	booking.Status = status
	booking.UpdatedAt = now
	if status == common.StatusCancelled {
		booking.CancelledAt = &now
	}

	if err := s.repo.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	switch status {
	case common.StatusConfirmed:
		s.addToCalendar(ctx, booking)
	case common.StatusCancelled:
		s.removeFromCalendar(ctx, booking)
	case common.StatusCompleted:
		s.award(ctx, booking)
	}

	s.log.Info("Booking status changed",
		zap.String("booking_id", booking.UUID.String()),
		zap.String("status", string(status)))

	s.notify(ctx, common.Notification{
		UserID:  booking.ClientID,
		Kind:    "booking_" + string(status),
		Title:   "Booking " + string(status),
		Message: "Your booking on " + booking.StartTime.In(s.loc).Format("02.01.2006 15:04") + " is " + string(status),
		Link:    "/client/dashboard/bookings?highlight=" + booking.UUID.String(),
	})

	return booking, nil
}

// Cancel lets a client withdraw an upcoming pending or confirmed booking.
func (s *Service) Cancel(ctx context.Context, user common.CurrentUser, bookingID uuid.UUID) (*common.Booking, error) {
	booking, err := s.repo.Get(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if !user.Is(common.RoleClient) || booking.ClientID != user.ID {
		return nil, common.ErrForbidden
	}
	if !CanTransition(booking.Status, common.StatusCancelled) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, common.StatusCancelled)
	}

	now := s.now()
	if booking.StartTime.Before(now) {
		return nil, ErrBookingInPast
	}

	booking.Status = common.StatusCancelled
	booking.CancelledAt = &now
	booking.UpdatedAt = now

	if err := s.repo.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	s.removeFromCalendar(ctx, booking)

	s.notify(ctx, common.Notification{
		UserID:  booking.BarberID,
		Kind:    "booking_cancelled",
		Title:   "Booking cancelled by client",
		Message: "Booking on " + booking.StartTime.In(s.loc).Format("02.01.2006 15:04") + " was cancelled",
		Link:    "/barber/bookings?highlight=" + booking.UUID.String(),
	})

	return booking, nil
}

// ListForUser returns the bookings visible to the caller, newest first.
func (s *Service) ListForUser(ctx context.Context, user common.CurrentUser) ([]common.Booking, error) {
	switch user.Role {
	case common.RoleAdmin:
		return s.repo.ListAll(ctx)
	case common.RoleBarber:
		return s.repo.ListByBarber(ctx, user.ID)
	case common.RoleClient:
		return s.repo.ListByClient(ctx, user.ID)
	}
	return nil, common.ErrForbidden
}

// Upcoming returns the caller's pending and confirmed bookings that have not
// started yet, soonest first.
func (s *Service) Upcoming(ctx context.Context, user common.CurrentUser) ([]common.Booking, error) {
	var (
		all []common.Booking
		err error
	)
	switch user.Role {
	case common.RoleBarber:
		all, err = s.repo.ListByBarber(ctx, user.ID)
	case common.RoleClient:
		all, err = s.repo.ListByClient(ctx, user.ID)
	default:
		return nil, common.ErrForbidden
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	var upcoming []common.Booking
	for _, b := range all {
		if b.StartTime.After(now) && (b.Status == common.StatusPending || b.Status == common.StatusConfirmed) {
			upcoming = append(upcoming, b)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].StartTime.Before(upcoming[j].StartTime) })
	return upcoming, nil
}

// ExpireStalePending cancels pending requests the barber never answered before they started.
func (s *Service) ExpireStalePending(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpirePending(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending bookings: %w", err)
	}
	if n > 0 {
		s.log.Info("Expired stale pending bookings", zap.Int64("count", n))
	}
	return n, nil
}

func (s *Service) notify(ctx context.Context, n common.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Warn("Failed to send notification", zap.String("kind", n.Kind), zap.Error(err))
	}
}

// addToCalendar runs after the status is stored. The event id is saved in a
// second write; if that fails the event is deleted again.
func (s *Service) addToCalendar(ctx context.Context, booking *common.Booking) {
	if s.calendar == nil {
		return
	}
	eventID, err := s.calendar.AddBooking(ctx, booking)
	if err != nil {
		s.log.Warn("Calendar sync failed", zap.String("booking_id", booking.UUID.String()), zap.Error(err))
		return
	}

	booking.CalendarEventID = eventID
	if err := s.repo.Update(ctx, booking); err != nil {
		s.log.Warn("Failed to store calendar event id, removing event",
			zap.String("booking_id", booking.UUID.String()),
			zap.String("event_id", eventID),
			zap.Error(err))
		booking.CalendarEventID = ""
		if err := s.calendar.RemoveBooking(ctx, eventID); err != nil {
			s.log.Error("Orphaned calendar event", zap.String("event_id", eventID), zap.Error(err))
		}
	}
}

// removeFromCalendar runs after the cancellation is stored. A failed removal
// keeps the event id on the booking.
func (s *Service) removeFromCalendar(ctx context.Context, booking *common.Booking) {
	if s.calendar == nil || booking.CalendarEventID == "" {
		return
	}
	if err := s.calendar.RemoveBooking(ctx, booking.CalendarEventID); err != nil {
		s.log.Warn("Calendar removal failed", zap.String("event_id", booking.CalendarEventID), zap.Error(err))
		return
	}

	booking.CalendarEventID = ""
	if err := s.repo.Update(ctx, booking); err != nil {
		s.log.Warn("Failed to clear calendar event id", zap.String("booking_id", booking.UUID.String()), zap.Error(err))
	}
}

func (s *Service) award(ctx context.Context, booking *common.Booking) {
	if s.loyalty == nil {
		return
	}
	if err := s.loyalty.Award(ctx, *booking); err != nil {
		s.log.Warn("Failed to award loyalty points", zap.String("booking_id", booking.UUID.String()), zap.Error(err))
	}
}
