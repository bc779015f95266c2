package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/RudinMaxim/BarberMarket/database"
	"github.com/RudinMaxim/BarberMarket/internal/slots"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultStart = "09:00"
	DefaultEnd   = "18:00"
)

type Store interface {
	FindDay(ctx context.Context, barberID uuid.UUID, dayOfWeek int) (*common.Availability, error)
	ListByBarber(ctx context.Context, barberID uuid.UUID) ([]common.Availability, error)
	InsertMissing(ctx context.Context, rows []common.Availability) error
	Upsert(ctx context.Context, rows []common.Availability) error
}

// Day is one row of the weekly schedule editor.
type Day struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsEnabled bool   `json:"is_enabled"`
}

type Service struct {
	repo  Store
	cache database.Cache
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time
}

func NewService(repo Store, cache database.Cache, ttl time.Duration, log *zap.Logger) *Service {
	return &Service{repo: repo, cache: cache, ttl: ttl, log: log, now: time.Now}
}

func cacheKey(barberID uuid.UUID, dayOfWeek int) string {
	return fmt.Sprintf("availability:%s:%d", barberID, dayOfWeek)
}

func (s *Service) findDay(ctx context.Context, barberID uuid.UUID, dayOfWeek int) (*common.Availability, error) {
	key := cacheKey(barberID, dayOfWeek)

	var cached common.Availability
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, database.ErrCacheMiss) {
		s.log.Warn("Availability cache read failed", zap.String("key", key), zap.Error(err))
	}

	row, err := s.repo.FindDay(ctx, barberID, dayOfWeek)
	if err != nil || row == nil {
		return row, err
	}

	if err := s.cache.Set(ctx, key, row, s.ttl); err != nil {
		s.log.Warn("Availability cache write failed", zap.String("key", key), zap.Error(err))
	}
	return row, nil
}

// Window returns the barber's window for weekday. A barber without any row
// for that day gets the default schedule created first. Disabled days yield a
// disabled window.
func (s *Service) Window(ctx context.Context, barberID uuid.UUID, weekday time.Weekday) (*slots.Window, error) {
	row, err := s.findDay(ctx, barberID, int(weekday))
	if err != nil {
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}

	if row == nil {
		s.log.Info("No availability found, creating default schedule", zap.String("barber_id", barberID.String()))
		if err := s.EnsureDefault(ctx, barberID); err != nil {
			return nil, err
		}
		row, err = s.findDay(ctx, barberID, int(weekday))
		if err != nil {
			return nil, fmt.Errorf("failed to get availability: %w", err)
		}
		if row == nil {
			return nil, nil
		}
	}

	return toWindow(*row)
}

func toWindow(row common.Availability) (*slots.Window, error) {
	start, err := slots.ParseTimeOfDay(row.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", slots.ErrInvalidAvailabilityWindow, err)
	}
	end, err := slots.ParseTimeOfDay(row.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", slots.ErrInvalidAvailabilityWindow, err)
	}
	return &slots.Window{Start: start, End: end, Enabled: row.IsEnabled}, nil
}

// EnsureDefault creates enabled 09:00-18:00 rows for weekdays the barber has
// not configured. Calling it again is a no-op.
func (s *Service) EnsureDefault(ctx context.Context, barberID uuid.UUID) error {
	now := s.now()
	rows := make([]common.Availability, 0, 7)
	for d := 0; d < 7; d++ {
		rows = append(rows, common.Availability{
			UUID:      uuid.New(),
			BarberID:  barberID,
			DayOfWeek: d,
			StartTime: DefaultStart,
			EndTime:   DefaultEnd,
			IsEnabled: true,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if err := s.repo.InsertMissing(ctx, rows); err != nil {
		return fmt.Errorf("failed to create default availability: %w", err)
	}
	s.invalidate(ctx, barberID)
	return nil
}

// WeeklySchedule lists all seven days; unconfigured days come back disabled.
func (s *Service) WeeklySchedule(ctx context.Context, barberID uuid.UUID) ([]Day, error) {
	rows, err := s.repo.ListByBarber(ctx, barberID)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}

	days := make([]Day, 7)
	for d := range days {
		days[d] = Day{DayOfWeek: d, StartTime: DefaultStart, EndTime: DefaultEnd}
	}
	for _, r := range rows {
		if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
			continue
		}
		days[r.DayOfWeek] = Day{
			DayOfWeek: r.DayOfWeek,
			StartTime: shortTime(r.StartTime),
			EndTime:   shortTime(r.EndTime),
			IsEnabled: r.IsEnabled,
		}
	}
	return days, nil
}

func shortTime(s string) string {
	t, err := slots.ParseTimeOfDay(s)
	if err != nil {
		return s
	}
	return t.String()[:5]
}

func (s *Service) SaveWeeklySchedule(ctx context.Context, user common.CurrentUser, days []Day) error {
	if !user.Is(common.RoleBarber) {
		return common.ErrForbidden
	}
	if err := validateDays(days); err != nil {
		return err
	}

	now := s.now()
	rows := make([]common.Availability, 0, len(days))
	for _, d := range days {
		rows = append(rows, common.Availability{
			UUID:      uuid.New(),
			BarberID:  user.ID,
			DayOfWeek: d.DayOfWeek,
			StartTime: d.StartTime,
			EndTime:   d.EndTime,
			IsEnabled: d.IsEnabled,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if err := s.repo.Upsert(ctx, rows); err != nil {
		return fmt.Errorf("failed to save availability: %w", err)
	}
	s.invalidate(ctx, user.ID)

	s.log.Info("Weekly schedule saved", zap.String("barber_id", user.ID.String()), zap.Int("days", len(rows)))
	return nil
}

func validateDays(days []Day) error {
	verr := &common.ValidationError{}
	if len(days) == 0 {
		verr.Add("days", "at least one day is required")
	}

	seen := make(map[int]bool)
	for i, d := range days {
		field := fmt.Sprintf("days[%d]", i)
		if d.DayOfWeek < 0 || d.DayOfWeek > 6 {
			verr.Add(field+".day_of_week", "must be between 0 and 6")
			continue
		}
		if seen[d.DayOfWeek] {
			verr.Add(field+".day_of_week", "duplicate day")
		}
		seen[d.DayOfWeek] = true

		start, err := slots.ParseTimeOfDay(d.StartTime)
		if err != nil {
			verr.Add(field+".start_time", "must be HH:MM")
			continue
		}
		end, err := slots.ParseTimeOfDay(d.EndTime)
		if err != nil {
			verr.Add(field+".end_time", "must be HH:MM")
			continue
		}
		if d.IsEnabled && start >= end {
			verr.Add(field+".end_time", "must be after start_time")
		}
	}
	return verr.OrNil()
}

func (s *Service) invalidate(ctx context.Context, barberID uuid.UUID) {
	keys := make([]string, 0, 7)
	for d := 0; d < 7; d++ {
		keys = append(keys, cacheKey(barberID, d))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn("Availability cache invalidation failed", zap.String("barber_id", barberID.String()), zap.Error(err))
	}
}
