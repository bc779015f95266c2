// Package slots computes bookable start times for a barber's working day.
package slots

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultStepMinutes is the spacing between candidate start times.
	DefaultStepMinutes = 30

	labelLayout = "15:04"
)

var (
	ErrInvalidAvailabilityWindow = errors.New("slots: invalid availability window")
	ErrInvalidServiceDuration    = errors.New("slots: invalid service duration")
	ErrInvalidStep               = errors.New("slots: invalid step")
	ErrInvalidTimeOfDay          = errors.New("slots: invalid time of day")
)

// TimeOfDay is a wall clock offset from midnight, e.g. 09:30.
type TimeOfDay time.Duration

// NewTimeOfDay builds a TimeOfDay from hours and minutes.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// ParseTimeOfDay accepts "HH:MM" and "HH:MM:SS", the forms Postgres returns for time columns.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	limits := []int{23, 59, 59}
	values := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > limits[i] {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
		}
		values[i] = v
	}

	return TimeOfDay(time.Duration(values[0])*time.Hour +
		time.Duration(values[1])*time.Minute +
		time.Duration(values[2])*time.Second), nil
}

func (t TimeOfDay) valid() bool {
	return t >= 0 && time.Duration(t) < 24*time.Hour
}

func (t TimeOfDay) clock() (hour, minute, second int) {
	d := time.Duration(t)
	hour = int(d / time.Hour)
	minute = int(d % time.Hour / time.Minute)
	second = int(d % time.Minute / time.Second)
	return
}

// String formats as HH:MM:SS, the layout stored in the database.
func (t TimeOfDay) String() string {
	h, m, s := t.clock()
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// On anchors the time of day to the civil date of day in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	h, m, s := t.clock()
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, s, 0, day.Location())
}

// Window is a barber's working hours for one weekday.
type Window struct {
	Start   TimeOfDay
	End     TimeOfDay
	Enabled bool
}

// Validate reports ErrInvalidAvailabilityWindow for out of range or inverted windows.
func (w Window) Validate() error {
	if !w.Start.valid() || !w.End.valid() {
		return fmt.Errorf("%w: time of day out of range", ErrInvalidAvailabilityWindow)
	}
	if w.Start > w.End {
		return fmt.Errorf("%w: start %s after end %s", ErrInvalidAvailabilityWindow, w.Start, w.End)
	}
	return nil
}

// Interval is an occupied span, typically a non-cancelled booking.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps uses open intervals: touching endpoints do not overlap.
func (i Interval) Overlaps(start, end time.Time) bool {
	return start.Before(i.End) && end.After(i.Start)
}

// Slot is a candidate appointment start.
type Slot struct {
	Start       time.Time
	End         time.Time
	IsAvailable bool
	IsTaken     bool
}

// Label is the HH:mm form shown on the booking screen.
func (s Slot) Label() string {
	return s.Start.Format(labelLayout)
}

// Calculator holds the step and clock; it has no mutable state.
type Calculator struct {
	stepMinutes int
	now         func() time.Time
}

// NewCalculator returns a calculator stepping by stepMinutes. A nil clock uses time.Now.
func NewCalculator(stepMinutes int, now func() time.Time) *Calculator {
	if now == nil {
		now = time.Now
	}
	return &Calculator{stepMinutes: stepMinutes, now: now}
}

// Compute lists candidate slots of durationMinutes for the civil date of day.
// A nil or disabled window yields no slots.
func (c *Calculator) Compute(day time.Time, window *Window, booked []Interval, durationMinutes int) ([]Slot, error) {
	if c.stepMinutes <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStep, c.stepMinutes)
	}
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: %d minutes", ErrInvalidServiceDuration, durationMinutes)
	}
	if window == nil || !window.Enabled {
		return []Slot{}, nil
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	now := c.now()
	duration := time.Duration(durationMinutes) * time.Minute
	step := time.Duration(c.stepMinutes) * time.Minute

	cursor := window.Start.On(day)
	end := window.End.On(day)

	result := make([]Slot, 0, int(end.Sub(cursor)/step)+1)
	for cursor.Before(end) {
		slotEnd := cursor.Add(duration)
		if slotEnd.After(end) {
			break
		}

		taken := false
		for _, b := range booked {
			if b.Overlaps(cursor, slotEnd) {
				taken = true
				break
			}
		}
		past := cursor.Before(now)

		result = append(result, Slot{
			Start:       cursor,
			End:         slotEnd,
			IsAvailable: !taken && !past,
			IsTaken:     taken,
		})

		cursor = cursor.Add(step)
	}

	return result, nil
}

// Find returns the slot starting at label (HH:mm), if any.
func Find(list []Slot, label string) (Slot, bool) {
	for _, s := range list {
		if s.Label() == label {
			return s, true
		}
	}
	return Slot{}, false
}

// DayBounds returns [00:00, 23:59:59.999999999] of day's civil date.
func DayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}
