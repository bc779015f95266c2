package slots

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func yesterday() time.Time { return day.AddDate(0, 0, -1) }

func window(startH, startM, endH, endM int) *Window {
	return &Window{Start: NewTimeOfDay(startH, startM), End: NewTimeOfDay(endH, endM), Enabled: true}
}

func labels(list []Slot) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.Label())
	}
	return out
}

func TestCompute_FullDayNoBookings(t *testing.T) {
	calc := NewCalculator(DefaultStepMinutes, yesterday)

	got, err := calc.Compute(day, window(9, 0, 18, 0), nil, 30)
	require.NoError(t, err)
	require.Len(t, got, 18)

	assert.Equal(t, "09:00", got[0].Label())
	assert.Equal(t, "09:30", got[1].Label())
	assert.Equal(t, "17:30", got[17].Label())
	for _, s := range got {
		assert.True(t, s.IsAvailable, s.Label())
		assert.False(t, s.IsTaken, s.Label())
	}
}

func TestCompute_BookingMarksSlotTaken(t *testing.T) {
	calc := NewCalculator(DefaultStepMinutes, yesterday)
	booked := []Interval{{Start: at(9, 0), End: at(9, 30)}}

	got, err := calc.Compute(day, window(9, 0, 10, 0), booked, 30)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "09:00", got[0].Label())
	assert.True(t, got[0].IsTaken)
	assert.False(t, got[0].IsAvailable)

	assert.Equal(t, "09:30", got[1].Label())
	assert.False(t, got[1].IsTaken)
	assert.True(t, got[1].IsAvailable)
}

func TestCompute_NoPartialSlotAtWindowEnd(t *testing.T) {
	calc := NewCalculator(DefaultStepMinutes, yesterday)

	got, err := calc.Compute(day, window(9, 0, 9, 45), nil, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, labels(got))
}

func TestCompute_DisabledOrMissingWindow(t *testing.T) {
	calc := NewCalculator(DefaultStepMinutes, yesterday)

	got, err := calc.Compute(day, nil, nil, 30)
	require.NoError(t, err)
	assert.Empty(t, got)

	disabled := window(9, 0, 18, 0)
	disabled.Enabled = false
	got, err = calc.Compute(day, disabled, nil, 30)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCompute_PastSlotsToday(t *testing.T) {
	now := at(14, 5)
	calc := NewCalculator(DefaultStepMinutes, func() time.Time { return now })

	got, err := calc.Compute(day, window(9, 0, 18, 0), nil, 30)
	require.NoError(t, err)
	require.Len(t, got, 18)

	for _, s := range got {
		assert.False(t, s.IsTaken, s.Label())
		if s.Start.Before(now) {
			assert.False(t, s.IsAvailable, "%s should be past", s.Label())
		} else {
			assert.True(t, s.IsAvailable, "%s should be open", s.Label())
		}
	}
	assert.False(t, got[10].IsAvailable) // 14:00
	assert.True(t, got[11].IsAvailable)  // 14:30
}

func TestCompute_EmptyWindow(t *testing.T) {
	calc := NewCalculator(DefaultStepMinutes, yesterday)

	got, err := calc.Compute(day, window(12, 0, 12, 0), nil, 30)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCompute_TouchingBookingsDoNotConflict(t *testing.T) {
	calc := NewCalculator(DefaultStepMinutes, yesterday)
	booked := []Interval{
		{Start: at(8, 0), End: at(9, 0)},
		{Start: at(10, 0), End: at(11, 0)},
	}

	got, err := calc.Compute(day, window(9, 0, 10, 0), booked, 60)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsAvailable)
	assert.False(t, got[0].IsTaken)
}

func TestCompute_DurationLongerThanStep(t *testing.T) {
	calc := NewCalculator(DefaultStepMinutes, yesterday)
	booked := []Interval{{Start: at(10, 0), End: at(10, 45)}}

	got, err := calc.Compute(day, window(9, 0, 11, 0), booked, 45)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00"}, labels(got))

	assert.False(t, got[0].IsTaken) // 09:00-09:45
	assert.True(t, got[1].IsTaken)  // 09:30-10:15
	assert.True(t, got[2].IsTaken)  // 10:00-10:45
}

func TestCompute_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		calc     *Calculator
		window   *Window
		duration int
		want     error
	}{
		{"zero duration", NewCalculator(30, yesterday), window(9, 0, 18, 0), 0, ErrInvalidServiceDuration},
		{"negative duration", NewCalculator(30, yesterday), window(9, 0, 18, 0), -15, ErrInvalidServiceDuration},
		{"inverted window", NewCalculator(30, yesterday), window(18, 0, 9, 0), 30, ErrInvalidAvailabilityWindow},
		{"out of range", NewCalculator(30, yesterday), &Window{Start: 0, End: TimeOfDay(25 * time.Hour), Enabled: true}, 30, ErrInvalidAvailabilityWindow},
		{"zero step", NewCalculator(0, yesterday), window(9, 0, 18, 0), 30, ErrInvalidStep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.calc.Compute(day, tt.window, nil, tt.duration)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestCompute_Properties(t *testing.T) {
	booked := []Interval{
		{Start: at(10, 15), End: at(11, 0)},
		{Start: at(13, 0), End: at(14, 30)},
		{Start: at(16, 50), End: at(17, 10)},
	}
	windows := []*Window{window(9, 0, 18, 0), window(8, 15, 12, 40), window(7, 0, 21, 30)}
	durations := []int{15, 30, 45, 60, 90}
	steps := []int{15, 30, 60}

	for _, w := range windows {
		for _, d := range durations {
			for _, step := range steps {
				calc := NewCalculator(step, yesterday)
				got, err := calc.Compute(day, w, booked, d)
				require.NoError(t, err)

				again, err := calc.Compute(day, w, booked, d)
				require.NoError(t, err)
				assert.Equal(t, got, again)

				for i, s := range got {
					assert.Equal(t, time.Duration(d)*time.Minute, s.End.Sub(s.Start))
					assert.False(t, s.Start.Before(w.Start.On(day)))
					assert.False(t, s.End.After(w.End.On(day)))
					if i > 0 {
						assert.Equal(t, time.Duration(step)*time.Minute, s.Start.Sub(got[i-1].Start))
					}
					if s.IsAvailable {
						for _, b := range booked {
							assert.False(t, b.Overlaps(s.Start, s.End), "%s overlaps booking", s.Label())
						}
					}
				}
			}
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: NewTimeOfDay(9, 0)},
		{in: "18:30:00", want: NewTimeOfDay(18, 30)},
		{in: "00:00:15", want: TimeOfDay(15 * time.Second)},
		{in: "24:00", wantErr: true},
		{in: "9", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "10:60", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDay_OnKeepsLocation(t *testing.T) {
	loc := time.FixedZone("YEKT", 5*60*60)
	d := time.Date(2026, 3, 10, 23, 0, 0, 0, loc)

	got := NewTimeOfDay(9, 30).On(d)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 30, 0, 0, loc), got)
	assert.Equal(t, "09:30:00", NewTimeOfDay(9, 30).String())
}

func TestFindAndDayBounds(t *testing.T) {
	calc := NewCalculator(DefaultStepMinutes, yesterday)
	got, err := calc.Compute(day, window(9, 0, 11, 0), nil, 30)
	require.NoError(t, err)

	s, ok := Find(got, "10:30")
	require.True(t, ok)
	assert.Equal(t, at(10, 30), s.Start)

	_, ok = Find(got, "10:45")
	assert.False(t, ok)

	from, to := DayBounds(at(15, 20))
	assert.Equal(t, day, from)
	assert.Equal(t, day.AddDate(0, 0, 1).Add(-time.Nanosecond), to)
}
