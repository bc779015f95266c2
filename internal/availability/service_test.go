package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/RudinMaxim/BarberMarket/database"
	"github.com/RudinMaxim/BarberMarket/internal/slots"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	rows        map[uuid.UUID]map[int]common.Availability
	findCalls   int
	insertCalls int
	failFind    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[uuid.UUID]map[int]common.Availability)}
}

func (f *fakeStore) put(r common.Availability) {
	if f.rows[r.BarberID] == nil {
		f.rows[r.BarberID] = make(map[int]common.Availability)
	}
	f.rows[r.BarberID][r.DayOfWeek] = r
}

func (f *fakeStore) FindDay(_ context.Context, barberID uuid.UUID, day int) (*common.Availability, error) {
	f.findCalls++
	if f.failFind != nil {
		return nil, f.failFind
	}
	r, ok := f.rows[barberID][day]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (f *fakeStore) ListByBarber(_ context.Context, barberID uuid.UUID) ([]common.Availability, error) {
	var out []common.Availability
	for d := 0; d < 7; d++ {
		if r, ok := f.rows[barberID][d]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertMissing(_ context.Context, rows []common.Availability) error {
	f.insertCalls++
	for _, r := range rows {
		if _, ok := f.rows[r.BarberID][r.DayOfWeek]; !ok {
			f.put(r)
		}
	}
	return nil
}

func (f *fakeStore) Upsert(_ context.Context, rows []common.Availability) error {
	for _, r := range rows {
		f.put(r)
	}
	return nil
}

func newTestService(store Store) *Service {
	return NewService(store, database.NewMemoryCache(time.Minute), time.Minute, zap.NewNop())
}

func TestWindow_CreatesDefaultWhenMissing(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	barber := uuid.New()

	w, err := svc.Window(context.Background(), barber, time.Tuesday)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, slots.NewTimeOfDay(9, 0), w.Start)
	assert.Equal(t, slots.NewTimeOfDay(18, 0), w.End)
	assert.True(t, w.Enabled)
	assert.Equal(t, 1, store.insertCalls)
	assert.Len(t, store.rows[barber], 7)
}

func TestWindow_DisabledDayIsNotReplaced(t *testing.T) {
	store := newFakeStore()
	barber := uuid.New()
	store.put(common.Availability{BarberID: barber, DayOfWeek: 0, StartTime: "10:00:00", EndTime: "14:00:00", IsEnabled: false})
	svc := newTestService(store)

	w, err := svc.Window(context.Background(), barber, time.Sunday)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.False(t, w.Enabled)
	assert.Equal(t, 0, store.insertCalls)
}

func TestWindow_UsesCache(t *testing.T) {
	store := newFakeStore()
	barber := uuid.New()
	store.put(common.Availability{BarberID: barber, DayOfWeek: 1, StartTime: "08:30:00", EndTime: "12:00:00", IsEnabled: true})
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Window(ctx, barber, time.Monday)
	require.NoError(t, err)
	w, err := svc.Window(ctx, barber, time.Monday)
	require.NoError(t, err)

	assert.Equal(t, 1, store.findCalls)
	assert.Equal(t, slots.NewTimeOfDay(8, 30), w.Start)
}

func TestWindow_StoreError(t *testing.T) {
	store := newFakeStore()
	store.failFind = errors.New("connection refused")
	svc := newTestService(store)

	_, err := svc.Window(context.Background(), uuid.New(), time.Monday)
	assert.ErrorIs(t, err, store.failFind)
}

func TestEnsureDefault_Idempotent(t *testing.T) {
	store := newFakeStore()
	barber := uuid.New()
	store.put(common.Availability{BarberID: barber, DayOfWeek: 3, StartTime: "11:00", EndTime: "15:00", IsEnabled: true})
	svc := newTestService(store)
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefault(ctx, barber))
	require.NoError(t, svc.EnsureDefault(ctx, barber))

	assert.Len(t, store.rows[barber], 7)
	assert.Equal(t, "11:00", store.rows[barber][3].StartTime)
}

func TestWeeklySchedule_FillsMissingDays(t *testing.T) {
	store := newFakeStore()
	barber := uuid.New()
	store.put(common.Availability{BarberID: barber, DayOfWeek: 2, StartTime: "10:00:00", EndTime: "19:30:00", IsEnabled: true})
	svc := newTestService(store)

	days, err := svc.WeeklySchedule(context.Background(), barber)
	require.NoError(t, err)
	require.Len(t, days, 7)

	assert.Equal(t, Day{DayOfWeek: 2, StartTime: "10:00", EndTime: "19:30", IsEnabled: true}, days[2])
	assert.Equal(t, Day{DayOfWeek: 0, StartTime: DefaultStart, EndTime: DefaultEnd, IsEnabled: false}, days[0])
}

func TestSaveWeeklySchedule(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	barber := common.CurrentUser{ID: uuid.New(), Role: common.RoleBarber}
	ctx := context.Background()

	// warm the cache, then make sure the save is visible
	_, err := svc.Window(ctx, barber.ID, time.Monday)
	require.NoError(t, err)

	err = svc.SaveWeeklySchedule(ctx, barber, []Day{{DayOfWeek: 1, StartTime: "12:00", EndTime: "20:00", IsEnabled: true}})
	require.NoError(t, err)

	w, err := svc.Window(ctx, barber.ID, time.Monday)
	require.NoError(t, err)
	assert.Equal(t, slots.NewTimeOfDay(12, 0), w.Start)
	assert.Equal(t, slots.NewTimeOfDay(20, 0), w.End)
}

func TestSaveWeeklySchedule_Rejects(t *testing.T) {
	svc := newTestService(newFakeStore())
	barber := common.CurrentUser{ID: uuid.New(), Role: common.RoleBarber}
	ctx := context.Background()

	err := svc.SaveWeeklySchedule(ctx, common.CurrentUser{ID: uuid.New(), Role: common.RoleClient}, []Day{{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}})
	assert.ErrorIs(t, err, common.ErrForbidden)

	tests := []struct {
		name  string
		days  []Day
		field string
	}{
		{"empty", nil, "days"},
		{"bad weekday", []Day{{DayOfWeek: 7, StartTime: "09:00", EndTime: "10:00"}}, "days[0].day_of_week"},
		{"inverted", []Day{{DayOfWeek: 1, StartTime: "18:00", EndTime: "09:00", IsEnabled: true}}, "days[0].end_time"},
		{"bad time", []Day{{DayOfWeek: 1, StartTime: "9am", EndTime: "18:00", IsEnabled: true}}, "days[0].start_time"},
		{"duplicate", []Day{
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"},
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"},
		}, "days[1].day_of_week"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.SaveWeeklySchedule(ctx, barber, tt.days)
			var verr *common.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.FieldErrors, tt.field)
		})
	}
}

func TestSaveWeeklySchedule_DisabledDayMayBeInverted(t *testing.T) {
	svc := newTestService(newFakeStore())
	barber := common.CurrentUser{ID: uuid.New(), Role: common.RoleBarber}

	err := svc.SaveWeeklySchedule(context.Background(), barber, []Day{{DayOfWeek: 0, StartTime: "18:00", EndTime: "09:00", IsEnabled: false}})
	assert.NoError(t, err)
}
