package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/RudinMaxim/BarberMarket/internal/barbers"
	"github.com/RudinMaxim/BarberMarket/internal/blocking"
	"github.com/RudinMaxim/BarberMarket/internal/bookings"
	"github.com/RudinMaxim/BarberMarket/internal/categories"
	"github.com/RudinMaxim/BarberMarket/internal/loyalty"
	"github.com/RudinMaxim/BarberMarket/internal/notifications"
	"github.com/RudinMaxim/BarberMarket/internal/reviews"
	"github.com/RudinMaxim/BarberMarket/internal/slots"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type bookingStore struct {
	service  common.Service
	bookings []common.Booking
}

func (b *bookingStore) GetService(_ context.Context, id uuid.UUID) (*common.Service, error) {
	if id != b.service.UUID {
		return nil, common.ErrNotFound
	}
	s := b.service
	return &s, nil
}

func (b *bookingStore) ListForDay(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]common.Booking, error) {
	return b.bookings, nil
}

func (b *bookingStore) Create(_ context.Context, booking *common.Booking) error {
	b.bookings = append(b.bookings, *booking)
	return nil
}

func (b *bookingStore) Get(context.Context, uuid.UUID) (*common.Booking, error) {
	return nil, common.ErrNotFound
}

func (b *bookingStore) Update(context.Context, *common.Booking) error { return nil }

func (b *bookingStore) ListByBarber(context.Context, uuid.UUID) ([]common.Booking, error) {
	return nil, nil
}

func (b *bookingStore) ListByClient(context.Context, uuid.UUID) ([]common.Booking, error) {
	return b.bookings, nil
}

func (b *bookingStore) ListAll(context.Context) ([]common.Booking, error) { return b.bookings, nil }

func (b *bookingStore) ExpirePending(context.Context, time.Time) (int64, error) { return 0, nil }

type openWindows struct{}

func (openWindows) Window(context.Context, uuid.UUID, time.Weekday) (*slots.Window, error) {
	return &slots.Window{Start: slots.NewTimeOfDay(9, 0), End: slots.NewTimeOfDay(11, 0), Enabled: true}, nil
}

type noBlocks struct{}

func (noBlocks) IsBlocked(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return false, nil }

type testEnv struct {
	server  *Server
	handler http.Handler
	store   *bookingStore
	barber  uuid.UUID
}

func newTestEnv(t *testing.T, ratePerMinute int) *testEnv {
	t.Helper()
	return newTestEnvWith(t, func(d *Deps) { d.RatePerMinute = ratePerMinute })
}

func newTestEnvWith(t *testing.T, configure func(*Deps)) *testEnv {
	t.Helper()

	barber := uuid.New()
	store := &bookingStore{service: common.Service{UUID: uuid.New(), BarberID: barber, Name: "Cut", Duration: 60, Price: 30, IsActive: true}}
	now := func() time.Time { return time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC) }

	svc := bookings.NewService(bookings.Deps{
		Repo:     store,
		Windows:  openWindows{},
		Blocks:   noBlocks{},
		Location: time.UTC,
		Now:      now,
	})
	deps := Deps{
		Bookings:      svc,
		JWTSecret:     testSecret,
		RatePerMinute: 100,
		Health:        func(context.Context) error { return nil },
	}
	configure(&deps)
	server := NewServer(deps)
	return &testEnv{server: server, handler: server.Handler(), store: store, barber: barber}
}

func token(t *testing.T, secret string, sub string, role common.Role, ttl time.Duration) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, method, path, body string, role common.Role) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, testSecret, uuid.NewString(), role, time.Hour))
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, 100)
	rec := env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t, 100)
	path := fmt.Sprintf("/api/services/%s/slots?date=2026-03-02", env.store.service.UUID)

	rec := env.do(t, http.MethodGet, path, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"missing bearer token"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "other-secret", uuid.NewString(), common.RoleClient, time.Hour))
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListSlots(t *testing.T) {
	env := newTestEnv(t, 100)
	env.store.bookings = []common.Booking{{
		StartTime: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Status:    common.StatusConfirmed,
	}}

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/services/%s/slots?date=2026-03-02", env.store.service.UUID), "", common.RoleClient)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"startTime":"09:00","isAvailable":false,"isTaken":true},
		{"startTime":"09:30","isAvailable":false,"isTaken":true},
		{"startTime":"10:00","isAvailable":true,"isTaken":false}
	]`, rec.Body.String())
}

func TestListSlots_BadInput(t *testing.T) {
	env := newTestEnv(t, 100)
	id := env.store.service.UUID

	tests := []struct {
		name string
		path string
		code int
	}{
		{"missing date", fmt.Sprintf("/api/services/%s/slots", id), http.StatusBadRequest},
		{"bad date", fmt.Sprintf("/api/services/%s/slots?date=03/02/2026", id), http.StatusBadRequest},
		{"bad id", "/api/services/nope/slots?date=2026-03-02", http.StatusBadRequest},
		{"unknown service", fmt.Sprintf("/api/services/%s/slots?date=2026-03-02", uuid.New()), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path, "", common.RoleClient)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestCreateBooking(t *testing.T) {
	env := newTestEnv(t, 100)
	body := fmt.Sprintf(`{"service_id":%q,"date":"2026-03-02","time":"09:00"}`, env.store.service.UUID)

	rec := env.do(t, http.MethodPost, "/api/bookings", body, common.RoleBarber)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/bookings", body, common.RoleClient)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created common.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, common.StatusPending, created.Status)
	assert.Equal(t, env.barber, created.BarberID)

	rec = env.do(t, http.MethodPost, "/api/bookings", body, common.RoleClient)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"selected time slot is not available"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/bookings", `{"bogus":1}`, common.RoleClient)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := newTestEnv(t, 100)

	rec := env.do(t, http.MethodGet, "/api/admin/bookings", "", common.RoleClient)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/bookings", "", common.RoleAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, 1)
	path := "/api/bookings"

	first := env.do(t, http.MethodGet, path, "", common.RoleClient)
	assert.Equal(t, http.StatusOK, first.Code)

	second := env.do(t, http.MethodGet, path, "", common.RoleClient)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestParseToken(t *testing.T) {
	id := uuid.New()
	secret := []byte(testSecret)

	user, err := ParseToken(token(t, testSecret, id.String(), common.RoleBarber, time.Hour), secret)
	require.NoError(t, err)
	assert.Equal(t, common.CurrentUser{ID: id, Role: common.RoleBarber}, user)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", token(t, testSecret, id.String(), common.RoleBarber, -time.Hour)},
		{"bad subject", token(t, testSecret, "barber-1", common.RoleBarber, time.Hour)},
		{"unknown role", token(t, testSecret, id.String(), "owner", time.Hour)},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, secret)
			var httpErr *HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
		})
	}
}

func TestStatusFor(t *testing.T) {
	verr := &common.ValidationError{}
	verr.Add("date", "bad")

	tests := []struct {
		err  error
		code int
	}{
		{verr, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", common.ErrNotFound), http.StatusNotFound},
		{common.ErrForbidden, http.StatusForbidden},
		{bookings.ErrClientBlocked, http.StatusForbidden},
		{reviews.ErrNoVisit, http.StatusForbidden},
		{bookings.ErrSlotUnavailable, http.StatusConflict},
		{bookings.ErrInvalidTransition, http.StatusConflict},
		{bookings.ErrBookingInPast, http.StatusConflict},
		{blocking.ErrAlreadyBlocked, http.StatusConflict},
		{reviews.ErrAlreadyReviewed, http.StatusConflict},
		{categories.ErrCategoryInUse, http.StatusConflict},
		{categories.ErrCategoryExists, http.StatusConflict},
		{barbers.ErrLocationExists, http.StatusConflict},
		{loyalty.ErrNotEnoughPoints, http.StatusConflict},
		{notifications.ErrHubClosed, http.StatusServiceUnavailable},
		{slots.ErrInvalidServiceDuration, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: %w", bookings.ErrSlotsUnavailable, errors.New("db")), http.StatusInternalServerError},
		{NewHTTPError(http.StatusTeapot, "tea"), http.StatusTeapot},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, statusFor(tt.err), tt.err.Error())
	}
}

func TestWriteError_HidesInternalCause(t *testing.T) {
	s := NewServer(Deps{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	s.writeError(rec, req, fmt.Errorf("%w: %w", bookings.ErrSlotsUnavailable, errors.New("dial tcp 10.0.0.1:5432")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"failed to load available time slots"}`, rec.Body.String())
}
