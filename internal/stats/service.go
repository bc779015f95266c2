// Package stats aggregates booking revenue for the admin and barber dashboards.
package stats

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/google/uuid"
)

// CommissionRate is the platform share of completed booking revenue.
const CommissionRate = 0.10

const trendDays = 30

type Row struct {
	BookingID   uuid.UUID            `json:"booking_id"`
	BarberID    uuid.UUID            `json:"barber_id"`
	StartTime   time.Time            `json:"start_time"`
	Status      common.BookingStatus `json:"status"`
	TotalPrice  float64              `json:"total_price"`
	BarberName  string               `json:"barber_name"`
	ClientName  string               `json:"client_name"`
	ServiceName string               `json:"service_name"`
}

type Store interface {
	Rows(ctx context.Context, barberID *uuid.UUID, status common.BookingStatus) ([]Row, error)
}

type BarberPerformance struct {
	BarberID uuid.UUID `json:"barber_id"`
	Name     string    `json:"name"`
	Revenue  float64   `json:"revenue"`
	Count    int       `json:"count"`
}

type PlatformStats struct {
	TotalGMV            float64             `json:"total_gmv"`
	TotalNetRevenue     float64             `json:"total_net_revenue"`
	AverageBookingValue float64             `json:"average_booking_value"`
	CompletedBookings   int                 `json:"completed_bookings"`
	Barbers             []BarberPerformance `json:"barbers"`
}

type DayAmount struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type BarberStats struct {
	ByStatus          map[common.BookingStatus]int `json:"by_status"`
	TotalRevenue      float64                      `json:"total_revenue"`
	TodayBookings     int                          `json:"today_bookings"`
	UpcomingConfirmed int                          `json:"upcoming_confirmed"`
	RevenueTrend      []DayAmount                  `json:"revenue_trend"`
	TopServices       []NamedCount                 `json:"top_services"`
	BusyHours         []NamedCount                 `json:"busy_hours"`
}

type Service struct {
	repo Store
	loc  *time.Location
	now  func() time.Time
}

func NewService(repo Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, now: time.Now}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *Service) Platform(ctx context.Context, user common.CurrentUser) (*PlatformStats, error) {
	if !user.Is(common.RoleAdmin) {
		return nil, common.ErrForbidden
	}
	rows, err := s.repo.Rows(ctx, nil, common.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}
	return Platform(rows), nil
}

// Platform computes marketplace totals over completed bookings.
func Platform(completed []Row) *PlatformStats {
	out := &PlatformStats{Barbers: []BarberPerformance{}}
	perBarber := make(map[uuid.UUID]*BarberPerformance)

	for _, r := range completed {
		out.TotalGMV += r.TotalPrice
		p, ok := perBarber[r.BarberID]
		if !ok {
			name := r.BarberName
			if name == "" {
				name = "Unknown"
			}
			p = &BarberPerformance{BarberID: r.BarberID, Name: name}
			perBarber[r.BarberID] = p
		}
		p.Revenue += r.TotalPrice
		p.Count++
	}

	out.CompletedBookings = len(completed)
	out.TotalNetRevenue = round2(out.TotalGMV * CommissionRate)
	if len(completed) > 0 {
		out.AverageBookingValue = round2(out.TotalGMV / float64(len(completed)))
	}
	out.TotalGMV = round2(out.TotalGMV)

	for _, p := range perBarber {
		p.Revenue = round2(p.Revenue)
		out.Barbers = append(out.Barbers, *p)
	}
	sort.Slice(out.Barbers, func(i, j int) bool {
		if out.Barbers[i].Revenue != out.Barbers[j].Revenue {
			return out.Barbers[i].Revenue > out.Barbers[j].Revenue
		}
		return out.Barbers[i].Name < out.Barbers[j].Name
	})
	return out
}

func (s *Service) Barber(ctx context.Context, user common.CurrentUser) (*BarberStats, error) {
	if !user.Is(common.RoleBarber) {
		return nil, common.ErrForbidden
	}
	rows, err := s.repo.Rows(ctx, &user.ID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}
	return Barber(rows, s.now().In(s.loc)), nil
}

// Barber builds the dashboard figures for one barber's bookings as seen at now.
func Barber(rows []Row, now time.Time) *BarberStats {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	out := &BarberStats{ByStatus: make(map[common.BookingStatus]int)}
	revenueByDay := make(map[string]float64)
	services := make(map[string]int)
	hours := make(map[string]int)

	for _, r := range rows {
		start := r.StartTime.In(loc)
		out.ByStatus[r.Status]++

		if !start.Before(today) && r.Status != common.StatusCancelled {
			out.TodayBookings++
		}
		if r.Status == common.StatusConfirmed && start.After(now) {
			out.UpcomingConfirmed++
		}
		if r.Status == common.StatusCompleted {
			out.TotalRevenue += r.TotalPrice
			revenueByDay[start.Format("2006-01-02")] += r.TotalPrice
		}

		name := r.ServiceName
		if name == "" {
			name = "Unknown"
		}
		services[name]++
		hours[start.Format("15:00")]++
	}
	out.TotalRevenue = round2(out.TotalRevenue)

	for i := trendDays - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format("2006-01-02")
		out.RevenueTrend = append(out.RevenueTrend, DayAmount{Date: date, Amount: round2(revenueByDay[date])})
	}

	out.TopServices = counts(services)
	sort.SliceStable(out.TopServices, func(i, j int) bool {
		return out.TopServices[i].Count > out.TopServices[j].Count
	})
	out.BusyHours = counts(hours)
	return out
}

// counts flattens m ordered by name.
func counts(m map[string]int) []NamedCount {
	out := make([]NamedCount, 0, len(m))
	for name, c := range m {
		out = append(out, NamedCount{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ExportCSV writes bookings visible to the caller: admins get every booking,
// barbers their completed ones.
func (s *Service) ExportCSV(ctx context.Context, user common.CurrentUser, w io.Writer) error {
	var (
		rows []Row
		err  error
	)
	switch user.Role {
	case common.RoleAdmin:
		rows, err = s.repo.Rows(ctx, nil, "")
	case common.RoleBarber:
		rows, err = s.repo.Rows(ctx, &user.ID, common.StatusCompleted)
	default:
		return common.ErrForbidden
	}
	if err != nil {
		return fmt.Errorf("failed to load bookings: %w", err)
	}
	return WriteCSV(w, rows, s.loc)
}

func WriteCSV(w io.Writer, rows []Row, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Barber", "Client", "Service", "Amount", "Status"}); err != nil {
		return err
	}
	for _, r := range rows {
		client := r.ClientName
		if client == "" {
			client = "Anonymous"
		}
		record := []string{
			r.StartTime.In(loc).Format("2006-01-02 15:04"),
			r.BarberName,
			client,
			r.ServiceName,
			strconv.FormatFloat(r.TotalPrice, 'f', 2, 64),
			string(r.Status),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
