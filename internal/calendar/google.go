// Package calendar mirrors confirmed bookings into a Google Calendar.
package calendar

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/RudinMaxim/BarberMarket/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const eventColor = "5"

type Profiles interface {
	Get(ctx context.Context, id uuid.UUID) (*common.Profile, error)
}

type Services interface {
	Get(ctx context.Context, id uuid.UUID) (*common.Service, error)
}

type GoogleCalendar struct {
	events     *gcal.EventsService
	calendarID string
	loc        *time.Location
	profiles   Profiles
	services   Services
	log        *zap.Logger
}

func oauthConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(b, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return cfg, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// Authorize runs the one-time OAuth consent flow on the terminal and stores
// the token where NewGoogleCalendar expects it.
func Authorize(ctx context.Context, cfg config.CalendarConfig, in io.Reader, out io.Writer) error {
	oc, err := oauthConfig(cfg.CredentialsFile)
	if err != nil {
		return err
	}

	authURL := oc.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Open the link and paste the authorization code:\n%v\n", authURL)

	code, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && code == "" {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}

	tok, err := oc.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return saveToken(cfg.TokenFile, tok)
}

func NewGoogleCalendar(ctx context.Context, cfg config.CalendarConfig, loc *time.Location, profiles Profiles, services Services, log *zap.Logger) (*GoogleCalendar, error) {
	oc, err := oauthConfig(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("no calendar token at %s, run with -calendar-auth first: %w", cfg.TokenFile, err)
	}

	srv, err := gcal.NewService(ctx, option.WithHTTPClient(oc.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("failed to init calendar service: %w", err)
	}

	return &GoogleCalendar{
		events:     srv.Events,
		calendarID: cfg.CalendarID,
		loc:        loc,
		profiles:   profiles,
		services:   services,
		log:        log,
	}, nil
}

func (g *GoogleCalendar) AddBooking(ctx context.Context, booking *common.Booking) (string, error) {
	client, err := g.profiles.Get(ctx, booking.ClientID)
	if err != nil {
		g.log.Warn("Calendar event without client details", zap.Error(err))
		client = &common.Profile{FullName: "Client"}
	}
	service, err := g.services.Get(ctx, booking.ServiceID)
	if err != nil {
		g.log.Warn("Calendar event without service details", zap.Error(err))
		service = &common.Service{Name: "Service"}
	}

	created, err := g.events.Insert(g.calendarID, BuildEvent(booking, client, service, g.loc)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}
	return created.Id, nil
}

func (g *GoogleCalendar) RemoveBooking(ctx context.Context, eventID string) error {
	if err := g.events.Delete(g.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	g.log.Info("Calendar event removed", zap.String("event_id", eventID))
	return nil
}

// BuildEvent renders a booking as a calendar event in the barber time zone.
func BuildEvent(booking *common.Booking, client *common.Profile, service *common.Service, loc *time.Location) *gcal.Event {
	return &gcal.Event{
		Summary: fmt.Sprintf("Booking: %s", client.FullName),
		Description: fmt.Sprintf(
			"Service: %s\nPrice: %.2f\n\nClient:\nPhone: %s\nTelegram: %s",
			service.Name,
			booking.TotalPrice,
			client.Phone,
			client.Telegram,
		),
		Start: &gcal.EventDateTime{
			DateTime: booking.StartTime.In(loc).Format(time.RFC3339),
			TimeZone: loc.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: booking.EndTime.In(loc).Format(time.RFC3339),
			TimeZone: loc.String(),
		},
		ColorId: eventColor,
	}
}
