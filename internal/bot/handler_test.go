package bot

import (
	"context"
	"testing"
	"time"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/RudinMaxim/BarberMarket/config"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memProfiles struct {
	byID map[uuid.UUID]*common.Profile
}

func (m *memProfiles) Get(_ context.Context, id uuid.UUID) (*common.Profile, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return p, nil
}

func (m *memProfiles) FindByTelegramID(_ context.Context, telegramID int64) (*common.Profile, error) {
	for _, p := range m.byID {
		if p.TelegramID == telegramID {
			return p, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memProfiles) FindByPhone(_ context.Context, phones ...string) (*common.Profile, error) {
	for _, p := range m.byID {
		for _, phone := range phones {
			if p.Phone == phone {
				return p, nil
			}
		}
	}
	return nil, common.ErrNotFound
}

func (m *memProfiles) LinkTelegram(_ context.Context, id uuid.UUID, telegramID int64, username string) error {
	m.byID[id].TelegramID = telegramID
	m.byID[id].Telegram = username
	return nil
}

type stubBookings struct {
	list []common.Booking
	got  common.CurrentUser
}

func (s *stubBookings) Upcoming(_ context.Context, user common.CurrentUser) ([]common.Booking, error) {
	s.got = user
	return s.list, nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	sent []sentMessage
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, sentMessage{chatID: m.ChatID, text: m.Text})
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) last() sentMessage {
	return f.sent[len(f.sent)-1]
}

func command(fromID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: fromID, UserName: "ivanp"},
		Chat:     &tgbotapi.Chat{ID: fromID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}}
}

func contact(fromID int64, phone string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:    &tgbotapi.User{ID: fromID, UserName: "ivanp"},
		Chat:    &tgbotapi.Chat{ID: fromID},
		Contact: &tgbotapi.Contact{PhoneNumber: phone, UserID: fromID},
	}}
}

type botFixture struct {
	handler  *Handler
	sender   *fakeSender
	profiles *memProfiles
	bookings *stubBookings
	client   *common.Profile
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()

	saved := config.Texts
	t.Cleanup(func() { config.Texts = saved })
	config.Texts = map[string]string{
		"registration_start": "share contact",
		"sheared_contact":    "Share",
		"contact_linked":     "linked %s",
		"contact_unknown":    "unknown",
		"contact_foreign":    "own contact only",
		"hello_user":         "hello %s",
		"welcome_message":    "welcome",
		"help_message":       "help",
		"unknown_command":    "what?",
		"no_bookings":        "none",
		"not_linked":         "link first",
	}

	client := &common.Profile{UUID: uuid.New(), FullName: "Ivan", Role: common.RoleClient, Phone: "+7 (912) 345-67-89"}
	f := &botFixture{
		sender:   &fakeSender{},
		profiles: &memProfiles{byID: map[uuid.UUID]*common.Profile{client.UUID: client}},
		bookings: &stubBookings{},
		client:   client,
	}
	svc := NewService(f.profiles, f.bookings, zap.NewNop())
	f.handler = NewHandler(svc, f.sender, time.UTC, zap.NewNop())
	return f
}

func TestStart_AsksForContactThenLinks(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.handler.HandleUpdate(ctx, command(42, "/start"))
	assert.Equal(t, "share contact", f.sender.last().text)

	f.handler.HandleUpdate(ctx, contact(42, "89123456789"))
	assert.Equal(t, sentMessage{chatID: 42, text: "linked Ivan"}, f.sender.last())
	assert.Equal(t, int64(42), f.client.TelegramID)
	assert.Equal(t, "ivanp", f.client.Telegram)

	f.handler.HandleUpdate(ctx, command(42, "/start"))
	require.GreaterOrEqual(t, len(f.sender.sent), 2)
	assert.Equal(t, "hello Ivan", f.sender.sent[len(f.sender.sent)-2].text)
	assert.Equal(t, "welcome", f.sender.last().text)
}

func TestContact_Rejected(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.handler.HandleUpdate(ctx, contact(42, "+1 555 0100"))
	assert.Equal(t, "unknown", f.sender.last().text)

	forwarded := contact(42, "89123456789")
	forwarded.Message.Contact.UserID = 7
	f.handler.HandleUpdate(ctx, forwarded)
	assert.Equal(t, "own contact only", f.sender.last().text)
	assert.Zero(t, f.client.TelegramID)
}

func TestContact_AddressBookEntryCannotLinkProfile(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	// a contact picked from the address book carries no Telegram user id
	typed := contact(666, "89123456789")
	typed.Message.Contact.UserID = 0
	f.handler.HandleUpdate(ctx, typed)

	assert.Equal(t, sentMessage{chatID: 666, text: "own contact only"}, f.sender.last())
	assert.Zero(t, f.client.TelegramID)
	assert.Empty(t, f.client.Telegram)

	f.handler.HandleUpdate(ctx, command(666, "/bookings"))
	assert.Equal(t, "link first", f.sender.last().text)
}

func TestLinkContact_ForeignContact(t *testing.T) {
	f := newBotFixture(t)
	svc := NewService(f.profiles, f.bookings, zap.NewNop())

	_, err := svc.LinkContact(context.Background(), 666, 0, "mallory", "+7 912 345-67-89")
	assert.ErrorIs(t, err, ErrForeignContact)

	p, err := svc.LinkContact(context.Background(), 42, 42, "ivanp", "+7 912 345-67-89")
	require.NoError(t, err)
	assert.Equal(t, f.client.UUID, p.UUID)
}

func TestBookingsCommand(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.handler.HandleUpdate(ctx, command(42, "/bookings"))
	assert.Equal(t, "link first", f.sender.last().text)

	f.client.TelegramID = 42
	f.handler.HandleUpdate(ctx, command(42, "/bookings"))
	assert.Equal(t, "none", f.sender.last().text)

	f.bookings.list = []common.Booking{{
		StartTime: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
		Status:    common.StatusConfirmed,
	}}
	f.handler.HandleUpdate(ctx, command(42, "/bookings"))
	assert.Equal(t, "02.03.2026 10:00 - 11:00 (confirmed)", f.sender.last().text)
	assert.Equal(t, common.CurrentUser{ID: f.client.UUID, Role: common.RoleClient}, f.bookings.got)
}

func TestHelpAndUnknown(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.handler.HandleUpdate(ctx, command(1, "/help"))
	assert.Equal(t, "help", f.sender.last().text)

	f.handler.HandleUpdate(ctx, command(1, "/dance"))
	assert.Equal(t, "what?", f.sender.last().text)

	before := len(f.sender.sent)
	f.handler.HandleUpdate(ctx, tgbotapi.Update{})
	assert.Len(t, f.sender.sent, before)
}

func TestPublish(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()
	n := common.Notification{UserID: f.client.UUID, Title: "Booking confirmed", Message: "See you at 10:00"}

	require.NoError(t, f.handler.Publish(ctx, n))
	assert.Empty(t, f.sender.sent)

	f.client.TelegramID = 42
	require.NoError(t, f.handler.Publish(ctx, n))
	assert.Equal(t, sentMessage{chatID: 42, text: "Booking confirmed\nSee you at 10:00"}, f.sender.last())

	require.NoError(t, f.handler.Publish(ctx, common.Notification{UserID: uuid.New(), Title: "x"}))
}

func TestFormatBookings_Truncates(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var list []common.Booking
	for i := 0; i < 12; i++ {
		list = append(list, common.Booking{StartTime: start, EndTime: start.Add(time.Hour), Status: common.StatusPending})
	}
	out := FormatBookings(list, time.UTC)
	assert.Contains(t, out, "... +2")
}
