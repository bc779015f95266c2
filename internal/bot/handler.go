package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/RudinMaxim/BarberMarket/helper"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const maxListed = 10

// Sender is the part of tgbotapi.BotAPI the handler needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Handler struct {
	service *Service
	bot     Sender
	loc     *time.Location
	log     *zap.Logger
}

func NewHandler(service *Service, bot Sender, loc *time.Location, log *zap.Logger) *Handler {
	return &Handler{service: service, bot: bot, loc: loc, log: log}
}

// Run consumes updates until ctx is cancelled or the channel closes.
func (h *Handler) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, update)
		}
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	h.log.Debug("Received message", zap.Int64("user_id", msg.From.ID), zap.String("text", msg.Text))

	if msg.Contact != nil {
		h.handleContact(ctx, msg)
		return
	}
	if !msg.IsCommand() {
		return
	}

	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg)
	case "bookings":
		h.handleBookings(ctx, msg)
	case "help":
		h.sendMessage(msg.Chat.ID, helper.GetText("help_message"))
	default:
		h.sendMessage(msg.Chat.ID, helper.GetText("unknown_command"))
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.log.Warn("Error sending message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	profile, err := h.service.ProfileByTelegramID(ctx, msg.From.ID)
	if err != nil {
		h.log.Error("Error getting profile", zap.Error(err))
	}
	if profile == nil {
		h.requestContact(msg.Chat.ID)
		return
	}

	h.sendMessage(msg.Chat.ID, helper.GetFormattedMessage("hello_user", profile.FullName))
	h.sendMessage(msg.Chat.ID, helper.GetText("welcome_message"))
}

func (h *Handler) requestContact(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, helper.GetText("registration_start"))
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact(helper.GetText("sheared_contact")),
		),
	)
	keyboard.OneTimeKeyboard = true
	msg.ReplyMarkup = keyboard

	if _, err := h.bot.Send(msg); err != nil {
		h.log.Warn("Error requesting contact", zap.Error(err))
	}
}

func (h *Handler) handleContact(ctx context.Context, msg *tgbotapi.Message) {
	profile, err := h.service.LinkContact(ctx, msg.From.ID, msg.Contact.UserID, msg.From.UserName, msg.Contact.PhoneNumber)
	switch {
	case errors.Is(err, ErrForeignContact):
		h.sendMessage(msg.Chat.ID, helper.GetText("contact_foreign"))
		return
	case errors.Is(err, ErrUnknownContact):
		h.sendMessage(msg.Chat.ID, helper.GetText("contact_unknown"))
		return
	case err != nil:
		h.log.Error("Error linking contact", zap.Error(err))
		h.sendMessage(msg.Chat.ID, helper.GetText("contact_unknown"))
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, helper.GetFormattedMessage("contact_linked", profile.FullName))
	reply.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := h.bot.Send(reply); err != nil {
		h.log.Warn("Error sending message", zap.Error(err))
	}
}

func (h *Handler) handleBookings(ctx context.Context, msg *tgbotapi.Message) {
	list, err := h.service.UpcomingBookings(ctx, msg.From.ID)
	if errors.Is(err, ErrNotLinked) {
		h.sendMessage(msg.Chat.ID, helper.GetText("not_linked"))
		return
	}
	if err != nil {
		h.log.Error("Error getting bookings", zap.Error(err))
		h.sendMessage(msg.Chat.ID, helper.GetText("no_bookings"))
		return
	}
	if len(list) == 0 {
		h.sendMessage(msg.Chat.ID, helper.GetText("no_bookings"))
		return
	}

	h.sendMessage(msg.Chat.ID, FormatBookings(list, h.loc))
}

// FormatBookings renders up to ten bookings one per line.
func FormatBookings(list []common.Booking, loc *time.Location) string {
	var b strings.Builder
	for i, booking := range list {
		if i == maxListed {
			fmt.Fprintf(&b, "... +%d", len(list)-maxListed)
			break
		}
		fmt.Fprintf(&b, "%s - %s (%s)\n",
			booking.StartTime.In(loc).Format("02.01.2006 15:04"),
			booking.EndTime.In(loc).Format("15:04"),
			booking.Status)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Publish delivers a notification to the user's linked chat, if any.
func (h *Handler) Publish(ctx context.Context, n common.Notification) error {
	chatID, err := h.service.ChatFor(ctx, n.UserID)
	if err != nil {
		return err
	}
	if chatID == 0 {
		return nil
	}

	text := n.Title
	if n.Message != "" {
		text += "\n" + n.Message
	}
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
