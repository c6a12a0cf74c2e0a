package notify

import (
	"fmt"
	"strings"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// NewBotAPI connects to the Bot API with the configured token.
func NewBotAPI(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = cfg.Debug
	return bot, nil
}

// TelegramNotifier relays booking and comment events to a fixed set of chats.
type TelegramNotifier struct {
	sender  domain.TelegramSender
	chatIDs []int64
	logger  *zerolog.Logger
}

func NewTelegramNotifier(sender domain.TelegramSender, chatIDs []int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender:  sender,
		chatIDs: chatIDs,
		logger:  logger,
	}
}

// Subscribe registers the notifier on every event it reports.
func (n *TelegramNotifier) Subscribe(bus *events.EventBus) {
	bus.Subscribe(n.handleBooking, events.EventBookingCreated, events.EventBookingApproved, events.EventBookingRejected)
	bus.Subscribe(n.handleComment, events.EventCommentAdded)
}

func (n *TelegramNotifier) handleBooking(e *events.Event) error {
	var p events.BookingEventPayload
	if err := e.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", e.Type, err)
	}
	return n.broadcast(FormatBooking(e.Type, p))
}

func (n *TelegramNotifier) handleComment(e *events.Event) error {
	var p events.CommentEventPayload
	if err := e.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", e.Type, err)
	}
	return n.broadcast(FormatComment(p))
}

// broadcast sends text to every chat and reports the first failure after
// trying them all.
func (n *TelegramNotifier) broadcast(text string) error {
	var firstErr error
	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := n.sender.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("telegram send failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func FormatBooking(eventType string, p events.BookingEventPayload) string {
	var title string
	switch eventType {
	case events.EventBookingCreated:
		title = "New booking request"
	case events.EventBookingApproved:
		title = "Booking approved"
	case events.EventBookingRejected:
		title = "Booking rejected"
	default:
		title = "Booking update"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s* #%d\n", title, p.BookingID)
	fmt.Fprintf(&b, "Item: %s (#%d)\n", tgbotapi.EscapeText(tgbotapi.ModeMarkdown, p.ItemName), p.ItemID)
	fmt.Fprintf(&b, "Booker: #%d, owner: #%d\n", p.BookerID, p.OwnerID)
	fmt.Fprintf(&b, "Period: %s - %s\n", p.Start.UTC().Format("02.01.2006 15:04"), p.End.UTC().Format("02.01.2006 15:04"))
	fmt.Fprintf(&b, "Status: %s", p.Status)
	return b.String()
}

func FormatComment(p events.CommentEventPayload) string {
	return fmt.Sprintf("*New comment* on item #%d by %s:\n%s",
		p.ItemID,
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, p.AuthorName),
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, p.Text),
	)
}
