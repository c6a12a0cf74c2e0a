package notify

import (
	"errors"
	"strings"
	"testing"
	"time"

	"shareit/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTelegramSender struct {
	mock.Mock
}

func (m *mockTelegramSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func TestTelegramNotifier_BookingEvents(t *testing.T) {
	logger := zerolog.Nop()
	sender := new(mockTelegramSender)
	bus := events.NewEventBus(&logger)
	NewTelegramNotifier(sender, []int64{10, 20}, &logger).Subscribe(bus)

	for _, chatID := range []int64{10, 20} {
		chatID := chatID
		sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			msg, ok := c.(tgbotapi.MessageConfig)
			return ok && msg.ChatID == chatID && msg.ParseMode == tgbotapi.ModeMarkdown &&
				strings.HasPrefix(msg.Text, "*Booking approved* #5")
		})).Return(tgbotapi.Message{}, nil).Once()
	}

	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	err := bus.PublishJSON(events.EventBookingApproved, events.BookingEventPayload{
		BookingID: 5, ItemID: 7, ItemName: "Drill", OwnerID: 1, BookerID: 2,
		Status: "APPROVED", Start: start, End: start.Add(time.Hour),
	})
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestTelegramNotifier_CommentEvent(t *testing.T) {
	logger := zerolog.Nop()
	sender := new(mockTelegramSender)
	bus := events.NewEventBus(&logger)
	NewTelegramNotifier(sender, []int64{10}, &logger).Subscribe(bus)

	sender.On("Send", mock.AnythingOfType("tgbotapi.MessageConfig")).Return(tgbotapi.Message{}, nil).Once()

	require.NoError(t, bus.PublishJSON(events.EventCommentAdded, events.CommentEventPayload{
		CommentID: 1, ItemID: 7, AuthorName: "Ann", Text: "great",
	}))
	sender.AssertExpectations(t)
}

func TestTelegramNotifier_BroadcastKeepsGoing(t *testing.T) {
	logger := zerolog.Nop()
	sender := new(mockTelegramSender)
	n := NewTelegramNotifier(sender, []int64{1, 2}, &logger)

	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		return c.(tgbotapi.MessageConfig).ChatID == 1
	})).Return(tgbotapi.Message{}, errors.New("blocked")).Once()
	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		return c.(tgbotapi.MessageConfig).ChatID == 2
	})).Return(tgbotapi.Message{}, nil).Once()

	err := n.broadcast("hi")
	assert.EqualError(t, err, "blocked")
	sender.AssertExpectations(t)
}

func TestFormatBooking(t *testing.T) {
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	text := FormatBooking(events.EventBookingCreated, events.BookingEventPayload{
		BookingID: 3, ItemID: 7, ItemName: "big_drill", BookerID: 2, OwnerID: 1,
		Status: "WAITING", Start: start, End: start.Add(24 * time.Hour),
	})

	assert.Contains(t, text, "*New booking request* #3")
	assert.Contains(t, text, `big\_drill`)
	assert.Contains(t, text, "02.06.2025 09:00 - 03.06.2025 09:00")
	assert.Contains(t, text, "Status: WAITING")
}

func TestFormatComment(t *testing.T) {
	text := FormatComment(events.CommentEventPayload{ItemID: 7, AuthorName: "Ann", Text: "*works*"})
	assert.Contains(t, text, "item #7 by Ann")
	assert.Contains(t, text, `\*works\*`)
}
