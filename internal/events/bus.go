package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is one published message. Payload holds the JSON-encoded body.
type Event struct {
	ID        string
	Type      string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

type EventHandler func(event *Event) error

// EventBus delivers events synchronously to the handlers of their topic, in
// subscription order. Handler errors and panics are logged and swallowed.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
	logger   zerolog.Logger
}

func NewEventBus(logger *zerolog.Logger) *EventBus {
	bus := &EventBus{handlers: make(map[string][]EventHandler), logger: zerolog.Nop()}
	if logger != nil {
		bus.logger = *logger
	}
	return bus
}

// Subscribe registers handler on each of the given topics.
func (b *EventBus) Subscribe(handler EventHandler, topics ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, topic := range topics {
		b.handlers[topic] = append(b.handlers[topic], handler)
	}
}

func (b *EventBus) Publish(event *Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := b.deliver(handler, event); err != nil {
			b.logger.Warn().Err(err).Str("event", event.Type).Str("event_id", event.ID).Msg("event handler failed")
		}
	}
}

func (b *EventBus) deliver(handler EventHandler, event *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(event)
}

// PublishJSON encodes payload and publishes it under eventType. A nil bus
// drops the event.
func (b *EventBus) PublishJSON(eventType string, payload any) error {
	if b == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	b.Publish(&Event{Type: eventType, Payload: raw})
	return nil
}
