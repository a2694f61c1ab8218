package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// EventHandler processes one decoded event.
type EventHandler func(ctx context.Context, event *messaging.Event) error

// EventConsumer reads domain events from a broker channel and dispatches
// them by type. Events without a handler are counted and skipped.
type EventConsumer struct {
	broker   messaging.Broker
	channel  string
	metrics  *metrics.Metrics
	logger   *zerolog.Logger
	mu       sync.RWMutex
	handlers map[string]EventHandler
	now      func() time.Time
}

func NewEventConsumer(broker messaging.Broker, channel string, m *metrics.Metrics, logger *zerolog.Logger) *EventConsumer {
	return &EventConsumer{
		broker:   broker,
		channel:  channel,
		metrics:  m,
		logger:   logger,
		handlers: make(map[string]EventHandler),
		now:      time.Now,
	}
}

// Handle registers h for eventType, replacing any previous handler.
func (c *EventConsumer) Handle(eventType string, h EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[eventType] = h
}

// Run blocks until ctx is cancelled or the subscription closes.
func (c *EventConsumer) Run(ctx context.Context) error {
	messages, err := c.broker.Subscribe(ctx, c.channel)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", c.channel, err)
	}

	c.logger.Info().Str("channel", c.channel).Msg("Event consumer started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Event consumer shutting down")
			return nil
		case msg, ok := <-messages:
			if !ok {
				c.logger.Info().Msg("Event subscription closed")
				return nil
			}
			c.process(ctx, msg)
		}
	}
}

func (c *EventConsumer) process(ctx context.Context, msg []byte) {
	var event messaging.Event
	if err := json.Unmarshal(msg, &event); err != nil {
		c.observe("unknown", "malformed")
		c.logger.Warn().Err(err).Msg("Dropping malformed event")
		return
	}

	c.mu.RLock()
	h, ok := c.handlers[event.Type]
	c.mu.RUnlock()
	if !ok {
		c.observe(event.Type, "skipped")
		return
	}

	if err := h(ctx, &event); err != nil {
		c.observe(event.Type, "error")
		c.logger.Error().Err(err).
			Str("event_id", event.ID.String()).
			Str("event_type", event.Type).
			Msg("Failed to handle event")
		return
	}

	c.observe(event.Type, "ok")
	if c.metrics != nil && !event.OccurredAt.IsZero() {
		c.metrics.EventLatency.WithLabelValues(event.Type).Observe(c.now().Sub(event.OccurredAt).Seconds())
	}
}

func (c *EventConsumer) observe(eventType, status string) {
	if c.metrics != nil {
		c.metrics.EventsConsumed.WithLabelValues(eventType, status).Inc()
	}
}
