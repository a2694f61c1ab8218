package messaging

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// EventPublisher wraps domain payloads in an Event and writes them to a
// single broker channel. Failures are returned, not logged; the caller
// owns the log line.
type EventPublisher struct {
	broker  Broker
	channel string
	metrics *metrics.Metrics
	logger  *zerolog.Logger
}

func NewEventPublisher(broker Broker, channel string, m *metrics.Metrics, logger *zerolog.Logger) *EventPublisher {
	return &EventPublisher{
		broker:  broker,
		channel: channel,
		metrics: m,
		logger:  logger,
	}
}

func (p *EventPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	event, err := NewEvent(eventType, payload)
	if err != nil {
		p.record(eventType, err)
		return fmt.Errorf("failed to build event %s: %w", eventType, err)
	}

	if err := p.broker.Publish(ctx, p.channel, event); err != nil {
		p.record(eventType, err)
		return fmt.Errorf("failed to publish event %s %s: %w", eventType, event.ID, err)
	}

	p.record(eventType, nil)
	p.logger.Debug().
		Str("event_type", eventType).
		Str("event_id", event.ID.String()).
		Msg("Event published")
	return nil
}

func (p *EventPublisher) record(eventType string, err error) {
	if p.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.metrics.EventsPublished.WithLabelValues(eventType, status).Inc()
}
