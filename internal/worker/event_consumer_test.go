package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type chanBroker struct {
	messaging.NoopBroker
	ch chan []byte
}

func (b *chanBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return b.ch, nil
}

func encode(t *testing.T, eventType string, payload interface{}) []byte {
	t.Helper()
	event, err := messaging.NewEvent(eventType, payload)
	require.NoError(t, err)
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return raw
}

func TestEventConsumer_Dispatch(t *testing.T) {
	broker := &chanBroker{ch: make(chan []byte, 4)}
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	logger := zerolog.Nop()
	c := NewEventConsumer(broker, "clinic.events", m, &logger)

	var got []string
	c.Handle("appointment.status_changed", func(ctx context.Context, e *messaging.Event) error {
		var payload map[string]string
		require.NoError(t, e.Decode(&payload))
		got = append(got, payload["to"])
		return nil
	})
	c.Handle("invoice.finalized", func(ctx context.Context, e *messaging.Event) error {
		return errors.New("downstream unavailable")
	})

	broker.ch <- encode(t, "appointment.status_changed", map[string]string{"to": "confirmed"})
	broker.ch <- encode(t, "invoice.finalized", map[string]string{})
	broker.ch <- encode(t, "patient.created", map[string]string{})
	broker.ch <- []byte("{not json")
	close(broker.ch)

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, []string{"confirmed"}, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsConsumed.WithLabelValues("appointment.status_changed", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsConsumed.WithLabelValues("invoice.finalized", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsConsumed.WithLabelValues("patient.created", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsConsumed.WithLabelValues("unknown", "malformed")))
}

func TestEventConsumer_StopsOnCancel(t *testing.T) {
	logger := zerolog.Nop()
	c := NewEventConsumer(messaging.NoopBroker{}, "clinic.events", nil, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}
