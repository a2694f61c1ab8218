package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisBroker_InvalidURL(t *testing.T) {
	logger := zerolog.Nop()
	_, err := NewRedisBroker(Config{URL: "not a url"}, &logger)
	assert.Error(t, err)
}

func TestRedisBroker_BreakerOpensAfterFailures(t *testing.T) {
	logger := zerolog.Nop()
	// Nothing listens on port 1, every publish fails with connection refused.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	b := newBroker(client, Config{FailureThreshold: 2, OpenTimeout: time.Minute}, &logger)
	defer b.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		err := b.Publish(ctx, "events", map[string]string{"n": "x"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}

	err := b.Publish(ctx, "events", map[string]string{"n": "x"})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, gobreaker.StateOpen, b.cb.State())
}

func TestRedisBroker_MarshalError(t *testing.T) {
	logger := zerolog.Nop()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	b := newBroker(client, Config{}, &logger)
	defer b.Close()

	err := b.Publish(context.Background(), "events", make(chan int))
	assert.ErrorContains(t, err, "failed to marshal message")
	assert.Equal(t, gobreaker.StateClosed, b.cb.State())
}
