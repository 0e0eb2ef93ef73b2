package redis

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/pkg/metrics"
)

func TestNewRedisBroker_RejectsBadURL(t *testing.T) {
	_, err := NewRedisBroker(context.Background(), Config{URL: "http://nope"}, nil)
	assert.Error(t, err)
}

func TestPublish_OpensBreakerAfterRepeatedFailures(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	m := metrics.New("test", prometheus.NewRegistry())
	b := NewWithClient(client, "booking.", m)
	defer b.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		err := b.Publish(ctx, "appointment.booked", []byte(`{}`))
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}

	err := b.Publish(ctx, "appointment.booked", []byte(`{}`))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, err.Error(), "booking.appointment.booked")
	assert.Equal(t, float64(6), testutil.ToFloat64(m.RedisOperations.WithLabelValues("publish", "error")))

	assert.Error(t, b.PingContext(ctx))
}
