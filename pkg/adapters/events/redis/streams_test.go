package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/studiomuse/pkg/adapters/events/redis"
	"github.com/aescanero/studiomuse/pkg/ports"
)

func TestStreamsEventBus_PublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bus := redis.NewStreamsEventBus(client, "studiomuse", "test-consumer", 100, zap.NewNop())

	received := make(chan ports.Event, 1)
	err := bus.Subscribe(context.Background(), ports.TopicPalettes, func(ctx context.Context, event ports.Event) error {
		received <- event
		return nil
	})
	require.NoError(t, err)

	event := ports.NewEvent(ports.EventTypePaletteDemystified, "Mont Marte 52", map[string]interface{}{"matches": float64(3)})
	require.NoError(t, bus.Publish(context.Background(), ports.TopicPalettes, event))

	select {
	case got := <-received:
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, event.Type, got.Type)
		assert.Equal(t, event.Data, got.Data)
		assert.True(t, event.Timestamp.Equal(got.Timestamp))
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}

	require.NoError(t, bus.Unsubscribe(context.Background(), ports.TopicPalettes))
	require.NoError(t, bus.Close())
}

func TestStreamsEventBus_PublishWritesStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bus := redis.NewStreamsEventBus(client, "studiomuse", "c", 0, zap.NewNop())
	defer bus.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(context.Background(), ports.TopicPalettes,
			ports.NewEvent(ports.EventTypePaletteCreated, "set", nil)))
	}

	n, err := client.XLen(context.Background(), "studiomuse:events:"+ports.TopicPalettes).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
