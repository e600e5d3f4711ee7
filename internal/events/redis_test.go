package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	channel string
	payload []byte
}

type fakeRedis struct {
	sent []published
	err  error
}

func (f *fakeRedis) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.sent = append(f.sent, published{channel: channel, payload: message.([]byte)})
	return redis.NewIntResult(1, f.err)
}

func (f *fakeRedis) Subscribe(context.Context, ...string) *redis.PubSub {
	return nil
}

func TestRedisBridge_Forward(t *testing.T) {
	ctx := context.Background()

	t.Run("StampsInstance", func(t *testing.T) {
		client := &fakeRedis{}
		bridge := NewRedisBridge(client, "cart:changed", NewBus(1))

		bridge.forward(ctx, CartChanged{UserID: "u1", Origin: "s1"})

		require.Len(t, client.sent, 1)
		assert.Equal(t, "cart:changed", client.sent[0].channel)

		var ev CartChanged
		require.NoError(t, json.Unmarshal(client.sent[0].payload, &ev))
		assert.Equal(t, "u1", ev.UserID)
		assert.Equal(t, bridge.Instance(), ev.Instance)
	})

	t.Run("SkipsRemoteEvents", func(t *testing.T) {
		client := &fakeRedis{}
		bridge := NewRedisBridge(client, "cart:changed", NewBus(1))

		bridge.forward(ctx, CartChanged{UserID: "u1", Remote: true})

		assert.Empty(t, client.sent)
	})

	t.Run("PublishErrorIsSwallowed", func(t *testing.T) {
		client := &fakeRedis{err: errors.New("redis down")}
		bridge := NewRedisBridge(client, "cart:changed", NewBus(1))

		assert.NotPanics(t, func() { bridge.forward(ctx, CartChanged{UserID: "u1"}) })
	})
}

func TestRedisBridge_Replay(t *testing.T) {
	bus := NewBus(4)
	ch, cancel := bus.Subscribe()
	defer cancel()
	bridge := NewRedisBridge(&fakeRedis{}, "cart:changed", bus)

	t.Run("FromOtherInstance", func(t *testing.T) {
		bridge.replay(`{"user_id":"u1","origin":"s9","instance":"other"}`)

		ev := <-ch
		assert.Equal(t, "u1", ev.UserID)
		assert.Equal(t, "s9", ev.Origin)
		assert.True(t, ev.Remote)
	})

	t.Run("OwnEchoIgnored", func(t *testing.T) {
		bridge.replay(`{"user_id":"u1","instance":"` + bridge.Instance() + `"}`)
		assert.Len(t, ch, 0)
	})

	t.Run("Malformed", func(t *testing.T) {
		bridge.replay(`not-json`)
		assert.Len(t, ch, 0)
	})
}
