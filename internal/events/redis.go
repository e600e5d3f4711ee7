package events

import (
	"context"
	"encoding/json"
	"fmt"

	"cartview/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisClient is the part of *redis.Client the bridge uses.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// RedisBridge mirrors the local bus onto a Redis pub/sub channel so that a
// shopper's other tabs, served by other instances, refresh as well.
type RedisBridge struct {
	client   RedisClient
	channel  string
	bus      *Bus
	instance string
}

func NewRedisBridge(client RedisClient, channel string, bus *Bus) *RedisBridge {
	return &RedisBridge{
		client:   client,
		channel:  channel,
		bus:      bus,
		instance: uuid.New().String(),
	}
}

func (r *RedisBridge) Instance() string { return r.instance }

// Run forwards local events out and remote events in until ctx is done.
func (r *RedisBridge) Run(ctx context.Context) error {
	log := logger.FromCtx(ctx).With(zap.String("channel", r.channel), zap.String("instance", r.instance))

	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	local, cancel := r.bus.Subscribe()
	defer cancel()
	remote := pubsub.Channel()

	log.Info("cart event bridge running")

	for {
		select {
		case <-ctx.Done():
			log.Info("cart event bridge stopped")
			return ctx.Err()
		case ev, ok := <-local:
			if !ok {
				return nil
			}
			r.forward(ctx, ev)
		case msg, ok := <-remote:
			if !ok {
				return nil
			}
			r.replay(msg.Payload)
		}
	}
}

func (r *RedisBridge) forward(ctx context.Context, ev CartChanged) {
	if ev.Remote {
		return
	}
	ev.Instance = r.instance

	payload, err := json.Marshal(ev)
	if err != nil {
		logger.FromCtx(ctx).Error("encode cart event", zap.Error(err))
		return
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		logger.FromCtx(ctx).Warn("publish cart event to redis", zap.Error(err))
	}
}

func (r *RedisBridge) replay(payload string) {
	var ev CartChanged
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		logger.L().Warn("discarding malformed cart event", zap.Error(err))
		return
	}
	if ev.Instance == r.instance {
		return
	}
	ev.Remote = true
	r.bus.Publish(ev)
}
