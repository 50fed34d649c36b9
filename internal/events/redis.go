package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "omnivision:events"

// RedisBus publishes through a Redis channel so every instance sees every event,
// then fans out to its own subscribers locally.
type RedisBus struct {
	redis   *redis.Client
	channel string
	local   *LocalBus
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	ready  chan struct{}
}

func NewRedisBus(client *redis.Client, channel string, logger *slog.Logger) *RedisBus {
	if logger == nil {
		logger = slog.Default()
	}
	if channel == "" {
		channel = DefaultChannel
	}
	ctx, cancel := context.WithCancel(context.Background())

	b := &RedisBus{
		redis:   client,
		channel: channel,
		local:   NewLocalBus(logger),
		logger:  logger.With("component", "redis-event-bus", "channel", channel),
		ctx:     ctx,
		cancel:  cancel,
		ready:   make(chan struct{}),
	}

	b.wg.Add(1)
	go b.receiveLoop()

	return b
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.redis.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context) (<-chan Event, func()) {
	return b.local.Subscribe(ctx)
}

func (b *RedisBus) Subscribers() int {
	return b.local.Subscribers()
}

// Ready is closed once the Redis subscription is confirmed.
// Dropped counts events the local fan-out could not hand to a slow subscriber.
func (b *RedisBus) Dropped() uint64 {
	return b.local.Dropped()
}

func (b *RedisBus) Ready() <-chan struct{} {
	return b.ready
}

func (b *RedisBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return b.local.Close()
}

func (b *RedisBus) receiveLoop() {
	defer b.wg.Done()

	pubsub := b.redis.Subscribe(b.ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(b.ctx); err != nil {
		if b.ctx.Err() == nil {
			b.logger.Error("subscribe to event channel", "error", err)
		}
		return
	}
	close(b.ready)
	b.logger.Info("subscribed to event channel")

	for {
		msg, err := pubsub.ReceiveMessage(b.ctx)
		if err != nil {
			if b.ctx.Err() != nil {
				return
			}
			b.logger.Error("receive event", "error", err)
			return
		}

		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			b.logger.Error("unmarshal event", "error", err)
			continue
		}

		_ = b.local.Publish(b.ctx, ev)
	}
}
