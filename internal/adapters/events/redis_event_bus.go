package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/domain/providers"
	redisclient "github.com/zatekoja/eventfinder/internal/infrastructure/clients/redis"
)

// RedisEventBus implements the EventBus interface using Redis Pub/Sub, so
// every API replica's stream clients see searches made on any replica.
type RedisEventBus struct {
	rdb           *redis.Client
	hub           *hub
	mu            sync.Mutex
	subscriptions map[string]*redis.PubSub
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	return NewRedisEventBusFromClient(client.Client())
}

// NewRedisEventBusFromClient wraps a bare go-redis client
func NewRedisEventBusFromClient(rdb *redis.Client) *RedisEventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		rdb:           rdb,
		hub:           newHub(),
		subscriptions: make(map[string]*redis.PubSub),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Publish publishes an event to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.EventsNotification) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.rdb.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().Str("channel", channel).Str("notification_id", event.ID).Msg("published notification")
	return nil
}

// Subscribe subscribes to events on a channel. The returned channel is
// closed when ctx ends or the bus is closed.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.EventsNotification, error) {
	if b.ctx.Err() != nil {
		return nil, errors.New("event bus closed")
	}

	// the subscriber set and the Redis subscription change together under
	// b.mu, so the last subscriber leaving never closes a pubsub that a new
	// subscriber has just joined
	b.mu.Lock()
	if _, exists := b.subscriptions[channel]; !exists {
		pubsub := b.rdb.Subscribe(b.ctx, channel)
		b.subscriptions[channel] = pubsub
		go b.receive(channel, pubsub)
	}
	ch, count := b.hub.add(channel)
	b.mu.Unlock()
	log.Debug().Str("channel", channel).Int("subscribers", count).Msg("subscribed")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.release(channel, ch)
	}()

	return ch, nil
}

func (b *RedisEventBus) receive(channel string, pubsub *redis.PubSub) {
	msgs := pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			var event entities.EventsNotification
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("failed to unmarshal notification")
				continue
			}
			b.hub.broadcast(channel, &event)
		}
	}
}

// release drops one subscriber and closes the Redis subscription when it
// was the last
func (b *RedisEventBus) release(channel string, ch chan *entities.EventsNotification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.hub.remove(channel, ch) == 0 {
		b.closeSubscriptionLocked(channel)
	}
}

// closeSubscriptionLocked must be called with b.mu held
func (b *RedisEventBus) closeSubscriptionLocked(channel string) {
	if pubsub, ok := b.subscriptions[channel]; ok {
		_ = pubsub.Close()
		delete(b.subscriptions, channel)
		log.Debug().Str("channel", channel).Msg("closed subscription")
	}
}

// Unsubscribe drops every local subscriber of a channel
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hub.closeChannel(channel)
	b.closeSubscriptionLocked(channel)
	return nil
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, channel := range b.hub.channels() {
		b.hub.closeChannel(channel)
	}
	var errs []error
	for channel, pubsub := range b.subscriptions {
		if err := pubsub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close subscription %s: %w", channel, err))
		}
		delete(b.subscriptions, channel)
	}
	return errors.Join(errs...)
}
