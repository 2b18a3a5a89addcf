package events

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/domain/providers"
)

// MemoryEventBus is a single-process EventBus used when Redis is disabled
type MemoryEventBus struct {
	hub    *hub
	closed atomic.Bool
	done   chan struct{}
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{hub: newHub(), done: make(chan struct{})}
}

var _ providers.EventBus = (*MemoryEventBus)(nil)

// Publish delivers event to current subscribers of channel
func (b *MemoryEventBus) Publish(ctx context.Context, channel string, event *entities.EventsNotification) error {
	if b.closed.Load() {
		return errors.New("event bus closed")
	}
	b.hub.broadcast(channel, event)
	return nil
}

// Subscribe subscribes to events on a channel
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.EventsNotification, error) {
	if b.closed.Load() {
		return nil, errors.New("event bus closed")
	}
	ch, _ := b.hub.add(channel)
	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.hub.remove(channel, ch)
	}()
	return ch, nil
}

// Unsubscribe drops every subscriber of a channel
func (b *MemoryEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.hub.closeChannel(channel)
	return nil
}

// Close closes the bus and all subscriptions
func (b *MemoryEventBus) Close() error {
	if b.closed.CompareAndSwap(false, true) {
		close(b.done)
		for _, channel := range b.hub.channels() {
			b.hub.closeChannel(channel)
		}
	}
	return nil
}
