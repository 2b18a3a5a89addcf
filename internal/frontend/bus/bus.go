// Package bus is the typed publish/subscribe hub the client components use
// to talk to each other. Delivery is synchronous and must happen on the
// client event loop.
package bus

import (
	"github.com/rs/zerolog/log"
)

// Topic names a notification and fixes its payload type
type Topic[T any] struct {
	name string
}

// NewTopic declares a topic
func NewTopic[T any](name string) Topic[T] {
	return Topic[T]{name: name}
}

// Name returns the topic name
func (t Topic[T]) Name() string {
	return t.name
}

type subscription struct {
	id      uint64
	handler any
}

// Bus holds subscribers for any number of topics
type Bus struct {
	subs   map[string][]subscription
	nextID uint64
}

// New creates an empty bus
func New() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Subscribe registers fn for topic and returns a function that removes it
func Subscribe[T any](b *Bus, topic Topic[T], fn func(T)) (unsubscribe func()) {
	b.nextID++
	id := b.nextID
	b.subs[topic.name] = append(b.subs[topic.name], subscription{id: id, handler: fn})

	return func() {
		current := b.subs[topic.name]
		kept := make([]subscription, 0, len(current))
		for _, s := range current {
			if s.id != id {
				kept = append(kept, s)
			}
		}
		b.subs[topic.name] = kept
	}
}

// Publish delivers payload to every subscriber of topic in subscription
// order. Subscribers added during delivery see the next publish only.
func Publish[T any](b *Bus, topic Topic[T], payload T) {
	subs := append([]subscription(nil), b.subs[topic.name]...)
	log.Debug().Str("topic", topic.name).Int("subscribers", len(subs)).Msg("publish")
	for _, s := range subs {
		s.handler.(func(T))(payload)
	}
}
