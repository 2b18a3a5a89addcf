package events

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
)

const subscriberBuffer = 100

// hub fans notifications on a channel out to local subscribers. A full
// subscriber misses the notification rather than blocking the others.
type hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.EventsNotification]struct{}
}

func newHub() *hub {
	return &hub{subscribers: make(map[string]map[chan *entities.EventsNotification]struct{})}
}

func (h *hub) add(channel string) (chan *entities.EventsNotification, int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[channel] == nil {
		h.subscribers[channel] = make(map[chan *entities.EventsNotification]struct{})
	}
	ch := make(chan *entities.EventsNotification, subscriberBuffer)
	h.subscribers[channel][ch] = struct{}{}
	return ch, len(h.subscribers[channel])
}

// remove closes ch and reports how many subscribers remain on channel
func (h *hub) remove(channel string, ch chan *entities.EventsNotification) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[channel]
	if !ok {
		return 0
	}
	if _, ok := subs[ch]; ok {
		delete(subs, ch)
		close(ch)
	}
	if len(subs) == 0 {
		delete(h.subscribers, channel)
	}
	return len(subs)
}

func (h *hub) broadcast(channel string, n *entities.EventsNotification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers[channel] {
		select {
		case sub <- n:
		default:
			log.Warn().Str("channel", channel).Str("notification_id", n.ID).Msg("subscriber channel full, dropping notification")
		}
	}
}

func (h *hub) closeChannel(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers[channel] {
		close(sub)
	}
	delete(h.subscribers, channel)
}

func (h *hub) channels() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.subscribers))
	for channel := range h.subscribers {
		out = append(out, channel)
	}
	return out
}
