// Package pubsub fans committed suspension state out to live subscribers.
package pubsub

import (
	"log/slog"
	"sync"

	"github.com/kalasag-ph/suspension-engine/internal/domain"
	"github.com/kalasag-ph/suspension-engine/internal/observability"
)

// Message is one push to a subscriber.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// MessageActiveSuspensions carries the full active set after each committed
// write.
const MessageActiveSuspensions = "active_suspensions"

// Hub distributes active-set snapshots to subscribers. Slow subscribers
// miss intermediate snapshots rather than blocking writers; every snapshot
// is the full state so a missed one is harmless.
type Hub struct {
	mu      sync.RWMutex
	subs    map[chan Message]bool
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		subs:    make(map[chan Message]bool),
		logger:  logger,
		metrics: metrics,
	}
}

// Subscribe registers a new subscriber and returns its channel plus a cancel
// function. Cancel is idempotent and closes the channel.
func (h *Hub) Subscribe() (<-chan Message, func()) {
	ch := make(chan Message, 8)

	h.mu.Lock()
	h.subs[ch] = true
	n := len(h.subs)
	h.mu.Unlock()
	h.metrics.WSSubscribers.Set(float64(n))
	h.logger.Debug("subscriber registered", "total", n)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			n := len(h.subs)
			h.mu.Unlock()
			close(ch)
			h.metrics.WSSubscribers.Set(float64(n))
			h.logger.Debug("subscriber removed", "total", n)
		})
	}
	return ch, cancel
}

// Broadcast pushes the active set to every subscriber without blocking.
func (h *Hub) Broadcast(active []*domain.SuspensionRecord) {
	msg := Message{Type: MessageActiveSuspensions, Data: active}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.logger.Warn("subscriber channel full, dropping snapshot")
		}
	}
}

// SubscriberCount returns the number of registered subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
