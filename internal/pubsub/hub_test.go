package pubsub_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalasag-ph/suspension-engine/internal/domain"
	"github.com/kalasag-ph/suspension-engine/internal/observability"
	"github.com/kalasag-ph/suspension-engine/internal/pubsub"
)

func newHub() *pubsub.Hub {
	return pubsub.NewHub(slog.Default(), observability.NewMetricsForTesting())
}

func TestHub_BroadcastReachesAllSubscribers(t *testing.T) {
	h := newHub()

	ch1, cancel1 := h.Subscribe()
	ch2, cancel2 := h.Subscribe()
	defer cancel1()
	defer cancel2()
	assert.Equal(t, 2, h.SubscriberCount())

	active := []*domain.SuspensionRecord{{ID: "s-1", City: "Batangas City"}}
	h.Broadcast(active)

	for _, ch := range []<-chan pubsub.Message{ch1, ch2} {
		msg := <-ch
		assert.Equal(t, pubsub.MessageActiveSuspensions, msg.Type)
		got, ok := msg.Data.([]*domain.SuspensionRecord)
		require.True(t, ok)
		require.Len(t, got, 1)
		assert.Equal(t, "s-1", got[0].ID)
	}
}

func TestHub_CancelStopsDelivery(t *testing.T) {
	h := newHub()

	ch, cancel := h.Subscribe()
	cancel()
	cancel() // idempotent

	assert.Equal(t, 0, h.SubscriberCount())

	h.Broadcast(nil)
	_, open := <-ch
	assert.False(t, open, "channel should be closed after cancel")
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := newHub()

	_, cancel := h.Subscribe()
	defer cancel()

	// Fill well past the buffer; Broadcast must never block.
	for range 100 {
		h.Broadcast([]*domain.SuspensionRecord{})
	}
}
