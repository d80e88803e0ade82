package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscriber(t *testing.T) {
	bus := NewBus(0)
	defer bus.Shutdown()

	sub := bus.Subscribe(context.Background())
	defer sub.Unsubscribe()

	bus.Publish(ModelEvent{ProjectID: "p1", Entity: "node", Op: OpCreate, EntityID: "n1"})

	select {
	case got := <-sub.Channel():
		assert.Equal(t, "node", got.Entity)
		assert.Equal(t, OpCreate, got.Op)
		assert.Equal(t, "n1", got.EntityID)
		assert.NotZero(t, got.At)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(0)
	defer bus.Shutdown()

	sub := bus.Subscribe(context.Background())
	sub.Unsubscribe()

	// Channel is closed after unsubscribe.
	_, open := <-sub.Channel()
	require.False(t, open)

	// Publishing to no subscribers must not panic.
	bus.Publish(ModelEvent{Entity: "edge", Op: OpDelete})
}

func TestShutdownClosesAllSubscriptions(t *testing.T) {
	bus := NewBus(0)
	a := bus.Subscribe(context.Background())
	b := bus.Subscribe(context.Background())

	bus.Shutdown()

	_, openA := <-a.Channel()
	_, openB := <-b.Channel()
	assert.False(t, openA)
	assert.False(t, openB)

	// Publish and Shutdown after shutdown are no-ops.
	bus.Publish(ModelEvent{Entity: "node", Op: OpUpdate})
	bus.Shutdown()
}

func TestBufferSizeIsHonored(t *testing.T) {
	bus := NewBus(1)
	defer bus.Shutdown()

	sub := bus.Subscribe(context.Background())
	defer sub.Unsubscribe()

	// Second publish overflows the depth-1 buffer and is dropped.
	bus.Publish(ModelEvent{Entity: "node", Op: OpCreate, EntityID: "n1"})
	bus.Publish(ModelEvent{Entity: "node", Op: OpCreate, EntityID: "n2"})

	got := <-sub.Channel()
	assert.Equal(t, "n1", got.EntityID)

	select {
	case extra := <-sub.Channel():
		t.Fatalf("unexpected buffered event %q", extra.EntityID)
	default:
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus(0)
	defer bus.Shutdown()

	sub := bus.Subscribe(context.Background())
	defer sub.Unsubscribe()

	// Overfill the buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			bus.Publish(ModelEvent{Entity: "node", Op: OpUpdate})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
