// Package events distributes model-change notifications. An in-process
// bus serves engine-local consumers; a mangos PUB bridge forwards the
// same events to out-of-process subscribers.
package events

import (
	"context"
	"sync"
	"time"
)

// Op is the kind of mutation an event describes.
type Op string

const (
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpRestore Op = "restore"
)

// ModelEvent describes one applied mutation.
type ModelEvent struct {
	ProjectID string `json:"projectId"`
	Entity    string `json:"entity"` // node, edge, data-object, component-data, edge-flow, savepoint
	Op        Op     `json:"op"`
	EntityID  string `json:"entityId,omitempty"`
	At        int64  `json:"at"` // unix millis
}

// Bus is an in-process publish/subscribe fan-out for model events.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[*Subscription]bool
	bufferSize  int
	shutdown    chan struct{}
	isShutdown  bool
}

// Subscription receives model events on a buffered channel. Slow
// consumers drop events rather than blocking mutations.
type Subscription struct {
	channel   chan ModelEvent
	bus       *Bus
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewBus creates an event bus. bufferSize is the per-subscriber channel
// depth; zero or negative selects the default of 64.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Bus{
		subscribers: make(map[*Subscription]bool),
		bufferSize:  bufferSize,
		shutdown:    make(chan struct{}),
	}
}

// Subscribe registers a consumer. The subscription ends when ctx is
// cancelled, Unsubscribe is called, or the bus shuts down.
func (b *Bus) Subscribe(ctx context.Context) *Subscription {
	b.mu.Lock()
	if b.isShutdown {
		b.mu.Unlock()
		closed := &Subscription{channel: make(chan ModelEvent)}
		closed.close()
		return closed
	}
	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		channel: make(chan ModelEvent, b.bufferSize),
		bus:     b,
		cancel:  cancel,
	}
	b.subscribers[sub] = true
	b.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-b.shutdown:
			sub.close()
		}
	}()
	return sub
}

// Publish fans an event out to all subscribers. Snapshot-copies the
// subscriber set so channel sends happen outside the lock.
func (b *Bus) Publish(event ModelEvent) {
	if event.At == 0 {
		event.At = time.Now().UnixMilli()
	}

	b.mu.RLock()
	if b.isShutdown || len(b.subscribers) == 0 {
		b.mu.RUnlock()
		return
	}
	subs := make([]*Subscription, 0, len(b.subscribers))
	for sub := range b.subscribers {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.channel <- event:
		default:
			// Channel full, skip (non-blocking)
		}
	}
}

// Shutdown closes all subscriptions.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	if b.isShutdown {
		b.mu.Unlock()
		return
	}
	b.isShutdown = true
	close(b.shutdown)
	for sub := range b.subscribers {
		sub.close()
		delete(b.subscribers, sub)
	}
	b.mu.Unlock()
}

// Channel returns the subscription's event channel.
func (s *Subscription) Channel() <-chan ModelEvent {
	return s.channel
}

// Unsubscribe removes the subscription from the bus.
func (s *Subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.bus != nil {
		s.bus.mu.Lock()
		delete(s.bus.subscribers, s)
		s.bus.mu.Unlock()
	}
	s.close()
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
