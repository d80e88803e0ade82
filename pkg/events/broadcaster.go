package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/logging"
)

// Broadcaster forwards bus events to a mangos PUB socket so external
// tooling (report exporters, dashboards) can follow model changes
// without polling the backend.
type Broadcaster struct {
	sock   mangos.Socket
	sub    *Subscription
	logger logging.Logger
	done   chan struct{}
}

// NewBroadcaster listens on addr (e.g. "tcp://127.0.0.1:7801") and starts
// forwarding events from the bus until ctx is cancelled or Close is called.
func NewBroadcaster(ctx context.Context, bus *Bus, addr string, logger logging.Logger) (*Broadcaster, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("create pub socket: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	b := &Broadcaster{
		sock:   sock,
		sub:    bus.Subscribe(ctx),
		logger: logger.With(logging.Component("event-broadcaster")),
		done:   make(chan struct{}),
	}
	go b.run()
	return b, nil
}

func (b *Broadcaster) run() {
	defer close(b.done)
	for event := range b.sub.Channel() {
		data, err := json.Marshal(event)
		if err != nil {
			b.logger.Error("marshal event", logging.Error(err))
			continue
		}
		if err := b.sock.Send(data); err != nil {
			b.logger.Warn("publish event", logging.Error(err))
		}
	}
}

// Close stops forwarding and releases the socket.
func (b *Broadcaster) Close() error {
	b.sub.Unsubscribe()
	<-b.done
	return b.sock.Close()
}
