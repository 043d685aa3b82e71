package ws

import (
	"chat-relay/domain/event"
	"context"
)

// Sink is one connection's delivery queue.
type Sink struct {
	Events chan event.DomainEvent
}

func NewSink(bufferSize int) *Sink {
	return &Sink{Events: make(chan event.DomainEvent, bufferSize)}
}

// Consume is called by the engine's fan-out.
// It redirects the event to the owning connection's write loop. A full
// queue drops the event: delivery is best effort at-most-once, and a slow
// client must not stall a broadcast.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
