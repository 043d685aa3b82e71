package workers

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"time"
)

// NoticeFanoutWorker broadcasts room-activity notices to every connection
// except the one that produced the activity.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering, durability, or retries. NoticeFanoutWorker is not a message
// broker: the notice payload is only the room name, the full history goes
// through the engine's room-targeted push.
type NoticeFanoutWorker struct {
	log         *slog.Logger
	registry    contract.IRegistry
	notices     chan domain.Notice
	sinkTimeout time.Duration
}

func NewNoticeFanoutWorker(log *slog.Logger, registry contract.IRegistry,
	notices chan domain.Notice, sinkTimeout time.Duration) *NoticeFanoutWorker {
	return &NoticeFanoutWorker{
		log:         log,
		registry:    registry,
		notices:     notices,
		sinkTimeout: sinkTimeout,
	}
}

func (w *NoticeFanoutWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping notice fan-out")
			return nil
		case notice, ok := <-w.notices:
			if !ok {
				return nil
			}
			w.Fanout(ctx, notice)
		}
	}
}

// Fanout delivers one notice to all sinks outside the originating
// connection, each under its own timeout.
func (w *NoticeFanoutWorker) Fanout(ctx context.Context, notice domain.Notice) {
	for _, sink := range w.registry.SinksExcept(notice.Origin) {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, event.RoomNotice{Room: notice.Room}); err != nil {
			w.log.Debug("Notice delivery failed", "room", notice.Room, "err", err)
		}
		cancel()
	}
}
