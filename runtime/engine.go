package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/moderation"
	"chat-relay/repositories"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
)

// Engine orchestrates the relay: room switches, message posts and presence
// changes, fanned out to live connections through the registry. Every
// inbound event runs on its caller's goroutine, so one slow storage call
// never blocks unrelated connections. The registries are the only critical
// sections; no lock is ever held across a storage call.
type Engine struct {
	log         *slog.Logger
	registry    contract.IRegistry
	history     contract.IHistory
	presence    contract.IPresence
	messages    repositories.IMessageRepository
	moderator   moderation.Moderator
	notices     chan domain.Notice
	sinkTimeout time.Duration
}

func NewEngine(
	log *slog.Logger,
	registry contract.IRegistry,
	history contract.IHistory,
	presence contract.IPresence,
	messages repositories.IMessageRepository,
	moderator moderation.Moderator,
	notices chan domain.Notice,
	sinkTimeout time.Duration,
) *Engine {
	return &Engine{
		log:         log,
		registry:    registry,
		history:     history,
		presence:    presence,
		messages:    messages,
		moderator:   moderator,
		notices:     notices,
		sinkTimeout: sinkTimeout,
	}
}

// Connect registers a fresh connection before its first join.
func (e *Engine) Connect(id domain.ConnectionID, sink contract.EventSink) {
	e.registry.Connect(id, sink)
}

// Disconnect cleans up room membership. It deliberately does not touch
// presence: going offline is a distinct, explicit action.
func (e *Engine) Disconnect(id domain.ConnectionID) {
	e.registry.Disconnect(id)
}

// Join switches the connection into newRoom and pushes that room's current
// history to the requesting connection only. Nothing is broadcast to the
// room's other members.
func (e *Engine) Join(ctx context.Context, cmd domain.JoinRoomCommand) error {
	e.registry.SwitchRoom(cmd.ConnectionID, cmd.NewRoom, cmd.PreviousRoom)

	groups, err := e.history.Assemble(cmd.NewRoom)
	if err != nil {
		return err
	}
	if sink, ok := e.registry.SinkFor(cmd.ConnectionID); ok {
		e.push(ctx, sink, event.RoomHistory{Room: cmd.NewRoom, Groups: groups})
	}
	return nil
}

// Post persists the message first (durability before visibility), then
// re-assembles the room history and pushes it to every member of the room,
// sender included. A lightweight notice is queued for every other
// connection so idle rooms can surface activity.
func (e *Engine) Post(ctx context.Context, cmd domain.PostMessageCommand) error {
	content := e.sanitize(cmd)

	if _, err := e.messages.CreateMessage(content, cmd.Sender, cmd.Time, cmd.Date, cmd.Room); err != nil {
		return err
	}

	groups, err := e.history.Assemble(cmd.Room)
	if err != nil {
		return err
	}
	for _, sink := range e.registry.SinksForRoom(cmd.Room) {
		e.push(ctx, sink, event.RoomHistory{Room: cmd.Room, Groups: groups})
	}

	select {
	case e.notices <- domain.Notice{Room: cmd.Room, Origin: cmd.ConnectionID}:
	default:
		e.log.Warn(fmt.Sprintf("Notice channel full, dropping notice for room %s", cmd.Room))
	}
	return nil
}

// AnnouncePresence pushes the full user roster to every connection.
func (e *Engine) AnnouncePresence(ctx context.Context) error {
	users, err := e.presence.Roster(ctx)
	if err != nil {
		return err
	}
	for _, sink := range e.registry.Sinks() {
		e.push(ctx, sink, event.Roster{Users: users})
	}
	return nil
}

// GoOffline runs the presence departure: the user record is updated and
// persisted, then the refreshed roster goes to every connection except the
// one logging out. A failed lookup or save aborts before any fan-out.
func (e *Engine) GoOffline(ctx context.Context, cmd domain.GoOfflineCommand) error {
	if err := e.presence.SetOffline(ctx, cmd.UserID, cmd.NewMessages); err != nil {
		return err
	}
	users, err := e.presence.Roster(ctx)
	if err != nil {
		return err
	}
	for _, sink := range e.registry.SinksExcept(cmd.ConnectionID) {
		e.push(ctx, sink, event.Roster{Users: users})
	}
	return nil
}

// sanitize censors forbidden words and logs the detected language of the
// original content. Moderation never rejects a message, it only rewrites it.
func (e *Engine) sanitize(cmd domain.PostMessageCommand) string {
	sanitized, foundWords := e.moderator.Censor(cmd.Content)
	if len(foundWords) > 0 {
		info := whatlanggo.Detect(cmd.Content)
		e.log.Warn("Censored message content",
			"room", cmd.Room,
			"sender", cmd.Sender,
			"words", len(foundWords),
			"lang", info.Lang.Iso6391())
	}
	return sanitized
}

// push delivers one event to one sink under the configured timeout.
// Delivery is best effort at-most-once; a vanished or saturated sink costs
// a debug line, never an aborted operation.
func (e *Engine) push(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) {
	ctx, cancel := context.WithTimeout(ctx, e.sinkTimeout)
	defer cancel()
	if err := sink.Consume(ctx, evt); err != nil {
		e.log.Debug("Sink delivery failed", "event", evt.Name(), "err", err)
	}
}
