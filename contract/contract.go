//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

type IRegistry interface {
	Connect(id domain.ConnectionID, sink EventSink)
	SwitchRoom(id domain.ConnectionID, newRoom, previousRoom domain.RoomID)
	Disconnect(id domain.ConnectionID)
	SinkFor(id domain.ConnectionID) (EventSink, bool)
	SinksForRoom(roomID domain.RoomID) []EventSink
	Sinks() []EventSink
	SinksExcept(id domain.ConnectionID) []EventSink
	CurrentRoom(id domain.ConnectionID) (domain.RoomID, bool)
}

type IHistory interface {
	Assemble(room domain.RoomID) ([]domain.MessageGroup, error)
}

type IPresence interface {
	Roster(ctx context.Context) ([]domain.User, error)
	SetOffline(ctx context.Context, userID string, newMessages int) error
}

type IEngine interface {
	Connect(id domain.ConnectionID, sink EventSink)
	Disconnect(id domain.ConnectionID)
	Join(ctx context.Context, cmd domain.JoinRoomCommand) error
	Post(ctx context.Context, cmd domain.PostMessageCommand) error
	AnnouncePresence(ctx context.Context) error
	GoOffline(ctx context.Context, cmd domain.GoOfflineCommand) error
}
