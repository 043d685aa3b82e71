//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
)

type IChatService interface {
	Connect(id domain.ConnectionID, sink contract.EventSink)
	Disconnect(id domain.ConnectionID)
	JoinRoom(ctx context.Context, cmd domain.JoinRoomCommand) error
	PostMessage(ctx context.Context, cmd domain.PostMessageCommand) error
	AnnouncePresence(ctx context.Context) error
	GoOffline(ctx context.Context, cmd domain.GoOfflineCommand) error
}

// ChatService is the thin facade the transport layer talks to. All
// semantics live in the engine.
type ChatService struct {
	engine contract.IEngine
}

func NewChatService(engine contract.IEngine) *ChatService {
	return &ChatService{engine: engine}
}

func (s *ChatService) Connect(id domain.ConnectionID, sink contract.EventSink) {
	s.engine.Connect(id, sink)
}

func (s *ChatService) Disconnect(id domain.ConnectionID) {
	s.engine.Disconnect(id)
}

func (s *ChatService) JoinRoom(ctx context.Context, cmd domain.JoinRoomCommand) error {
	return s.engine.Join(ctx, cmd)
}

func (s *ChatService) PostMessage(ctx context.Context, cmd domain.PostMessageCommand) error {
	return s.engine.Post(ctx, cmd)
}

func (s *ChatService) AnnouncePresence(ctx context.Context) error {
	return s.engine.AnnouncePresence(ctx)
}

func (s *ChatService) GoOffline(ctx context.Context, cmd domain.GoOfflineCommand) error {
	return s.engine.GoOffline(ctx, cmd)
}
