package runtime

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/projection"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *captureSink) Consume(ctx context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *captureSink) Events() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DomainEvent(nil), s.events...)
}

func (s *captureSink) Histories() []event.RoomHistory {
	var histories []event.RoomHistory
	for _, e := range s.Events() {
		if h, ok := e.(event.RoomHistory); ok {
			histories = append(histories, h)
		}
	}
	return histories
}

type memMessages struct {
	mu       sync.Mutex
	messages []domain.Message
	err      error
}

func (m *memMessages) CreateMessage(content, sender, timeStr, dateStr string, to domain.RoomID) (domain.Message, error) {
	if m.err != nil {
		return domain.Message{}, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := domain.Message{
		ID:      uuid.New(),
		Room:    to,
		Sender:  sender,
		Content: content,
		Time:    timeStr,
		Date:    dateStr,
	}
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *memMessages) FindByRoom(room domain.RoomID) ([]domain.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Message
	for _, msg := range m.messages {
		if msg.Room == room {
			out = append(out, msg)
		}
	}
	return out, nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemUsers(users ...domain.User) *memUsers {
	m := &memUsers{users: make(map[string]domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) FindUser(id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return domain.User{}, errors.ErrUserNotFound
	}
	return user, nil
}

func (m *memUsers) ListUsers() ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memUsers) SaveUser(user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func newTestEngine(t *testing.T, messages *memMessages, users *memUsers) (*Engine, *Registry, chan domain.Notice) {
	t.Helper()
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	moderator, err := moderation.NewModerator([]string{"badger"}, '*', log)
	req.NoError(err)

	registry := NewRegistry()
	notices := make(chan domain.Notice, 16)
	engine := NewEngine(log, registry, projection.NewHistory(messages), NewPresence(users, log),
		messages, moderator, notices, time.Second)
	return engine, registry, notices
}

func TestEngine_Join_Pushes_History_To_Requester_Only(t *testing.T) {
	req := require.New(t)
	messages := &memMessages{}
	_, err := messages.CreateMessage("hello", "u1", "10:00", "03/01/2024", "general")
	req.NoError(err)
	engine, _, _ := newTestEngine(t, messages, newMemUsers())

	member := &captureSink{}
	joiner := &captureSink{}
	engine.Connect("c1", member)
	engine.Connect("c2", joiner)
	req.NoError(engine.Join(context.Background(), domain.JoinRoomCommand{
		ConnectionID: "c1", NewRoom: "general",
	}))
	member.mu.Lock()
	member.events = nil
	member.mu.Unlock()

	// When a second connection joins with no previous room
	req.NoError(engine.Join(context.Background(), domain.JoinRoomCommand{
		ConnectionID: "c2", NewRoom: "general",
	}))

	// Then only the requester receives the room history
	req.Empty(member.Events())
	histories := joiner.Histories()
	req.Len(histories, 1)
	req.Equal(domain.RoomID("general"), histories[0].Room)
	req.Len(histories[0].Groups, 1)
	req.Equal("hello", histories[0].Groups[0].Messages[0].Content)
}

func TestEngine_Post_Broadcasts_History_To_Room_And_Notice_Elsewhere(t *testing.T) {
	req := require.New(t)
	messages := &memMessages{}
	engine, registry, notices := newTestEngine(t, messages, newMemUsers())

	// Given two connections in crypto and one in finance
	sender := &captureSink{}
	peer := &captureSink{}
	outsider := &captureSink{}
	engine.Connect("c1", sender)
	engine.Connect("c2", peer)
	engine.Connect("c3", outsider)
	registry.SwitchRoom("c1", "crypto", "")
	registry.SwitchRoom("c2", "crypto", "")
	registry.SwitchRoom("c3", "finance", "")

	// When one of them posts a message
	req.NoError(engine.Post(context.Background(), domain.PostMessageCommand{
		ConnectionID: "c1", Room: "crypto", Sender: "u1",
		Content: "to the moon", Time: "10:00", Date: "03/01/2024",
	}))

	// Then both room members receive the updated history, sender included
	req.Len(sender.Histories(), 1)
	req.Len(peer.Histories(), 1)
	req.Equal("to the moon", peer.Histories()[0].Groups[0].Messages[0].Content)

	// And the outsider got no history, only a queued notice
	req.Empty(outsider.Events())
	select {
	case notice := <-notices:
		req.Equal(domain.Notice{Room: "crypto", Origin: "c1"}, notice)
	default:
		req.Fail("Expected a notice for the posted message")
	}
}

func TestEngine_Post_Persists_Before_Broadcast(t *testing.T) {
	req := require.New(t)
	messages := &memMessages{}
	engine, registry, _ := newTestEngine(t, messages, newMemUsers())

	sink := &captureSink{}
	engine.Connect("c1", sink)
	registry.SwitchRoom("c1", "tech", "")

	req.NoError(engine.Post(context.Background(), domain.PostMessageCommand{
		ConnectionID: "c1", Room: "tech", Sender: "u1",
		Content: "hi", Time: "10:00", Date: "03/01/2024",
	}))

	// Write-then-read: the pushed history already contains the message
	stored, err := messages.FindByRoom("tech")
	req.NoError(err)
	req.Len(stored, 1)
	req.Equal("hi", sink.Histories()[0].Groups[0].Messages[0].Content)
}

func TestEngine_Post_Orders_Groups_By_Date(t *testing.T) {
	req := require.New(t)
	messages := &memMessages{}
	engine, registry, _ := newTestEngine(t, messages, newMemUsers())

	sink := &captureSink{}
	engine.Connect("c1", sink)
	registry.SwitchRoom("c1", "tech", "")

	// Given a newer message posted before an older one
	req.NoError(engine.Post(context.Background(), domain.PostMessageCommand{
		ConnectionID: "c1", Room: "tech", Sender: "u1",
		Content: "hi", Time: "10:00", Date: "03/01/2024",
	}))
	req.NoError(engine.Post(context.Background(), domain.PostMessageCommand{
		ConnectionID: "c1", Room: "tech", Sender: "u2",
		Content: "yo", Time: "09:00", Date: "02/15/2024",
	}))

	// Then the last pushed history is grouped oldest date first
	histories := sink.Histories()
	last := histories[len(histories)-1]
	req.Len(last.Groups, 2)
	req.Equal("02/15/2024", last.Groups[0].Date)
	req.Equal("yo", last.Groups[0].Messages[0].Content)
	req.Equal("03/01/2024", last.Groups[1].Date)
	req.Equal("hi", last.Groups[1].Messages[0].Content)
}

func TestEngine_Post_Censors_Content(t *testing.T) {
	req := require.New(t)
	messages := &memMessages{}
	engine, registry, _ := newTestEngine(t, messages, newMemUsers())

	sink := &captureSink{}
	engine.Connect("c1", sink)
	registry.SwitchRoom("c1", "tech", "")

	req.NoError(engine.Post(context.Background(), domain.PostMessageCommand{
		ConnectionID: "c1", Room: "tech", Sender: "u1",
		Content: "a badger appears", Time: "10:00", Date: "03/01/2024",
	}))

	stored, err := messages.FindByRoom("tech")
	req.NoError(err)
	req.Equal("a ****** appears", stored[0].Content)
}

func TestEngine_Post_Propagates_Storage_Failure(t *testing.T) {
	req := require.New(t)
	messages := &memMessages{err: errors.ErrStorageUnavailable}
	engine, registry, notices := newTestEngine(t, messages, newMemUsers())

	sink := &captureSink{}
	engine.Connect("c1", sink)
	registry.SwitchRoom("c1", "tech", "")

	err := engine.Post(context.Background(), domain.PostMessageCommand{
		ConnectionID: "c1", Room: "tech", Sender: "u1",
		Content: "hi", Time: "10:00", Date: "03/01/2024",
	})

	// The operation aborts without any push or notice
	req.ErrorIs(err, errors.ErrStorageUnavailable)
	req.Empty(sink.Events())
	req.Empty(notices)
}

func TestEngine_AnnouncePresence_Reaches_Everyone(t *testing.T) {
	req := require.New(t)
	users := newMemUsers(
		domain.User{ID: "u1", Name: "Alice", Status: domain.Online},
		domain.User{ID: "u2", Name: "Bob", Status: domain.Offline},
	)
	engine, _, _ := newTestEngine(t, &memMessages{}, users)

	sink1 := &captureSink{}
	sink2 := &captureSink{}
	engine.Connect("c1", sink1)
	engine.Connect("c2", sink2)

	req.NoError(engine.AnnouncePresence(context.Background()))

	for _, sink := range []*captureSink{sink1, sink2} {
		events := sink.Events()
		req.Len(events, 1)
		roster, ok := events[0].(event.Roster)
		req.True(ok)
		req.Len(roster.Users, 2)
	}
}

func TestEngine_GoOffline_Excludes_Initiator(t *testing.T) {
	req := require.New(t)
	users := newMemUsers(domain.User{ID: "u1", Name: "Alice", Status: domain.Online})
	engine, _, _ := newTestEngine(t, &memMessages{}, users)

	leaving := &captureSink{}
	staying := &captureSink{}
	engine.Connect("c1", leaving)
	engine.Connect("c2", staying)

	req.NoError(engine.GoOffline(context.Background(), domain.GoOfflineCommand{
		ConnectionID: "c1", UserID: "u1", NewMessages: 4,
	}))

	// The leaving connection gets no roster push
	req.Empty(leaving.Events())
	events := staying.Events()
	req.Len(events, 1)
	roster := events[0].(event.Roster)
	req.Equal(domain.Offline, roster.Users[0].Status)
	req.Equal(4, roster.Users[0].NewMessages)
}

func TestEngine_GoOffline_Unknown_User_Changes_Nothing(t *testing.T) {
	req := require.New(t)
	engine, _, _ := newTestEngine(t, &memMessages{}, newMemUsers())

	sink := &captureSink{}
	engine.Connect("c1", sink)

	err := engine.GoOffline(context.Background(), domain.GoOfflineCommand{
		ConnectionID: "c2", UserID: "ghost", NewMessages: 1,
	})

	req.ErrorIs(err, errors.ErrUserNotFound)
	req.Empty(sink.Events())
}

func TestEngine_Push_To_Vanished_Connection_Is_A_NoOp(t *testing.T) {
	req := require.New(t)
	messages := &memMessages{}
	engine, registry, _ := newTestEngine(t, messages, newMemUsers())

	sink := &captureSink{}
	engine.Connect("c1", sink)
	registry.SwitchRoom("c1", "tech", "")

	// When the connection drops before the join completes
	engine.Disconnect("c1")

	req.NoError(engine.Join(context.Background(), domain.JoinRoomCommand{
		ConnectionID: "c1", NewRoom: "tech",
	}))
	req.Empty(sink.Events())
}
