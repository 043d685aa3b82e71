package repositories

import (
	"chat-relay/domain"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func Test_Create_And_Find_Multiple_Messages(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewMessageRepository(db, slog.Default())
	room := domain.RoomID("tech")

	// Given three messages are posted to the room
	_, err = repository.CreateMessage("first", "Alice", "10:00", "03/01/2024", room)
	req.NoError(err)
	_, err = repository.CreateMessage("second", "Bob", "10:01", "03/01/2024", room)
	req.NoError(err)
	_, err = repository.CreateMessage("third", "Clara", "10:02", "03/02/2024", room)
	req.NoError(err)

	// When the room is fetched
	messages, err := repository.FindByRoom(room)
	req.NoError(err)

	// Then messages come back in persistence order
	req.Len(messages, 3)
	contents := lo.Map(messages, func(m domain.Message, _ int) string { return m.Content })
	req.Equal([]string{"first", "second", "third"}, contents)
}

func Test_Find_Does_Not_Leak_Other_Rooms(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewMessageRepository(db, slog.Default())

	// Given messages exist in two rooms
	_, err = repository.CreateMessage("hi", "Alice", "10:00", "03/01/2024", "tech")
	req.NoError(err)
	_, err = repository.CreateMessage("yo", "Bob", "10:00", "03/01/2024", "finance")
	req.NoError(err)

	// When one room is fetched
	messages, err := repository.FindByRoom("tech")
	req.NoError(err)

	// Then the other room stays invisible
	req.Len(messages, 1)
	req.Equal("hi", messages[0].Content)
	req.Equal(domain.RoomID("tech"), messages[0].Room)
}

func Test_Find_Empty_Room(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewMessageRepository(db, slog.Default())

	messages, err := repository.FindByRoom("crypto")
	req.NoError(err)
	req.Empty(messages)
}
