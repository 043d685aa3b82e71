package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func Test_Save_And_Find_User(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewUserRepository(db)
	user := domain.User{ID: "u1", Name: "Alice", Status: domain.Online}

	// Given a saved user
	req.NoError(repository.SaveUser(user))

	// When the user is fetched
	fetched, err := repository.FindUser("u1")

	// Then the stored record comes back
	req.NoError(err)
	req.Equal(user, fetched)
}

func Test_Find_Unknown_User(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewUserRepository(db)

	_, err = repository.FindUser("ghost")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func Test_List_Users(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewUserRepository(db)
	req.NoError(repository.SaveUser(domain.User{ID: "u1", Name: "Alice", Status: domain.Online}))
	req.NoError(repository.SaveUser(domain.User{ID: "u2", Name: "Bob", Status: domain.Offline, NewMessages: 3}))

	users, err := repository.ListUsers()
	req.NoError(err)
	req.Len(users, 2)
}

func Test_Save_Overwrites_Status(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewUserRepository(db)
	req.NoError(repository.SaveUser(domain.User{ID: "u1", Name: "Alice", Status: domain.Online}))

	// When the user goes offline with unseen messages
	req.NoError(repository.SaveUser(domain.User{ID: "u1", Name: "Alice", Status: domain.Offline, NewMessages: 5}))

	fetched, err := repository.FindUser("u1")
	req.NoError(err)
	req.Equal(domain.Offline, fetched.Status)
	req.Equal(5, fetched.NewMessages)
}
