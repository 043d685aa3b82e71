//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IUserRepository interface {
	FindUser(id string) (domain.User, error)
	ListUsers() ([]domain.User, error)
	SaveUser(user domain.User) error
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

// DiskUser is the stored representation of a user record.
type DiskUser struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	NewMessages int    `json:"new_messages"`
}

// FindUser retrieves a user by id. A missing key maps to ErrUserNotFound
// so callers can reject the operation without touching presence state.
func (u UserRepository) FindUser(id string) (domain.User, error) {
	var du DiskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &du)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.User{}, fmt.Errorf("%w: %s", errors.ErrUserNotFound, id)
		}
		return domain.User{}, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return toUser(du), nil
}

// ListUsers returns the full roster using a prefix scan.
func (u UserRepository) ListUsers() ([]domain.User, error) {
	var diskUsers []DiskUser
	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte("user:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var du DiskUser
				if err := json.Unmarshal(val, &du); err != nil {
					return err
				}
				diskUsers = append(diskUsers, du)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return lo.Map(diskUsers, func(du DiskUser, _ int) domain.User {
		return toUser(du)
	}), nil
}

// SaveUser upserts a user record.
func (u UserRepository) SaveUser(user domain.User) error {
	bytes, err := json.Marshal(DiskUser{
		ID:          user.ID,
		Name:        user.Name,
		Status:      string(user.Status),
		NewMessages: user.NewMessages,
	})
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	err = u.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(user.ID), bytes)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return nil
}

func userKey(id string) []byte {
	return []byte("user:" + id)
}

func toUser(du DiskUser) domain.User {
	return domain.User{
		ID:          du.ID,
		Name:        du.Name,
		Status:      domain.Status(du.Status),
		NewMessages: du.NewMessages,
	}
}
