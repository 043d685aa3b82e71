//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	CreateMessage(content, sender, timeStr, dateStr string, to domain.RoomID) (domain.Message, error)
	FindByRoom(room domain.RoomID) ([]domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// DiskMessage is the stored representation of a message.
type DiskMessage struct {
	ID      uuid.UUID `json:"id"`
	Room    string    `json:"room"`
	Sender  string    `json:"sender"`
	Content string    `json:"content"`
	Time    string    `json:"time"`
	Date    string    `json:"date"`
	At      time.Time `json:"at"`
}

// CreateMessage persists a new message in BadgerDB and returns it.
// The key is formatted as "msg:{room}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func (m MessageRepository) CreateMessage(content, sender, timeStr, dateStr string, to domain.RoomID) (domain.Message, error) {
	dm := DiskMessage{
		ID:      uuid.New(),
		Room:    string(to),
		Sender:  sender,
		Content: content,
		Time:    timeStr,
		Date:    dateStr,
		At:      time.Now().UTC(),
	}
	key := fmt.Sprintf("msg:%s:%019d:%s", dm.Room, dm.At.UnixNano(), dm.ID)

	bytes, err := json.Marshal(dm)
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal failed: %w", err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return toMessage(dm), nil
}

// FindByRoom retrieves every message of a room using a prefix scan.
// Thanks to the padded timestamp in the key, messages come back in
// persistence order. The result is unbounded: no pagination, which is a
// known scaling limit of the history view.
func (m MessageRepository) FindByRoom(room domain.RoomID) ([]domain.Message, error) {
	var diskMessages []DiskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", room))
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var dm DiskMessage
				if err := json.Unmarshal(val, &dm); err != nil {
					return err
				}
				diskMessages = append(diskMessages, dm)
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
	return lo.Map(diskMessages, func(dm DiskMessage, _ int) domain.Message {
		return toMessage(dm)
	}), nil
}

func toMessage(dm DiskMessage) domain.Message {
	return domain.Message{
		ID:      dm.ID,
		Room:    domain.RoomID(dm.Room),
		Sender:  dm.Sender,
		Content: dm.Content,
		Time:    dm.Time,
		Date:    dm.Date,
	}
}
