package runtime

import (
	"chat-relay/domain"
	"chat-relay/repositories"
	"context"
	"log/slog"
)

// Presence answers roster queries and applies presence departures against
// the durable user store. Online/offline status lives on the User record,
// so a failed load or save leaves presence untouched: there is no partial
// update to roll back.
type Presence struct {
	users repositories.IUserRepository
	log   *slog.Logger
}

func NewPresence(users repositories.IUserRepository, log *slog.Logger) Presence {
	return Presence{users: users, log: log}
}

// Roster returns the full user list with presence status.
func (p Presence) Roster(_ context.Context) ([]domain.User, error) {
	return p.users.ListUsers()
}

// SetOffline loads the user, marks it offline, stores the unseen-message
// count and persists the record. Unknown users surface ErrUserNotFound,
// storage failures ErrStorageUnavailable; in both cases nothing changed.
func (p Presence) SetOffline(_ context.Context, userID string, newMessages int) error {
	user, err := p.users.FindUser(userID)
	if err != nil {
		return err
	}
	user.Status = domain.Offline
	user.NewMessages = newMessages
	if err := p.users.SaveUser(user); err != nil {
		return err
	}
	p.log.Debug("User went offline", "user_id", userID, "new_messages", newMessages)
	return nil
}
