package event

import (
	"chat-relay/domain"
)

type DomainEvent interface {
	Name() string
}

// RoomHistory carries the full, freshly grouped history of one room.
// Pushed to a single connection on join, to every room member on post.
type RoomHistory struct {
	Room   domain.RoomID
	Groups []domain.MessageGroup
}

func (e RoomHistory) Name() string { return "room-messages" }

// RoomNotice is the lightweight "new activity in this room" signal sent to
// connections outside the room, so idle rooms can surface notifications.
type RoomNotice struct {
	Room domain.RoomID
}

func (e RoomNotice) Name() string { return "notifications" }

// Roster carries the full user list with presence status.
type Roster struct {
	Users []domain.User
}

func (e Roster) Name() string { return "new-user" }
