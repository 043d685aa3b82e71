// Package ws exposes the relay over WebSocket plus two plain HTTP routes.
// The wire protocol mirrors the historical socket.io event names so
// existing clients keep working: "new-user", "join-room", "message-room"
// inbound; "room-messages", "notifications", "new-user" outbound.
package ws

import (
	"chat-relay/domain"
	"encoding/json"

	"github.com/samber/lo"
)

const (
	eventNewUser     = "new-user"
	eventJoinRoom    = "join-room"
	eventMessageRoom = "message-room"

	eventRoomMessages  = "room-messages"
	eventNotifications = "notifications"
)

// inboundFrame is one client-sent message. The payload shape depends on
// the event name; it is validated before dispatch.
type inboundFrame struct {
	Event   string          `json:"event" validate:"required"`
	Payload json.RawMessage `json:"payload"`
}

type outboundFrame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

type joinRoomPayload struct {
	NewRoom      string `json:"newRoom" validate:"required"`
	PreviousRoom string `json:"previousRoom"`
}

type messageRoomPayload struct {
	Room    string `json:"room" validate:"required"`
	Content string `json:"content" validate:"required"`
	Sender  string `json:"sender" validate:"required"`
	Time    string `json:"time" validate:"required"`
	Date    string `json:"date" validate:"required"`
}

type logoutPayload struct {
	ID           string `json:"_id" validate:"required"`
	NewMessages  int    `json:"newMessages" validate:"gte=0"`
	ConnectionID string `json:"connectionId"`
}

// messageView and groupView keep the JSON shape of the original backend:
// a history push is a list of {_id: date, messagesByDate: [...]} objects.
type messageView struct {
	Content string `json:"content"`
	From    string `json:"from"`
	Time    string `json:"time"`
	Date    string `json:"date"`
	To      string `json:"to"`
}

type groupView struct {
	Date     string        `json:"_id"`
	Messages []messageView `json:"messagesByDate"`
}

type userView struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	NewMessages int    `json:"newMessages"`
}

func toGroupViews(groups []domain.MessageGroup) []groupView {
	return lo.Map(groups, func(g domain.MessageGroup, _ int) groupView {
		return groupView{
			Date: g.Date,
			Messages: lo.Map(g.Messages, func(m domain.Message, _ int) messageView {
				return messageView{
					Content: m.Content,
					From:    m.Sender,
					Time:    m.Time,
					Date:    m.Date,
					To:      string(m.Room),
				}
			}),
		}
	})
}

func toUserViews(users []domain.User) []userView {
	return lo.Map(users, func(u domain.User, _ int) userView {
		return userView{
			ID:          u.ID,
			Name:        u.Name,
			Status:      string(u.Status),
			NewMessages: u.NewMessages,
		}
	})
}
