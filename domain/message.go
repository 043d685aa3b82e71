// Package domain contains core concepts of the chat relay.
// This file defines Message records and the derived MessageGroup view.
// Messages are immutable once created and never updated or deleted.
package domain

import (
	"github.com/google/uuid"
)

// Message represents an immutable chat record.
// Time and Date are kept as the client-supplied display strings,
// Date in MM/DD/YYYY form. Date is the grouping key for history views.
type Message struct {
	ID      uuid.UUID // unique identifier
	Room    RoomID    // destination room
	Sender  string    // user identifier of the author
	Content string
	Time    string
	Date    string
}

// MessageGroup is a derived, non-persisted view: every message of one room
// sharing one date string. Groups for a room are always returned sorted
// oldest date first.
type MessageGroup struct {
	Date     string
	Messages []Message
}
