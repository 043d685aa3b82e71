// Package domain contains core concepts of the chat relay.
// This file defines the durable User record mutated by presence events.
package domain

type Status string

const (
	Online  Status = "online"
	Offline Status = "offline"
)

// User persists across connections. NewMessages counts messages the user
// has not seen yet, stored at logout and surfaced to the room list UI.
type User struct {
	ID          string
	Name        string
	Status      Status
	NewMessages int
}
