package domain

// ConnectionID identifies one live client link for the lifetime of the
// connection. Assigned by the transport layer, never persisted.
type ConnectionID string

type Command interface {
	Connection() ConnectionID
}

// JoinRoomCommand moves a connection from its previous room into a new one.
// PreviousRoom is empty on the first join after connect.
type JoinRoomCommand struct {
	ConnectionID ConnectionID
	NewRoom      RoomID
	PreviousRoom RoomID
}

func (c JoinRoomCommand) Connection() ConnectionID {
	return c.ConnectionID
}

// PostMessageCommand carries a message sending intent, with the
// client-supplied time and date display strings.
type PostMessageCommand struct {
	ConnectionID ConnectionID
	Room         RoomID
	Sender       string
	Content      string
	Time         string
	Date         string
}

func (c PostMessageCommand) Connection() ConnectionID {
	return c.ConnectionID
}

// GoOfflineCommand is the explicit presence departure. It is distinct from
// a plain disconnect, which only cleans up room membership.
type GoOfflineCommand struct {
	ConnectionID ConnectionID
	UserID       string
	NewMessages  int
}

func (c GoOfflineCommand) Connection() ConnectionID {
	return c.ConnectionID
}
