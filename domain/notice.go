package domain

// Notice signals fresh activity in a room to connections outside it.
// Origin is excluded from the fan-out so a sender never notifies itself.
type Notice struct {
	Room   RoomID
	Origin ConnectionID
}
