package domain

// RoomID is a room name drawn from a fixed, externally configured list.
// It is a pure grouping key for connections and messages, not a stored
// entity. Joins are not validated against the configured list.
type RoomID string
