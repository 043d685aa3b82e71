// Package runtime owns the live, in-memory state of the relay: which
// connections exist, which room each one occupies, and how events reach
// them. Nothing in this package is persisted; state is rebuilt from
// scratch on process restart.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"sync"
)

type Set map[domain.ConnectionID]struct{}

// Registry tracks live connections and room membership. Each connection
// occupies at most one room at any instant; SwitchRoom is the only way to
// move between rooms and performs leave+join as a single step under the
// lock, so broadcasts never observe a connection in two rooms or in none.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[domain.ConnectionID]contract.EventSink
	roomMembers map[domain.RoomID]Set
	currentRoom map[domain.ConnectionID]domain.RoomID
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[domain.ConnectionID]contract.EventSink),
		roomMembers: make(map[domain.RoomID]Set),
		currentRoom: make(map[domain.ConnectionID]domain.RoomID),
	}
}

// Connect registers a connection's sink before it has joined any room.
func (r *Registry) Connect(id domain.ConnectionID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = sink
}

// SwitchRoom removes the connection from previousRoom (a no-op if absent,
// e.g. on the first join after connect) and adds it to newRoom. Rejoining
// the current room is idempotent. The tracked current room is also cleared
// so a stale previousRoom from the client cannot leave the connection in
// two member sets.
func (r *Registry) SwitchRoom(id domain.ConnectionID, newRoom, previousRoom domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeFromRoomLocked(id, previousRoom)
	if current, ok := r.currentRoom[id]; ok && current != previousRoom {
		r.removeFromRoomLocked(id, current)
	}

	if _, ok := r.roomMembers[newRoom]; !ok {
		r.roomMembers[newRoom] = make(Set)
	}
	r.roomMembers[newRoom][id] = struct{}{}
	r.currentRoom[id] = newRoom
}

// Disconnect drops the connection from the session directory and from the
// room it occupied. Empty member sets are removed entirely to prevent the
// room map growing forever.
func (r *Registry) Disconnect(id domain.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	if room, ok := r.currentRoom[id]; ok {
		r.removeFromRoomLocked(id, room)
		delete(r.currentRoom, id)
	}
}

// SinkFor resolves one connection's sink. A vanished connection simply
// reports false; pushing to it is a no-op for callers, not an error.
func (r *Registry) SinkFor(id domain.ConnectionID) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sessions[id]
	return sink, ok
}

// SinksForRoom retrieves all active sinks for a specific room.
// It performs a two-step lookup:
// 1. Identifies connection IDs associated with the room via roomMembers.
// 2. Resolves those IDs into actual EventSinks using the sessions map.
// Returns nil if the room doesn't exist or has no members.
func (r *Registry) SinksForRoom(roomID domain.RoomID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[roomID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for id := range members {
		if sink, exists := r.sessions[id]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Sinks returns every live connection's sink.
func (r *Registry) Sinks() []contract.EventSink {
	return r.SinksExcept("")
}

// SinksExcept returns the sinks of every connection except the given one.
func (r *Registry) SinksExcept(id domain.ConnectionID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for connID, sink := range r.sessions {
		if connID == id {
			continue
		}
		sinks = append(sinks, sink)
	}
	return sinks
}

// CurrentRoom reports which room the connection occupies, if any.
func (r *Registry) CurrentRoom(id domain.ConnectionID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.currentRoom[id]
	return room, ok
}

func (r *Registry) removeFromRoomLocked(id domain.ConnectionID, room domain.RoomID) {
	members, ok := r.roomMembers[room]
	if !ok {
		return
	}
	delete(members, id)
	if len(members) == 0 {
		delete(r.roomMembers, room)
	}
}
