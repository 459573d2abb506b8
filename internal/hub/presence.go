package hub

import (
	"sort"
	"sync"

	"github.com/streamvista/chathub/internal/store"
)

// RoomID identifies a room by kind and conversation. The kind is part
// of the key so a live and a bubble room can share a conversation id
// space without colliding.
type RoomID struct {
	Kind           store.RoomKind
	ConversationID int64
}

// Registry is the in-memory index of online sessions, globally and per
// room. It is the only shared mutable state in the hub; every mutation
// is a single synchronous step under one lock, so no concurrent
// connect/disconnect can observe a partial membership snapshot.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session            // connID -> session
	rooms    map[RoomID]map[string]*Session // room -> connID -> session
	joined   map[string]map[RoomID]struct{} // connID -> rooms joined
	byUser   map[int64]map[string]*Session  // userID -> connID -> session
}

// NewRegistry creates an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		rooms:    make(map[RoomID]map[string]*Session),
		joined:   make(map[string]map[RoomID]struct{}),
		byUser:   make(map[int64]map[string]*Session),
	}
}

// Register adds a session to the global index.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ConnID] = s
	if s.UserID != nil {
		conns, ok := r.byUser[*s.UserID]
		if !ok {
			conns = make(map[string]*Session)
			r.byUser[*s.UserID] = conns
		}
		conns[s.ConnID] = s
	}
}

// Unregister removes a session from the global index and from every
// room it had joined, in one consistent update. It returns the removed
// session and the rooms it was pruned from so the caller can broadcast
// fresh member snapshots.
func (r *Registry) Unregister(connID string) (*Session, []RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return nil, nil
	}
	delete(r.sessions, connID)

	if s.UserID != nil {
		if conns, ok := r.byUser[*s.UserID]; ok {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(r.byUser, *s.UserID)
			}
		}
	}

	var affected []RoomID
	for room := range r.joined[connID] {
		if members, ok := r.rooms[room]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(r.rooms, room)
			}
		}
		affected = append(affected, room)
	}
	delete(r.joined, connID)

	return s, affected
}

// JoinRoom adds a registered session to a room. Joining twice is a
// no-op; returns false if the session is unknown or already a member.
func (r *Registry) JoinRoom(room RoomID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return false
	}

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]*Session)
		r.rooms[room] = members
	}
	if _, exists := members[connID]; exists {
		return false
	}
	members[connID] = s

	rooms, ok := r.joined[connID]
	if !ok {
		rooms = make(map[RoomID]struct{})
		r.joined[connID] = rooms
	}
	rooms[room] = struct{}{}
	return true
}

// LeaveRoom removes a session from a room. Returns false if it was not
// a member.
func (r *Registry) LeaveRoom(room RoomID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		return false
	}
	if _, exists := members[connID]; !exists {
		return false
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
	if rooms, ok := r.joined[connID]; ok {
		delete(rooms, room)
	}
	return true
}

// DropRoom removes a room and all its memberships, used when the
// backing conversation is deleted.
func (r *Registry) DropRoom(room RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for connID := range r.rooms[room] {
		if rooms, ok := r.joined[connID]; ok {
			delete(rooms, room)
		}
	}
	delete(r.rooms, room)
}

// MembersOf returns the sessions currently in a room, ordered by
// connection id for deterministic snapshots.
func (r *Registry) MembersOf(room RoomID) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortSessions(r.rooms[room])
}

// IsUserOnline reports whether the user has at least one live connection.
func (r *Registry) IsUserOnline(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// ConnectionsFor returns every live session belonging to a user.
func (r *Registry) ConnectionsFor(userID int64) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortSessions(r.byUser[userID])
}

// Sessions returns every registered session.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortSessions(r.sessions)
}

// AdminSessions returns every connected session with the admin role.
func (r *Registry) AdminSessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	admins := make(map[string]*Session)
	for connID, s := range r.sessions {
		if s.IsAdmin() {
			admins[connID] = s
		}
	}
	return sortSessions(admins)
}

func sortSessions(m map[string]*Session) []*Session {
	if len(m) == 0 {
		return nil
	}
	out := make([]*Session, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConnID < out[j].ConnID })
	return out
}
