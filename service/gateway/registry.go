package gateway

import (
	"sync"

	"github.com/vkmindia80/Unified/tools/errs"
)

// connEntry is the registry-side record of one connection: identity plus the
// set of room keys it has joined. Explicit record, no state scattered on the
// transport handle.
type connEntry struct {
	client *Client
	userID string // empty until authenticate succeeds
	rooms  map[string]struct{}
}

// Registry owns the connection⇄room double index. Every mutation goes
// through its methods under one mutex, so no caller ever observes a
// partially applied join or leave. It does membership bookkeeping only;
// chat-room authorization happens in the event layer before JoinRoom.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*connEntry            // conn id -> entry
	rooms  map[string]map[string]*connEntry // room key -> conn id -> entry
	byUser map[string]map[string]struct{}   // user id -> conn id set
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]*connEntry),
		rooms:  make(map[string]map[string]*connEntry),
		byUser: make(map[string]map[string]struct{}),
	}
}

// Register records a new, unauthenticated connection.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ConnID] = &connEntry{
		client: c,
		rooms:  make(map[string]struct{}),
	}
}

// AttachUser binds an authenticated identity to the connection. Idempotent
// for the same user id; a re-authenticate as someone else moves the index.
func (r *Registry) AttachUser(connID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return errs.ErrUnknownConnection.WrapMsg("attach user", "conn", connID)
	}
	if e.userID == userID {
		return nil
	}
	if e.userID != "" {
		r.detachUserLocked(e.userID, connID)
	}
	e.userID = userID
	set := r.byUser[userID]
	if set == nil {
		set = make(map[string]struct{})
		r.byUser[userID] = set
	}
	set[connID] = struct{}{}
	return nil
}

// JoinRoom adds the connection to the room. Only valid once authenticated.
func (r *Registry) JoinRoom(connID, roomKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return errs.ErrUnknownConnection.WrapMsg("join room", "conn", connID)
	}
	if e.userID == "" {
		return errs.ErrNotAuthenticated.WrapMsg("join room", "room", roomKey)
	}
	e.rooms[roomKey] = struct{}{}
	m := r.rooms[roomKey]
	if m == nil {
		m = make(map[string]*connEntry)
		r.rooms[roomKey] = m
	}
	m[connID] = e
	return nil
}

// LeaveRoom removes the connection from the room; no-op if not a member.
func (r *Registry) LeaveRoom(connID, roomKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if ok {
		delete(e.rooms, roomKey)
	}
	r.removeFromRoomLocked(connID, roomKey)
}

// Unregister discards the connection, removing it from every room it had
// joined. Returns the attached user id (empty if never authenticated) and
// whether this was that user's last live connection, so the caller can
// decide on the presence flip.
func (r *Registry) Unregister(connID string) (userID string, last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return "", false
	}
	for roomKey := range e.rooms {
		r.removeFromRoomLocked(connID, roomKey)
	}
	delete(r.conns, connID)

	if e.userID == "" {
		return "", false
	}
	r.detachUserLocked(e.userID, connID)
	_, stillConnected := r.byUser[e.userID]
	return e.userID, !stillConnected
}

// MembersOf returns a snapshot of the room's member connection ids. Rooms
// are implicit: an unknown room is just empty, never an error.
func (r *Registry) MembersOf(roomKey string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.rooms[roomKey]
	out := make([]string, 0, len(m))
	for connID := range m {
		out = append(out, connID)
	}
	return out
}

// UserOf reports the identity attached to a connection, if any.
func (r *Registry) UserOf(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[connID]
	if !ok || e.userID == "" {
		return "", false
	}
	return e.userID, true
}

// CountUserConns reports how many live connections a user holds.
func (r *Registry) CountUserConns(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID])
}

// clientsOf snapshots the deliverable clients of a room, minus the excluded
// connection.
func (r *Registry) clientsOf(roomKey, excludeConnID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.rooms[roomKey]
	out := make([]*Client, 0, len(m))
	for connID, e := range m {
		if connID == excludeConnID {
			continue
		}
		out = append(out, e.client)
	}
	return out
}

// allClients snapshots every registered connection, authenticated or not.
func (r *Registry) allClients(excludeConnID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.conns))
	for connID, e := range r.conns {
		if connID == excludeConnID {
			continue
		}
		out = append(out, e.client)
	}
	return out
}

func (r *Registry) clientOf(connID string) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[connID]; ok {
		return e.client
	}
	return nil
}

func (r *Registry) removeFromRoomLocked(connID, roomKey string) {
	if m := r.rooms[roomKey]; m != nil {
		delete(m, connID)
		if len(m) == 0 {
			delete(r.rooms, roomKey)
		}
	}
}

func (r *Registry) detachUserLocked(userID, connID string) {
	if set := r.byUser[userID]; set != nil {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.byUser, userID)
		}
	}
}
