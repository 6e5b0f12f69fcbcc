package hub

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Rooms maps room keys to member connections. The room table and the
// per-connection joined sets live under one mutex so each join/leave is
// atomic and the two views never disagree.
type Rooms struct {
	mu     sync.RWMutex
	rooms  map[RoomKey]map[uuid.UUID]Conn
	joined map[uuid.UUID]map[RoomKey]struct{}

	logger *slog.Logger
}

func NewRooms(logger *slog.Logger) *Rooms {
	return &Rooms{
		rooms:  make(map[RoomKey]map[uuid.UUID]Conn),
		joined: make(map[uuid.UUID]map[RoomKey]struct{}),
		logger: logger.With(slog.String("component", "rooms")),
	}
}

// Join adds the connection to the room, creating the room on first use.
// Authorization is the caller's concern. Idempotent.
func (rm *Rooms) Join(key RoomKey, conn Conn) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	connID := conn.ID()
	members, ok := rm.rooms[key]
	if !ok {
		members = make(map[uuid.UUID]Conn)
		rm.rooms[key] = members
	}
	members[connID] = conn

	set, ok := rm.joined[connID]
	if !ok {
		set = make(map[RoomKey]struct{})
		rm.joined[connID] = set
	}
	set[key] = struct{}{}

	rm.logger.Debug("Connection joined room", "connID", connID.String(), "room", key.String())
}

// Leave removes the connection from the room and garbage-collects the
// room once its member set is empty. Leaving a room the connection is
// not in is a no-op.
func (rm *Rooms) Leave(key RoomKey, connID uuid.UUID) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.leaveLocked(key, connID)
}

func (rm *Rooms) leaveLocked(key RoomKey, connID uuid.UUID) {
	members, ok := rm.rooms[key]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(rm.rooms, key)
		rm.logger.Debug("Removed empty room", "room", key.String())
	}

	if set, ok := rm.joined[connID]; ok {
		delete(set, key)
		if len(set) == 0 {
			delete(rm.joined, connID)
		}
	}
}

// LeaveAll removes the connection from every room it had joined. Called
// by the hub on disconnect before the registry forgets the connection.
func (rm *Rooms) LeaveAll(connID uuid.UUID) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for key := range rm.joined[connID] {
		rm.leaveLocked(key, connID)
	}
	delete(rm.joined, connID)
}

// Members returns a snapshot of the room's member connections.
func (rm *Rooms) Members(key RoomKey) []Conn {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	members := rm.rooms[key]
	conns := make([]Conn, 0, len(members))
	for _, c := range members {
		conns = append(conns, c)
	}
	return conns
}

// InRoom reports whether the connection is currently a member.
func (rm *Rooms) InRoom(key RoomKey, connID uuid.UUID) bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	_, ok := rm.rooms[key][connID]
	return ok
}

// JoinedRooms returns the set of rooms the connection is in.
func (rm *Rooms) JoinedRooms(connID uuid.UUID) []RoomKey {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	keys := make([]RoomKey, 0, len(rm.joined[connID]))
	for key := range rm.joined[connID] {
		keys = append(keys, key)
	}
	return keys
}

// Broadcast delivers msg to every connection in the room as of call
// time. Membership is snapshotted under the read lock and the sends
// happen outside it, so a slow or dying recipient cannot stall the
// table; Conn.Send itself never blocks.
func (rm *Rooms) Broadcast(key RoomKey, msg []byte) {
	if msg == nil {
		return
	}
	for _, conn := range rm.Members(key) {
		conn.Send(msg)
	}
}
