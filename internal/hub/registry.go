package hub

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type connEntry struct {
	conn         Conn
	userID       int64
	registeredAt time.Time
}

// Registry owns the set of live connections and the user index. A user
// may hold several connections at once (multiple tabs or devices).
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*connEntry
	users map[int64]map[uuid.UUID]*connEntry

	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		conns:  make(map[uuid.UUID]*connEntry),
		users:  make(map[int64]map[uuid.UUID]*connEntry),
		logger: logger.With(slog.String("component", "registry")),
	}
}

// Register binds a connection to its authenticated user and reports
// whether it is the user's first live connection. Registering the same
// connection twice is a no-op.
func (r *Registry) Register(conn Conn, userID int64) (first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	connID := conn.ID()
	if _, exists := r.conns[connID]; exists {
		return false
	}

	entry := &connEntry{conn: conn, userID: userID, registeredAt: time.Now()}
	r.conns[connID] = entry

	set, ok := r.users[userID]
	if !ok {
		set = make(map[uuid.UUID]*connEntry)
		r.users[userID] = set
	}
	first = len(set) == 0
	set[connID] = entry

	r.logger.Debug("Connection registered", "connID", connID.String(), "userID", userID)
	return first
}

// Unregister removes the connection and reports whether it was the
// user's last live connection. Unknown connection ids are a no-op so a
// disconnect racing other cleanup never raises.
func (r *Registry) Unregister(connID uuid.UUID) (userID int64, last bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, found := r.conns[connID]
	if !found {
		return 0, false, false
	}
	delete(r.conns, connID)

	userID = entry.userID
	if set, exists := r.users[userID]; exists {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.users, userID)
			last = true
		}
	}

	r.logger.Debug("Connection deregistered", "connID", connID.String(), "userID", userID, "last", last)
	return userID, last, true
}

// ConnectionsFor returns a snapshot of the user's live connections,
// possibly empty.
func (r *Registry) ConnectionsFor(userID int64) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.users[userID]
	conns := make([]Conn, 0, len(set))
	for _, entry := range set {
		conns = append(conns, entry.conn)
	}
	return conns
}

// Connection resolves a live connection handle by id.
func (r *Registry) Connection(connID uuid.UUID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.conns[connID]
	if !ok {
		return nil, false
	}
	return entry.conn, true
}

// UserID resolves the owner of a connection.
func (r *Registry) UserID(connID uuid.UUID) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.conns[connID]
	if !ok {
		return 0, false
	}
	return entry.userID, true
}

// ConnectionCount reports how many live connections a user holds.
func (r *Registry) ConnectionCount(userID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID])
}

// OldestConnection returns the user's longest-lived connection, used by
// the connection limiter in cycle mode.
func (r *Registry) OldestConnection(userID int64) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var oldest *connEntry
	for _, entry := range r.users[userID] {
		if oldest == nil || entry.registeredAt.Before(oldest.registeredAt) {
			oldest = entry
		}
	}
	if oldest == nil {
		return nil, false
	}
	return oldest.conn, true
}

// AllConnections returns a snapshot of every live connection, used on
// shutdown.
func (r *Registry) AllConnections() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Conn, 0, len(r.conns))
	for _, entry := range r.conns {
		conns = append(conns, entry.conn)
	}
	return conns
}
