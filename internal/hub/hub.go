// Package hub is the realtime core: it tracks live connections and
// user presence, organizes connections into rooms, and fans events out
// to the right recipients. REST handlers call into it through the
// Notify* methods; the websocket layer feeds it inbound frames through
// HandleMessage.
package hub

import (
	"log/slog"

	"github.com/google/uuid"
)

// Conn is the hub's view of one live transport session. Implemented by
// *transport.Connection; tests substitute in-memory fakes.
type Conn interface {
	ID() uuid.UUID
	Send(msg []byte)
}

// Directory supplies the authorization facts the router needs. The hub
// holds no membership data of its own.
type Directory interface {
	IsServerMember(userID, serverID int64) bool
	ChannelServerID(channelID int64) (int64, bool)
	DMChannelParticipants(dmChannelID int64) (int64, int64, bool)
}

// Hub wires the registry, room table, presence tracker, and directory
// together. All its methods are safe for concurrent use.
type Hub struct {
	logger   *slog.Logger
	registry *Registry
	rooms    *Rooms
	presence *Presence
	dir      Directory
}

func New(logger *slog.Logger, dir Directory) *Hub {
	return &Hub{
		logger:   logger.With(slog.String("component", "hub")),
		registry: NewRegistry(logger),
		rooms:    NewRooms(logger),
		presence: NewPresence(logger),
		dir:      dir,
	}
}

// Registry exposes connection queries for the connection limiter and
// shutdown.
func (h *Hub) Registry() *Registry { return h.registry }

// Rooms exposes the room table, mainly for tests and diagnostics.
func (h *Hub) Rooms() *Rooms { return h.rooms }

// PresenceFor returns the user's current presence record.
func (h *Hub) PresenceFor(userID int64) PresenceRecord {
	return h.presence.Get(userID)
}

// HandleConnect registers an authenticated connection. It joins the
// reserved everyone-room and the user's inbox room, flips the user
// online on their first connection (broadcasting the change), and sends
// the connected greeting.
func (h *Hub) HandleConnect(conn Conn, userID int64) {
	first := h.registry.Register(conn, userID)
	h.rooms.Join(Everyone, conn)
	h.rooms.Join(UserRoom(userID), conn)

	if first {
		rec, _ := h.presence.SetOnline(userID)
		h.broadcastPresence(rec)
	}

	conn.Send(encodeFrame(EventConnected, map[string]string{
		"message": "Подключено к RUCord",
	}))
	h.logger.Info("User connected", "userID", userID, "connID", conn.ID().String())
}

// HandleDisconnect tears a connection down: room memberships are gone
// and, if this was the user's last connection, the offline transition
// has been broadcast before this returns. That ordering guarantees no
// later broadcast can target the dead connection.
func (h *Hub) HandleDisconnect(connID uuid.UUID) {
	h.rooms.LeaveAll(connID)

	userID, last, ok := h.registry.Unregister(connID)
	if !ok {
		return
	}
	if last {
		rec := h.presence.SetOffline(userID)
		h.broadcastPresence(rec)
	}
	h.logger.Info("User disconnected", "userID", userID, "connID", connID.String(), "last", last)
}

// UpdateStatus applies an explicit status update and broadcasts it
// globally, exactly once. Permitted with any connection count, including
// zero. userRecord, when non-nil, is broadcast in place of the bare
// presence record so clients receive the full user shape the REST layer
// already has.
func (h *Hub) UpdateStatus(userID int64, status Status, message string, userRecord any) (PresenceRecord, error) {
	rec, err := h.presence.Set(userID, status, message)
	if err != nil {
		return PresenceRecord{}, err
	}
	if userRecord != nil {
		h.NotifyStatusChanged(userRecord)
	} else {
		h.broadcastPresence(rec)
	}
	return rec, nil
}

// broadcastPresence pushes a presence record to every connected client.
func (h *Hub) broadcastPresence(rec PresenceRecord) {
	h.rooms.Broadcast(Everyone, encodeFrame(EventUserStatusChanged, rec))
}
