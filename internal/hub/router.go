package hub

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// HandleMessage is the inbound dispatch entry point, invoked by the
// transport for every frame a client sends. The protocol is
// fire-and-forget: malformed, unknown, unauthorized, or dangling
// references are dropped without an error frame; the connection stays
// open.
func (h *Hub) HandleMessage(ctx context.Context, connID uuid.UUID, msg []byte) {
	var frame Frame
	if err := json.Unmarshal(msg, &frame); err != nil {
		h.logger.Warn("Failed to unmarshal client frame", "connID", connID.String(), "error", err)
		return
	}

	userID, ok := h.registry.UserID(connID)
	if !ok {
		// Disconnect raced the read; nothing to do.
		return
	}

	payload := string(frame.Payload)
	switch frame.Event {
	case EventJoinChannel:
		h.handleJoinChannel(connID, userID, payload)
	case EventLeaveChannel:
		h.handleLeaveChannel(connID, payload)
	case EventJoinDMChannel:
		h.handleJoinDMChannel(connID, userID, payload)
	case EventLeaveDMChannel:
		h.handleLeaveDMChannel(connID, payload)
	case EventCallRequest, EventCallAccept, EventCallReject, EventCallEnd,
		EventCallOffer, EventCallAnswer, EventCallICECandidate:
		h.relaySignal(userID, frame.Event, payload)
	default:
		h.logger.Warn("Received unknown event", "event", frame.Event, "connID", connID.String())
	}
}

func (h *Hub) handleJoinChannel(connID uuid.UUID, userID int64, payload string) {
	channelID := gjson.Get(payload, "channel_id").Int()
	if channelID == 0 {
		return
	}

	serverID, found := h.dir.ChannelServerID(channelID)
	if !found {
		return
	}
	if !h.dir.IsServerMember(userID, serverID) {
		h.logger.Warn("join_channel denied", "userID", userID, "channelID", channelID)
		return
	}

	conn, ok := h.connByID(connID)
	if !ok {
		return
	}
	key := ChannelRoom(channelID)
	h.rooms.Join(key, conn)
	conn.Send(encodeFrame(EventJoinedChannel, map[string]any{
		"channel_id": channelID,
		"room":       key.String(),
	}))
}

func (h *Hub) handleLeaveChannel(connID uuid.UUID, payload string) {
	channelID := gjson.Get(payload, "channel_id").Int()
	if channelID == 0 {
		return
	}
	h.rooms.Leave(ChannelRoom(channelID), connID)
	if conn, ok := h.connByID(connID); ok {
		conn.Send(encodeFrame(EventLeftChannel, map[string]any{
			"channel_id": channelID,
		}))
	}
}

func (h *Hub) handleJoinDMChannel(connID uuid.UUID, userID int64, payload string) {
	dmChannelID := gjson.Get(payload, "channel_id").Int()
	if dmChannelID == 0 {
		return
	}

	user1, user2, found := h.dir.DMChannelParticipants(dmChannelID)
	if !found {
		return
	}
	if userID != user1 && userID != user2 {
		h.logger.Warn("join_dm_channel denied", "userID", userID, "dmChannelID", dmChannelID)
		return
	}

	conn, ok := h.connByID(connID)
	if !ok {
		return
	}

	// Joining a DM marks the user online and broadcasts, even when they
	// were already online elsewhere. Deliberately redundant; clients
	// rely on the refresh.
	rec, _ := h.presence.SetOnline(userID)
	h.broadcastPresence(rec)

	key := DMChannelRoom(dmChannelID)
	h.rooms.Join(key, conn)
	h.rooms.Join(UserRoom(userID), conn)
	conn.Send(encodeFrame(EventJoinedDMChannel, map[string]any{
		"channel_id": dmChannelID,
		"room":       key.String(),
	}))
}

func (h *Hub) handleLeaveDMChannel(connID uuid.UUID, payload string) {
	dmChannelID := gjson.Get(payload, "channel_id").Int()
	if dmChannelID == 0 {
		return
	}
	h.rooms.Leave(DMChannelRoom(dmChannelID), connID)
	if conn, ok := h.connByID(connID); ok {
		conn.Send(encodeFrame(EventLeftDMChannel, map[string]any{
			"channel_id": dmChannelID,
		}))
	}
}

// connByID resolves a registered connection handle.
func (h *Hub) connByID(connID uuid.UUID) (Conn, bool) {
	return h.registry.Connection(connID)
}
