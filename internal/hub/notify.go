package hub

import "github.com/google/uuid"

// Notify* methods are the hub-facing API consumed by the REST layer.
// The caller has already authorized the action; the hub only fans the
// event out.

// NotifyNewChannelMessage pushes a created message to everyone viewing
// the channel.
func (h *Hub) NotifyNewChannelMessage(channelID int64, message any) {
	h.rooms.Broadcast(ChannelRoom(channelID), encodeFrame(EventNewMessage, message))
}

// NotifyNewDMMessage delivers a DM both to the DM room and to the other
// participant's inbox room, so the recipient is alerted even if they
// never opened the conversation. A connection present in both sets
// receives the event once.
func (h *Hub) NotifyNewDMMessage(dmChannelID, otherUserID int64, message any) {
	msg := encodeFrame(EventNewDMMessage, message)
	if msg == nil {
		return
	}

	seen := make(map[uuid.UUID]struct{})
	for _, key := range []RoomKey{DMChannelRoom(dmChannelID), UserRoom(otherUserID)} {
		for _, conn := range h.rooms.Members(key) {
			if _, dup := seen[conn.ID()]; dup {
				continue
			}
			seen[conn.ID()] = struct{}{}
			conn.Send(msg)
		}
	}
}

// NotifyFriendRequest alerts the target user of a new friend request.
func (h *Hub) NotifyFriendRequest(targetUserID int64, request any) {
	h.rooms.Broadcast(UserRoom(targetUserID), encodeFrame(EventFriendRequestReceived, request))
}

// NotifyFriendRequestAccepted tells the original requester their
// request was accepted.
func (h *Hub) NotifyFriendRequestAccepted(targetUserID int64, friendship, friend any) {
	h.rooms.Broadcast(UserRoom(targetUserID), encodeFrame(EventFriendRequestAccepted, map[string]any{
		"friendship": friendship,
		"friend":     friend,
	}))
}

// NotifyStatusChanged broadcasts a full user record globally after a
// REST-driven status change.
func (h *Hub) NotifyStatusChanged(user any) {
	h.rooms.Broadcast(Everyone, encodeFrame(EventUserStatusChanged, user))
}
