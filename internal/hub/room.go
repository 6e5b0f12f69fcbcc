package hub

import "strconv"

// RoomKind discriminates the entity a room is derived from. Using a
// typed key instead of concatenated strings makes collisions between
// entity namespaces impossible.
type RoomKind uint8

const (
	RoomServerChannel RoomKind = iota + 1
	RoomDMChannel
	RoomUserInbox
	RoomEveryone
)

// RoomKey identifies a broadcast group. It is comparable and used
// directly as a map key.
type RoomKey struct {
	Kind RoomKind
	ID   int64
}

// Everyone is the reserved room holding every registered connection,
// used for global broadcasts such as status changes.
var Everyone = RoomKey{Kind: RoomEveryone}

func ChannelRoom(channelID int64) RoomKey {
	return RoomKey{Kind: RoomServerChannel, ID: channelID}
}

func DMChannelRoom(dmChannelID int64) RoomKey {
	return RoomKey{Kind: RoomDMChannel, ID: dmChannelID}
}

// UserRoom is the per-user inbox room for targeted notifications
// (friend requests, call signaling, DM alerts).
func UserRoom(userID int64) RoomKey {
	return RoomKey{Kind: RoomUserInbox, ID: userID}
}

// String renders the wire-visible room name.
func (k RoomKey) String() string {
	switch k.Kind {
	case RoomServerChannel:
		return "channel_" + strconv.FormatInt(k.ID, 10)
	case RoomDMChannel:
		return "dm_channel_" + strconv.FormatInt(k.ID, 10)
	case RoomUserInbox:
		return "user_" + strconv.FormatInt(k.ID, 10)
	case RoomEveryone:
		return "everyone"
	}
	return "unknown"
}
