package hub

import "encoding/json"

// Inbound event names accepted from clients.
const (
	EventJoinChannel      = "join_channel"
	EventLeaveChannel     = "leave_channel"
	EventJoinDMChannel    = "join_dm_channel"
	EventLeaveDMChannel   = "leave_dm_channel"
	EventCallRequest      = "call_request"
	EventCallAccept       = "call_accept"
	EventCallReject       = "call_reject"
	EventCallEnd          = "call_end"
	EventCallOffer        = "call_offer"
	EventCallAnswer       = "call_answer"
	EventCallICECandidate = "call_ice_candidate"
)

// Outbound event names pushed to clients.
const (
	EventConnected             = "connected"
	EventJoinedChannel         = "joined_channel"
	EventLeftChannel           = "left_channel"
	EventJoinedDMChannel       = "joined_dm_channel"
	EventLeftDMChannel         = "left_dm_channel"
	EventUserStatusChanged     = "user_status_changed"
	EventNewMessage            = "new_message"
	EventNewDMMessage          = "new_dm_message"
	EventFriendRequestReceived = "friend_request_received"
	EventFriendRequestAccepted = "friend_request_accepted"
	EventCallIncoming          = "call_incoming"
	EventCallAccepted          = "call_accepted"
	EventCallRejected          = "call_rejected"
	EventCallEnded             = "call_ended"
)

// Frame is the JSON envelope exchanged over a connection in both
// directions.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// encodeFrame marshals an outbound frame. Payloads are built from
// internal structs, so a marshal failure indicates a programming error;
// the frame is dropped and nil returned.
func encodeFrame(event string, payload any) []byte {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil
		}
		raw = b
	}
	b, err := json.Marshal(Frame{Event: event, Payload: raw})
	if err != nil {
		return nil
	}
	return b
}
