package hub

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Call signaling is a pure relay: the hub forwards WebRTC setup
// payloads to the target user's inbox room without interpreting or
// storing them. If the target has no live connections the signal
// vanishes; the caller perceives an unanswered call, not an error.

// signalEnvelope is what the target receives. The blob fields are
// passed through untouched.
type signalEnvelope struct {
	FromUserID int64           `json:"from_user_id"`
	Type       string          `json:"type,omitempty"`
	Offer      json.RawMessage `json:"offer,omitempty"`
	Answer     json.RawMessage `json:"answer,omitempty"`
	Candidate  json.RawMessage `json:"candidate,omitempty"`
}

func (h *Hub) relaySignal(fromUserID int64, event string, payload string) {
	toUserID := gjson.Get(payload, "to_user_id").Int()
	if toUserID == 0 {
		return
	}

	env := signalEnvelope{FromUserID: fromUserID}
	var outEvent string

	switch event {
	case EventCallRequest:
		outEvent = EventCallIncoming
		env.Type = gjson.Get(payload, "type").String()
		if env.Type == "" {
			env.Type = "audio"
		}
		env.Offer = rawField(payload, "offer")
	case EventCallAccept:
		outEvent = EventCallAccepted
	case EventCallReject:
		outEvent = EventCallRejected
	case EventCallEnd:
		outEvent = EventCallEnded
	case EventCallOffer:
		outEvent = EventCallOffer
		env.Offer = rawField(payload, "offer")
		if env.Offer == nil {
			return
		}
	case EventCallAnswer:
		outEvent = EventCallAnswer
		env.Answer = rawField(payload, "answer")
		if env.Answer == nil {
			return
		}
	case EventCallICECandidate:
		outEvent = EventCallICECandidate
		env.Candidate = rawField(payload, "candidate")
		if env.Candidate == nil {
			return
		}
	default:
		return
	}

	h.logger.Debug("Relaying call signal", "event", event, "from", fromUserID, "to", toUserID)
	h.rooms.Broadcast(UserRoom(toUserID), encodeFrame(outEvent, env))
}

// rawField extracts a payload field as an opaque JSON blob, nil when
// absent.
func rawField(payload, path string) json.RawMessage {
	v := gjson.Get(payload, path)
	if !v.Exists() {
		return nil
	}
	return json.RawMessage(v.Raw)
}
