package hub_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarosa2890/RUCord/internal/hub"
)

func TestNotifyNewChannelMessage(t *testing.T) {
	h, dir := newTestHub()
	dir.channels[10] = 5
	dir.members[5] = []int64{1}

	conn := newFakeConn()
	h.HandleConnect(conn, 1)
	dispatch(h, conn.ID(), `{"event":"join_channel","payload":{"channel_id":10}}`)

	h.NotifyNewChannelMessage(10, map[string]any{"id": 1, "content": "привет"})

	frame, ok := conn.last(hub.EventNewMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":1,"content":"привет"}`, string(frame.Payload))
}

func TestNotifyNewDMMessageDeliversOncePerConnection(t *testing.T) {
	h, dir := newTestHub()
	dir.dms[3] = [2]int64{1, 2}

	// The recipient has the DM open, so their connection sits in both the
	// DM room and their inbox room.
	recipient := newFakeConn()
	h.HandleConnect(recipient, 2)
	dispatch(h, recipient.ID(), `{"event":"join_dm_channel","payload":{"channel_id":3}}`)

	h.NotifyNewDMMessage(3, 2, map[string]any{"content": "hello"})

	assert.Equal(t, 1, recipient.count(hub.EventNewDMMessage),
		"a connection in both rooms must receive the message exactly once")
}

func TestNotifyNewDMMessageReachesClosedConversation(t *testing.T) {
	h, dir := newTestHub()
	dir.dms[3] = [2]int64{1, 2}

	// The recipient is connected but never opened the DM; delivery goes
	// through their inbox room.
	recipient := newFakeConn()
	h.HandleConnect(recipient, 2)

	h.NotifyNewDMMessage(3, 2, map[string]any{"content": "hello"})

	assert.Equal(t, 1, recipient.count(hub.EventNewDMMessage))
}

func TestNotifyNewDMMessageToOfflineRecipientIsSilent(t *testing.T) {
	h, _ := newTestHub()
	h.NotifyNewDMMessage(3, 2, map[string]any{"content": "hello"})
}

func TestNotifyFriendRequest(t *testing.T) {
	h, _ := newTestHub()
	target := newFakeConn()
	bystander := newFakeConn()
	h.HandleConnect(target, 2)
	h.HandleConnect(bystander, 3)

	h.NotifyFriendRequest(2, map[string]any{"id": 1, "from_user_id": 1})

	assert.Equal(t, 1, target.count(hub.EventFriendRequestReceived))
	assert.Zero(t, bystander.count(hub.EventFriendRequestReceived),
		"friend request alerts are private to the target")
}

func TestNotifyFriendRequestAccepted(t *testing.T) {
	h, _ := newTestHub()
	requester := newFakeConn()
	h.HandleConnect(requester, 1)

	h.NotifyFriendRequestAccepted(1,
		map[string]any{"id": 5},
		map[string]any{"id": 2, "username": "bob"},
	)

	frame, ok := requester.last(hub.EventFriendRequestAccepted)
	require.True(t, ok)
	assert.JSONEq(t,
		`{"friendship":{"id":5},"friend":{"id":2,"username":"bob"}}`,
		string(frame.Payload))
}

func TestNotifyStatusChangedReachesEveryone(t *testing.T) {
	h, _ := newTestHub()
	a := newFakeConn()
	b := newFakeConn()
	h.HandleConnect(a, 1)
	h.HandleConnect(b, 2)

	beforeA := a.count(hub.EventUserStatusChanged)
	beforeB := b.count(hub.EventUserStatusChanged)

	h.NotifyStatusChanged(map[string]any{"id": 3, "status": "dnd"})

	assert.Equal(t, beforeA+1, a.count(hub.EventUserStatusChanged))
	assert.Equal(t, beforeB+1, b.count(hub.EventUserStatusChanged))
}
