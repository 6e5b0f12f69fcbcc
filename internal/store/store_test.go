package store_test

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarosa2890/RUCord/internal/store"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir(), newTestLogger())
	require.NoError(t, err)
	return s
}

// --- Bootstrap and Users ---

func TestOpenBootstrapsAdmin(t *testing.T) {
	s := openTestStore(t)

	admin, ok := s.UserByUsername("admin")
	require.True(t, ok, "admin user must exist after first open")
	assert.Equal(t, "online", admin.Status)
	assert.True(t, store.CheckPassword("admin123", admin.PasswordHash))
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	_, err := store.Open(dir, newTestLogger())
	require.NoError(t, err)

	s, err := store.Open(dir, newTestLogger())
	require.NoError(t, err)

	admins := s.SearchUsers("admin", 0, 10)
	assert.Len(t, admins, 1, "reopening must not duplicate the admin user")
}

func TestCreateUserAssignsDefaults(t *testing.T) {
	s := openTestStore(t)

	hash, err := store.HashPassword("secret")
	require.NoError(t, err)
	user, err := s.CreateUser("alice", "alice@example.com", hash)
	require.NoError(t, err)

	assert.Equal(t, "offline", user.Status)
	assert.Equal(t, "default_avatar.png", user.Avatar)
	assert.False(t, user.CreatedAt.IsZero())

	settings, err := s.SettingsFor(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "dark", settings.Theme)
	assert.Equal(t, "ru", settings.Language)
	assert.True(t, settings.Notifications)
	assert.True(t, settings.SoundEnabled)
}

func TestUserLookupsAndSearch(t *testing.T) {
	s := openTestStore(t)
	alice, _ := s.CreateUser("alice", "alice@example.com", "h")
	s.CreateUser("alina", "alina@example.com", "h")
	s.CreateUser("bob", "bob@example.com", "h")

	_, ok := s.UserByEmail("alice@example.com")
	assert.True(t, ok)
	_, ok = s.UserByEmail("nobody@example.com")
	assert.False(t, ok)

	// Case-insensitive substring match, excluding the requester.
	results := s.SearchUsers("ALI", alice.ID, 10)
	require.Len(t, results, 1)
	assert.Equal(t, "alina", results[0].Username)
}

func TestUpdateUserStatus(t *testing.T) {
	s := openTestStore(t)
	user, _ := s.CreateUser("alice", "alice@example.com", "h")

	status := "dnd"
	msg := "coding"
	updated, ok, err := s.UpdateUserStatus(user.ID, &status, &msg)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dnd", updated.Status)
	assert.Equal(t, "coding", updated.StatusMessage)
	assert.NotNil(t, updated.UpdatedAt)

	// Partial update: nil fields keep their values.
	newMsg := "lunch"
	updated, ok, err = s.UpdateUserStatus(user.ID, nil, &newMsg)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dnd", updated.Status)
	assert.Equal(t, "lunch", updated.StatusMessage)
}

func TestRecordsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(dir, newTestLogger())
	require.NoError(t, err)
	user, _ := s.CreateUser("alice", "alice@example.com", "h")

	reopened, err := store.Open(dir, newTestLogger())
	require.NoError(t, err)

	loaded, ok := reopened.UserByID(user.ID)
	require.True(t, ok, "user must survive a reopen")
	assert.Equal(t, "alice", loaded.Username)

	// Autoincrement continues past persisted ids.
	another, err := reopened.CreateUser("bob", "bob@example.com", "h")
	require.NoError(t, err)
	assert.Greater(t, another.ID, user.ID)
}

// --- Servers and Channels ---

func TestCreateServerEnrollsOwnerWithDefaultChannel(t *testing.T) {
	s := openTestStore(t)
	owner, _ := s.CreateUser("alice", "alice@example.com", "h")

	server, err := s.CreateServer("Мой сервер", owner.ID)
	require.NoError(t, err)

	member, ok := s.Membership(owner.ID, server.ID)
	require.True(t, ok)
	assert.Equal(t, "owner", member.Role)

	channels := s.ChannelsOf(server.ID)
	require.Len(t, channels, 1)
	assert.Equal(t, "общий", channels[0].Name)
	assert.Equal(t, "text", channels[0].Type)
}

func TestServersForListsOnlyMemberships(t *testing.T) {
	s := openTestStore(t)
	alice, _ := s.CreateUser("alice", "alice@example.com", "h")
	bob, _ := s.CreateUser("bob", "bob@example.com", "h")

	mine, _ := s.CreateServer("mine", alice.ID)
	s.CreateServer("theirs", bob.ID)

	servers := s.ServersFor(alice.ID)
	require.Len(t, servers, 1)
	assert.Equal(t, mine.ID, servers[0].ID)
}

// --- Messages ---

func TestChannelMessagesChronologicalWithLimit(t *testing.T) {
	s := openTestStore(t)
	user, _ := s.CreateUser("alice", "alice@example.com", "h")
	server, _ := s.CreateServer("srv", user.ID)
	channel := s.ChannelsOf(server.ID)[0]

	for i := 0; i < 5; i++ {
		_, err := s.CreateChannelMessage(channel.ID, user.ID, fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}

	msgs := s.MessagesForChannel(channel.ID, 3)
	require.Len(t, msgs, 3)
	assert.Equal(t, "msg 2", msgs[0].Content)
	assert.Equal(t, "msg 4", msgs[2].Content)
}

func TestDMAndChannelMessagesAreSeparate(t *testing.T) {
	s := openTestStore(t)
	alice, _ := s.CreateUser("alice", "alice@example.com", "h")
	bob, _ := s.CreateUser("bob", "bob@example.com", "h")
	server, _ := s.CreateServer("srv", alice.ID)
	channel := s.ChannelsOf(server.ID)[0]
	dm, _ := s.CreateDMChannel(alice.ID, bob.ID)

	s.CreateChannelMessage(channel.ID, alice.ID, "in channel")
	s.CreateDMMessage(dm.ID, alice.ID, "in dm")

	require.Len(t, s.MessagesForChannel(channel.ID, 0), 1)
	require.Len(t, s.MessagesForDM(dm.ID, 0), 1)

	last, ok := s.LastDMMessage(dm.ID)
	require.True(t, ok)
	assert.Equal(t, "in dm", last.Content)
}

// --- Friends ---

func TestFriendRequestFlow(t *testing.T) {
	s := openTestStore(t)
	alice, _ := s.CreateUser("alice", "alice@example.com", "h")
	bob, _ := s.CreateUser("bob", "bob@example.com", "h")

	req, err := s.CreateFriendRequest(alice.ID, bob.ID)
	require.NoError(t, err)

	// Pending lookup works in both directions.
	_, found := s.PendingRequestBetween(bob.ID, alice.ID)
	assert.True(t, found)

	incoming, outgoing := s.PendingRequestsFor(bob.ID)
	assert.Len(t, incoming, 1)
	assert.Empty(t, outgoing)

	_, _, err = s.SetFriendRequestStatus(req.ID, "accepted")
	require.NoError(t, err)
	_, found = s.PendingRequestBetween(alice.ID, bob.ID)
	assert.False(t, found, "accepted requests are no longer pending")

	friendship, err := s.CreateFriendship(bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Less(t, friendship.User1ID, friendship.User2ID, "pairs are normalized")

	_, found = s.FriendshipBetween(alice.ID, bob.ID)
	assert.True(t, found)

	deleted, err := s.DeleteFriendship(friendship.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, found = s.FriendshipBetween(alice.ID, bob.ID)
	assert.False(t, found)
}

// breakCollectionFile replaces a collection's JSON file with a
// directory so the next rewrite must fail.
func breakCollectionFile(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, name+".json")
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))
}

func TestUpdateSurfacesPersistFailure(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(dir, newTestLogger())
	require.NoError(t, err)
	user, err := s.CreateUser("alice", "alice@example.com", "h")
	require.NoError(t, err)

	breakCollectionFile(t, dir, "users")

	status := "dnd"
	_, _, err = s.UpdateUserStatus(user.ID, &status, nil)
	assert.Error(t, err, "an update that was not persisted must not report success")
}

func TestDeleteSurfacesPersistFailure(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(dir, newTestLogger())
	require.NoError(t, err)
	alice, err := s.CreateUser("alice", "alice@example.com", "h")
	require.NoError(t, err)
	bob, err := s.CreateUser("bob", "bob@example.com", "h")
	require.NoError(t, err)
	friendship, err := s.CreateFriendship(alice.ID, bob.ID)
	require.NoError(t, err)

	breakCollectionFile(t, dir, "friendships")

	_, err = s.DeleteFriendship(friendship.ID)
	assert.Error(t, err, "a delete that was not persisted must not report success")
}

// --- DM Channels ---

func TestDMChannelNormalization(t *testing.T) {
	s := openTestStore(t)
	alice, _ := s.CreateUser("alice", "alice@example.com", "h")
	bob, _ := s.CreateUser("bob", "bob@example.com", "h")

	created, err := s.CreateDMChannel(bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Less(t, created.User1ID, created.User2ID)

	// Lookup matches regardless of argument order.
	found, ok := s.DMChannelBetween(alice.ID, bob.ID)
	require.True(t, ok)
	assert.Equal(t, created.ID, found.ID)
}

// --- Authorization Facts ---

func TestDirectoryFacts(t *testing.T) {
	s := openTestStore(t)
	alice, _ := s.CreateUser("alice", "alice@example.com", "h")
	bob, _ := s.CreateUser("bob", "bob@example.com", "h")
	server, _ := s.CreateServer("srv", alice.ID)
	channel := s.ChannelsOf(server.ID)[0]
	dm, _ := s.CreateDMChannel(alice.ID, bob.ID)

	assert.True(t, s.IsServerMember(alice.ID, server.ID))
	assert.False(t, s.IsServerMember(bob.ID, server.ID))

	serverID, ok := s.ChannelServerID(channel.ID)
	require.True(t, ok)
	assert.Equal(t, server.ID, serverID)
	_, ok = s.ChannelServerID(404)
	assert.False(t, ok)

	u1, u2, ok := s.DMChannelParticipants(dm.ID)
	require.True(t, ok)
	assert.ElementsMatch(t, []int64{alice.ID, bob.ID}, []int64{u1, u2})
	_, _, ok = s.DMChannelParticipants(404)
	assert.False(t, ok)
}
