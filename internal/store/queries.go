package store

import (
	"sort"
	"strings"
)

func minMax(a, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}

// --- Users ---

// CreateUser adds a user with default avatar/status and their default
// settings record.
func (s *Store) CreateUser(username, email, passwordHash string) (*User, error) {
	user, err := s.users.Add(&User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Avatar:       "default_avatar.png",
		Status:       "offline",
	})
	if err != nil {
		return nil, err
	}
	_, err = s.userSettings.Add(defaultSettings(user.ID))
	return user, err
}

func defaultSettings(userID int64) *UserSettings {
	return &UserSettings{
		UserID:        userID,
		Theme:         "dark",
		Language:      "ru",
		Notifications: true,
		SoundEnabled:  true,
	}
}

func (s *Store) UserByID(id int64) (*User, bool) {
	return s.users.ByID(id)
}

func (s *Store) UserByUsername(username string) (*User, bool) {
	return s.users.FindOne(func(u *User) bool { return u.Username == username })
}

func (s *Store) UserByEmail(email string) (*User, bool) {
	return s.users.FindOne(func(u *User) bool { return u.Email == email })
}

// SearchUsers matches usernames containing the query, case-insensitive,
// excluding the requesting user.
func (s *Store) SearchUsers(query string, excludeUserID int64, limit int) []*User {
	q := strings.ToLower(query)
	matches := s.users.Find(func(u *User) bool {
		return u.ID != excludeUserID && strings.Contains(strings.ToLower(u.Username), q)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// UpdateUserStatus persists a status/status-message change.
func (s *Store) UpdateUserStatus(userID int64, status, statusMessage *string) (*User, bool, error) {
	return s.users.Update(userID, func(u *User) {
		if status != nil {
			u.Status = *status
		}
		if statusMessage != nil {
			u.StatusMessage = *statusMessage
		}
	})
}

// --- Settings ---

// SettingsFor returns the user's settings, creating defaults if absent.
func (s *Store) SettingsFor(userID int64) (*UserSettings, error) {
	if settings, ok := s.userSettings.FindOne(func(st *UserSettings) bool { return st.UserID == userID }); ok {
		return settings, nil
	}
	return s.userSettings.Add(defaultSettings(userID))
}

// SettingsPatch holds the updatable settings fields; nil means keep.
type SettingsPatch struct {
	Theme         *string
	Language      *string
	Notifications *bool
	SoundEnabled  *bool
}

func (s *Store) UpdateSettings(userID int64, patch SettingsPatch) (*UserSettings, error) {
	settings, err := s.SettingsFor(userID)
	if err != nil {
		return nil, err
	}
	updated, _, err := s.userSettings.Update(settings.ID, func(st *UserSettings) {
		if patch.Theme != nil {
			st.Theme = *patch.Theme
		}
		if patch.Language != nil {
			st.Language = *patch.Language
		}
		if patch.Notifications != nil {
			st.Notifications = *patch.Notifications
		}
		if patch.SoundEnabled != nil {
			st.SoundEnabled = *patch.SoundEnabled
		}
	})
	return updated, err
}

// --- Servers and channels ---

// CreateServer creates the server, enrolls the owner, and adds the
// default text channel.
func (s *Store) CreateServer(name string, ownerID int64) (*Server, error) {
	server, err := s.servers.Add(&Server{Name: name, Icon: "default_server.png", OwnerID: ownerID})
	if err != nil {
		return nil, err
	}
	if _, err := s.serverMembers.Add(&ServerMember{UserID: ownerID, ServerID: server.ID, Role: "owner"}); err != nil {
		return nil, err
	}
	if _, err := s.channels.Add(&Channel{ServerID: server.ID, Name: "общий", Type: "text"}); err != nil {
		return nil, err
	}
	return server, nil
}

func (s *Store) ServerByID(id int64) (*Server, bool) {
	return s.servers.ByID(id)
}

// ServersFor lists the servers the user belongs to.
func (s *Store) ServersFor(userID int64) []*Server {
	memberships := s.serverMembers.Find(func(m *ServerMember) bool { return m.UserID == userID })
	var out []*Server
	for _, m := range memberships {
		if server, ok := s.servers.ByID(m.ServerID); ok {
			out = append(out, server)
		}
	}
	return out
}

func (s *Store) Membership(userID, serverID int64) (*ServerMember, bool) {
	return s.serverMembers.FindOne(func(m *ServerMember) bool {
		return m.UserID == userID && m.ServerID == serverID
	})
}

func (s *Store) AddServerMember(userID, serverID int64, role string) (*ServerMember, error) {
	return s.serverMembers.Add(&ServerMember{UserID: userID, ServerID: serverID, Role: role})
}

func (s *Store) MembersOf(serverID int64) []*ServerMember {
	return s.serverMembers.Find(func(m *ServerMember) bool { return m.ServerID == serverID })
}

func (s *Store) ChannelsOf(serverID int64) []*Channel {
	channels := s.channels.Find(func(c *Channel) bool { return c.ServerID == serverID })
	sort.Slice(channels, func(i, j int) bool { return channels[i].CreatedAt.Before(channels[j].CreatedAt) })
	return channels
}

func (s *Store) ChannelByID(id int64) (*Channel, bool) {
	return s.channels.ByID(id)
}

func (s *Store) CreateChannel(serverID int64, name, channelType string) (*Channel, error) {
	return s.channels.Add(&Channel{ServerID: serverID, Name: name, Type: channelType})
}

// --- Messages ---

// MessagesForChannel returns up to limit most recent channel messages
// in chronological order.
func (s *Store) MessagesForChannel(channelID int64, limit int) []*Message {
	msgs := s.messages.Find(func(m *Message) bool {
		return m.ChannelID != nil && *m.ChannelID == channelID
	})
	return lastN(msgs, limit)
}

func (s *Store) MessagesForDM(dmChannelID int64, limit int) []*Message {
	msgs := s.messages.Find(func(m *Message) bool {
		return m.DMChannelID != nil && *m.DMChannelID == dmChannelID
	})
	return lastN(msgs, limit)
}

func lastN(msgs []*Message, limit int) []*Message {
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs
}

func (s *Store) CreateChannelMessage(channelID, userID int64, content string) (*Message, error) {
	return s.messages.Add(&Message{ChannelID: &channelID, UserID: userID, Content: content})
}

func (s *Store) CreateDMMessage(dmChannelID, userID int64, content string) (*Message, error) {
	return s.messages.Add(&Message{DMChannelID: &dmChannelID, UserID: userID, Content: content})
}

// LastDMMessage returns the most recent message of a DM channel.
func (s *Store) LastDMMessage(dmChannelID int64) (*Message, bool) {
	msgs := s.MessagesForDM(dmChannelID, 0)
	if len(msgs) == 0 {
		return nil, false
	}
	return msgs[len(msgs)-1], true
}

// --- Friends ---

func (s *Store) FriendRequestByID(id int64) (*FriendRequest, bool) {
	return s.friendRequests.ByID(id)
}

// PendingRequestBetween finds a pending request in either direction.
func (s *Store) PendingRequestBetween(userA, userB int64) (*FriendRequest, bool) {
	return s.friendRequests.FindOne(func(r *FriendRequest) bool {
		if r.Status != "pending" {
			return false
		}
		return (r.FromUserID == userA && r.ToUserID == userB) ||
			(r.FromUserID == userB && r.ToUserID == userA)
	})
}

func (s *Store) PendingRequestsFor(userID int64) (incoming, outgoing []*FriendRequest) {
	incoming = s.friendRequests.Find(func(r *FriendRequest) bool {
		return r.ToUserID == userID && r.Status == "pending"
	})
	outgoing = s.friendRequests.Find(func(r *FriendRequest) bool {
		return r.FromUserID == userID && r.Status == "pending"
	})
	return incoming, outgoing
}

func (s *Store) CreateFriendRequest(fromUserID, toUserID int64) (*FriendRequest, error) {
	return s.friendRequests.Add(&FriendRequest{FromUserID: fromUserID, ToUserID: toUserID, Status: "pending"})
}

func (s *Store) SetFriendRequestStatus(id int64, status string) (*FriendRequest, bool, error) {
	return s.friendRequests.Update(id, func(r *FriendRequest) { r.Status = status })
}

func (s *Store) FriendshipBetween(userA, userB int64) (*Friendship, bool) {
	u1, u2 := minMax(userA, userB)
	return s.friendships.FindOne(func(f *Friendship) bool {
		return f.User1ID == u1 && f.User2ID == u2
	})
}

func (s *Store) CreateFriendship(userA, userB int64) (*Friendship, error) {
	u1, u2 := minMax(userA, userB)
	return s.friendships.Add(&Friendship{User1ID: u1, User2ID: u2})
}

func (s *Store) FriendshipsFor(userID int64) []*Friendship {
	return s.friendships.Find(func(f *Friendship) bool {
		return f.User1ID == userID || f.User2ID == userID
	})
}

func (s *Store) DeleteFriendship(id int64) (bool, error) {
	return s.friendships.Delete(id)
}

// --- DM channels ---

func (s *Store) DMChannelByID(id int64) (*DMChannel, bool) {
	return s.dmChannels.ByID(id)
}

func (s *Store) DMChannelBetween(userA, userB int64) (*DMChannel, bool) {
	u1, u2 := minMax(userA, userB)
	return s.dmChannels.FindOne(func(ch *DMChannel) bool {
		return ch.User1ID == u1 && ch.User2ID == u2
	})
}

func (s *Store) CreateDMChannel(userA, userB int64) (*DMChannel, error) {
	u1, u2 := minMax(userA, userB)
	return s.dmChannels.Add(&DMChannel{User1ID: u1, User2ID: u2})
}

// DMChannelsFor lists the user's DM channels, newest first.
func (s *Store) DMChannelsFor(userID int64) []*DMChannel {
	channels := s.dmChannels.Find(func(ch *DMChannel) bool {
		return ch.User1ID == userID || ch.User2ID == userID
	})
	sort.Slice(channels, func(i, j int) bool { return channels[i].CreatedAt.After(channels[j].CreatedAt) })
	return channels
}

// --- Authorization facts for the hub ---

func (s *Store) IsServerMember(userID, serverID int64) bool {
	_, ok := s.Membership(userID, serverID)
	return ok
}

func (s *Store) ChannelServerID(channelID int64) (int64, bool) {
	channel, ok := s.channels.ByID(channelID)
	if !ok {
		return 0, false
	}
	return channel.ServerID, true
}

func (s *Store) DMChannelParticipants(dmChannelID int64) (int64, int64, bool) {
	channel, ok := s.dmChannels.ByID(dmChannelID)
	if !ok {
		return 0, 0, false
	}
	return channel.User1ID, channel.User2ID, true
}
