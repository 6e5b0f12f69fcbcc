package store

import "time"

// Meta carries the fields every stored record has: an autoincrement id
// and timestamps. Embedded in every record type.
type Meta struct {
	ID        int64      `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func (m *Meta) recordID() int64      { return m.ID }
func (m *Meta) setRecordID(id int64) { m.ID = id }

func (m *Meta) stampCreated(t time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = t
	}
}
func (m *Meta) stampUpdated(t time.Time) { m.UpdatedAt = &t }

type User struct {
	Meta
	Username      string `json:"username"`
	Email         string `json:"email"`
	PasswordHash  string `json:"password_hash"`
	Avatar        string `json:"avatar"`
	Status        string `json:"status"`
	StatusMessage string `json:"status_message,omitempty"`
}

// UserPublic is the response shape for user records, without
// credentials or email.
type UserPublic struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Avatar        string    `json:"avatar"`
	Status        string    `json:"status"`
	StatusMessage string    `json:"status_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (u *User) Public() UserPublic {
	return UserPublic{
		ID:            u.ID,
		Username:      u.Username,
		Avatar:        u.Avatar,
		Status:        u.Status,
		StatusMessage: u.StatusMessage,
		CreatedAt:     u.CreatedAt,
	}
}

type UserSettings struct {
	Meta
	UserID        int64  `json:"user_id"`
	Theme         string `json:"theme"`
	Language      string `json:"language"`
	Notifications bool   `json:"notifications"`
	SoundEnabled  bool   `json:"sound_enabled"`
}

type Server struct {
	Meta
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	OwnerID int64  `json:"owner_id"`
}

type ServerMember struct {
	Meta
	UserID   int64  `json:"user_id"`
	ServerID int64  `json:"server_id"`
	Role     string `json:"role"` // owner, admin, member
}

type Channel struct {
	Meta
	ServerID int64  `json:"server_id"`
	Name     string `json:"name"`
	Type     string `json:"type"` // text, voice
}

// Message belongs to either a server channel or a DM channel; exactly
// one of the two ids is set.
type Message struct {
	Meta
	ChannelID   *int64     `json:"channel_id"`
	DMChannelID *int64     `json:"dm_channel_id"`
	UserID      int64      `json:"user_id"`
	Content     string     `json:"content"`
	EditedAt    *time.Time `json:"edited_at,omitempty"`
}

type FriendRequest struct {
	Meta
	FromUserID int64  `json:"from_user_id"`
	ToUserID   int64  `json:"to_user_id"`
	Status     string `json:"status"` // pending, accepted, declined
}

// Friendship pairs are normalized so User1ID < User2ID.
type Friendship struct {
	Meta
	User1ID int64 `json:"user1_id"`
	User2ID int64 `json:"user2_id"`
}

// DMChannel pairs are normalized so User1ID < User2ID.
type DMChannel struct {
	Meta
	User1ID int64 `json:"user1_id"`
	User2ID int64 `json:"user2_id"`
}
