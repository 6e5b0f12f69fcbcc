// Package store persists application records as one JSON file per
// collection under the storage directory, and supplies the hub with
// the membership facts it needs for authorization.
package store

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	logger *slog.Logger

	users          *collection[*User]
	userSettings   *collection[*UserSettings]
	servers        *collection[*Server]
	serverMembers  *collection[*ServerMember]
	channels       *collection[*Channel]
	messages       *collection[*Message]
	friendRequests *collection[*FriendRequest]
	friendships    *collection[*Friendship]
	dmChannels     *collection[*DMChannel]
}

// Open loads (or initializes) every collection under dir and ensures
// the admin user exists.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	s := &Store{logger: logger.With(slog.String("component", "store"))}

	var err error
	if s.users, err = openCollection[*User](dir, "users"); err != nil {
		return nil, err
	}
	if s.userSettings, err = openCollection[*UserSettings](dir, "user_settings"); err != nil {
		return nil, err
	}
	if s.servers, err = openCollection[*Server](dir, "servers"); err != nil {
		return nil, err
	}
	if s.serverMembers, err = openCollection[*ServerMember](dir, "server_members"); err != nil {
		return nil, err
	}
	if s.channels, err = openCollection[*Channel](dir, "channels"); err != nil {
		return nil, err
	}
	if s.messages, err = openCollection[*Message](dir, "messages"); err != nil {
		return nil, err
	}
	if s.friendRequests, err = openCollection[*FriendRequest](dir, "friend_requests"); err != nil {
		return nil, err
	}
	if s.friendships, err = openCollection[*Friendship](dir, "friendships"); err != nil {
		return nil, err
	}
	if s.dmChannels, err = openCollection[*DMChannel](dir, "dm_channels"); err != nil {
		return nil, err
	}

	if err := s.bootstrapAdmin(); err != nil {
		return nil, err
	}
	return s, nil
}

// bootstrapAdmin creates the admin/admin123 account on first start.
func (s *Store) bootstrapAdmin() error {
	if _, ok := s.UserByUsername("admin"); ok {
		return nil
	}
	s.logger.Info("Creating admin user")

	hash, err := HashPassword("admin123")
	if err != nil {
		return err
	}
	admin, err := s.CreateUser("admin", "admin@rucord.com", hash)
	if err != nil {
		return err
	}
	_, _, err = s.users.Update(admin.ID, func(u *User) { u.Status = "online" })
	return err
}

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
