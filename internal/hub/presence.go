package hub

import (
	"errors"
	"log/slog"
	"sync"
)

// Status is a user's presence state.
type Status string

const (
	StatusOnline  Status = "online"
	StatusIdle    Status = "idle"
	StatusDND     Status = "dnd"
	StatusOffline Status = "offline"
)

// MaxStatusMessageLen bounds the optional free-text status message.
const MaxStatusMessageLen = 128

var ErrInvalidStatus = errors.New("invalid status value")

func ValidStatus(s Status) bool {
	switch s {
	case StatusOnline, StatusIdle, StatusDND, StatusOffline:
		return true
	}
	return false
}

// PresenceRecord is one user's presence. Records exist conceptually for
// every user; users with no stored record are offline.
type PresenceRecord struct {
	UserID        int64  `json:"user_id"`
	Status        Status `json:"status"`
	StatusMessage string `json:"status_message,omitempty"`
}

// Presence tracks per-user status. It is the only writer of the status
// table; the hub decides when a change is broadcast.
type Presence struct {
	mu      sync.RWMutex
	records map[int64]PresenceRecord

	logger *slog.Logger
}

func NewPresence(logger *slog.Logger) *Presence {
	return &Presence{
		records: make(map[int64]PresenceRecord),
		logger:  logger.With(slog.String("component", "presence")),
	}
}

// Get returns the user's record, defaulting to offline.
func (p *Presence) Get(userID int64) PresenceRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if rec, ok := p.records[userID]; ok {
		return rec
	}
	return PresenceRecord{UserID: userID, Status: StatusOffline}
}

// SetOnline forces the user online, keeping any status message. Returns
// the record and whether the status actually changed.
func (p *Presence) SetOnline(userID int64) (PresenceRecord, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.records[userID]
	changed := !ok || rec.Status != StatusOnline
	rec.UserID = userID
	rec.Status = StatusOnline
	p.records[userID] = rec
	if changed {
		p.logger.Debug("User online", "userID", userID)
	}
	return rec, changed
}

// SetOffline marks the user offline after their last connection goes
// away.
func (p *Presence) SetOffline(userID int64) PresenceRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec := p.records[userID]
	rec.UserID = userID
	rec.Status = StatusOffline
	p.records[userID] = rec
	p.logger.Debug("User offline", "userID", userID)
	return rec
}

// Set applies an explicit status update. Any status may be requested
// regardless of how many connections the user holds, including none;
// the next connect/disconnect transition overwrites it. The message is
// truncated to MaxStatusMessageLen.
func (p *Presence) Set(userID int64, status Status, message string) (PresenceRecord, error) {
	if !ValidStatus(status) {
		return PresenceRecord{}, ErrInvalidStatus
	}
	if len(message) > MaxStatusMessageLen {
		message = message[:MaxStatusMessageLen]
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	rec := PresenceRecord{UserID: userID, Status: status, StatusMessage: message}
	p.records[userID] = rec
	p.logger.Debug("Explicit status update", "userID", userID, "status", string(status))
	return rec, nil
}
