package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sarosa2890/RUCord/internal/store"
)

type messageResponse struct {
	ID          int64             `json:"id"`
	ChannelID   *int64            `json:"channel_id"`
	DMChannelID *int64            `json:"dm_channel_id"`
	UserID      int64             `json:"user_id"`
	Content     string            `json:"content"`
	CreatedAt   time.Time         `json:"created_at"`
	EditedAt    *time.Time        `json:"edited_at"`
	User        *store.UserPublic `json:"user"`
}

func (a *App) messageDict(msg *store.Message) messageResponse {
	out := messageResponse{
		ID:          msg.ID,
		ChannelID:   msg.ChannelID,
		DMChannelID: msg.DMChannelID,
		UserID:      msg.UserID,
		Content:     msg.Content,
		CreatedAt:   msg.CreatedAt,
		EditedAt:    msg.EditedAt,
	}
	if user, ok := a.store.UserByID(msg.UserID); ok {
		pub := user.Public()
		out.User = &pub
	}
	return out
}

func messageLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			return limit
		}
	}
	return 50
}

// channelAccess checks the channel exists and the requester belongs to
// its server.
func (a *App) channelAccess(w http.ResponseWriter, userID, channelID int64) (*store.Channel, bool) {
	channel, ok := a.store.ChannelByID(channelID)
	if !ok {
		writeError(w, http.StatusNotFound, "Канал не найден")
		return nil, false
	}
	if _, ok := a.store.Membership(userID, channel.ServerID); !ok {
		writeError(w, http.StatusForbidden, "У вас нет доступа к этому каналу")
		return nil, false
	}
	return channel, true
}

func (a *App) handleListMessages(w http.ResponseWriter, r *http.Request) {
	channelID := pathID(r, "channelID")
	if _, ok := a.channelAccess(w, requestUserID(r), channelID); !ok {
		return
	}

	msgs := a.store.MessagesForChannel(channelID, messageLimit(r))
	out := make([]messageResponse, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, a.messageDict(msg))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	channelID := pathID(r, "channelID")

	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "Сообщение не может быть пустым")
		return
	}

	if _, ok := a.channelAccess(w, userID, channelID); !ok {
		return
	}

	msg, err := a.store.CreateChannelMessage(channelID, userID, strings.TrimSpace(req.Content))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	dict := a.messageDict(msg)
	a.hub.NotifyNewChannelMessage(channelID, dict)
	writeJSON(w, http.StatusCreated, dict)
}
