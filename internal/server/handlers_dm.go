package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/sarosa2890/RUCord/internal/store"
)

type dmChannelResponse struct {
	ID          int64            `json:"id"`
	CreatedAt   time.Time        `json:"created_at"`
	OtherUser   store.UserPublic `json:"other_user"`
	LastMessage *messageResponse `json:"last_message"`
}

func (a *App) dmChannelDict(channel *store.DMChannel, userID int64) (dmChannelResponse, bool) {
	otherID := channel.User1ID
	if otherID == userID {
		otherID = channel.User2ID
	}
	other, ok := a.store.UserByID(otherID)
	if !ok {
		return dmChannelResponse{}, false
	}

	out := dmChannelResponse{
		ID:        channel.ID,
		CreatedAt: channel.CreatedAt,
		OtherUser: other.Public(),
	}
	if last, found := a.store.LastDMMessage(channel.ID); found {
		dict := a.messageDict(last)
		out.LastMessage = &dict
	}
	return out, true
}

func (a *App) handleListDMChannels(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)

	channels := a.store.DMChannelsFor(userID)
	out := make([]dmChannelResponse, 0, len(channels))
	for _, channel := range channels {
		if dict, ok := a.dmChannelDict(channel, userID); ok {
			out = append(out, dict)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handleCreateDMChannel(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)

	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "Укажите пользователя")
		return
	}
	if req.UserID == userID {
		writeError(w, http.StatusBadRequest, "Нельзя создать личный чат с самим собой")
		return
	}
	if _, ok := a.store.UserByID(req.UserID); !ok {
		writeError(w, http.StatusNotFound, "Пользователь не найден")
		return
	}

	// Reuse an existing conversation between the pair.
	if channel, found := a.store.DMChannelBetween(userID, req.UserID); found {
		if dict, ok := a.dmChannelDict(channel, userID); ok {
			writeJSON(w, http.StatusOK, dict)
			return
		}
	}

	channel, err := a.store.CreateDMChannel(userID, req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	dict, _ := a.dmChannelDict(channel, userID)
	writeJSON(w, http.StatusCreated, dict)
}

// dmAccess checks the DM channel exists and the requester is one of its
// two participants; returns the other participant's id.
func (a *App) dmAccess(w http.ResponseWriter, userID, channelID int64) (int64, bool) {
	channel, ok := a.store.DMChannelByID(channelID)
	if !ok {
		writeError(w, http.StatusNotFound, "Чат не найден")
		return 0, false
	}
	switch userID {
	case channel.User1ID:
		return channel.User2ID, true
	case channel.User2ID:
		return channel.User1ID, true
	default:
		writeError(w, http.StatusForbidden, "У вас нет доступа к этому чату")
		return 0, false
	}
}

func (a *App) handleListDMMessages(w http.ResponseWriter, r *http.Request) {
	channelID := pathID(r, "channelID")
	if _, ok := a.dmAccess(w, requestUserID(r), channelID); !ok {
		return
	}

	msgs := a.store.MessagesForDM(channelID, messageLimit(r))
	out := make([]messageResponse, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, a.messageDict(msg))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handleCreateDMMessage(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	channelID := pathID(r, "channelID")

	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "Сообщение не может быть пустым")
		return
	}

	otherUserID, ok := a.dmAccess(w, userID, channelID)
	if !ok {
		return
	}

	msg, err := a.store.CreateDMMessage(channelID, userID, strings.TrimSpace(req.Content))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	dict := a.messageDict(msg)
	a.hub.NotifyNewDMMessage(channelID, otherUserID, dict)
	writeJSON(w, http.StatusCreated, dict)
}
