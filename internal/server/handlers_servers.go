package server

import (
	"net/http"
	"time"

	"github.com/sarosa2890/RUCord/internal/store"
)

type serverResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Icon         string    `json:"icon"`
	OwnerID      int64     `json:"owner_id"`
	CreatedAt    time.Time `json:"created_at"`
	MemberCount  int       `json:"member_count"`
	ChannelCount int       `json:"channel_count"`
}

func (a *App) serverDict(server *store.Server) serverResponse {
	return serverResponse{
		ID:           server.ID,
		Name:         server.Name,
		Icon:         server.Icon,
		OwnerID:      server.OwnerID,
		CreatedAt:    server.CreatedAt,
		MemberCount:  len(a.store.MembersOf(server.ID)),
		ChannelCount: len(a.store.ChannelsOf(server.ID)),
	}
}

func (a *App) handleListServers(w http.ResponseWriter, r *http.Request) {
	servers := a.store.ServersFor(requestUserID(r))
	out := make([]serverResponse, 0, len(servers))
	for _, server := range servers {
		out = append(out, a.serverDict(server))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handleCreateServer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Имя сервера обязательно")
		return
	}

	server, err := a.store.CreateServer(req.Name, requestUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusCreated, a.serverDict(server))
}

func (a *App) handleGetServer(w http.ResponseWriter, r *http.Request) {
	serverID := pathID(r, "serverID")
	if _, ok := a.store.Membership(requestUserID(r), serverID); !ok {
		writeError(w, http.StatusForbidden, "У вас нет доступа к этому серверу")
		return
	}
	server, ok := a.store.ServerByID(serverID)
	if !ok {
		writeError(w, http.StatusNotFound, "Сервер не найден")
		return
	}
	writeJSON(w, http.StatusOK, a.serverDict(server))
}

func (a *App) handleJoinServer(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	serverID := pathID(r, "serverID")

	server, ok := a.store.ServerByID(serverID)
	if !ok {
		writeError(w, http.StatusNotFound, "Сервер не найден")
		return
	}
	if _, already := a.store.Membership(userID, serverID); already {
		writeError(w, http.StatusBadRequest, "Вы уже участник этого сервера")
		return
	}
	if _, err := a.store.AddServerMember(userID, serverID, "member"); err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Вы присоединились к серверу",
		"server":  a.serverDict(server),
	})
}

type channelResponse struct {
	ID           int64     `json:"id"`
	ServerID     int64     `json:"server_id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
}

func channelDict(channel *store.Channel) channelResponse {
	return channelResponse{
		ID:        channel.ID,
		ServerID:  channel.ServerID,
		Name:      channel.Name,
		Type:      channel.Type,
		CreatedAt: channel.CreatedAt,
	}
}

func (a *App) handleListChannels(w http.ResponseWriter, r *http.Request) {
	serverID := pathID(r, "serverID")
	if _, ok := a.store.Membership(requestUserID(r), serverID); !ok {
		writeError(w, http.StatusForbidden, "У вас нет доступа к этому серверу")
		return
	}

	channels := a.store.ChannelsOf(serverID)
	out := make([]channelResponse, 0, len(channels))
	for _, channel := range channels {
		out = append(out, channelDict(channel))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	serverID := pathID(r, "serverID")

	var req struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Имя канала обязательно")
		return
	}
	if req.Type == "" {
		req.Type = "text"
	}

	member, ok := a.store.Membership(requestUserID(r), serverID)
	if !ok {
		writeError(w, http.StatusForbidden, "У вас нет доступа к этому серверу")
		return
	}
	if member.Role != "owner" && member.Role != "admin" {
		writeError(w, http.StatusForbidden, "У вас нет прав на создание канала")
		return
	}

	channel, err := a.store.CreateChannel(serverID, req.Name, req.Type)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusCreated, channelDict(channel))
}
