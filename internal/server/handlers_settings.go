package server

import (
	"net/http"

	"github.com/sarosa2890/RUCord/internal/hub"
	"github.com/sarosa2890/RUCord/internal/store"
)

func (a *App) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)

	var req struct {
		Status        *string `json:"status"`
		StatusMessage *string `json:"status_message"`
	}
	if err := decodeJSON(r, &req); err != nil || (req.Status == nil && req.StatusMessage == nil) {
		writeError(w, http.StatusBadRequest, "Укажите статус")
		return
	}
	if req.Status != nil && !hub.ValidStatus(hub.Status(*req.Status)) {
		writeError(w, http.StatusBadRequest, "Недопустимый статус")
		return
	}

	user, ok, err := a.store.UpdateUserStatus(userID, req.Status, req.StatusMessage)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Пользователь не найден")
		return
	}

	if _, err := a.hub.UpdateStatus(userID, hub.Status(user.Status), user.StatusMessage, user.Public()); err != nil {
		writeError(w, http.StatusBadRequest, "Недопустимый статус")
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

func (a *App) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := a.store.SettingsFor(requestUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (a *App) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme         *string `json:"theme"`
		Language      *string `json:"language"`
		Notifications *bool   `json:"notifications"`
		SoundEnabled  *bool   `json:"sound_enabled"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	settings, err := a.store.UpdateSettings(requestUserID(r), store.SettingsPatch{
		Theme:         req.Theme,
		Language:      req.Language,
		Notifications: req.Notifications,
		SoundEnabled:  req.SoundEnabled,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
