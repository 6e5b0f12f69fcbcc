package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sarosa2890/RUCord/internal/store"
)

func (a *App) issueToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.config.Server.Auth.TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.config.Server.Auth.JWTSecret))
}

type authResponse struct {
	Token string           `json:"token"`
	User  store.UserPublic `json:"user"`
}

func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Все поля обязательны")
		return
	}
	if _, exists := a.store.UserByUsername(req.Username); exists {
		writeError(w, http.StatusBadRequest, "Пользователь с таким именем уже существует")
		return
	}
	if _, exists := a.store.UserByEmail(req.Email); exists {
		writeError(w, http.StatusBadRequest, "Пользователь с таким email уже существует")
		return
	}

	hash, err := store.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	user, err := a.store.CreateUser(req.Username, req.Email, hash)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	token, err := a.issueToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user.Public()})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Имя пользователя и пароль обязательны")
		return
	}

	user, ok := a.store.UserByUsername(req.Username)
	if !ok || !store.CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Неверное имя пользователя или пароль")
		return
	}

	token, err := a.issueToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user.Public()})
}

func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := a.store.UserByID(requestUserID(r))
	if !ok {
		writeError(w, http.StatusNotFound, "Пользователь не найден")
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}
