package server

import (
	"net/http"
	"time"

	"github.com/sarosa2890/RUCord/internal/store"
)

func (a *App) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusOK, []store.UserPublic{})
		return
	}

	users := a.store.SearchUsers(query, requestUserID(r), 20)
	out := make([]store.UserPublic, 0, len(users))
	for _, user := range users {
		out = append(out, user.Public())
	}
	writeJSON(w, http.StatusOK, out)
}

type friendRequestResponse struct {
	ID         int64             `json:"id"`
	FromUserID int64             `json:"from_user_id"`
	ToUserID   int64             `json:"to_user_id"`
	Status     string            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	FromUser   *store.UserPublic `json:"from_user,omitempty"`
	ToUser     *store.UserPublic `json:"to_user,omitempty"`
}

func (a *App) friendRequestDict(req *store.FriendRequest) friendRequestResponse {
	out := friendRequestResponse{
		ID:         req.ID,
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		Status:     req.Status,
		CreatedAt:  req.CreatedAt,
	}
	if user, ok := a.store.UserByID(req.FromUserID); ok {
		pub := user.Public()
		out.FromUser = &pub
	}
	if user, ok := a.store.UserByID(req.ToUserID); ok {
		pub := user.Public()
		out.ToUser = &pub
	}
	return out
}

func (a *App) handleListFriendRequests(w http.ResponseWriter, r *http.Request) {
	incoming, outgoing := a.store.PendingRequestsFor(requestUserID(r))

	in := make([]friendRequestResponse, 0, len(incoming))
	for _, req := range incoming {
		in = append(in, a.friendRequestDict(req))
	}
	out := make([]friendRequestResponse, 0, len(outgoing))
	for _, req := range outgoing {
		out = append(out, a.friendRequestDict(req))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"incoming": in,
		"outgoing": out,
	})
}

func (a *App) handleSendFriendRequest(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)

	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "Укажите пользователя")
		return
	}
	if req.UserID == userID {
		writeError(w, http.StatusBadRequest, "Нельзя добавить в друзья самого себя")
		return
	}

	target, ok := a.store.UserByID(req.UserID)
	if !ok {
		writeError(w, http.StatusNotFound, "Пользователь не найден")
		return
	}
	if _, already := a.store.FriendshipBetween(userID, target.ID); already {
		writeError(w, http.StatusBadRequest, "Вы уже друзья")
		return
	}

	// A pending request from the other side means both want the
	// friendship: accept it instead of creating a mirror request.
	if pending, found := a.store.PendingRequestBetween(userID, target.ID); found {
		if pending.FromUserID == userID {
			writeError(w, http.StatusBadRequest, "Запрос уже отправлен")
			return
		}
		a.acceptRequest(w, pending, userID)
		return
	}

	created, err := a.store.CreateFriendRequest(userID, target.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	dict := a.friendRequestDict(created)
	a.hub.NotifyFriendRequest(target.ID, dict)
	writeJSON(w, http.StatusCreated, dict)
}

// acceptRequest marks the request accepted, records the friendship, and
// tells the original sender over the hub. accepterID is the user
// performing the accept.
func (a *App) acceptRequest(w http.ResponseWriter, req *store.FriendRequest, accepterID int64) {
	if _, _, err := a.store.SetFriendRequestStatus(req.ID, "accepted"); err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	friendship, err := a.store.CreateFriendship(req.FromUserID, req.ToUserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	accepter, _ := a.store.UserByID(accepterID)
	if accepter != nil {
		a.hub.NotifyFriendRequestAccepted(req.FromUserID, friendship, accepter.Public())
	}

	otherID := req.FromUserID
	if otherID == accepterID {
		otherID = req.ToUserID
	}
	out := map[string]any{
		"message":    "Запрос в друзья принят",
		"friendship": friendship,
	}
	if friend, ok := a.store.UserByID(otherID); ok {
		out["friend"] = friend.Public()
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handleAcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)

	req, ok := a.store.FriendRequestByID(pathID(r, "requestID"))
	if !ok {
		writeError(w, http.StatusNotFound, "Запрос не найден")
		return
	}
	if req.ToUserID != userID {
		writeError(w, http.StatusForbidden, "Этот запрос адресован не вам")
		return
	}
	if req.Status != "pending" {
		writeError(w, http.StatusBadRequest, "Запрос уже обработан")
		return
	}
	a.acceptRequest(w, req, userID)
}

func (a *App) handleDeclineFriendRequest(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)

	req, ok := a.store.FriendRequestByID(pathID(r, "requestID"))
	if !ok {
		writeError(w, http.StatusNotFound, "Запрос не найден")
		return
	}
	if req.ToUserID != userID {
		writeError(w, http.StatusForbidden, "Этот запрос адресован не вам")
		return
	}
	if req.Status != "pending" {
		writeError(w, http.StatusBadRequest, "Запрос уже обработан")
		return
	}

	if _, _, err := a.store.SetFriendRequestStatus(req.ID, "declined"); err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Запрос в друзья отклонён"})
}

type friendResponse struct {
	FriendshipID int64            `json:"friendship_id"`
	Since        time.Time        `json:"since"`
	User         store.UserPublic `json:"user"`
}

func (a *App) handleListFriends(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)

	friendships := a.store.FriendshipsFor(userID)
	out := make([]friendResponse, 0, len(friendships))
	for _, f := range friendships {
		otherID := f.User1ID
		if otherID == userID {
			otherID = f.User2ID
		}
		friend, ok := a.store.UserByID(otherID)
		if !ok {
			continue
		}
		out = append(out, friendResponse{
			FriendshipID: f.ID,
			Since:        f.CreatedAt,
			User:         friend.Public(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	friendID := pathID(r, "friendID")

	friendship, ok := a.store.FriendshipBetween(userID, friendID)
	if !ok {
		writeError(w, http.StatusNotFound, "Вы не друзья с этим пользователем")
		return
	}
	if _, err := a.store.DeleteFriendship(friendship.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Пользователь удалён из друзей"})
}
