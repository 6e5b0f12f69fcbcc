package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sarosa2890/RUCord/internal/server/middleware"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// requestUserID returns the authenticated user id placed in the request
// metadata by the auth middleware.
func requestUserID(r *http.Request) int64 {
	if reqMeta, ok := middleware.ReqMetadataFrom(r.Context()); ok {
		return reqMeta.UserID
	}
	return 0
}

// pathID parses a numeric path segment; 0 means missing or malformed.
func pathID(r *http.Request, name string) int64 {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
