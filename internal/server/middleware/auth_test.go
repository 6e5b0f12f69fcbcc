package middleware_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarosa2890/RUCord/internal/server/middleware"
	"github.com/sarosa2890/RUCord/pkg/config"
)

const testSecret = "test-secret"

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

func signToken(t *testing.T, subject string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// authedHandler records the user id the auth middleware resolved.
func authedHandler(gotUserID *int64) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqMeta, ok := middleware.ReqMetadataFrom(r.Context()); ok {
			*gotUserID = reqMeta.UserID
		}
		w.WriteHeader(http.StatusOK)
	})
	return middleware.Chain(inner,
		middleware.RequestMetadataMiddleware(),
		middleware.NewAuthMiddleware(newTestLogger(), testSecret),
	)
}

func TestAuthAcceptsHeaderToken(t *testing.T) {
	var gotUserID int64
	handler := authedHandler(&gotUserID)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "42", time.Hour))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), gotUserID)
}

func TestAuthAcceptsQueryToken(t *testing.T) {
	var gotUserID int64
	handler := authedHandler(&gotUserID)

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+signToken(t, "7", time.Hour), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), gotUserID)
}

func TestAuthRejectsMissingToken(t *testing.T) {
	var gotUserID int64
	handler := authedHandler(&gotUserID)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, gotUserID)
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	var gotUserID int64
	handler := authedHandler(&gotUserID)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "42", -time.Hour))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsBadSignature(t *testing.T) {
	var gotUserID int64
	handler := authedHandler(&gotUserID)

	claims := jwt.RegisteredClaims{Subject: "42", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsNonNumericSubject(t *testing.T) {
	var gotUserID int64
	handler := authedHandler(&gotUserID)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "not-a-number", time.Hour))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// --- Connection Limiter ---

func limitedHandler(userID int64, counter func(int64) int, cycled *bool, cfg config.ConnectionLimitConfig) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	withUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if reqMeta, ok := middleware.ReqMetadataFrom(r.Context()); ok {
				reqMeta.UserID = userID
			}
			next.ServeHTTP(w, r)
		})
	}
	return middleware.Chain(inner,
		middleware.RequestMetadataMiddleware(),
		withUser,
		middleware.NewConnectionLimiter(newTestLogger(), counter, func(int64) { *cycled = true }, cfg),
	)
}

func TestLimiterAllowsUnderLimit(t *testing.T) {
	var cycled bool
	handler := limitedHandler(1, func(int64) int { return 2 }, &cycled,
		config.ConnectionLimitConfig{MaxPerUser: 3, Mode: "reject"})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, cycled)
}

func TestLimiterRejectsAtLimit(t *testing.T) {
	var cycled bool
	handler := limitedHandler(1, func(int64) int { return 3 }, &cycled,
		config.ConnectionLimitConfig{MaxPerUser: 3, Mode: "reject"})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLimiterCyclesAtLimit(t *testing.T) {
	var cycled bool
	handler := limitedHandler(1, func(int64) int { return 3 }, &cycled,
		config.ConnectionLimitConfig{MaxPerUser: 3, Mode: "cycle"})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, cycled, "cycle mode must close the oldest connection")
}

func TestLimiterDisabledWhenZero(t *testing.T) {
	var cycled bool
	handler := limitedHandler(1, func(int64) int { return 100 }, &cycled,
		config.ConnectionLimitConfig{MaxPerUser: 0, Mode: "reject"})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
