// Package server hosts the HTTP surface: the REST API the clients use
// for records, and the /ws endpoint that upgrades into a hub
// connection.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/sarosa2890/RUCord/internal/hub"
	"github.com/sarosa2890/RUCord/internal/server/middleware"
	"github.com/sarosa2890/RUCord/internal/store"
	"github.com/sarosa2890/RUCord/pkg/config"
	"github.com/sarosa2890/RUCord/pkg/transport"
)

type App struct {
	logger *slog.Logger
	store  *store.Store
	hub    *hub.Hub
	wg     sync.WaitGroup
	http   *http.Server
	config *config.Config

	ctx context.Context
}

func NewApp(logger *slog.Logger, rootCtx context.Context, cfg *config.Config) (*App, error) {
	st, err := store.Open(cfg.Storage.Dir, logger)
	if err != nil {
		return nil, err
	}

	app := &App{
		logger: logger,
		store:  st,
		hub:    hub.New(logger, st),
		config: cfg,
		ctx:    rootCtx,
	}

	mux := http.NewServeMux()
	app.routes(mux)

	app.http = &http.Server{
		Addr:    cfg.Server.Address,
		Handler: mux,
		BaseContext: func(l net.Listener) context.Context {
			return app.ctx
		},
	}
	return app, nil
}

// routes mounts the REST handlers and the websocket endpoint on the
// middleware chain. Everything except register/login requires a valid
// bearer token.
func (a *App) routes(mux *http.ServeMux) {
	public := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h,
			middleware.RequestMetadataMiddleware(),
			middleware.NewRequestLogger(a.logger),
		)
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h,
			middleware.RequestMetadataMiddleware(),
			middleware.NewRequestLogger(a.logger),
			middleware.NewAuthMiddleware(a.logger, a.config.Server.Auth.JWTSecret),
		)
	}

	mux.Handle("POST /api/register", public(a.handleRegister))
	mux.Handle("POST /api/login", public(a.handleLogin))

	mux.Handle("GET /api/me", authed(a.handleMe))
	mux.Handle("PUT /api/me/status", authed(a.handleUpdateStatus))

	mux.Handle("GET /api/servers", authed(a.handleListServers))
	mux.Handle("POST /api/servers", authed(a.handleCreateServer))
	mux.Handle("GET /api/servers/{serverID}", authed(a.handleGetServer))
	mux.Handle("POST /api/servers/{serverID}/join", authed(a.handleJoinServer))
	mux.Handle("GET /api/servers/{serverID}/channels", authed(a.handleListChannels))
	mux.Handle("POST /api/servers/{serverID}/channels", authed(a.handleCreateChannel))

	mux.Handle("GET /api/channels/{channelID}/messages", authed(a.handleListMessages))
	mux.Handle("POST /api/channels/{channelID}/messages", authed(a.handleCreateMessage))

	mux.Handle("GET /api/users/search", authed(a.handleSearchUsers))
	mux.Handle("GET /api/friends/requests", authed(a.handleListFriendRequests))
	mux.Handle("POST /api/friends/requests", authed(a.handleSendFriendRequest))
	mux.Handle("POST /api/friends/requests/{requestID}/accept", authed(a.handleAcceptFriendRequest))
	mux.Handle("POST /api/friends/requests/{requestID}/decline", authed(a.handleDeclineFriendRequest))
	mux.Handle("GET /api/friends", authed(a.handleListFriends))
	mux.Handle("DELETE /api/friends/{friendID}", authed(a.handleRemoveFriend))

	mux.Handle("GET /api/dm-channels", authed(a.handleListDMChannels))
	mux.Handle("POST /api/dm-channels", authed(a.handleCreateDMChannel))
	mux.Handle("GET /api/dm-channels/{channelID}/messages", authed(a.handleListDMMessages))
	mux.Handle("POST /api/dm-channels/{channelID}/messages", authed(a.handleCreateDMMessage))

	mux.Handle("GET /api/settings", authed(a.handleGetSettings))
	mux.Handle("PUT /api/settings", authed(a.handleUpdateSettings))

	registry := a.hub.Registry()
	mux.Handle("/ws", middleware.Chain(http.HandlerFunc(a.upgradeHandler),
		middleware.RequestMetadataMiddleware(),
		middleware.NewRequestLogger(a.logger),
		middleware.NewAuthMiddleware(a.logger, a.config.Server.Auth.JWTSecret),
		middleware.NewConnectionLimiter(
			a.logger,
			registry.ConnectionCount,
			func(userID int64) {
				if oldest, found := registry.OldestConnection(userID); found {
					a.logger.Info("Cycling connection: closing oldest", "userID", userID)
					if tc, ok := oldest.(*transport.Connection); ok {
						tc.Close(errors.New("connection cycled by new connection"))
					}
				}
			},
			a.config.Server.ConnectionLimit,
		),
	))
}

func (a *App) Run() error {
	go func() {
		a.logger.Info("Server starting", slog.String("addr", a.http.Addr))
		if err := a.http.ListenAndServe(); err != http.ErrServerClosed {
			a.logger.Error("HTTP server failed", slog.Any("error", err))
		}
	}()

	<-a.ctx.Done()
	return a.Shutdown()
}

// upgradeHandler runs after the auth middleware, so the user identity
// is already established; a connection never reaches the hub
// unauthenticated.
func (a *App) upgradeHandler(w http.ResponseWriter, r *http.Request) {
	reqMeta, ok := middleware.ReqMetadataFrom(r.Context())
	if !ok || reqMeta.UserID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	connLogger := a.logger.With(
		slog.String("remoteAddr", reqMeta.IP),
		slog.Int64("userID", reqMeta.UserID),
	)

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		a.logger.Error("Failed to accept websocket connection", slog.Any("error", err))
		return
	}

	conn := transport.NewConnection(
		r.Context(),
		&a.wg,
		wsConn,
		transport.ConnectionConfig{
			ReadTimeout:    a.config.Transport.ReadTimeout,
			MaxMessageSize: a.config.Transport.MaxMessageSize,
		},
		a.hub.HandleMessage,
		nil,
		a.logger,
	)
	conn.SetOnCloseHandler(func(id uuid.UUID, err error) {
		connLogger.Info("Deregistering connection due to closure", slog.String("connID", id.String()))
		a.hub.HandleDisconnect(id)
	})

	a.hub.HandleConnect(conn, reqMeta.UserID)

	connLogger.Info("User connection fully established")
	conn.Run()
	<-conn.Done()
}

// Shutdown runs the graceful shutdown sequence.
func (a *App) Shutdown() error {
	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// close all active WebSocket connections.
	a.logger.Info("Closing all active connections...")
	for _, conn := range a.hub.Registry().AllConnections() {
		if tc, ok := conn.(*transport.Connection); ok {
			tc.Close(errors.New("graceful shutdown"))
		}
	}

	// wait for all connection goroutines to finish their cleanup.
	a.wg.Wait()
	a.logger.Info("Server shut down gracefully.")
	return nil
}
