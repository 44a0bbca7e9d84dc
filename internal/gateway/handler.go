// Package gateway is the websocket transport. Each connection gets a fresh
// connection id which becomes the player's id for as long as it stays open.
package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/friendlytable/internal/broadcast"
	"github.com/mcoot/friendlytable/internal/dependencies/ids"
	"github.com/mcoot/friendlytable/internal/model"
	"github.com/mcoot/friendlytable/internal/services/session"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Time between keepalive pings. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size
	maxMessageSize = 8 * 1024
)

// Handler upgrades requests to websockets and runs one connection per request
type Handler struct {
	sessions *session.Manager
	hubs     *broadcast.HubManager
	ids      ids.Generator
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu    sync.Mutex
	conns map[*connection]struct{}
	wg    sync.WaitGroup
}

// NewHandler creates a new Handler. An empty origin list, or one containing
// "*", accepts any origin.
func NewHandler(sessions *session.Manager, hubs *broadcast.HubManager, idGen ids.Generator, allowedOrigins []string, logger *slog.Logger) *Handler {
	h := &Handler{
		sessions: sessions,
		hubs:     hubs,
		ids:      idGen,
		logger:   logger.With(slog.String("component", "gateway")),
		conns:    make(map[*connection]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Non-browser clients send no Origin
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// ServeHTTP handles GET /ws
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	id := h.ids.ConnectionID()
	c := &connection{
		id:       id,
		ws:       ws,
		client:   broadcast.NewClient(id),
		sessions: h.sessions,
		hubs:     h.hubs,
		logger:   h.logger.With(slog.String("connection_id", string(id))),
	}
	c.supersede = h.closeConnection

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.wg.Add(1)
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.conns, c)
		h.mu.Unlock()
		h.wg.Done()
	}()

	c.serve(context.WithoutCancel(r.Context()))
}

// Shutdown closes every open websocket and waits for their disconnect
// handling to finish. http.Server.Shutdown does not close hijacked connections.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	for c := range h.conns {
		_ = c.ws.Close()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// closeConnection closes the socket of connection id if this handler holds it.
// Its serve loop then runs the usual cleanup.
func (h *Handler) closeConnection(id model.PlayerID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		if c.id == id {
			c.logger.Info("connection superseded")
			_ = c.ws.Close()
		}
	}
}

// ConnectionCount returns the number of open websockets
func (h *Handler) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
