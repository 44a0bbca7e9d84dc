package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/friendlytable/internal/api/handler"
	"github.com/mcoot/friendlytable/internal/api/middleware"
	"github.com/mcoot/friendlytable/internal/dependencies/clock"
	"github.com/mcoot/friendlytable/internal/gateway"
	"github.com/mcoot/friendlytable/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Clock    clock.Clock
	Sessions *session.Manager
	Gateway  *gateway.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	roomHandler := handler.NewRoomHandler(cfg.Sessions)
	healthHandler := handler.NewHealthHandler(cfg.Clock.Now)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rooms", roomHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}", roomHandler.Get).Methods(http.MethodGet)

	// Websocket event endpoint. A plain route keeps method mismatches on
	// /api/v1 reported as 405.
	if cfg.Gateway != nil {
		r.Handle("/ws", loggingMiddleware(cfg.Gateway)).Methods(http.MethodGet)
	}

	return r
}
