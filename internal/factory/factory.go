package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/friendlytable/internal/broadcast"
	broadcastredis "github.com/mcoot/friendlytable/internal/broadcast/redis"
	"github.com/mcoot/friendlytable/internal/dependencies/clock"
	"github.com/mcoot/friendlytable/internal/dependencies/ids"
	"github.com/mcoot/friendlytable/internal/gateway"
	"github.com/mcoot/friendlytable/internal/identity"
	"github.com/mcoot/friendlytable/internal/services/rules"
	"github.com/mcoot/friendlytable/internal/services/session"
	"github.com/mcoot/friendlytable/internal/storage"
	"github.com/mcoot/friendlytable/internal/storage/memory"
	storageredis "github.com/mcoot/friendlytable/internal/storage/redis"
)

// Broadcast backend constants
const (
	BroadcastLocal = "local"
	BroadcastRedis = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage
	Index   *identity.Index
	// Registry is set only for the redis backend, which shares rooms
	// between instances
	Registry *storageredis.Storage

	// External dependencies
	Clock clock.Clock
	IDs   ids.Generator

	// Fan-out
	HubManager *broadcast.HubManager
	Publisher  broadcast.Publisher
	// Relay is set only for the redis backend
	Relay *broadcastredis.Relay

	// Services
	Engine   rules.Engine
	Sessions *session.Manager
	Gateway  *gateway.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// GraceWindow is how long disconnected players keep their seat
	// If zero, session.DefaultGraceWindow is used
	GraceWindow time.Duration
	// BroadcastBackend selects the fan-out ("local" or "redis")
	// If empty, defaults to "local". The redis backend also keeps the room
	// registry in Redis so any instance can serve any room.
	BroadcastBackend string
	// RedisConfig holds Redis connection settings (required if BroadcastBackend is "redis")
	RedisConfig *broadcastredis.Config
	// AllowedOrigins restricts websocket upgrades. Empty allows any origin.
	AllowedOrigins []string
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	hubs := broadcast.NewHubManager(logger)

	var store storage.Storage = memory.New()
	var registry *storageredis.Storage
	var publisher broadcast.Publisher
	var relay *broadcastredis.Relay

	backend := cfg.BroadcastBackend
	if backend == "" {
		backend = BroadcastLocal
	}

	switch backend {
	case BroadcastLocal:
		publisher = broadcast.NewBroadcaster(hubs, logger)
	case BroadcastRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when BroadcastBackend is redis")
		}
		storeCfg := storageredis.DefaultConfig()
		storeCfg.URL = cfg.RedisConfig.URL
		storeCfg.PoolSize = cfg.RedisConfig.PoolSize
		storeCfg.MinIdleConns = cfg.RedisConfig.MinIdleConns
		rs, err := storageredis.New(storeCfg)
		if err != nil {
			return nil, err
		}

		r, err := broadcastredis.New(*cfg.RedisConfig, hubs, logger)
		if err != nil {
			_ = rs.Close()
			return nil, err
		}
		if err := r.Start(ctx); err != nil {
			_ = r.Close()
			_ = rs.Close()
			return nil, err
		}
		store = rs
		registry = rs
		publisher = r
		relay = r
	default:
		return nil, errors.New("invalid BroadcastBackend: must be 'local' or 'redis'")
	}

	app := newWithDependencies(store, clock.New(), ids.New(), hubs, publisher, cfg, logger)
	app.Relay = relay
	app.Registry = registry
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	idGen ids.Generator,
	hubs *broadcast.HubManager,
	publisher broadcast.Publisher,
	cfg Config,
	logger *slog.Logger,
) *App {
	index := identity.NewIndex()
	engine := rules.NewRelay(logger)
	sessions := session.NewManager(store, index, engine, publisher, clk, idGen, logger, cfg.GraceWindow)
	gw := gateway.NewHandler(sessions, hubs, idGen, cfg.AllowedOrigins, logger)

	return &App{
		Storage:    store,
		Index:      index,
		Clock:      clk,
		IDs:        idGen,
		HubManager: hubs,
		Publisher:  publisher,
		Engine:     engine,
		Sessions:   sessions,
		Gateway:    gw,
	}
}

// Close disconnects open websockets, stops eviction timers, then tears down
// the hubs, the relay and the shared registry. Callers should shut down the HTTP server first.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	errs = append(errs, a.Gateway.Shutdown(ctx))
	a.Sessions.Close()
	a.HubManager.Close()
	if a.Relay != nil {
		errs = append(errs, a.Relay.Close())
	}
	if a.Registry != nil {
		errs = append(errs, a.Registry.Close())
	}
	return errors.Join(errs...)
}
