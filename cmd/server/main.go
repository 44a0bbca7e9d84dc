package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/friendlytable/internal/api"
	broadcastredis "github.com/mcoot/friendlytable/internal/broadcast/redis"
	"github.com/mcoot/friendlytable/internal/config"
	"github.com/mcoot/friendlytable/internal/factory"
)

func main() {
	configPath := flag.String("config", os.Getenv("FRIENDLYTABLE_CONFIG"), "path to a config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	factoryCfg := factory.Config{
		Logger:           logger,
		GraceWindow:      cfg.Session.GraceWindow,
		BroadcastBackend: cfg.Broadcast.Backend,
		AllowedOrigins:   cfg.Gateway.AllowedOrigins,
	}
	if cfg.Broadcast.Backend == config.BackendRedis {
		factoryCfg.RedisConfig = &broadcastredis.Config{
			URL:          cfg.Broadcast.RedisURL,
			PoolSize:     cfg.Broadcast.PoolSize,
			MinIdleConns: cfg.Broadcast.MinIdleConns,
		}
	}

	app, err := factory.New(ctx, factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:   logger,
		Clock:    app.Clock,
		Sessions: app.Sessions,
		Gateway:  app.Gateway,
	})

	server := api.NewServer(router, cfg.Server, logger)
	if err := server.Listen(); err != nil {
		logger.Error("failed to listen", slog.String("error", err.Error()))
		_ = app.Close(context.Background())
		os.Exit(1)
	}

	go cleanupHubs(ctx, app, cfg.Session.HubCleanupInterval)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("broadcast", cfg.Broadcast.Backend),
		slog.Duration("grace_window", app.Sessions.GraceWindow()))

	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer closeCancel()
	if err := app.Close(closeCtx); err != nil {
		logger.Error("failed to close application", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	// Validated by config.Load
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// cleanupHubs drops hubs whose last connection has gone
func cleanupHubs(ctx context.Context, app *factory.App, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.HubManager.CleanupEmptyHubs()
		}
	}
}
