package factory

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/friendlytable/internal/broadcast"
	broadcastredis "github.com/mcoot/friendlytable/internal/broadcast/redis"
	"github.com/mcoot/friendlytable/internal/dependencies/mocks"
	"github.com/mcoot/friendlytable/internal/storage"
	"github.com/mcoot/friendlytable/internal/storage/memory"
	storageredis "github.com/mcoot/friendlytable/internal/storage/redis"
	"github.com/mcoot/friendlytable/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	MockIDs   *mocks.MockIDs
}

// NewTestApp creates an App configured for testing with mocked dependencies
// and the local broadcaster
func NewTestApp() *TestApp {
	logger := testutil.NopLogger()
	hubs := broadcast.NewHubManager(logger)
	return newTestApp(memory.New(), hubs, broadcast.NewBroadcaster(hubs, logger))
}

// NewRedisTestApp creates a TestApp whose rooms and notifications live in
// the Redis at addr. Several apps sharing one Redis behave like separate
// server instances.
func NewRedisTestApp(ctx context.Context, addr string) (*TestApp, error) {
	logger := testutil.NopLogger()
	hubs := broadcast.NewHubManager(logger)
	relay := broadcastredis.NewWithClient(redis.NewClient(&redis.Options{Addr: addr}), hubs, logger)
	if err := relay.Start(ctx); err != nil {
		_ = relay.Close()
		return nil, err
	}
	registry := storageredis.NewWithClient(redis.NewClient(&redis.Options{Addr: addr}), storageredis.DefaultConfig())

	app := newTestApp(registry, hubs, relay)
	app.Relay = relay
	app.Registry = registry
	return app, nil
}

func newTestApp(store storage.Storage, hubs *broadcast.HubManager, publisher broadcast.Publisher) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockIDs := mocks.NewMockIDs()

	app := newWithDependencies(store, mockClock, mockIDs, hubs, publisher, Config{}, testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		MockIDs:   mockIDs,
	}
}
