package redis

import "time"

// Config holds Redis connection and room registry settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// RoomTTL bounds how long a room outlives its last write, in case every
	// instance dies before evicting its players
	RoomTTL time.Duration

	// LockTTL is how long a room lock survives a crashed holder
	LockTTL time.Duration
	// LockWait is how long LockRoom waits for a busy room
	LockWait time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		RoomTTL:      24 * time.Hour,
		LockTTL:      10 * time.Second,
		LockWait:     5 * time.Second,
	}
}
