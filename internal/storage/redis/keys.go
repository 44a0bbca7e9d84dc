package redis

import (
	"fmt"

	"github.com/mcoot/friendlytable/internal/model"
)

// Key prefix for all registry data
const keyPrefix = "friendlytable"

// roomKey returns the Redis key for a Room
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:rooms:%s", keyPrefix, id)
}

// roomIndexKey returns the Redis key for the ZSET of room IDs scored by creation time
func roomIndexKey() string {
	return fmt.Sprintf("%s:idx:rooms", keyPrefix)
}

// roomLockKey returns the Redis key guarding mutations of a Room
func roomLockKey(id model.RoomID) string {
	return fmt.Sprintf("%s:lock:room:%s", keyPrefix, id)
}
