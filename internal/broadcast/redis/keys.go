package redis

import (
	"fmt"
	"strings"

	"github.com/mcoot/friendlytable/internal/model"
)

// Key prefix for all relay channels
const keyPrefix = "friendlytable"

// roomChannel returns the pub/sub channel for a room's notifications
func roomChannel(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

// roomChannelPattern matches every room channel
func roomChannelPattern() string {
	return fmt.Sprintf("%s:room:*", keyPrefix)
}

// roomIDFromChannel extracts the room ID from a room channel name
func roomIDFromChannel(channel string) (model.RoomID, bool) {
	prefix := fmt.Sprintf("%s:room:", keyPrefix)
	if !strings.HasPrefix(channel, prefix) {
		return "", false
	}
	return model.RoomID(strings.TrimPrefix(channel, prefix)), true
}
