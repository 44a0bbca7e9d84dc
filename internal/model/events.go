package model

import "time"

// EventType identifies the type of notification
type EventType string

const (
	EventRoomCreated       EventType = "room_created"
	EventRoomJoined        EventType = "room_joined"
	EventPlayerJoined      EventType = "player_joined"
	EventPlayerReconnected EventType = "player_reconnected"
	EventPlayerLeft        EventType = "player_left"
	EventPlayerRemoved     EventType = "player_removed"
	EventHostChanged       EventType = "host_changed"
	EventSeatClaimed       EventType = "seat_claimed"
	EventSeatReleased      EventType = "seat_released"
	EventSettingsUpdated   EventType = "settings_updated"
	EventGameStarted       EventType = "game_started"
	EventGameStateUpdated  EventType = "game_state_updated"
	EventPlayerActionMade  EventType = "player_action_made"
	EventChatMessage       EventType = "chat_message"
)

// Audience selects which room subscribers receive an event
type Audience int

const (
	AudienceRoom   Audience = iota // every subscriber
	AudienceOthers                 // everyone except PlayerID
	AudienceSelf                   // only PlayerID
)

// Event is a state-change notification for one room
type Event struct {
	Type      EventType
	Timestamp time.Time
	RoomID    RoomID
	PlayerID  PlayerID // The player who triggered or is affected
	Audience  Audience
	Payload   any // Type-specific data
}

// RoomSnapshotPayload is sent to a player entering a room
type RoomSnapshotPayload struct {
	Room     *Room
	PlayerID PlayerID
}

// PlayerPayload carries a copy of one player
type PlayerPayload struct {
	Player *Player
}

// PlayerReconnectedPayload links the old connection id to the new one
type PlayerReconnectedPayload struct {
	PreviousID PlayerID
	Player     *Player
}

// PlayerLeftPayload is sent when a player's transport drops
type PlayerLeftPayload struct {
	PlayerID PlayerID
}

// PlayerRemovedPayload is sent when a player is evicted for good
type PlayerRemovedPayload struct {
	PlayerID    PlayerID
	DisplayName string
}

// HostChangedPayload contains data for host changed events
type HostChangedPayload struct {
	OldHostID PlayerID
	NewHostID PlayerID
}

// SeatClaimedPayload contains data for seat claimed events
type SeatClaimedPayload struct {
	SeatIndex int
	Player    *Player
}

// SeatReleasedPayload contains data for seat released events
type SeatReleasedPayload struct {
	SeatIndex int
}

// SettingsUpdatedPayload carries the full settings after a change
type SettingsUpdatedPayload struct {
	Settings Settings
	OwnerID  PlayerID
}

// GameStatePayload carries a rules-engine state
type GameStatePayload struct {
	State *GameState
}

// PlayerActionPayload relays a player's action
type PlayerActionPayload struct {
	PlayerID PlayerID
	Action   PlayerAction
}

// ChatMessagePayload relays a chat line
type ChatMessagePayload struct {
	PlayerID    PlayerID
	DisplayName string
	Text        string
}
