package response

import (
	"encoding/json"
	"fmt"

	"github.com/mcoot/friendlytable/internal/model"
)

// Envelope is the frame exchanged over the websocket in both directions
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ErrorData is the body of an "error" frame
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RoomEntered is the body of room_created and room_joined frames
type RoomEntered struct {
	Room     Room   `json:"room"`
	PlayerID string `json:"player_id"`
}

// PlayerJoined is the body of player_joined frames
type PlayerJoined struct {
	Player Player `json:"player"`
}

// PlayerReconnected is the body of player_reconnected frames
type PlayerReconnected struct {
	PreviousID string `json:"previous_id"`
	Player     Player `json:"player"`
}

// PlayerLeft is the body of player_left frames
type PlayerLeft struct {
	PlayerID string `json:"player_id"`
}

// PlayerRemoved is the body of player_removed frames
type PlayerRemoved struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
}

// HostChanged is the body of host_changed frames
type HostChanged struct {
	OldHostID string `json:"old_host_id"`
	NewHostID string `json:"new_host_id"`
}

// SeatClaimed is the body of seat_claimed frames
type SeatClaimed struct {
	SeatIndex int    `json:"seat_index"`
	Player    Player `json:"player"`
}

// SeatReleased is the body of seat_released frames
type SeatReleased struct {
	SeatIndex int `json:"seat_index"`
}

// SettingsUpdated is the body of settings_updated frames
type SettingsUpdated struct {
	Settings Settings `json:"settings"`
	HostID   string   `json:"host_id"`
}

// PlayerActionMade is the body of player_action_made frames
type PlayerActionMade struct {
	PlayerID string             `json:"player_id"`
	Action   model.PlayerAction `json:"action"`
}

// ChatMessage is the body of chat_message frames
type ChatMessage struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Text        string `json:"text"`
}

// NewEnvelope marshals data into a typed frame
func NewEnvelope(eventType string, data any) (Envelope, error) {
	if data == nil {
		return Envelope{Type: eventType}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s: %w", eventType, err)
	}
	return Envelope{Type: eventType, Data: raw}, nil
}

// EnvelopeFromEvent converts a model.Event into its wire frame
func EnvelopeFromEvent(e model.Event) (Envelope, error) {
	data, err := eventData(e)
	if err != nil {
		return Envelope{}, err
	}
	return NewEnvelope(string(e.Type), data)
}

func eventData(e model.Event) (any, error) {
	switch p := e.Payload.(type) {
	case model.RoomSnapshotPayload:
		return RoomEntered{Room: RoomFromModel(p.Room), PlayerID: string(p.PlayerID)}, nil
	case model.PlayerPayload:
		return PlayerJoined{Player: PlayerFromModel(p.Player)}, nil
	case model.PlayerReconnectedPayload:
		return PlayerReconnected{PreviousID: string(p.PreviousID), Player: PlayerFromModel(p.Player)}, nil
	case model.PlayerLeftPayload:
		return PlayerLeft{PlayerID: string(p.PlayerID)}, nil
	case model.PlayerRemovedPayload:
		return PlayerRemoved{PlayerID: string(p.PlayerID), DisplayName: p.DisplayName}, nil
	case model.HostChangedPayload:
		return HostChanged{OldHostID: string(p.OldHostID), NewHostID: string(p.NewHostID)}, nil
	case model.SeatClaimedPayload:
		return SeatClaimed{SeatIndex: p.SeatIndex, Player: PlayerFromModel(p.Player)}, nil
	case model.SeatReleasedPayload:
		return SeatReleased{SeatIndex: p.SeatIndex}, nil
	case model.SettingsUpdatedPayload:
		return SettingsUpdated{Settings: SettingsFromModel(p.Settings), HostID: string(p.OwnerID)}, nil
	case model.GameStatePayload:
		return p.State, nil
	case model.PlayerActionPayload:
		return PlayerActionMade{PlayerID: string(p.PlayerID), Action: p.Action}, nil
	case model.ChatMessagePayload:
		return ChatMessage{PlayerID: string(p.PlayerID), DisplayName: p.DisplayName, Text: p.Text}, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown payload type %T for event %s", e.Payload, e.Type)
	}
}
