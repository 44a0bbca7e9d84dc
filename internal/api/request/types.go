package request

import "github.com/mcoot/friendlytable/internal/model"

// Inbound frame types
const (
	TypeCreateRoom     = "create_room"
	TypeJoinRoom       = "join_room"
	TypeClaimSeat      = "claim_seat"
	TypeLeaveSeat      = "leave_seat"
	TypeUpdateSettings = "update_settings"
	TypeStartGame      = "start_game"
	TypePlayerAction   = "player_action"
	TypeChatMessage    = "chat_message"
)

// CreateRoomRequest is the body of a create_room frame
type CreateRoomRequest struct {
	RoomName    string `json:"room_name"`
	PlayerName  string `json:"player_name"`
	DeviceToken string `json:"device_token,omitempty"`
}

// JoinRoomRequest is the body of a join_room frame
type JoinRoomRequest struct {
	RoomID      string `json:"room_id"`
	PlayerName  string `json:"player_name"`
	DeviceToken string `json:"device_token,omitempty"`
}

// ClaimSeatRequest is the body of a claim_seat frame
type ClaimSeatRequest struct {
	SeatIndex *int `json:"seat_index"`
}

// UpdateSettingsRequest is the body of an update_settings frame. Omitted fields are left unchanged.
type UpdateSettingsRequest struct {
	SmallBlind       *int    `json:"small_blind,omitempty"`
	BigBlind         *int    `json:"big_blind,omitempty"`
	Ante             *int    `json:"ante,omitempty"`
	AnteEnabled      *bool   `json:"ante_enabled,omitempty"`
	StraddleEnabled  *bool   `json:"straddle_enabled,omitempty"`
	RunItTwicePolicy *string `json:"run_it_twice_policy,omitempty"`
	DecisionTimer    *int    `json:"decision_timer,omitempty"`
	StartingStack    *int    `json:"starting_stack,omitempty"`
}

// Patch converts the request into a settings patch
func (r UpdateSettingsRequest) Patch() model.SettingsPatch {
	p := model.SettingsPatch{
		SmallBlind:      r.SmallBlind,
		BigBlind:        r.BigBlind,
		Ante:            r.Ante,
		AnteEnabled:     r.AnteEnabled,
		StraddleEnabled: r.StraddleEnabled,
		DecisionTimer:   r.DecisionTimer,
		StartingStack:   r.StartingStack,
	}
	if r.RunItTwicePolicy != nil {
		policy := model.RunItTwicePolicy(*r.RunItTwicePolicy)
		p.RunItTwicePolicy = &policy
	}
	return p
}

// PlayerActionRequest is the body of a player_action frame
type PlayerActionRequest struct {
	Type      string `json:"type"`
	Amount    *int   `json:"amount,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Action converts the request into a model action
func (r PlayerActionRequest) Action() model.PlayerAction {
	return model.PlayerAction{
		Type:      model.ActionType(r.Type),
		Amount:    r.Amount,
		Timestamp: r.Timestamp,
	}
}

// ChatMessageRequest is the body of a chat_message frame
type ChatMessageRequest struct {
	Text string `json:"text"`
}
