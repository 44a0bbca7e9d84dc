package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcoot/friendlytable/internal/api/response"
	"github.com/mcoot/friendlytable/internal/model"
)

// formatEvent renders a table frame as one line of text
func formatEvent(env response.Envelope) string {
	switch env.Type {
	case "room_created", "room_joined":
		var body response.RoomEntered
		if decode(env, &body) {
			return fmt.Sprintf("%s: you are %s", strings.ReplaceAll(env.Type, "_", " "), body.PlayerID)
		}
	case "player_joined":
		var body response.PlayerJoined
		if decode(env, &body) {
			return fmt.Sprintf("%s joined", describePlayer(body.Player))
		}
	case "player_reconnected":
		var body response.PlayerReconnected
		if decode(env, &body) {
			return fmt.Sprintf("%s is back (was %s)", body.Player.DisplayName, body.PreviousID)
		}
	case "player_left":
		var body response.PlayerLeft
		if decode(env, &body) {
			return fmt.Sprintf("%s disconnected", body.PlayerID)
		}
	case "player_removed":
		var body response.PlayerRemoved
		if decode(env, &body) {
			return fmt.Sprintf("%s left the table", body.DisplayName)
		}
	case "host_changed":
		var body response.HostChanged
		if decode(env, &body) {
			return fmt.Sprintf("host is now %s", body.NewHostID)
		}
	case "seat_claimed":
		var body response.SeatClaimed
		if decode(env, &body) {
			return fmt.Sprintf("%s sat down in seat %d", body.Player.DisplayName, body.SeatIndex)
		}
	case "seat_released":
		var body response.SeatReleased
		if decode(env, &body) {
			return fmt.Sprintf("seat %d is free", body.SeatIndex)
		}
	case "settings_updated":
		var body response.SettingsUpdated
		if decode(env, &body) {
			return fmt.Sprintf("settings: blinds %d/%d, timer %ds", body.Settings.SmallBlind, body.Settings.BigBlind, body.Settings.DecisionTimer)
		}
	case "game_started", "game_state_updated":
		var body model.GameState
		if decode(env, &body) {
			return fmt.Sprintf("%s: %s, pot %d, bet %d, dealer seat %d",
				strings.ReplaceAll(env.Type, "_", " "), body.Phase, body.Pot, body.CurrentBet, body.DealerPosition)
		}
	case "player_action_made":
		var body response.PlayerActionMade
		if decode(env, &body) {
			if body.Action.Amount != nil {
				return fmt.Sprintf("%s: %s %d", body.PlayerID, body.Action.Type, *body.Action.Amount)
			}
			return fmt.Sprintf("%s: %s", body.PlayerID, body.Action.Type)
		}
	case "chat_message":
		var body response.ChatMessage
		if decode(env, &body) {
			return fmt.Sprintf("<%s> %s", body.DisplayName, body.Text)
		}
	case "error":
		var body response.ErrorData
		if decode(env, &body) {
			return fmt.Sprintf("error: %s (%s)", body.Message, body.Code)
		}
	}
	return fmt.Sprintf("%s: %s", env.Type, string(env.Data))
}

func decode(env response.Envelope, dst any) bool {
	return json.Unmarshal(env.Data, dst) == nil
}
