package rules

import (
	"context"
	"log/slog"

	"github.com/mcoot/friendlytable/internal/model"
)

// Relay is the bundled Engine. It opens each hand in the preflop state and
// passes actions through without changing the table.
type Relay struct {
	logger *slog.Logger
}

// NewRelay creates a new Relay
func NewRelay(logger *slog.Logger) *Relay {
	return &Relay{logger: logger.With("component", "rules")}
}

// StartHand returns the opening state for a new hand
func (r *Relay) StartHand(ctx context.Context, setup HandSetup) (*model.GameState, error) {
	if len(setup.Seated) < 2 {
		return nil, model.ErrNotEnoughPlayers
	}

	state := &model.GameState{
		RoomID:             setup.RoomID,
		Pot:                0,
		CommunityCards:     []model.Card{},
		CurrentPlayerIndex: setup.Blinds.FirstToAct,
		DealerPosition:     setup.Blinds.Dealer,
		SmallBlindPosition: setup.Blinds.SmallBlind,
		BigBlindPosition:   setup.Blinds.BigBlind,
		CurrentBet:         setup.Settings.BigBlind,
		Phase:              model.PhasePreflop,
		PlayerHands:        map[model.PlayerID][]model.Card{},
		PlayerActions:      map[model.PlayerID]model.PlayerAction{},
		TimeRemaining:      setup.Settings.DecisionTimer,
	}

	r.logger.Debug("hand started",
		"room_id", setup.RoomID,
		"players", len(setup.Seated),
		"dealer", state.DealerPosition,
	)
	return state, nil
}

// Apply records nothing and reports no state change
func (r *Relay) Apply(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, action model.PlayerAction) (*model.GameState, error) {
	r.logger.Debug("action relayed", "room_id", roomID, "player_id", playerID, "action", action.Type)
	return nil, nil
}
