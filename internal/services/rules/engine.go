package rules

import (
	"context"

	"github.com/mcoot/friendlytable/internal/model"
)

// HandSetup is everything the rules engine receives when a game starts
type HandSetup struct {
	RoomID   model.RoomID
	Seated   []*model.Player // seat order
	Settings model.Settings
	Blinds   Blinds
}

// Engine is the boundary to the poker rules implementation.
// Apply returns a nil state when the action did not change the table.
type Engine interface {
	StartHand(ctx context.Context, setup HandSetup) (*model.GameState, error)
	Apply(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, action model.PlayerAction) (*model.GameState, error)
}

// Blinds holds seat indexes for the forced-bet positions
type Blinds struct {
	Dealer     int
	SmallBlind int
	BigBlind   int
	FirstToAct int
}

// AssignBlinds places the button on the first occupied seat and the blinds on
// the following occupied seats. Heads-up, the dealer posts the small blind.
// seats must be ascending and hold at least two entries.
func AssignBlinds(seats []int) Blinds {
	n := len(seats)
	at := func(i int) int { return seats[i%n] }

	if n == 2 {
		return Blinds{
			Dealer:     at(0),
			SmallBlind: at(0),
			BigBlind:   at(1),
			FirstToAct: at(0),
		}
	}
	return Blinds{
		Dealer:     at(0),
		SmallBlind: at(1),
		BigBlind:   at(2),
		FirstToAct: at(3),
	}
}
