package model

// GamePhase is the betting street reported by the rules engine
type GamePhase string

const (
	PhasePreflop  GamePhase = "preflop"
	PhaseFlop     GamePhase = "flop"
	PhaseTurn     GamePhase = "turn"
	PhaseRiver    GamePhase = "river"
	PhaseShowdown GamePhase = "showdown"
)

// ActionType enumerates player actions relayed to the rules engine
type ActionType string

const (
	ActionFold  ActionType = "fold"
	ActionCheck ActionType = "check"
	ActionCall  ActionType = "call"
	ActionBet   ActionType = "bet"
	ActionRaise ActionType = "raise"
	ActionAllIn ActionType = "all_in"
)

// PlayerAction is forwarded verbatim; this service does not validate it
type PlayerAction struct {
	Type      ActionType `json:"type"`
	Amount    *int       `json:"amount,omitempty"`
	Timestamp int64      `json:"timestamp"`
}

// Card is a playing card as reported by the rules engine
type Card struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

// GameState is owned by the rules engine once a game starts
type GameState struct {
	RoomID             RoomID                    `json:"room_id"`
	Pot                int                       `json:"pot"`
	CommunityCards     []Card                    `json:"community_cards"`
	CurrentPlayerIndex int                       `json:"current_player_index"`
	DealerPosition     int                       `json:"dealer_position"`
	SmallBlindPosition int                       `json:"small_blind_position"`
	BigBlindPosition   int                       `json:"big_blind_position"`
	CurrentBet         int                       `json:"current_bet"`
	Phase              GamePhase                 `json:"game_phase"`
	PlayerHands        map[PlayerID][]Card       `json:"player_hands"`
	PlayerActions      map[PlayerID]PlayerAction `json:"player_actions"`
	TimeRemaining      int                       `json:"time_remaining"`
}
