package response

import (
	"time"

	"github.com/mcoot/friendlytable/internal/model"
)

// Player represents a player in API responses
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	IsHost      bool   `json:"is_host"`
	IsConnected bool   `json:"is_connected"`
	SeatIndex   *int   `json:"seat_index,omitempty"`
	ChipStack   *int   `json:"chip_stack,omitempty"`
}

// PlayerFromModel converts a model.Player to a response Player.
// The device token is never exposed.
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		Role:        string(p.Role),
		IsHost:      p.IsOwner(),
		IsConnected: p.IsConnected(),
		SeatIndex:   p.SeatIndex,
		ChipStack:   p.ChipStack,
	}
}

// Seat represents one table position
type Seat struct {
	Position int     `json:"position"`
	IsEmpty  bool    `json:"is_empty"`
	Player   *Player `json:"player"`
}

// Settings represents table settings
type Settings struct {
	SmallBlind       int    `json:"small_blind"`
	BigBlind         int    `json:"big_blind"`
	Ante             int    `json:"ante"`
	AnteEnabled      bool   `json:"ante_enabled"`
	StraddleEnabled  bool   `json:"straddle_enabled"`
	RunItTwicePolicy string `json:"run_it_twice_policy"`
	DecisionTimer    int    `json:"decision_timer"`
	StartingStack    int    `json:"starting_stack"`
}

// SettingsFromModel converts model.Settings
func SettingsFromModel(s model.Settings) Settings {
	return Settings{
		SmallBlind:       s.SmallBlind,
		BigBlind:         s.BigBlind,
		Ante:             s.Ante,
		AnteEnabled:      s.AnteEnabled,
		StraddleEnabled:  s.StraddleEnabled,
		RunItTwicePolicy: string(s.RunItTwicePolicy),
		DecisionTimer:    s.DecisionTimer,
		StartingStack:    s.StartingStack,
	}
}

// Room represents a room in API responses
type Room struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	HostID      string    `json:"host_id"`
	Players     []Player  `json:"players"`
	Seats       []Seat    `json:"seats"`
	Settings    Settings  `json:"settings"`
	GameStarted bool      `json:"game_started"`
	MaxPlayers  int       `json:"max_players"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoomFromModel converts model.Room
func RoomFromModel(r *model.Room) Room {
	players := make([]Player, len(r.Roster))
	for i, p := range r.Roster {
		players[i] = PlayerFromModel(p)
	}

	seats := make([]Seat, len(r.Seats))
	for i := range r.Seats {
		seat := Seat{Position: i, IsEmpty: r.Seats[i].IsEmpty()}
		if occ := r.Seats[i].Occupant; occ != nil {
			p := PlayerFromModel(occ)
			seat.Player = &p
		}
		seats[i] = seat
	}

	return Room{
		ID:          string(r.ID),
		Name:        r.DisplayName,
		HostID:      string(r.OwnerID),
		Players:     players,
		Seats:       seats,
		Settings:    SettingsFromModel(r.Settings),
		GameStarted: r.Started,
		MaxPlayers:  model.RoomCapacity,
		CreatedAt:   r.CreatedAt,
	}
}

// RoomSummary is one row of the room list
type RoomSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Players     int       `json:"players"`
	Seated      int       `json:"seated"`
	MaxPlayers  int       `json:"max_players"`
	GameStarted bool      `json:"game_started"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoomSummaryFromModel converts model.Room
func RoomSummaryFromModel(r *model.Room) RoomSummary {
	return RoomSummary{
		ID:          string(r.ID),
		Name:        r.DisplayName,
		Players:     len(r.Roster),
		Seated:      r.Seats.OccupiedCount(),
		MaxPlayers:  model.RoomCapacity,
		GameStarted: r.Started,
		CreatedAt:   r.CreatedAt,
	}
}

// RoomList is the GET /api/v1/rooms response
type RoomList struct {
	Rooms []RoomSummary `json:"rooms"`
}

// Health is the health check response
type Health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
