package model

import "time"

// RoomID uniquely identifies a table session
type RoomID string

// RoomCapacity is the maximum roster size
const RoomCapacity = 10

// Room is one table session with its own roster, seats and settings
type Room struct {
	ID          RoomID
	DisplayName string
	OwnerID     PlayerID
	Roster      []*Player // insertion order; earliest joined first
	Seats       SeatTable
	Settings    Settings
	Started     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewRoom returns an empty, unstarted room with default settings
func NewRoom(id RoomID, name string, now time.Time) *Room {
	return &Room{
		ID:          id,
		DisplayName: name,
		Roster:      []*Player{},
		Seats:       NewSeatTable(),
		Settings:    DefaultSettings(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// GetPlayer returns the roster member with the given ID, or nil if not found
func (r *Room) GetPlayer(id PlayerID) *Player {
	for _, p := range r.Roster {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// FindByName returns the roster member holding displayName, or nil
func (r *Room) FindByName(displayName string) *Player {
	for _, p := range r.Roster {
		if p.DisplayName == displayName {
			return p
		}
	}
	return nil
}

// Owner returns the current owner, or nil for an empty room
func (r *Room) Owner() *Player {
	return r.GetPlayer(r.OwnerID)
}

// IsFull reports whether the roster has reached capacity
func (r *Room) IsFull() bool {
	return len(r.Roster) >= RoomCapacity
}

// AddPlayer appends a player to the roster
func (r *Room) AddPlayer(p *Player) {
	r.Roster = append(r.Roster, p)
}

// RemovePlayer drops the player from the roster and releases their seat.
// Returns the released seat index, if any.
func (r *Room) RemovePlayer(id PlayerID) (seatIndex int, seated bool) {
	for i, p := range r.Roster {
		if p.ID != id {
			continue
		}
		seatIndex, seated = r.Seats.Release(p)
		r.Roster = append(r.Roster[:i], r.Roster[i+1:]...)
		return seatIndex, seated
	}
	return 0, false
}

// SeatedPlayers returns occupants in seat order
func (r *Room) SeatedPlayers() []*Player {
	var players []*Player
	for _, idx := range r.Seats.OccupiedIndexes() {
		players = append(players, r.Seats[idx].Occupant)
	}
	return players
}

// Clone returns a deep copy whose seats point at the copied players
func (r *Room) Clone() *Room {
	c := *r
	c.Roster = make([]*Player, len(r.Roster))
	copies := make(map[*Player]*Player, len(r.Roster))
	for i, p := range r.Roster {
		c.Roster[i] = p.Clone()
		copies[p] = c.Roster[i]
	}
	for i := range c.Seats {
		if occ := r.Seats[i].Occupant; occ != nil {
			c.Seats[i].Occupant = copies[occ]
		}
	}
	return &c
}
