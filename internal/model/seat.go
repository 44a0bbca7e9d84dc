package model

// SeatCount is the fixed number of positions at every table
const SeatCount = 10

// Seat is one fixed table position. Occupant is a non-owning reference into the room roster.
type Seat struct {
	Index    int
	Occupant *Player
}

// IsEmpty reports whether nobody sits here
func (s *Seat) IsEmpty() bool {
	return s.Occupant == nil
}

// SeatTable holds the room's seats. Every mutation keeps Seat.Occupant and
// Player.SeatIndex pointing at each other.
type SeatTable [SeatCount]Seat

// NewSeatTable returns a table with every seat empty
func NewSeatTable() SeatTable {
	var t SeatTable
	for i := range t {
		t[i].Index = i
	}
	return t
}

// ValidIndex reports whether index names a seat
func ValidIndex(index int) bool {
	return index >= 0 && index < SeatCount
}

// Get returns the seat at index, or nil if out of range
func (t *SeatTable) Get(index int) *Seat {
	if !ValidIndex(index) {
		return nil
	}
	return &t[index]
}

// Occupy seats the player at index, vacating any seat they already hold.
// Chip stacks are left to the caller.
func (t *SeatTable) Occupy(index int, player *Player) error {
	seat := t.Get(index)
	if seat == nil {
		return ErrInvalidSeat
	}
	if !seat.IsEmpty() {
		return ErrSeatTaken
	}

	t.vacate(player)
	seat.Occupant = player
	idx := index
	player.SeatIndex = &idx
	return nil
}

// Release vacates the player's seat and clears their stack.
// Returns the released index and false if the player was not seated.
func (t *SeatTable) Release(player *Player) (int, bool) {
	index, ok := t.vacate(player)
	if !ok {
		return 0, false
	}
	player.ChipStack = nil
	return index, true
}

func (t *SeatTable) vacate(player *Player) (int, bool) {
	if player.SeatIndex == nil {
		return 0, false
	}
	index := *player.SeatIndex
	if seat := t.Get(index); seat != nil && seat.Occupant == player {
		seat.Occupant = nil
	}
	player.SeatIndex = nil
	return index, true
}

// OccupiedIndexes returns the indexes of occupied seats in ascending order
func (t *SeatTable) OccupiedIndexes() []int {
	var indexes []int
	for i := range t {
		if !t[i].IsEmpty() {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

// OccupiedCount returns the number of occupied seats
func (t *SeatTable) OccupiedCount() int {
	return len(t.OccupiedIndexes())
}
