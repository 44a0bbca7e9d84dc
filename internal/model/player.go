package model

import "time"

// PlayerID identifies a player's current connection. It changes on every reconnect.
type PlayerID string

// DeviceToken is the client-supplied device fingerprint used only to correlate reconnects
type DeviceToken string

// PlayerRole distinguishes the room owner from everyone else
type PlayerRole string

const (
	RoleOwner  PlayerRole = "owner"
	RoleMember PlayerRole = "member"
)

// ConnectionState tracks whether a player's transport is currently attached
type ConnectionState string

const (
	StateConnected    ConnectionState = "connected"
	StateDisconnected ConnectionState = "disconnected"
)

// Player is one participant in one room.
// The entity survives reconnects; only ID, ConnectionState and LastSeenAt are rewritten.
type Player struct {
	ID              PlayerID
	DisplayName     string
	DeviceToken     DeviceToken // empty when the client sent none
	Role            PlayerRole
	ConnectionState ConnectionState
	LastSeenAt      time.Time
	JoinedAt        time.Time

	// SeatIndex and ChipStack are both nil or both set
	SeatIndex *int
	ChipStack *int
}

// IsSeated reports whether the player currently holds a seat
func (p *Player) IsSeated() bool {
	return p.SeatIndex != nil
}

// IsConnected reports whether the player's transport is attached
func (p *Player) IsConnected() bool {
	return p.ConnectionState == StateConnected
}

// IsOwner reports whether the player holds the host role
func (p *Player) IsOwner() bool {
	return p.Role == RoleOwner
}

// Clone returns a deep copy safe to hand outside the session lock
func (p *Player) Clone() *Player {
	c := *p
	if p.SeatIndex != nil {
		idx := *p.SeatIndex
		c.SeatIndex = &idx
	}
	if p.ChipStack != nil {
		chips := *p.ChipStack
		c.ChipStack = &chips
	}
	return &c
}
