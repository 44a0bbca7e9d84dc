package ids

import (
	"github.com/google/uuid"

	"github.com/mcoot/friendlytable/internal/model"
)

// Generator produces identifiers and can be mocked for testing
type Generator interface {
	// RoomID returns a new globally unique room identifier
	RoomID() model.RoomID

	// ConnectionID returns a new identifier for one transport connection
	ConnectionID() model.PlayerID
}

// UUIDGenerator implements Generator with random (v4) UUIDs
type UUIDGenerator struct{}

// New creates a new UUIDGenerator
func New() *UUIDGenerator {
	return &UUIDGenerator{}
}

// RoomID returns a fresh UUID room identifier
func (g *UUIDGenerator) RoomID() model.RoomID {
	return model.RoomID(uuid.NewString())
}

// ConnectionID returns a fresh UUID connection identifier
func (g *UUIDGenerator) ConnectionID() model.PlayerID {
	return model.PlayerID(uuid.NewString())
}
