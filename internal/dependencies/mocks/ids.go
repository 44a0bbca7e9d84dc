package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/friendlytable/internal/dependencies/ids"
	"github.com/mcoot/friendlytable/internal/model"
)

// MockIDs is a mock implementation of Generator for testing.
// Queued values are returned first; after that it counts up deterministically.
type MockIDs struct {
	mu sync.Mutex

	RoomIDs       []model.RoomID
	ConnectionIDs []model.PlayerID

	roomCount int
	connCount int
}

// Ensure MockIDs implements Generator
var _ ids.Generator = (*MockIDs)(nil)

// NewMockIDs creates a new MockIDs
func NewMockIDs() *MockIDs {
	return &MockIDs{}
}

// RoomID returns the next queued room ID, or room-N
func (m *MockIDs) RoomID() model.RoomID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.RoomIDs) > 0 {
		id := m.RoomIDs[0]
		m.RoomIDs = m.RoomIDs[1:]
		return id
	}
	m.roomCount++
	return model.RoomID(fmt.Sprintf("room-%d", m.roomCount))
}

// ConnectionID returns the next queued connection ID, or conn-N
func (m *MockIDs) ConnectionID() model.PlayerID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ConnectionIDs) > 0 {
		id := m.ConnectionIDs[0]
		m.ConnectionIDs = m.ConnectionIDs[1:]
		return id
	}
	m.connCount++
	return model.PlayerID(fmt.Sprintf("conn-%d", m.connCount))
}

// QueueRoomID adds values to the room ID queue
func (m *MockIDs) QueueRoomID(values ...model.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RoomIDs = append(m.RoomIDs, values...)
}

// QueueConnectionID adds values to the connection ID queue
func (m *MockIDs) QueueConnectionID(values ...model.PlayerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ConnectionIDs = append(m.ConnectionIDs, values...)
}
