package mocks

import (
	"context"
	"sync"

	"github.com/mcoot/friendlytable/internal/broadcast"
	"github.com/mcoot/friendlytable/internal/model"
)

// MockPublisher records published events instead of delivering them
type MockPublisher struct {
	mu          sync.Mutex
	events      []model.Event
	closedRooms []model.RoomID
}

// Ensure MockPublisher implements Publisher
var _ broadcast.Publisher = (*MockPublisher)(nil)

// NewMockPublisher creates a new MockPublisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records the event
func (p *MockPublisher) Publish(ctx context.Context, event model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// CloseRoom records the room
func (p *MockPublisher) CloseRoom(ctx context.Context, roomID model.RoomID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closedRooms = append(p.closedRooms, roomID)
}

// Events returns every event published so far
func (p *MockPublisher) Events() []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Event(nil), p.events...)
}

// Types returns the type of every event published so far, in order
func (p *MockPublisher) Types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]model.EventType, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

// ClosedRooms returns the rooms passed to CloseRoom
func (p *MockPublisher) ClosedRooms() []model.RoomID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.RoomID(nil), p.closedRooms...)
}

// Reset forgets everything recorded so far
func (p *MockPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
	p.closedRooms = nil
}
