package storage

import (
	"context"

	"github.com/mcoot/friendlytable/internal/model"
)

// Storage is the room registry. Rooms are never persisted across a restart
// of every process sharing the registry.
type Storage interface {
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	DeleteRoom(ctx context.Context, id model.RoomID) error
	RoomExists(ctx context.Context, id model.RoomID) (bool, error)
	ListRooms(ctx context.Context) ([]*model.Room, error)

	// LockRoom holds off every other process sharing the registry from
	// locking the same room until unlock is called. It does not exclude
	// goroutines of the calling process.
	LockRoom(ctx context.Context, id model.RoomID) (unlock func(), err error)
}
