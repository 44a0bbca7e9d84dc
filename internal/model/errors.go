package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Room errors
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrDuplicateName    = errors.New("name is already taken in this room")
	ErrIdentityMismatch = errors.New("device is registered under a different name")
	ErrNotInRoom        = errors.New("not in a room")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrAlreadyInRoom    = errors.New("connection is already in a room")

	// Seat errors
	ErrInvalidSeat = errors.New("invalid seat position")
	ErrSeatTaken   = errors.New("seat already taken")

	// Host / game errors
	ErrNotHost          = errors.New("only the host can perform this action")
	ErrGameInProgress   = errors.New("cannot change this while a game is in progress")
	ErrNotEnoughPlayers = errors.New("need at least 2 seated players to start")
	ErrGameNotStarted   = errors.New("game has not started")
	ErrInvalidSettings  = errors.New("invalid table settings")

	// Request errors
	ErrInvalidRequest = errors.New("invalid request")
)

// IdentityMismatchError reports a reconnect attempt under the wrong name.
// It matches ErrIdentityMismatch with errors.Is.
type IdentityMismatchError struct {
	OriginalName string
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("this device is already playing as %q", e.OriginalName)
}

func (e *IdentityMismatchError) Is(target error) bool {
	return target == ErrIdentityMismatch
}
