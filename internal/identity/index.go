// Package identity resolves device fingerprints to previously-seen players.
//
// The index is a reconnection hint only; the room roster stays authoritative.
// Tokens are kept as BLAKE2b digests so raw fingerprints never sit in memory
// or reach the logs.
package identity

import (
	"encoding/hex"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/mcoot/friendlytable/internal/model"
)

// Digest is the hashed form of a device token
type Digest [blake2b.Size256]byte

// String returns a short hex prefix suitable for log lines
func (d Digest) String() string {
	return hex.EncodeToString(d[:6])
}

// DigestOf hashes a device token
func DigestOf(token model.DeviceToken) Digest {
	return blake2b.Sum256([]byte(token))
}

// Index maps (room, device token) to the player that token last joined as
type Index struct {
	mu      sync.RWMutex
	entries map[model.RoomID]map[Digest]model.PlayerID
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{
		entries: make(map[model.RoomID]map[Digest]model.PlayerID),
	}
}

// Bind records that token is playing as playerID in roomID. Empty tokens are ignored.
func (x *Index) Bind(roomID model.RoomID, token model.DeviceToken, playerID model.PlayerID) {
	if token == "" {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	room, ok := x.entries[roomID]
	if !ok {
		room = make(map[Digest]model.PlayerID)
		x.entries[roomID] = room
	}
	room[DigestOf(token)] = playerID
}

// Resolve returns the player token last bound to in roomID
func (x *Index) Resolve(roomID model.RoomID, token model.DeviceToken) (model.PlayerID, bool) {
	if token == "" {
		return "", false
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	id, ok := x.entries[roomID][DigestOf(token)]
	return id, ok
}

// Unbind removes the entry for token in roomID
func (x *Index) Unbind(roomID model.RoomID, token model.DeviceToken) {
	if token == "" {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	room, ok := x.entries[roomID]
	if !ok {
		return
	}
	delete(room, DigestOf(token))
	if len(room) == 0 {
		delete(x.entries, roomID)
	}
}

// DropRoom removes every entry for roomID
func (x *Index) DropRoom(roomID model.RoomID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.entries, roomID)
}

// Len returns the number of bound tokens across all rooms
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	n := 0
	for _, room := range x.entries {
		n += len(room)
	}
	return n
}
