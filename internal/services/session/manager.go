package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/friendlytable/internal/broadcast"
	"github.com/mcoot/friendlytable/internal/dependencies/clock"
	"github.com/mcoot/friendlytable/internal/dependencies/ids"
	"github.com/mcoot/friendlytable/internal/identity"
	"github.com/mcoot/friendlytable/internal/model"
	"github.com/mcoot/friendlytable/internal/services/rules"
	"github.com/mcoot/friendlytable/internal/storage"
)

// DefaultGraceWindow is how long a disconnected player keeps their seat
const DefaultGraceWindow = 5 * time.Minute

// Manager owns every room's roster, seats and connection state.
//
// All operations, including eviction callbacks, run under one mutex so each
// completes before the next starts. Notifications are published while the
// lock is held, which keeps per-room delivery order equal to apply order.
type Manager struct {
	mu sync.Mutex

	storage   storage.Storage
	index     *identity.Index
	engine    rules.Engine
	publisher broadcast.Publisher
	clock     clock.Clock
	idGen     ids.Generator
	logger    *slog.Logger
	grace     time.Duration

	// connection id -> room, for connected players only
	playerRooms map[model.PlayerID]model.RoomID
	timers      map[evictionKey]clock.Timer
	closed      bool
}

// NewManager creates a new Manager. A non-positive grace uses DefaultGraceWindow.
func NewManager(
	store storage.Storage,
	index *identity.Index,
	engine rules.Engine,
	publisher broadcast.Publisher,
	clk clock.Clock,
	idGen ids.Generator,
	logger *slog.Logger,
	grace time.Duration,
) *Manager {
	if grace <= 0 {
		grace = DefaultGraceWindow
	}
	return &Manager{
		storage:     store,
		index:       index,
		engine:      engine,
		publisher:   publisher,
		clock:       clk,
		idGen:       idGen,
		logger:      logger.With("component", "session"),
		grace:       grace,
		playerRooms: make(map[model.PlayerID]model.RoomID),
		timers:      make(map[evictionKey]clock.Timer),
	}
}

// GraceWindow returns the reconnection window
func (m *Manager) GraceWindow() time.Duration {
	return m.grace
}

// JoinResult describes how a connection entered a room
type JoinResult struct {
	Room        *model.Room
	Reconnected bool
	PreviousID  model.PlayerID // the player's connection id before reconnecting
}

// CreateRoom opens a new room with the caller as its owner
func (m *Manager) CreateRoom(ctx context.Context, playerID model.PlayerID, roomName, playerName string, token model.DeviceToken) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.playerRooms[playerID]; ok {
		return nil, model.ErrAlreadyInRoom
	}
	roomID, err := m.newRoomID(ctx)
	if err != nil {
		return nil, err
	}

	now := m.clock.Now()
	room := model.NewRoom(roomID, roomName, now)
	owner := &model.Player{
		ID:              playerID,
		DisplayName:     playerName,
		DeviceToken:     token,
		Role:            model.RoleOwner,
		ConnectionState: model.StateConnected,
		LastSeenAt:      now,
		JoinedAt:        now,
	}
	room.AddPlayer(owner)
	room.OwnerID = playerID

	if err := m.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	m.index.Bind(roomID, token, playerID)
	m.playerRooms[playerID] = roomID

	m.logger.Info("room created", "room_id", roomID, "player_id", playerID, "player_name", playerName)
	return room.Clone(), nil
}

// JoinRoom adds the connection to a room, or reattaches it to the player
// holding the same device token and name. That player may still look
// connected if their old socket is half-open. The caller should already be
// subscribed to the room so the room_joined snapshot reaches it in order.
func (m *Manager) JoinRoom(ctx context.Context, playerID model.PlayerID, roomID model.RoomID, playerName string, token model.DeviceToken) (*JoinResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.playerRooms[playerID]; ok {
		return nil, model.ErrAlreadyInRoom
	}
	unlock, err := m.lockRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	room, err := m.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	now := m.clock.Now()
	m.sweepExpired(ctx, room, now)
	if len(room.Roster) == 0 {
		return nil, model.ErrRoomNotFound
	}

	if bound := m.boundPlayer(room, token); bound != nil {
		switch {
		case bound.IsConnected() && bound.DisplayName == playerName:
			// The old socket is half-open; the new connection takes the seat over
			return m.reconnect(ctx, room, bound, playerID, now)
		case bound.IsConnected():
			// The token belongs to someone still at the table; join without it
			// so their reconnect slot stays theirs.
			token = ""
		case bound.DisplayName != playerName:
			return nil, &model.IdentityMismatchError{OriginalName: bound.DisplayName}
		default:
			return m.reconnect(ctx, room, bound, playerID, now)
		}
	}

	if room.FindByName(playerName) != nil {
		return nil, model.ErrDuplicateName
	}
	if room.IsFull() {
		return nil, model.ErrRoomFull
	}

	player := &model.Player{
		ID:              playerID,
		DisplayName:     playerName,
		DeviceToken:     token,
		Role:            model.RoleMember,
		ConnectionState: model.StateConnected,
		LastSeenAt:      now,
		JoinedAt:        now,
	}
	room.AddPlayer(player)
	room.UpdatedAt = now

	if err := m.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	m.index.Bind(roomID, token, playerID)
	m.playerRooms[playerID] = roomID

	m.publish(ctx, room.ID, playerID, model.AudienceSelf, model.EventRoomJoined,
		model.RoomSnapshotPayload{Room: room.Clone(), PlayerID: playerID})
	m.publish(ctx, room.ID, playerID, model.AudienceOthers, model.EventPlayerJoined,
		model.PlayerPayload{Player: player.Clone()})

	m.logger.Info("player joined", "room_id", roomID, "player_id", playerID, "player_name", playerName)
	return &JoinResult{Room: room.Clone()}, nil
}

func (m *Manager) reconnect(ctx context.Context, room *model.Room, player *model.Player, playerID model.PlayerID, now time.Time) (*JoinResult, error) {
	previousID := player.ID
	key := keyFor(room.ID, player)

	player.ID = playerID
	player.ConnectionState = model.StateConnected
	player.LastSeenAt = now
	if room.OwnerID == previousID {
		room.OwnerID = playerID
	}
	// Seat occupants point at the player entity, so the seat follows the rewrite
	room.UpdatedAt = now

	if err := m.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	m.cancelEviction(key)
	m.index.Bind(room.ID, player.DeviceToken, playerID)
	// A superseded socket that closes later must not disconnect the new one
	delete(m.playerRooms, previousID)
	m.playerRooms[playerID] = room.ID

	m.publish(ctx, room.ID, playerID, model.AudienceSelf, model.EventRoomJoined,
		model.RoomSnapshotPayload{Room: room.Clone(), PlayerID: playerID})
	m.publish(ctx, room.ID, playerID, model.AudienceOthers, model.EventPlayerReconnected,
		model.PlayerReconnectedPayload{PreviousID: previousID, Player: player.Clone()})

	m.logger.Info("player reconnected",
		"room_id", room.ID,
		"player_id", playerID,
		"previous_id", previousID,
		"player_name", player.DisplayName,
	)
	return &JoinResult{Room: room.Clone(), Reconnected: true, PreviousID: previousID}, nil
}

// ClaimSeat moves the player into the seat at seatIndex
func (m *Manager) ClaimSeat(ctx context.Context, playerID model.PlayerID, seatIndex int) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, player, unlock, err := m.lookup(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := room.Seats.Occupy(seatIndex, player); err != nil {
		return nil, err
	}
	if player.ChipStack == nil {
		chips := room.Settings.StartingStack
		player.ChipStack = &chips
	}
	room.UpdatedAt = m.clock.Now()

	if err := m.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	m.publish(ctx, room.ID, playerID, model.AudienceRoom, model.EventSeatClaimed,
		model.SeatClaimedPayload{SeatIndex: seatIndex, Player: player.Clone()})

	m.logger.Info("seat claimed", "room_id", room.ID, "player_id", playerID, "seat", seatIndex)
	return room.Clone(), nil
}

// LeaveSeat stands the player up. It does nothing if they are not seated.
func (m *Manager) LeaveSeat(ctx context.Context, playerID model.PlayerID) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, player, unlock, err := m.lookup(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	seatIndex, ok := room.Seats.Release(player)
	if !ok {
		return room.Clone(), nil
	}
	room.UpdatedAt = m.clock.Now()

	if err := m.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	m.publish(ctx, room.ID, playerID, model.AudienceRoom, model.EventSeatReleased,
		model.SeatReleasedPayload{SeatIndex: seatIndex})

	m.logger.Info("seat released", "room_id", room.ID, "player_id", playerID, "seat", seatIndex)
	return room.Clone(), nil
}

// UpdateSettings merges patch into the room settings. Host only, before the game starts.
func (m *Manager) UpdateSettings(ctx context.Context, playerID model.PlayerID, patch model.SettingsPatch) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, _, unlock, err := m.lookup(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	if room.OwnerID != playerID {
		return nil, model.ErrNotHost
	}
	if room.Started {
		return nil, model.ErrGameInProgress
	}

	merged := room.Settings.Merge(patch)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	room.Settings = merged
	room.UpdatedAt = m.clock.Now()

	if err := m.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	m.publish(ctx, room.ID, playerID, model.AudienceRoom, model.EventSettingsUpdated,
		model.SettingsUpdatedPayload{Settings: room.Settings, OwnerID: room.OwnerID})

	m.logger.Info("settings updated", "room_id", room.ID, "player_id", playerID)
	return room.Clone(), nil
}

// StartGame marks the room started and opens the first hand. Host only.
func (m *Manager) StartGame(ctx context.Context, playerID model.PlayerID) (*model.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, _, unlock, err := m.lookup(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	if room.OwnerID != playerID {
		return nil, model.ErrNotHost
	}
	if room.Started {
		return nil, model.ErrGameInProgress
	}

	seats := room.Seats.OccupiedIndexes()
	if len(seats) < 2 {
		return nil, model.ErrNotEnoughPlayers
	}

	seated := room.SeatedPlayers()
	setup := rules.HandSetup{
		RoomID:   room.ID,
		Seated:   make([]*model.Player, len(seated)),
		Settings: room.Settings,
		Blinds:   rules.AssignBlinds(seats),
	}
	for i, p := range seated {
		setup.Seated[i] = p.Clone()
	}

	state, err := m.engine.StartHand(ctx, setup)
	if err != nil {
		return nil, err
	}

	room.Started = true
	room.UpdatedAt = m.clock.Now()
	if err := m.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	m.publish(ctx, room.ID, playerID, model.AudienceRoom, model.EventGameStarted,
		model.GameStatePayload{State: state})

	m.logger.Info("game started", "room_id", room.ID, "players", len(seats))
	return state, nil
}

// PlayerAction forwards an in-hand action to the rules engine and relays it to the room
func (m *Manager) PlayerAction(ctx context.Context, playerID model.PlayerID, action model.PlayerAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, _, unlock, err := m.lookup(ctx, playerID)
	if err != nil {
		return err
	}
	defer unlock()
	if !room.Started {
		return model.ErrGameNotStarted
	}

	state, err := m.engine.Apply(ctx, room.ID, playerID, action)
	if err != nil {
		return err
	}

	m.publish(ctx, room.ID, playerID, model.AudienceRoom, model.EventPlayerActionMade,
		model.PlayerActionPayload{PlayerID: playerID, Action: action})
	if state != nil {
		m.publish(ctx, room.ID, playerID, model.AudienceRoom, model.EventGameStateUpdated,
			model.GameStatePayload{State: state})
	}
	return nil
}

// Chat relays a line of chat to everyone in the player's room
func (m *Manager) Chat(ctx context.Context, playerID model.PlayerID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, player, unlock, err := m.lookup(ctx, playerID)
	if err != nil {
		return err
	}
	defer unlock()
	if text == "" {
		return model.ErrInvalidRequest
	}

	m.publish(ctx, room.ID, playerID, model.AudienceRoom, model.EventChatMessage,
		model.ChatMessagePayload{PlayerID: playerID, DisplayName: player.DisplayName, Text: text})
	return nil
}

// Disconnect marks the player offline and schedules their eviction.
// Unknown or already-disconnected players are ignored.
func (m *Manager) Disconnect(ctx context.Context, playerID model.PlayerID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roomID, ok := m.playerRooms[playerID]
	if !ok {
		return
	}
	delete(m.playerRooms, playerID)

	unlock, err := m.lockRoom(ctx, roomID)
	if err != nil {
		m.logger.Error("failed to lock room on disconnect", "room_id", roomID, "player_id", playerID, "error", err)
		return
	}
	defer unlock()

	room, err := m.storage.GetRoom(ctx, roomID)
	if err != nil {
		return
	}
	player := room.GetPlayer(playerID)
	if player == nil || !player.IsConnected() {
		return
	}

	now := m.clock.Now()
	player.ConnectionState = model.StateDisconnected
	player.LastSeenAt = now
	room.UpdatedAt = now

	if err := m.storage.SaveRoom(ctx, room); err != nil {
		m.logger.Error("failed to save room on disconnect", "room_id", roomID, "error", err)
		return
	}

	m.publish(ctx, roomID, playerID, model.AudienceOthers, model.EventPlayerLeft,
		model.PlayerLeftPayload{PlayerID: playerID})
	m.scheduleEviction(keyFor(roomID, player))

	m.logger.Info("player disconnected", "room_id", roomID, "player_id", playerID, "grace", m.grace)
}

// Room returns a snapshot of the room
func (m *Manager) Room(ctx context.Context, roomID model.RoomID) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, err := m.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return room.Clone(), nil
}

// Rooms returns snapshots of every open room, oldest first
func (m *Manager) Rooms(ctx context.Context) ([]*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rooms, err := m.storage.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Room, len(rooms))
	for i, room := range rooms {
		out[i] = room.Clone()
	}
	return out, nil
}

// RoomOf returns the room the connection is currently in
func (m *Manager) RoomOf(playerID model.PlayerID) (model.RoomID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	roomID, ok := m.playerRooms[playerID]
	return roomID, ok
}

// Close stops every pending eviction. Later disconnects schedule nothing.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, timer := range m.timers {
		timer.Stop()
		delete(m.timers, key)
	}
	m.closed = true
}

// lookup resolves a connected player and locks their room. The caller must
// run unlock once done with the room.
func (m *Manager) lookup(ctx context.Context, playerID model.PlayerID) (room *model.Room, player *model.Player, unlock func(), err error) {
	roomID, ok := m.playerRooms[playerID]
	if !ok {
		return nil, nil, nil, model.ErrNotInRoom
	}
	unlock, err = m.lockRoom(ctx, roomID)
	if err != nil {
		return nil, nil, nil, err
	}
	room, err = m.storage.GetRoom(ctx, roomID)
	if err != nil {
		unlock()
		return nil, nil, nil, err
	}
	player = room.GetPlayer(playerID)
	if player == nil {
		unlock()
		return nil, nil, nil, model.ErrPlayerNotFound
	}
	return room, player, unlock, nil
}

// lockRoom serialises access to roomID with every instance sharing the
// registry. Callers hold m.mu.
func (m *Manager) lockRoom(ctx context.Context, roomID model.RoomID) (func(), error) {
	unlock, err := m.storage.LockRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("lock room %s: %w", roomID, err)
	}
	return unlock, nil
}

// boundPlayer returns the roster member holding token, or nil. The index is
// a hint; rooms shared with other instances may hold bindings it never saw.
func (m *Manager) boundPlayer(room *model.Room, token model.DeviceToken) *model.Player {
	if token == "" {
		return nil
	}
	if id, ok := m.index.Resolve(room.ID, token); ok {
		if p := room.GetPlayer(id); p != nil && p.DeviceToken == token {
			return p
		}
	}
	for _, p := range room.Roster {
		if p.DeviceToken == token {
			m.index.Bind(room.ID, token, p.ID)
			return p
		}
	}
	return nil
}

func (m *Manager) newRoomID(ctx context.Context) (model.RoomID, error) {
	for {
		id := m.idGen.RoomID()
		exists, err := m.storage.RoomExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
}

func (m *Manager) publish(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, audience model.Audience, eventType model.EventType, payload any) {
	m.publisher.Publish(ctx, model.Event{
		Type:      eventType,
		Timestamp: m.clock.Now(),
		RoomID:    roomID,
		PlayerID:  playerID,
		Audience:  audience,
		Payload:   payload,
	})
}
