package session

import (
	"context"
	"time"

	"github.com/mcoot/friendlytable/internal/identity"
	"github.com/mcoot/friendlytable/internal/model"
)

// Delay before retrying an eviction check that could not lock its room
const evictionRetryDelay = time.Second

// evictionKey names one pending eviction. Players with a device token are
// keyed by its digest; players without one can never reconnect, so their
// connection id is stable until removal and keys them instead.
type evictionKey struct {
	roomID   model.RoomID
	device   identity.Digest
	playerID model.PlayerID
}

func keyFor(roomID model.RoomID, player *model.Player) evictionKey {
	if player.DeviceToken == "" {
		return evictionKey{roomID: roomID, playerID: player.ID}
	}
	return evictionKey{roomID: roomID, device: identity.DigestOf(player.DeviceToken)}
}

func (m *Manager) scheduleEviction(key evictionKey) {
	m.scheduleEvictionAfter(key, m.grace)
}

func (m *Manager) scheduleEvictionAfter(key evictionKey, d time.Duration) {
	if m.closed {
		return
	}
	m.cancelEviction(key)
	m.timers[key] = m.clock.AfterFunc(d, func() {
		m.evictionCheck(context.Background(), key)
	})
}

func (m *Manager) cancelEviction(key evictionKey) {
	if timer, ok := m.timers[key]; ok {
		timer.Stop()
		delete(m.timers, key)
	}
}

// resolve finds the player a key refers to, or nil
func (m *Manager) resolve(room *model.Room, key evictionKey) *model.Player {
	if key.playerID != "" {
		return room.GetPlayer(key.playerID)
	}
	for _, p := range room.Roster {
		if p.DeviceToken != "" && identity.DigestOf(p.DeviceToken) == key.device {
			return p
		}
	}
	return nil
}

// evictionCheck runs when a grace window ends. The player is re-resolved and
// only removed if they are still disconnected and the window has fully elapsed.
func (m *Manager) evictionCheck(ctx context.Context, key evictionKey) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	unlock, err := m.lockRoom(ctx, key.roomID)
	if err != nil {
		m.logger.Warn("eviction check postponed", "room_id", key.roomID, "error", err)
		m.scheduleEvictionAfter(key, evictionRetryDelay)
		return
	}
	defer unlock()

	room, err := m.storage.GetRoom(ctx, key.roomID)
	if err != nil {
		delete(m.timers, key)
		return
	}
	player := m.resolve(room, key)
	if player == nil || player.IsConnected() {
		return
	}

	elapsed := m.clock.Now().Sub(player.LastSeenAt)
	if elapsed < m.grace {
		m.scheduleEvictionAfter(key, m.grace-elapsed)
		return
	}
	m.remove(ctx, room, player)
}

// sweepExpired removes disconnected players whose window has already ended
// but whose timer has not yet fired
func (m *Manager) sweepExpired(ctx context.Context, room *model.Room, now time.Time) {
	var expired []*model.Player
	for _, p := range room.Roster {
		if !p.IsConnected() && now.Sub(p.LastSeenAt) >= m.grace {
			expired = append(expired, p)
		}
	}
	for _, p := range expired {
		m.remove(ctx, room, p)
	}
}

// remove permanently drops a player, hands the host role on if needed and
// deletes the room once nobody is left
func (m *Manager) remove(ctx context.Context, room *model.Room, player *model.Player) {
	now := m.clock.Now()
	m.cancelEviction(keyFor(room.ID, player))
	seatIndex, seated := room.RemovePlayer(player.ID)
	m.index.Unbind(room.ID, player.DeviceToken)
	delete(m.playerRooms, player.ID)
	room.UpdatedAt = now

	logger := m.logger.With("room_id", room.ID, "player_id", player.ID, "player_name", player.DisplayName)

	if len(room.Roster) == 0 {
		if err := m.storage.DeleteRoom(ctx, room.ID); err != nil {
			logger.Error("failed to delete room", "error", err)
		}
		m.index.DropRoom(room.ID)
		m.publisher.CloseRoom(ctx, room.ID)
		logger.Info("room closed")
		return
	}

	if seated {
		m.publish(ctx, room.ID, player.ID, model.AudienceRoom, model.EventSeatReleased,
			model.SeatReleasedPayload{SeatIndex: seatIndex})
	}
	m.publish(ctx, room.ID, player.ID, model.AudienceRoom, model.EventPlayerRemoved,
		model.PlayerRemovedPayload{PlayerID: player.ID, DisplayName: player.DisplayName})

	if room.OwnerID == player.ID {
		successor := room.Roster[0]
		successor.Role = model.RoleOwner
		room.OwnerID = successor.ID

		m.publish(ctx, room.ID, successor.ID, model.AudienceRoom, model.EventHostChanged,
			model.HostChangedPayload{OldHostID: player.ID, NewHostID: successor.ID})
		m.publish(ctx, room.ID, successor.ID, model.AudienceRoom, model.EventSettingsUpdated,
			model.SettingsUpdatedPayload{Settings: room.Settings, OwnerID: successor.ID})
		logger.Info("host changed", "new_host_id", successor.ID)
	}

	if err := m.storage.SaveRoom(ctx, room); err != nil {
		logger.Error("failed to save room after eviction", "error", err)
	}
	logger.Info("player removed")
}
