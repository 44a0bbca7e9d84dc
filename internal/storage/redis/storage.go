// Package redis is a room registry kept in Redis, so that several server
// instances see the same rooms and can take turns mutating them.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mcoot/friendlytable/internal/model"
	"github.com/mcoot/friendlytable/internal/storage"
)

// ErrLockTimeout is returned when a room stays locked for longer than LockWait
var ErrLockTimeout = errors.New("timed out waiting for room lock")

// Time between attempts to take a busy room lock
const lockRetryInterval = 10 * time.Millisecond

// releaseScript deletes a lock only while it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing).
// Zero lock settings take their defaults.
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	defaults := DefaultConfig()
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaults.LockTTL
	}
	if cfg.LockWait <= 0 {
		cfg.LockWait = defaults.LockWait
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(recordFromRoom(room))
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, roomKey(room.ID), data, s.cfg.RoomTTL)
	pipe.ZAdd(ctx, roomIndexKey(), redis.Z{
		Score:  float64(room.CreatedAt.UnixNano()),
		Member: string(room.ID),
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}
	return decodeRoom(data)
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, roomKey(id))
	pipe.ZRem(ctx, roomIndexKey(), string(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) RoomExists(ctx context.Context, id model.RoomID) (bool, error) {
	n, err := s.client.Exists(ctx, roomKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListRooms returns all rooms, oldest first. Index entries whose room has
// expired are pruned.
func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	ids, err := s.client.ZRange(ctx, roomIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Room{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = roomKey(model.RoomID(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	rooms := make([]*model.Room, 0, len(values))
	var stale []any
	for i, v := range values {
		data, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		room, err := decodeRoom([]byte(data))
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if len(stale) > 0 {
		if err := s.client.ZRem(ctx, roomIndexKey(), stale...).Err(); err != nil {
			return nil, err
		}
	}
	return rooms, nil
}

// LockRoom takes a lease on the room. The lease expires after LockTTL even
// if unlock is never called.
func (s *Storage) LockRoom(ctx context.Context, id model.RoomID) (func(), error) {
	key := roomLockKey(id)
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.LockWait)
	defer cancel()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := s.client.SetNX(waitCtx, key, token, s.cfg.LockTTL).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if ok {
			return func() { s.unlock(key, token) }, nil
		}

		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrLockTimeout
		}
	}
}

func (s *Storage) unlock(key, token string) {
	// The holder's context may already be done; release regardless
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = releaseScript.Run(ctx, s.client, []string{key}, token).Err()
}

// roomRecord is the stored form of a Room. Seats are rebuilt from each
// player's seat index so occupants point back into the roster.
type roomRecord struct {
	ID          model.RoomID    `json:"id"`
	DisplayName string          `json:"display_name"`
	OwnerID     model.PlayerID  `json:"owner_id"`
	Roster      []*model.Player `json:"roster"`
	Settings    model.Settings  `json:"settings"`
	Started     bool            `json:"started"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func recordFromRoom(r *model.Room) roomRecord {
	return roomRecord{
		ID:          r.ID,
		DisplayName: r.DisplayName,
		OwnerID:     r.OwnerID,
		Roster:      r.Roster,
		Settings:    r.Settings,
		Started:     r.Started,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func decodeRoom(data []byte) (*model.Room, error) {
	var rec roomRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	room := &model.Room{
		ID:          rec.ID,
		DisplayName: rec.DisplayName,
		OwnerID:     rec.OwnerID,
		Roster:      rec.Roster,
		Seats:       model.NewSeatTable(),
		Settings:    rec.Settings,
		Started:     rec.Started,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	if room.Roster == nil {
		room.Roster = []*model.Player{}
	}
	for _, p := range room.Roster {
		if p.SeatIndex == nil {
			continue
		}
		seat := room.Seats.Get(*p.SeatIndex)
		if seat == nil || !seat.IsEmpty() {
			return nil, fmt.Errorf("room %s: bad seat %d for player %s", room.ID, *p.SeatIndex, p.ID)
		}
		seat.Occupant = p
	}
	return room, nil
}
