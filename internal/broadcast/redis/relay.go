// Package redis relays room notifications through Redis pub/sub so that
// connections held by different server instances see the same stream.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/friendlytable/internal/broadcast"
	"github.com/mcoot/friendlytable/internal/model"
)

// relayMessage is the JSON body published on a room channel
type relayMessage struct {
	Type     model.EventType `json:"type,omitempty"`
	Audience model.Audience  `json:"audience"`
	Origin   model.PlayerID  `json:"origin,omitempty"`
	Data     []byte          `json:"data,omitempty"`
	Close    bool            `json:"close,omitempty"`
}

// Relay publishes events to Redis and delivers received events to local hubs
type Relay struct {
	client *redis.Client
	hubs   *broadcast.HubManager
	logger *slog.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	wg     sync.WaitGroup
}

// New creates a relay connected to the configured Redis
func New(cfg Config, hubs *broadcast.HubManager, logger *slog.Logger) (*Relay, error) {
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
		return nil, err
	}

	return NewWithClient(client, hubs, logger), nil
}

// NewWithClient creates a relay with an existing client (for testing)
func NewWithClient(client *redis.Client, hubs *broadcast.HubManager, logger *slog.Logger) *Relay {
	return &Relay{
		client: client,
		hubs:   hubs,
		logger: logger.With(slog.String("component", "redis-relay")),
	}
}

// Ensure Relay implements Publisher
var _ broadcast.Publisher = (*Relay)(nil)

// Start subscribes to every room channel and begins delivering to local hubs.
// It returns once the subscription is confirmed.
func (r *Relay) Start(ctx context.Context) error {
	pubsub := r.client.PSubscribe(ctx, roomChannelPattern())
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe to room channels: %w", err)
	}

	r.mu.Lock()
	r.pubsub = pubsub
	r.mu.Unlock()

	r.wg.Add(1)
	go r.consume(pubsub.Channel())
	r.logger.Info("relay subscribed", slog.String("pattern", roomChannelPattern()))
	return nil
}

func (r *Relay) consume(ch <-chan *redis.Message) {
	defer r.wg.Done()
	for msg := range ch {
		roomID, ok := roomIDFromChannel(msg.Channel)
		if !ok {
			continue
		}

		var rm relayMessage
		if err := json.Unmarshal([]byte(msg.Payload), &rm); err != nil {
			r.logger.Warn("discarding malformed relay message",
				slog.String("channel", msg.Channel),
				slog.Any("error", err))
			continue
		}

		if rm.Close {
			r.hubs.RemoveHub(roomID)
			continue
		}
		r.hubs.Deliver(roomID, broadcast.Message{
			Type:     rm.Type,
			Data:     rm.Data,
			Audience: rm.Audience,
			Origin:   rm.Origin,
		})
	}
}

// Publish sends the encoded event to the room's channel
func (r *Relay) Publish(ctx context.Context, event model.Event) {
	msg, err := broadcast.EncodeEvent(event)
	if err != nil {
		r.logger.Error("failed to encode event",
			slog.String("room", string(event.RoomID)),
			slog.String("event", string(event.Type)),
			slog.Any("error", err))
		return
	}
	r.publish(ctx, event.RoomID, relayMessage{
		Type:     msg.Type,
		Audience: msg.Audience,
		Origin:   msg.Origin,
		Data:     msg.Data,
	})
}

// CloseRoom tells every instance to drop the room's hub
func (r *Relay) CloseRoom(ctx context.Context, roomID model.RoomID) {
	r.publish(ctx, roomID, relayMessage{Close: true})
}

func (r *Relay) publish(ctx context.Context, roomID model.RoomID, rm relayMessage) {
	payload, err := json.Marshal(rm)
	if err != nil {
		r.logger.Error("failed to marshal relay message", slog.Any("error", err))
		return
	}
	if err := r.client.Publish(ctx, roomChannel(roomID), payload).Err(); err != nil {
		r.logger.Error("failed to publish to redis",
			slog.String("room", string(roomID)),
			slog.Any("error", err))
	}
}

// Close stops the subscription and closes the Redis connection
func (r *Relay) Close() error {
	r.mu.Lock()
	pubsub := r.pubsub
	r.pubsub = nil
	r.mu.Unlock()

	var errs []error
	if pubsub != nil {
		errs = append(errs, pubsub.Close())
		r.wg.Wait()
	}
	errs = append(errs, r.client.Close())
	return errors.Join(errs...)
}
