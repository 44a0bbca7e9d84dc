package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mcoot/friendlytable/internal/api/response"
	"github.com/mcoot/friendlytable/internal/model"
)

// Publisher delivers room events to subscribed connections.
// Publish must preserve call order per room.
type Publisher interface {
	Publish(ctx context.Context, event model.Event)
	CloseRoom(ctx context.Context, roomID model.RoomID)
}

// EncodeEvent renders an event as a websocket frame with its audience
func EncodeEvent(event model.Event) (Message, error) {
	env, err := response.EnvelopeFromEvent(event)
	if err != nil {
		return Message{}, err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s: %w", event.Type, err)
	}
	return Message{Type: event.Type, Data: data, Audience: event.Audience, Origin: event.PlayerID}, nil
}

// Broadcaster publishes events to the hubs of this process
type Broadcaster struct {
	hubManager *HubManager
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "broadcaster")),
	}
}

// Ensure Broadcaster implements Publisher
var _ Publisher = (*Broadcaster)(nil)

// Publish encodes the event and queues it on the room's hub
func (b *Broadcaster) Publish(ctx context.Context, event model.Event) {
	msg, err := EncodeEvent(event)
	if err != nil {
		b.logger.Error("failed to encode event",
			slog.String("room", string(event.RoomID)),
			slog.String("event", string(event.Type)),
			slog.Any("error", err))
		return
	}
	b.hubManager.Deliver(event.RoomID, msg)
}

// CloseRoom drops the room's hub
func (b *Broadcaster) CloseRoom(ctx context.Context, roomID model.RoomID) {
	b.hubManager.RemoveHub(roomID)
}
