package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/friendlytable/internal/api/apierr"
	"github.com/mcoot/friendlytable/internal/api/request"
	"github.com/mcoot/friendlytable/internal/api/response"
	"github.com/mcoot/friendlytable/internal/broadcast"
	"github.com/mcoot/friendlytable/internal/model"
	"github.com/mcoot/friendlytable/internal/services/session"
)

// TypeError is the frame type used for failures
const TypeError = "error"

// connection is one open websocket
type connection struct {
	id       model.PlayerID
	ws       *websocket.Conn
	client   *broadcast.Client
	sessions *session.Manager
	hubs     *broadcast.HubManager
	logger   *slog.Logger

	// supersede closes another open connection on this instance by id
	supersede func(model.PlayerID)

	roomID model.RoomID // set once the connection enters a room
}

func (c *connection) serve(ctx context.Context) {
	c.logger.Info("connection opened")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writeLoop()
	}()

	c.readLoop(ctx)

	// Order matters: the manager publishes player_left to the room before
	// this client leaves the hub.
	c.sessions.Disconnect(ctx, c.id)
	if c.roomID != "" {
		c.hubs.Unsubscribe(c.roomID, c.client)
	}
	c.client.Close()
	<-writerDone
	_ = c.ws.Close()

	c.logger.Info("connection closed", slog.String("room", string(c.roomID)))
}

func (c *connection) readLoop(ctx context.Context) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("unexpected close", slog.Any("error", err))
			}
			return
		}

		var env response.Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Type == "" {
			c.sendError(apierr.NewInvalidRequestError("Malformed frame"))
			continue
		}

		if err := c.dispatch(ctx, env); err != nil {
			c.logger.Debug("request failed", slog.String("type", env.Type), slog.Any("error", err))
			c.sendError(err)
		}
	}
}

// writeLoop drains the client's queue onto the socket and keeps it alive with pings
func (c *connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.client.Send():
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Closed by cleanup, or by the hub because this client fell behind
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				_ = c.ws.Close()
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.drain()
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.drain()
				return
			}
		}
	}
}

// drain discards queued messages after a write failure so the reader can
// notice the dead socket and run cleanup
func (c *connection) drain() {
	_ = c.ws.Close()
	for range c.client.Send() {
	}
}

func (c *connection) dispatch(ctx context.Context, env response.Envelope) error {
	switch env.Type {
	case request.TypeCreateRoom:
		var req request.CreateRoomRequest
		if err := decode(env, &req); err != nil {
			return err
		}
		return c.createRoom(ctx, req)

	case request.TypeJoinRoom:
		var req request.JoinRoomRequest
		if err := decode(env, &req); err != nil {
			return err
		}
		return c.joinRoom(ctx, req)

	case request.TypeClaimSeat:
		var req request.ClaimSeatRequest
		if err := decode(env, &req); err != nil {
			return err
		}
		if req.SeatIndex == nil {
			return apierr.NewInvalidRequestError("seat_index is required")
		}
		_, err := c.sessions.ClaimSeat(ctx, c.id, *req.SeatIndex)
		return err

	case request.TypeLeaveSeat:
		_, err := c.sessions.LeaveSeat(ctx, c.id)
		return err

	case request.TypeUpdateSettings:
		var req request.UpdateSettingsRequest
		if err := decode(env, &req); err != nil {
			return err
		}
		_, err := c.sessions.UpdateSettings(ctx, c.id, req.Patch())
		return err

	case request.TypeStartGame:
		_, err := c.sessions.StartGame(ctx, c.id)
		return err

	case request.TypePlayerAction:
		var req request.PlayerActionRequest
		if err := decode(env, &req); err != nil {
			return err
		}
		return c.sessions.PlayerAction(ctx, c.id, req.Action())

	case request.TypeChatMessage:
		var req request.ChatMessageRequest
		if err := decode(env, &req); err != nil {
			return err
		}
		return c.sessions.Chat(ctx, c.id, req.Text)

	default:
		return apierr.NewInvalidRequestError("Unknown message type: " + env.Type)
	}
}

func (c *connection) createRoom(ctx context.Context, req request.CreateRoomRequest) error {
	if req.RoomName == "" || req.PlayerName == "" {
		return apierr.NewInvalidRequestError("room_name and player_name are required")
	}

	room, err := c.sessions.CreateRoom(ctx, c.id, req.RoomName, req.PlayerName, model.DeviceToken(req.DeviceToken))
	if err != nil {
		return err
	}
	c.hubs.Subscribe(room.ID, c.client)
	c.roomID = room.ID

	// Nobody else knows the room id yet, so this reply cannot race other room traffic
	return c.reply(string(model.EventRoomCreated), response.RoomEntered{
		Room:     response.RoomFromModel(room),
		PlayerID: string(c.id),
	})
}

func (c *connection) joinRoom(ctx context.Context, req request.JoinRoomRequest) error {
	if req.RoomID == "" || req.PlayerName == "" {
		return apierr.NewInvalidRequestError("room_id and player_name are required")
	}
	if c.roomID != "" {
		return model.ErrAlreadyInRoom
	}

	// Subscribe first so the room_joined snapshot and everything after it arrive in order
	roomID := model.RoomID(req.RoomID)
	c.hubs.Subscribe(roomID, c.client)

	result, err := c.sessions.JoinRoom(ctx, c.id, roomID, req.PlayerName, model.DeviceToken(req.DeviceToken))
	if err != nil {
		c.hubs.Unsubscribe(roomID, c.client)
		return err
	}
	c.roomID = roomID

	if result.Reconnected {
		c.logger.Info("reconnected", slog.String("room", string(roomID)), slog.String("previous_id", string(result.PreviousID)))
		// A half-open socket for the same player may still be attached here
		if c.supersede != nil {
			c.supersede(result.PreviousID)
		}
	}
	return nil
}

func decode(env response.Envelope, dst any) error {
	if len(env.Data) == 0 {
		return apierr.NewInvalidRequestError("Missing data for " + env.Type)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return apierr.NewInvalidRequestError("Invalid data for " + env.Type)
	}
	return nil
}

func (c *connection) reply(frameType string, data any) error {
	env, err := response.NewEnvelope(frameType, data)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if !c.client.Enqueue(raw) {
		return errors.New("send buffer full")
	}
	return nil
}

// sendError reports a failure to this connection only
func (c *connection) sendError(err error) {
	apiErr := apierr.Describe(err)
	if apiErr.Code == apierr.CodeInternalError {
		c.logger.Error("request failed", slog.Any("error", err))
	}
	if replyErr := c.reply(TypeError, response.ErrorData{Code: apiErr.Code, Message: apiErr.Message}); replyErr != nil {
		c.logger.Warn("failed to send error", slog.Any("error", replyErr))
	}
}
