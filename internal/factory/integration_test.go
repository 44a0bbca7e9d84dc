package factory

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/friendlytable/internal/api/request"
	"github.com/mcoot/friendlytable/internal/api/response"
	"github.com/mcoot/friendlytable/internal/broadcast"
	"github.com/mcoot/friendlytable/internal/model"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.NoError(s.app.Close(s.ctx))
}

// subscribe attaches a fake connection to the room's hub
func (s *IntegrationSuite) subscribe(app *TestApp, roomID model.RoomID, id model.PlayerID) *broadcast.Client {
	client := broadcast.NewClient(id)
	app.HubManager.Subscribe(roomID, client)
	return client
}

func (s *IntegrationSuite) nextType(client *broadcast.Client) string {
	select {
	case data := <-client.Send():
		var env response.Envelope
		s.Require().NoError(json.Unmarshal(data, &env))
		return env.Type
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for frame")
		return ""
	}
}

// Test: a full evening at the table, from creation to the last player leaving
func (s *IntegrationSuite) TestTableLifecycle() {
	room, err := s.app.Sessions.CreateRoom(s.ctx, "conn-a", "Friday Game", "Alice", "alice-device")
	s.Require().NoError(err)
	s.Equal(model.RoomID("room-1"), room.ID)

	alice := s.subscribe(s.app, room.ID, "conn-a")

	_, err = s.app.Sessions.JoinRoom(s.ctx, "conn-b", room.ID, "Bob", "bob-device")
	s.Require().NoError(err)
	s.Equal("player_joined", s.nextType(alice))

	_, err = s.app.Sessions.ClaimSeat(s.ctx, "conn-a", 0)
	s.Require().NoError(err)
	_, err = s.app.Sessions.ClaimSeat(s.ctx, "conn-b", 1)
	s.Require().NoError(err)
	s.Equal("seat_claimed", s.nextType(alice))
	s.Equal("seat_claimed", s.nextType(alice))

	state, err := s.app.Sessions.StartGame(s.ctx, "conn-a")
	s.Require().NoError(err)
	s.Equal(0, state.DealerPosition)
	s.Equal(1, state.BigBlindPosition)
	s.Equal("game_started", s.nextType(alice))

	// Bob drops and comes back on a new connection within the window
	s.app.Sessions.Disconnect(s.ctx, "conn-b")
	s.Equal("player_left", s.nextType(alice))
	s.app.MockClock.Advance(time.Minute)

	result, err := s.app.Sessions.JoinRoom(s.ctx, "conn-b2", room.ID, "Bob", "bob-device")
	s.Require().NoError(err)
	s.True(result.Reconnected)
	s.Equal("player_reconnected", s.nextType(alice))

	snapshot, err := s.app.Sessions.Room(s.ctx, room.ID)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("conn-b2"), snapshot.Seats[1].Occupant.ID)

	// Everyone leaves for good
	s.app.Sessions.Disconnect(s.ctx, "conn-a")
	s.app.Sessions.Disconnect(s.ctx, "conn-b2")
	s.app.MockClock.Advance(s.app.Sessions.GraceWindow())

	_, err = s.app.Sessions.Room(s.ctx, room.ID)
	s.ErrorIs(err, model.ErrRoomNotFound)
	s.Equal(0, s.app.Index.Len())
	s.Nil(s.app.HubManager.GetHub(room.ID))
}

// Test: eviction after the window frees the seat and passes the host role on
func (s *IntegrationSuite) TestEvictionPassesHost() {
	room, err := s.app.Sessions.CreateRoom(s.ctx, "conn-a", "Friday Game", "Alice", "alice-device")
	s.Require().NoError(err)
	_, err = s.app.Sessions.JoinRoom(s.ctx, "conn-b", room.ID, "Bob", "bob-device")
	s.Require().NoError(err)
	_, err = s.app.Sessions.ClaimSeat(s.ctx, "conn-a", 3)
	s.Require().NoError(err)

	bob := s.subscribe(s.app, room.ID, "conn-b")

	s.app.Sessions.Disconnect(s.ctx, "conn-a")
	s.Equal("player_left", s.nextType(bob))
	s.app.MockClock.Advance(s.app.Sessions.GraceWindow())

	s.Equal("seat_released", s.nextType(bob))
	s.Equal("player_removed", s.nextType(bob))
	s.Equal("host_changed", s.nextType(bob))
	s.Equal("settings_updated", s.nextType(bob))

	snapshot, err := s.app.Sessions.Room(s.ctx, room.ID)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("conn-b"), snapshot.OwnerID)
	s.True(snapshot.Seats[3].IsEmpty())
}

// redisPair starts two apps sharing one Redis, standing in for two server instances
func (s *IntegrationSuite) redisPair() (*TestApp, *TestApp) {
	mini := miniredis.RunT(s.T())

	first, err := NewRedisTestApp(s.ctx, mini.Addr())
	s.Require().NoError(err)
	s.T().Cleanup(func() { s.NoError(first.Close(s.ctx)) })
	second, err := NewRedisTestApp(s.ctx, mini.Addr())
	s.Require().NoError(err)
	s.T().Cleanup(func() { s.NoError(second.Close(s.ctx)) })
	return first, second
}

// Test: a room created on one instance can be joined and played on another
func (s *IntegrationSuite) TestRedisBackendSharesRooms() {
	first, second := s.redisPair()

	room, err := first.Sessions.CreateRoom(s.ctx, "conn-a", "Friday Game", "Alice", "alice-device")
	s.Require().NoError(err)
	alice := s.subscribe(first, room.ID, "conn-a")

	// Bob's socket lands on the second instance
	bob := s.subscribe(second, room.ID, "conn-b")
	result, err := second.Sessions.JoinRoom(s.ctx, "conn-b", room.ID, "Bob", "bob-device")
	s.Require().NoError(err)
	s.False(result.Reconnected)
	s.Len(result.Room.Roster, 2)
	s.Equal("room_joined", s.nextType(bob))
	s.Equal("player_joined", s.nextType(alice))

	_, err = second.Sessions.ClaimSeat(s.ctx, "conn-b", 4)
	s.Require().NoError(err)
	s.Equal("seat_claimed", s.nextType(alice))
	s.Equal("seat_claimed", s.nextType(bob))

	snapshot, err := first.Sessions.Room(s.ctx, room.ID)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("conn-b"), snapshot.Seats[4].Occupant.ID)

	rooms, err := first.Sessions.Rooms(s.ctx)
	s.Require().NoError(err)
	s.Len(rooms, 1)

	// Bob drops from the second instance and comes back through the first
	second.Sessions.Disconnect(s.ctx, "conn-b")
	s.Equal("player_left", s.nextType(alice))

	again := s.subscribe(first, room.ID, "conn-b2")
	result, err = first.Sessions.JoinRoom(s.ctx, "conn-b2", room.ID, "Bob", "bob-device")
	s.Require().NoError(err)
	s.True(result.Reconnected)
	s.Equal(model.PlayerID("conn-b"), result.PreviousID)
	s.Equal("room_joined", s.nextType(again))
	s.Equal("player_reconnected", s.nextType(alice))

	// The second instance's timer fires but finds Bob back at the table
	second.MockClock.Advance(second.Sessions.GraceWindow())
	snapshot, err = first.Sessions.Room(s.ctx, room.ID)
	s.Require().NoError(err)
	bobNow := snapshot.GetPlayer("conn-b2")
	s.Require().NotNil(bobNow)
	s.True(bobNow.IsConnected())
	s.Same(bobNow, snapshot.Seats[4].Occupant)
}

// Test: websocket clients on different instances play at the same table
func (s *IntegrationSuite) TestRedisBackendAcrossGateways() {
	first, second := s.redisPair()
	first.MockIDs.QueueConnectionID("conn-a")
	second.MockIDs.QueueConnectionID("conn-b")

	serverA := httptest.NewServer(first.Gateway)
	defer serverA.Close()
	serverB := httptest.NewServer(second.Gateway)
	defer serverB.Close()

	alice := s.dial(serverA)
	s.send(alice, request.TypeCreateRoom, request.CreateRoomRequest{RoomName: "Friday Game", PlayerName: "Alice"})
	var created response.RoomEntered
	s.expect(alice, "room_created", &created)

	bob := s.dial(serverB)
	s.send(bob, request.TypeJoinRoom, request.JoinRoomRequest{RoomID: created.Room.ID, PlayerName: "Bob", DeviceToken: "bob-device"})
	var joined response.RoomEntered
	s.expect(bob, "room_joined", &joined)
	s.Equal("conn-b", joined.PlayerID)
	s.Len(joined.Room.Players, 2)
	s.expect(alice, "player_joined", nil)

	s.send(bob, request.TypeChatMessage, request.ChatMessageRequest{Text: "evening all"})
	for _, conn := range []*websocket.Conn{alice, bob} {
		var chat response.ChatMessage
		s.expect(conn, "chat_message", &chat)
		s.Equal("Bob", chat.DisplayName)
		s.Equal("evening all", chat.Text)
	}
}

func (s *IntegrationSuite) dial(server *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

func (s *IntegrationSuite) send(conn *websocket.Conn, frameType string, data any) {
	env, err := response.NewEnvelope(frameType, data)
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteJSON(env))
}

func (s *IntegrationSuite) expect(conn *websocket.Conn, frameType string, dst any) {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	var env response.Envelope
	s.Require().NoError(conn.ReadJSON(&env))
	s.Require().Equal(frameType, env.Type, "frame body: %s", env.Data)
	if dst != nil {
		s.Require().NoError(json.Unmarshal(env.Data, dst))
	}
}
