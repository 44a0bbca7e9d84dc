package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/friendlytable/internal/api"
	"github.com/mcoot/friendlytable/internal/api/apierr"
	"github.com/mcoot/friendlytable/internal/api/request"
	"github.com/mcoot/friendlytable/internal/api/response"
	"github.com/mcoot/friendlytable/internal/factory"
	"github.com/mcoot/friendlytable/internal/testutil"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	router := api.NewRouter(api.RouterConfig{
		Logger:   testutil.NopLogger(),
		Clock:    app.Clock,
		Sessions: app.Sessions,
		Gateway:  app.Gateway,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp response.Health
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Timestamp.Equal(ts.app.MockClock.Now()))
}

func TestGetRoom(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	_, err := ts.app.Sessions.CreateRoom(ctx, "conn-a", "Friday Game", "Alice", "alice-device")
	require.NoError(t, err)
	_, err = ts.app.Sessions.ClaimSeat(ctx, "conn-a", 4)
	require.NoError(t, err)

	rr := ts.request(http.MethodGet, "/api/v1/rooms/room-1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "alice-device")

	var room response.Room
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&room))
	assert.Equal(t, "room-1", room.ID)
	assert.Equal(t, "Friday Game", room.Name)
	assert.Equal(t, "conn-a", room.HostID)
	assert.Equal(t, 10, room.MaxPlayers)
	require.Len(t, room.Players, 1)
	assert.True(t, room.Players[0].IsHost)
	require.Len(t, room.Seats, 10)
	assert.False(t, room.Seats[4].IsEmpty)
	assert.Equal(t, 1000, *room.Seats[4].Player.ChipStack)
}

func TestListRooms(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	_, err := ts.app.Sessions.CreateRoom(ctx, "conn-a", "Friday Game", "Alice", "alice-device")
	require.NoError(t, err)
	ts.app.MockClock.Advance(time.Minute)
	_, err = ts.app.Sessions.CreateRoom(ctx, "conn-b", "Sunday Game", "Bob", "bob-device")
	require.NoError(t, err)
	_, err = ts.app.Sessions.ClaimSeat(ctx, "conn-b", 0)
	require.NoError(t, err)

	rr := ts.request(http.MethodGet, "/api/v1/rooms")
	require.Equal(t, http.StatusOK, rr.Code)

	var list response.RoomList
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list.Rooms, 2)
	assert.Equal(t, "Friday Game", list.Rooms[0].Name)
	assert.Equal(t, "Sunday Game", list.Rooms[1].Name)
	assert.Equal(t, 1, list.Rooms[1].Seated)
	assert.Equal(t, 1, list.Rooms[1].Players)
}

func TestGetRoomNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/rooms/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	var resp apierr.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, apierr.CodeRoomNotFound, resp.Error.Code)
}

func TestUnknownMethod(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/health")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = ts.request(http.MethodDelete, "/api/v1/rooms/room-1")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = ts.request(http.MethodPost, "/ws")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/nothing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWebsocketRoute(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.handler)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	env, err := response.NewEnvelope(request.TypeCreateRoom, request.CreateRoomRequest{
		RoomName:   "Friday Game",
		PlayerName: "Alice",
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(env))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var reply response.Envelope
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "room_created", reply.Type)

	rr := ts.request(http.MethodGet, "/api/v1/rooms/room-1")
	assert.Equal(t, http.StatusOK, rr.Code)
}
