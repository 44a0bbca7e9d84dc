package broadcast

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/friendlytable/internal/api/response"
	"github.com/mcoot/friendlytable/internal/model"
	"github.com/mcoot/friendlytable/internal/testutil"
)

func receive(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case msg, ok := <-client.Send():
		require.True(t, ok, "client channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func assertNothingReceived(t *testing.T, client *Client) {
	t.Helper()
	select {
	case msg := <-client.Send():
		t.Fatalf("unexpected message: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubManagerDeliversToSubscribers(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()

	a := NewClient("conn-a")
	b := NewClient("conn-b")
	m.Subscribe("room-1", a)
	m.Subscribe("room-1", b)

	m.Deliver("room-1", Message{Data: []byte("hello")})

	assert.Equal(t, "hello", string(receive(t, a)))
	assert.Equal(t, "hello", string(receive(t, b)))
}

func TestHubManagerExcludesOriginForOthersAudience(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()

	origin := NewClient("conn-a")
	other := NewClient("conn-b")
	m.Subscribe("room-1", origin)
	m.Subscribe("room-1", other)

	m.Deliver("room-1", Message{Data: []byte("joined"), Audience: model.AudienceOthers, Origin: "conn-a"})

	assert.Equal(t, "joined", string(receive(t, other)))
	assertNothingReceived(t, origin)
}

func TestHubManagerDeliversSelfAudienceToOriginOnly(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()

	origin := NewClient("conn-a")
	other := NewClient("conn-b")
	m.Subscribe("room-1", origin)
	m.Subscribe("room-1", other)

	m.Deliver("room-1", Message{Data: []byte("snapshot"), Audience: model.AudienceSelf, Origin: "conn-a"})

	assert.Equal(t, "snapshot", string(receive(t, origin)))
	assertNothingReceived(t, other)
}

func TestHubManagerIsolatesRooms(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()

	a := NewClient("conn-a")
	b := NewClient("conn-b")
	m.Subscribe("room-1", a)
	m.Subscribe("room-2", b)

	m.Deliver("room-1", Message{Data: []byte("only room 1")})

	assert.Equal(t, "only room 1", string(receive(t, a)))
	assertNothingReceived(t, b)
}

func TestHubManagerPreservesOrder(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()

	c := NewClient("conn-a")
	m.Subscribe("room-1", c)

	for _, s := range []string{"1", "2", "3", "4"} {
		m.Deliver("room-1", Message{Data: []byte(s)})
	}

	for _, want := range []string{"1", "2", "3", "4"} {
		assert.Equal(t, want, string(receive(t, c)))
	}
}

func TestLaggingClientIsDisconnected(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()

	slow := NewClient("conn-slow")
	other := NewClient("conn-other")
	m.Subscribe("room-1", slow)
	m.Subscribe("room-1", other)

	// One more message than the slow client can hold
	for i := 0; i <= sendBufferSize; i++ {
		m.Deliver("room-1", Message{
			Type:     model.EventChatMessage,
			Data:     []byte("x"),
			Audience: model.AudienceSelf,
			Origin:   "conn-slow",
		})
	}

	hub := m.GetHub("room-1")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	m.Deliver("room-1", Message{Data: []byte("after")})
	assert.Equal(t, "after", string(receive(t, other)))

	received := 0
	for range slow.Send() {
		received++
	}
	assert.Equal(t, sendBufferSize, received)
}

func TestBroadcastToClosedHubReturns(t *testing.T) {
	hub := NewHub("room-1", testutil.NopLogger())
	hub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2*sendBufferSize; i++ {
			hub.Broadcast(Message{Data: []byte("x")})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a closed hub")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()

	c := NewClient("conn-a")
	m.Subscribe("room-1", c)
	m.Unsubscribe("room-1", c)

	m.Deliver("room-1", Message{Data: []byte("late")})

	assertNothingReceived(t, c)
	assert.Equal(t, 0, m.GetHub("room-1").ClientCount())
}

func TestCleanupEmptyHubs(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()

	busy := NewClient("conn-a")
	idle := NewClient("conn-b")
	m.Subscribe("room-busy", busy)
	m.Subscribe("room-idle", idle)
	m.Unsubscribe("room-idle", idle)

	m.CleanupEmptyHubs()

	assert.NotNil(t, m.GetHub("room-busy"))
	assert.Nil(t, m.GetHub("room-idle"))
	assert.Equal(t, 1, m.HubCount())
}

func TestRegisterOnClosedHubFails(t *testing.T) {
	hub := NewHub("room-1", testutil.NopLogger())
	go hub.Run()
	hub.Close()

	assert.False(t, hub.Register(NewClient("conn-a")))
}

func TestClientEnqueueAfterClose(t *testing.T) {
	c := NewClient("conn-a")
	c.Close()
	c.Close()

	assert.False(t, c.Enqueue([]byte("x")))
}

func TestBroadcasterPublishEncodesEnvelope(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()
	b := NewBroadcaster(m, testutil.NopLogger())

	c := NewClient("conn-a")
	m.Subscribe("room-1", c)

	b.Publish(context.Background(), model.Event{
		Type:     model.EventSeatReleased,
		RoomID:   "room-1",
		PlayerID: "conn-z",
		Payload:  model.SeatReleasedPayload{SeatIndex: 3},
	})

	var env response.Envelope
	require.NoError(t, json.Unmarshal(receive(t, c), &env))
	assert.Equal(t, "seat_released", env.Type)

	var data response.SeatReleased
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 3, data.SeatIndex)
}

func TestBroadcasterCloseRoomRemovesHub(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()
	b := NewBroadcaster(m, testutil.NopLogger())

	m.Subscribe("room-1", NewClient("conn-a"))
	b.CloseRoom(context.Background(), "room-1")

	assert.Nil(t, m.GetHub("room-1"))
}

func TestEncodeEventRejectsUnknownPayload(t *testing.T) {
	_, err := EncodeEvent(model.Event{Type: model.EventChatMessage, Payload: struct{}{}})
	assert.Error(t, err)
}
