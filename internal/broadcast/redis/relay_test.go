package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/friendlytable/internal/api/response"
	"github.com/mcoot/friendlytable/internal/broadcast"
	"github.com/mcoot/friendlytable/internal/model"
	"github.com/mcoot/friendlytable/internal/testutil"
)

type RelaySuite struct {
	suite.Suite
	mini *miniredis.Miniredis
	ctx  context.Context

	// two instances sharing one redis
	hubsA, hubsB   *broadcast.HubManager
	relayA, relayB *Relay
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	s.ctx = context.Background()

	s.hubsA = broadcast.NewHubManager(testutil.NopLogger())
	s.hubsB = broadcast.NewHubManager(testutil.NopLogger())
	s.relayA = s.newRelay(s.hubsA)
	s.relayB = s.newRelay(s.hubsB)
}

func (s *RelaySuite) newRelay(hubs *broadcast.HubManager) *Relay {
	client := redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	relay := NewWithClient(client, hubs, testutil.NopLogger())
	s.Require().NoError(relay.Start(s.ctx))
	return relay
}

func (s *RelaySuite) TearDownTest() {
	_ = s.relayA.Close()
	_ = s.relayB.Close()
	s.hubsA.Close()
	s.hubsB.Close()
	s.mini.Close()
}

func (s *RelaySuite) receive(c *broadcast.Client) response.Envelope {
	select {
	case msg := <-c.Send():
		var env response.Envelope
		s.Require().NoError(json.Unmarshal(msg, &env))
		return env
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for relayed message")
		return response.Envelope{}
	}
}

func (s *RelaySuite) TestPublishReachesEveryInstance() {
	onA := broadcast.NewClient("conn-a")
	onB := broadcast.NewClient("conn-b")
	s.hubsA.Subscribe("room-1", onA)
	s.hubsB.Subscribe("room-1", onB)

	s.relayA.Publish(s.ctx, model.Event{
		Type:    model.EventSeatReleased,
		RoomID:  "room-1",
		Payload: model.SeatReleasedPayload{SeatIndex: 4},
	})

	s.Equal("seat_released", s.receive(onA).Type)
	s.Equal("seat_released", s.receive(onB).Type)
}

func (s *RelaySuite) TestPublishPreservesOrder() {
	c := broadcast.NewClient("conn-b")
	s.hubsB.Subscribe("room-1", c)

	for i := 0; i < 5; i++ {
		s.relayA.Publish(s.ctx, model.Event{
			Type:    model.EventSeatReleased,
			RoomID:  "room-1",
			Payload: model.SeatReleasedPayload{SeatIndex: i},
		})
	}

	for i := 0; i < 5; i++ {
		var data response.SeatReleased
		s.Require().NoError(json.Unmarshal(s.receive(c).Data, &data))
		s.Equal(i, data.SeatIndex)
	}
}

func (s *RelaySuite) TestCloseRoomDropsHubsEverywhere() {
	s.hubsA.Subscribe("room-1", broadcast.NewClient("conn-a"))
	s.hubsB.Subscribe("room-1", broadcast.NewClient("conn-b"))

	s.relayA.CloseRoom(s.ctx, "room-1")

	s.Eventually(func() bool {
		return s.hubsA.GetHub("room-1") == nil && s.hubsB.GetHub("room-1") == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *RelaySuite) TestRoomIDFromChannel() {
	id, ok := roomIDFromChannel(roomChannel("abc-123"))
	s.True(ok)
	s.Equal(model.RoomID("abc-123"), id)

	_, ok = roomIDFromChannel("other:room:abc")
	s.False(ok)
}
