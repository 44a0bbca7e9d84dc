package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/friendlytable/internal/api"
	"github.com/mcoot/friendlytable/internal/api/response"
	"github.com/mcoot/friendlytable/internal/cli"
	"github.com/mcoot/friendlytable/internal/factory"
	"github.com/mcoot/friendlytable/internal/model"
	"github.com/mcoot/friendlytable/internal/testutil"
)

// syncBuffer is written by the CLI's event reader while the test polls it
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// session is a tablectl process running in the background
type session struct {
	stdin *io.PipeWriter
	out   *syncBuffer
	done  chan error
}

func (s *session) send(line string) {
	_, _ = io.WriteString(s.stdin, line+"\n")
}

type CLISuite struct {
	suite.Suite
	app    *factory.TestApp
	server *httptest.Server
	ctx    context.Context
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	s.ctx = context.Background()
	s.app = factory.NewTestApp()
	s.server = httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:   testutil.NopLogger(),
		Clock:    s.app.Clock,
		Sessions: s.app.Sessions,
		Gateway:  s.app.Gateway,
	}))
}

func (s *CLISuite) TearDownTest() {
	s.server.Close()
	s.NoError(s.app.Close(s.ctx))
}

func (s *CLISuite) baseArgs() []string {
	return []string{"--server", s.server.URL, "--device-file", s.T().TempDir() + "/device"}
}

// run executes one non-interactive command
func (s *CLISuite) run(args ...string) (string, error) {
	cmd := cli.NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(s.baseArgs(), args...))
	err := cmd.Execute()
	return out.String(), err
}

// start launches an interactive command fed from a pipe
func (s *CLISuite) start(args ...string) *session {
	cmd := cli.NewRootCmd()
	stdin, stdinWriter := io.Pipe()
	out := &syncBuffer{}
	cmd.SetIn(stdin)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append(s.baseArgs(), args...))

	sess := &session{stdin: stdinWriter, out: out, done: make(chan error, 1)}
	go func() { sess.done <- cmd.Execute() }()
	return sess
}

func (s *CLISuite) stop(sess *session) {
	s.Require().NoError(sess.stdin.Close())
	select {
	case err := <-sess.done:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.FailNow("tablectl did not exit")
	}
}

func (s *CLISuite) eventually(cond func(room *model.Room) bool) {
	s.Eventually(func() bool {
		room, err := s.app.Sessions.Room(s.ctx, "room-1")
		return err == nil && cond(room)
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *CLISuite) TestHealth() {
	out, err := s.run("-o", "json", "health")
	s.Require().NoError(err)

	var health response.Health
	s.Require().NoError(json.Unmarshal([]byte(out), &health))
	s.Equal("ok", health.Status)
}

func (s *CLISuite) TestRoomGet() {
	_, err := s.app.Sessions.CreateRoom(s.ctx, "conn-host", "Friday Game", "Alice", "alice-device")
	s.Require().NoError(err)

	out, err := s.run("room", "get", "room-1")
	s.Require().NoError(err)
	s.Contains(out, "Room: Friday Game (room-1)")
	s.Contains(out, "Alice (conn-host) [host]")
	s.Contains(out, "[0] empty")
}

func (s *CLISuite) TestRoomList() {
	out, err := s.run("room", "list")
	s.Require().NoError(err)
	s.Contains(out, "No open rooms")

	_, err = s.app.Sessions.CreateRoom(s.ctx, "conn-host", "Friday Game", "Alice", "alice-device")
	s.Require().NoError(err)

	out, err = s.run("room", "list")
	s.Require().NoError(err)
	s.Contains(out, "room-1  Friday Game  1/10 players, 0 seated")
}

func (s *CLISuite) TestRoomGetNotFound() {
	_, err := s.run("room", "get", "nope")
	s.Require().Error(err)
	s.Contains(err.Error(), "ROOM_NOT_FOUND")
}

func (s *CLISuite) TestCreateAndPlay() {
	alice := s.start("--name", "Alice", "room", "create", "--room-name", "Friday Game")
	s.eventually(func(room *model.Room) bool { return len(room.Roster) == 1 })

	alice.send("seat 4")
	alice.send("blinds 5 10")
	s.eventually(func(room *model.Room) bool {
		return !room.Seats[4].IsEmpty() && room.Settings.BigBlind == 10
	})

	alice.send("start")
	s.Eventually(func() bool {
		return bytes.Contains([]byte(alice.out.String()), []byte("NOT_ENOUGH_PLAYERS"))
	}, 2*time.Second, 10*time.Millisecond)

	s.stop(alice)
	s.Contains(alice.out.String(), "room created: you are")
	s.Contains(alice.out.String(), "Alice sat down in seat 4")
}

func (s *CLISuite) TestReconnectKeepsSeat() {
	_, err := s.app.Sessions.CreateRoom(s.ctx, "conn-host", "Friday Game", "Alice", "alice-device")
	s.Require().NoError(err)

	args := []string{"--name", "Bob", "--device", "bob-device", "room", "join", "room-1"}

	bob := s.start(args...)
	bob.send("seat 2")
	bob.send("say evening all")
	s.eventually(func(room *model.Room) bool { return !room.Seats[2].IsEmpty() })
	s.stop(bob)

	s.eventually(func(room *model.Room) bool { return !room.Seats[2].Occupant.IsConnected() })
	s.app.MockClock.Advance(time.Minute)

	again := s.start(args...)
	s.eventually(func(room *model.Room) bool {
		occ := room.Seats[2].Occupant
		return occ != nil && occ.IsConnected() && occ.DisplayName == "Bob"
	})
	s.stop(again)

	s.Contains(again.out.String(), "room joined")
}
