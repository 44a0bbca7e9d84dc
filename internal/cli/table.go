package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/friendlytable/internal/api/request"
	"github.com/mcoot/friendlytable/internal/api/response"
)

const tableHelp = `Commands:
  seat <n>             take seat n (0-9)
  leave                stand up
  blinds <sb> <bb>     change the blinds (host only)
  timer <seconds>      change the decision timer (host only)
  start                start the game (host only)
  fold | check | call | allin
  bet <n> | raise <n>
  say <text>           chat to the table
  help                 show this help
  quit                 leave the table`

// errQuit ends the session
var errQuit = errors.New("quit")

var errHelp = errors.New("help")

// command is one parsed line of table input
type command struct {
	Type string
	Body any
}

// parseCommand turns a line of input into an outbound frame
func parseCommand(line string, now time.Time) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, fmt.Errorf("empty command")
	}

	verb := strings.ToLower(fields[0])
	args := fields[1:]

	switch verb {
	case "quit", "exit":
		return command{}, errQuit
	case "help", "?":
		return command{}, errHelp
	case "seat", "sit":
		n, err := intArgs(verb, args, 1)
		if err != nil {
			return command{}, err
		}
		return command{Type: request.TypeClaimSeat, Body: request.ClaimSeatRequest{SeatIndex: &n[0]}}, nil
	case "leave", "stand":
		return command{Type: request.TypeLeaveSeat}, nil
	case "start":
		return command{Type: request.TypeStartGame}, nil
	case "blinds":
		n, err := intArgs(verb, args, 2)
		if err != nil {
			return command{}, err
		}
		return command{Type: request.TypeUpdateSettings, Body: request.UpdateSettingsRequest{SmallBlind: &n[0], BigBlind: &n[1]}}, nil
	case "timer":
		n, err := intArgs(verb, args, 1)
		if err != nil {
			return command{}, err
		}
		return command{Type: request.TypeUpdateSettings, Body: request.UpdateSettingsRequest{DecisionTimer: &n[0]}}, nil
	case "say", "chat":
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		if text == "" {
			return command{}, fmt.Errorf("say needs some text")
		}
		return command{Type: request.TypeChatMessage, Body: request.ChatMessageRequest{Text: text}}, nil
	case "fold", "check", "call":
		return actionCommand(verb, nil, now), nil
	case "allin", "all-in":
		return actionCommand("all_in", nil, now), nil
	case "bet", "raise":
		n, err := intArgs(verb, args, 1)
		if err != nil {
			return command{}, err
		}
		return actionCommand(verb, &n[0], now), nil
	default:
		return command{}, fmt.Errorf("unknown command %q (try help)", verb)
	}
}

func actionCommand(actionType string, amount *int, now time.Time) command {
	return command{Type: request.TypePlayerAction, Body: request.PlayerActionRequest{
		Type:      actionType,
		Amount:    amount,
		Timestamp: now.UnixMilli(),
	}}
}

func intArgs(verb string, args []string, want int) ([]int, error) {
	if len(args) != want {
		return nil, fmt.Errorf("%s takes %d number(s)", verb, want)
	}
	out := make([]int, want)
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", verb, a)
		}
		out[i] = n
	}
	return out, nil
}

// tableSession relays stdin commands to the gateway and prints what comes back
type tableSession struct {
	conn    *websocket.Conn
	out     *Output
	verbose bool
}

// run sends the opening frame, then streams events until the server closes
// the connection, input ends or ctx is cancelled
func (t *tableSession) run(ctx context.Context, opening command, in io.Reader) error {
	if err := t.send(opening); err != nil {
		return err
	}

	readerDone := make(chan error, 1)
	go func() {
		readerDone <- t.readLoop()
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return t.close(readerDone)

		case err := <-readerDone:
			return err

		case line, ok := <-lines:
			if !ok {
				return t.close(readerDone)
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			cmd, err := parseCommand(line, time.Now())
			switch {
			case errors.Is(err, errQuit):
				return t.close(readerDone)
			case errors.Is(err, errHelp):
				t.out.PrintMessage(tableHelp)
				continue
			case err != nil:
				t.out.PrintError(err)
				continue
			}
			if err := t.send(cmd); err != nil {
				return err
			}
		}
	}
}

func (t *tableSession) send(cmd command) error {
	env, err := response.NewEnvelope(cmd.Type, cmd.Body)
	if err != nil {
		return err
	}
	if t.verbose {
		t.out.PrintMessage("-> " + cmd.Type)
	}
	if err := t.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("send %s: %w", cmd.Type, err)
	}
	return nil
}

func (t *tableSession) readLoop() error {
	for {
		var env response.Envelope
		if err := t.conn.ReadJSON(&env); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		}
		t.out.PrintEvent(env)
	}
}

// close says goodbye and waits briefly for the server to hang up
func (t *tableSession) close(readerDone <-chan error) error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	select {
	case <-readerDone:
	case <-time.After(time.Second):
	}
	return t.conn.Close()
}
