package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mcoot/friendlytable/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintf(o.w, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

// PrintEvent outputs one frame received from the table
func (o *Output) PrintEvent(env response.Envelope) {
	if o.format == "json" {
		data, _ := json.Marshal(env)
		fmt.Fprintln(o.w, string(data))
		return
	}
	fmt.Fprintln(o.w, formatEvent(env))
	if env.Type == "room_created" || env.Type == "room_joined" {
		var body response.RoomEntered
		if err := json.Unmarshal(env.Data, &body); err == nil {
			o.printRoom(body.Room)
		}
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Room:
		o.printRoom(v)
	case response.RoomList:
		o.printRoomList(v)
	case response.Health:
		o.printHealth(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printRoom(r response.Room) {
	fmt.Fprintf(o.w, "Room: %s (%s)\n", r.Name, r.ID)
	state := "waiting"
	if r.GameStarted {
		state = "in progress"
	}
	fmt.Fprintf(o.w, "Game: %s\n", state)
	fmt.Fprintf(o.w, "Blinds: %d/%d", r.Settings.SmallBlind, r.Settings.BigBlind)
	if r.Settings.AnteEnabled {
		fmt.Fprintf(o.w, " ante %d", r.Settings.Ante)
	}
	fmt.Fprintf(o.w, ", decision timer %ds\n", r.Settings.DecisionTimer)

	fmt.Fprintf(o.w, "Players (%d/%d):\n", len(r.Players), r.MaxPlayers)
	for _, p := range r.Players {
		fmt.Fprintf(o.w, "  - %s\n", describePlayer(p))
	}

	fmt.Fprintln(o.w, "Seats:")
	for _, s := range r.Seats {
		if s.IsEmpty || s.Player == nil {
			fmt.Fprintf(o.w, "  [%d] empty\n", s.Position)
			continue
		}
		stack := 0
		if s.Player.ChipStack != nil {
			stack = *s.Player.ChipStack
		}
		fmt.Fprintf(o.w, "  [%d] %s (%d chips)\n", s.Position, s.Player.DisplayName, stack)
	}
}

func (o *Output) printRoomList(l response.RoomList) {
	if len(l.Rooms) == 0 {
		fmt.Fprintln(o.w, "No open rooms")
		return
	}
	for _, r := range l.Rooms {
		state := ""
		if r.GameStarted {
			state = " [playing]"
		}
		fmt.Fprintf(o.w, "%s  %s  %d/%d players, %d seated%s\n",
			r.ID, r.Name, r.Players, r.MaxPlayers, r.Seated, state)
	}
}

func (o *Output) printHealth(h response.Health) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}

func describePlayer(p response.Player) string {
	desc := fmt.Sprintf("%s (%s)", p.DisplayName, p.ID)
	if p.IsHost {
		desc += " [host]"
	}
	if !p.IsConnected {
		desc += " [away]"
	}
	return desc
}
