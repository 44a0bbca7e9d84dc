package cli

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/friendlytable/internal/api/request"
	"github.com/mcoot/friendlytable/internal/api/response"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room commands",
	}

	cmd.AddCommand(newRoomListCmd())
	cmd.AddCommand(newRoomGetCmd())
	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomJoinCmd())

	return cmd
}

func newRoomListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.RoomList

			if err := client.Get("/api/v1/rooms", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get room details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Room

			if err := client.Get("/api/v1/rooms/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newRoomCreateCmd() *cobra.Command {
	var roomName string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a room and sit at it",
		Long: `Create a room and stay connected as its host.

Type "help" once connected for the list of table commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.PlayerName == "" {
				return fmt.Errorf("a display name is required (--name)")
			}
			if roomName == "" {
				roomName = cfg.PlayerName + "'s table"
			}
			return playTable(cmd, command{
				Type: request.TypeCreateRoom,
				Body: request.CreateRoomRequest{
					RoomName:    roomName,
					PlayerName:  cfg.PlayerName,
					DeviceToken: cfg.DeviceToken,
				},
			})
		},
	}

	cmd.Flags().StringVar(&roomName, "room-name", "", "Room name (default: \"<name>'s table\")")

	return cmd
}

func newRoomJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <id>",
		Short: "Join a room, or reclaim your seat after a drop",
		Long: `Join a room and stay connected.

Joining again with the same device token and name within the grace window
puts you back in your old seat. Type "help" once connected for the list of
table commands.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.PlayerName == "" {
				return fmt.Errorf("a display name is required (--name)")
			}
			return playTable(cmd, command{
				Type: request.TypeJoinRoom,
				Body: request.JoinRoomRequest{
					RoomID:      args[0],
					PlayerName:  cfg.PlayerName,
					DeviceToken: cfg.DeviceToken,
				},
			})
		},
	}
}

func playTable(cmd *cobra.Command, opening command) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, err := client.Dial(ctx)
	if err != nil {
		return err
	}

	session := &tableSession{
		conn:    conn,
		out:     NewOutput(cfg.Output, cmd.OutOrStdout()),
		verbose: cfg.Verbose,
	}
	return session.run(ctx, opening, cmd.InOrStdin())
}
