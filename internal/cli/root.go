package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "tablectl",
		Short: "CLI tool for the friendly table server",
		Long: `tablectl is a CLI tool for the friendly table server.

It can check server health, inspect rooms and sit down at a table over the
websocket gateway. Your device token is kept in a file so that a dropped
session can reclaim its seat by joining again.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.LoadDevice(); err != nil {
				return err
			}

			wsURL, err := cfg.WebsocketURL()
			if err != nil {
				return err
			}
			client = NewClient(cfg.ServerURL, wsURL)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: FRIENDLYTABLE_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.PlayerName, "name", cfg.PlayerName, "Display name at the table (env: FRIENDLYTABLE_NAME)")
	rootCmd.PersistentFlags().StringVar(&cfg.DeviceToken, "device", cfg.DeviceToken, "Device token (env: FRIENDLYTABLE_DEVICE)")
	rootCmd.PersistentFlags().StringVar(&cfg.DeviceFile, "device-file", cfg.DeviceFile, "Device token file path (env: FRIENDLYTABLE_DEVICE_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newRoomCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
