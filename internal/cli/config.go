package cli

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Config holds CLI configuration
type Config struct {
	ServerURL   string
	PlayerName  string
	DeviceToken string
	DeviceFile  string
	Output      string
	Verbose     bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:   getEnvOrDefault("FRIENDLYTABLE_SERVER", "http://localhost:8080"),
		PlayerName:  getEnvOrDefault("FRIENDLYTABLE_NAME", os.Getenv("USER")),
		DeviceToken: os.Getenv("FRIENDLYTABLE_DEVICE"),
		DeviceFile:  getEnvOrDefault("FRIENDLYTABLE_DEVICE_FILE", defaultDeviceFile()),
		Output:      "text",
		Verbose:     false,
	}
}

// LoadDevice loads the device token from file if not already set, creating
// and saving a new one on first use. The same token lets a dropped session
// reclaim its seat.
func (c *Config) LoadDevice() error {
	if c.DeviceToken != "" {
		return nil
	}

	data, err := os.ReadFile(c.DeviceFile)
	if err == nil {
		c.DeviceToken = strings.TrimSpace(string(data))
		if c.DeviceToken != "" {
			return nil
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	return c.SaveDevice("cli-" + uuid.NewString())
}

// SaveDevice saves the device token to the device file
func (c *Config) SaveDevice(token string) error {
	c.DeviceToken = token

	dir := filepath.Dir(c.DeviceFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	return os.WriteFile(c.DeviceFile, []byte(token), 0600)
}

// WebsocketURL returns the server's websocket endpoint
func (c *Config) WebsocketURL() (string, error) {
	u, err := url.Parse(strings.TrimSuffix(c.ServerURL, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/ws"
	return u.String(), nil
}

func defaultDeviceFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".friendlytable/device"
	}
	return filepath.Join(home, ".friendlytable", "device")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
