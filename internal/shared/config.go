package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Player PlayerConfig `toml:"player"`
	Log    LogConfig    `toml:"log"`
}

// PlayerConfig contains every tunable interval and bound of the playback
// coordinator. Zero values are replaced with defaults by Normalize.
type PlayerConfig struct {
	LibraryPollInterval int     `toml:"library_poll_interval"` // ms between engine library availability checks
	LibraryPollAttempts int     `toml:"library_poll_attempts"` // checks before giving up on the library
	LoadTimeout         int     `toml:"load_timeout"`          // ms to wait for scoreLoaded
	CommandRetryDelay   int     `toml:"command_retry_delay"`   // ms before retrying a failed play/pause
	PositionThrottle    int     `toml:"position_throttle"`     // minimum ms between applied position updates
	ReadyGrace          int     `toml:"ready_grace"`           // ms between playerReady and interactive
	MinSpeed            float64 `toml:"min_speed"`
	MaxSpeed            float64 `toml:"max_speed"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Normalize replaces zero or nonsensical values with the embedded defaults.
func (c *PlayerConfig) Normalize() {
	def := DefaultConfig().Player
	if c.LibraryPollInterval <= 0 {
		c.LibraryPollInterval = def.LibraryPollInterval
	}
	if c.LibraryPollAttempts <= 0 {
		c.LibraryPollAttempts = def.LibraryPollAttempts
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = def.LoadTimeout
	}
	if c.CommandRetryDelay <= 0 {
		c.CommandRetryDelay = def.CommandRetryDelay
	}
	if c.PositionThrottle <= 0 {
		c.PositionThrottle = def.PositionThrottle
	}
	if c.ReadyGrace <= 0 {
		c.ReadyGrace = def.ReadyGrace
	}
	if c.MinSpeed <= 0 {
		c.MinSpeed = def.MinSpeed
	}
	if c.MaxSpeed <= c.MinSpeed {
		c.MaxSpeed = def.MaxSpeed
	}
}

// PollInterval returns the library availability poll interval as a [time.Duration].
func (c PlayerConfig) PollInterval() time.Duration {
	return time.Duration(c.LibraryPollInterval) * time.Millisecond
}

// LoadTimeoutDuration returns the score load timeout as a [time.Duration].
func (c PlayerConfig) LoadTimeoutDuration() time.Duration {
	return time.Duration(c.LoadTimeout) * time.Millisecond
}

// RetryDelay returns the command retry delay as a [time.Duration].
func (c PlayerConfig) RetryDelay() time.Duration {
	return time.Duration(c.CommandRetryDelay) * time.Millisecond
}

// ThrottleWindow returns the position throttle window as a [time.Duration].
func (c PlayerConfig) ThrottleWindow() time.Duration {
	return time.Duration(c.PositionThrottle) * time.Millisecond
}

// ReadyGraceDuration returns the player-ready grace period as a [time.Duration].
func (c PlayerConfig) ReadyGraceDuration() time.Duration {
	return time.Duration(c.ReadyGrace) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.Player.Normalize()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
