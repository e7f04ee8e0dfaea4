package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/zazu-22/bandassist/internal/shared"
)

// Setup creates the configuration file from the embedded template and
// optionally prints the resolved settings.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("config file already exists", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.logger.Info("config file created", "path", configPath)
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	r.config = config

	r.logger.Info("setup complete",
		"load_timeout_ms", config.Player.LoadTimeout,
		"position_throttle_ms", config.Player.PositionThrottle,
	)

	if cmd.Bool("show") {
		return r.writeJSON(config, true)
	}
	return nil
}
