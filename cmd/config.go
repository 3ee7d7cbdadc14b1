package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/vibesync/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the example configuration to the path given by --config.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	return r.writePlain("Wrote %s. Set credentials.spotify and auth.jwt_secret before serving.\n", path)
}

// ConfigShow prints the effective configuration with secrets masked.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("validate") {
		if err := config.Validate(); err != nil {
			return fmt.Errorf("configuration cannot start a server: %w", err)
		}
	}
	return r.writeJSON(config.Redacted(), true)
}
