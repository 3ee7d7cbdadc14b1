package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/vibesync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Health checks that the server at --url answers /health.
func (r *Runner) Health(ctx context.Context, cmd *cli.Command) error {
	base := cmd.String("url")
	if err := r.api(cmd).Health(ctx); err != nil {
		return fmt.Errorf("server at %s is not healthy: %w", base, err)
	}
	return r.writePlain("✓ %s is healthy\n", base)
}

// RoomCheck asks the server whether a room code is waiting for a joiner.
func (r *Runner) RoomCheck(ctx context.Context, cmd *cli.Command) error {
	code := strings.TrimSpace(cmd.StringArg("code"))
	if code == "" {
		return fmt.Errorf("%w: room code is required", shared.ErrValidation)
	}

	resp, err := r.api(cmd).Get(ctx, "/room/check", url.Values{"code": {code}})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("room %s: %s", shared.NormalizeCode(code), resp.Detail())
	}

	var host string
	if m, ok := resp.JSONData.(map[string]any); ok {
		host, _ = m["host"].(string)
	}
	return r.writePlain("Room %s is waiting (host: %s)\n", shared.NormalizeCode(code), host)
}
