package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/vibesync/internal/auth"
	"github.com/desertthunder/vibesync/internal/formatter"
	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/tasks"
	"github.com/desertthunder/vibesync/internal/ui"
	"github.com/urfave/cli/v3"
)

// Compare verifies two credentials locally and compares the libraries behind them.
//
// Progress is logged as the engine reports it, or shown live with --tui.
func (r *Runner) Compare(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	spotify, err := newSpotify(config)
	if err != nil {
		return err
	}
	authority, err := auth.NewAuthority(config.Auth.JWTSecret, spotify, auth.WithTTL(config.Auth.TokenTTL()))
	if err != nil {
		return err
	}

	sides := make([]tasks.Side, 0, 2)
	for _, flag := range []string{"a", "b"} {
		claims, err := authority.Verify(cmd.String(flag))
		if err != nil {
			return fmt.Errorf("credential --%s: %w", flag, err)
		}
		sides = append(sides, tasks.Side{
			Participant: models.Participant{ID: claims.Subject, DisplayName: claims.DisplayName},
			AccessToken: claims.SpotifyToken,
		})
	}

	engine := tasks.NewCompareEngine(spotify, r.logger)

	var result *models.ComparisonResult
	if cmd.Bool("tui") {
		result, err = ui.Run(ctx, engine, sides[0], sides[1])
	} else {
		result, err = r.runWithProgress(ctx, engine, sides[0], sides[1])
	}
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(result, format, path); err != nil {
			return err
		}
		r.logger.Info("export written", "path", path, "format", format)
		return nil
	}
	if cmd.Bool("tui") {
		return nil
	}

	data, err := formatter.Export(result, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// runWithProgress runs engine while logging every progress update.
func (r *Runner) runWithProgress(ctx context.Context, engine tasks.Comparer, a, b tasks.Side) (*models.ComparisonResult, error) {
	progress := make(chan tasks.ProgressUpdate, 8)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase)
		}
	}()

	result, err := engine.Run(ctx, a, b, progress)
	close(progress)
	wg.Wait()
	return result, err
}
