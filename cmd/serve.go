package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/vibesync/internal/auth"
	"github.com/desertthunder/vibesync/internal/pairing"
	"github.com/desertthunder/vibesync/internal/server"
	"github.com/desertthunder/vibesync/internal/services"
	"github.com/desertthunder/vibesync/internal/shared"
	"github.com/desertthunder/vibesync/internal/tasks"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the HTTP service until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		config.Server.Port = int(port)
	}
	if err := config.Validate(); err != nil {
		return err
	}

	handler, err := r.buildServer(config)
	if err != nil {
		return err
	}
	srv := server.NewHTTPServer(config.Server, handler)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	r.logger.Info("listening", "addr", srv.Addr, "frontend", config.Server.FrontendURL)
	if cmd.Bool("open") {
		if err := shared.OpenBrowser(config.Server.FrontendURL); err != nil {
			r.logger.Warn("could not open browser", "error", err)
		}
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// buildServer wires the upstream client, credential authority, pairing registry and
// comparison engine behind the HTTP router.
func (r *Runner) buildServer(config *shared.Config) (http.Handler, error) {
	spotify, err := newSpotify(config)
	if err != nil {
		return nil, err
	}

	authority, err := auth.NewAuthority(config.Auth.JWTSecret, spotify, auth.WithTTL(config.Auth.TokenTTL()))
	if err != nil {
		return nil, err
	}

	engine := tasks.NewCompareEngine(spotify, shared.WithLogger(r.logger, "component", "compare"))
	registry := pairing.NewService(authority, engine, pairing.NewStores(config.Pairing), r.logger)

	return server.NewRouter(server.Deps{
		Config:    config,
		Provider:  spotify,
		Authority: authority,
		Pairing:   registry,
		Logger:    r.logger,
	}), nil
}

// newSpotify builds the upstream client with the configured timeout and pacing.
func newSpotify(config *shared.Config) (*services.SpotifyService, error) {
	return services.NewSpotifyService(config.Credentials.Spotify, services.SpotifyOpts{
		HTTPClient:        &http.Client{Timeout: config.Upstream.Timeout()},
		RequestsPerSecond: config.Upstream.RequestsPerSecond,
		PageSize:          config.Upstream.PageSize,
	})
}
