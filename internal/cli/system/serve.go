package system

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/streaklit/internal/api"
	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/keyring"
	"github.com/julianstephens/streaklit/internal/logger"
)

// ServeCmd runs the local HTTP API together with the reminder tick loop.
type ServeCmd struct {
	Listen string `help:"Address to listen on (overrides api.listen)."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	secret, err := resolveSecret(ctx.Config.API.Secret)
	if err != nil {
		return err
	}

	cfg := ctx.Config.API
	if c.Listen != "" {
		cfg.Listen = c.Listen
	}

	server := api.NewServer(a, cfg, secret, nil)

	runCtx, stop := signal.NotifyContext(ctx.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		logger.Info("API listening", "addr", cfg.Listen)
		return server.Listen(cfg.Listen)
	})
	g.Go(func() error {
		return a.Run(gctx, ctx.Config.Notifications.TickInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down API")
		return server.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// resolveSecret prefers the configured secret, then the keyring, and otherwise
// generates one and stores it for the tray app to read.
func resolveSecret(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	secret, err := keyring.Get(keyring.AccountAPISecret)
	if err == nil {
		return secret, nil
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		logger.Warn("Keyring unavailable, API secret will not persist", "error", err)
	}

	secret = uuid.NewString()
	if errors.Is(err, keyring.ErrNotFound) {
		if err := keyring.Set(keyring.AccountAPISecret, secret); err != nil {
			return "", err
		}
	}
	fmt.Printf("Generated API secret: %s\n", secret)
	return secret, nil
}
