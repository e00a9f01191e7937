package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/csmon/internal/config"
	"git.home.luguber.info/inful/csmon/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Addr string `help:"Override the admin API listen address"`
}

func (d *DaemonCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if d.Addr != "" {
		cfg.HTTP.Addr = d.Addr
	}
	g.Logger = loggerFor(cfg, root.Verbose)
	slog.SetDefault(g.Logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunDaemon(ctx, cfg, g.Logger)
}

// RunDaemon runs until ctx is canceled.
func RunDaemon(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	d, err := daemon.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}
	if err := d.Run(ctx); err != nil {
		return fmt.Errorf("daemon error: %w", err)
	}
	return nil
}
