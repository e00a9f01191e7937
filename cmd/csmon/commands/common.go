// Package commands implements the csmon command line.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/csmon/internal/config"
)

// Global is shared with every subcommand.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command and its global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"csmon.yaml" env:"CSMON_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Daemon  DaemonCmd  `cmd:"" help:"Run the checksum monitor with its admin API"`
	Compute ComputeCmd `cmd:"" help:"Checksum an address range or region once and exit"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration and region table"`
	Tables  TablesCmd  `cmd:"" help:"Inspect region tables"`
}

// AfterApply installs a text logger before any command runs. The daemon replaces it
// with the configured handler once the configuration is loaded.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

// loggerFor builds the configured logger; --verbose forces debug.
func loggerFor(cfg *config.Config, verbose bool) *slog.Logger {
	lc := cfg.Logging
	if verbose {
		lc.Level = config.LogLevelDebug
	}
	return lc.NewLogger(os.Stderr)
}
