package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"git.home.luguber.info/inful/csmon/internal/catalog"
	"git.home.luguber.info/inful/csmon/internal/config"
	"git.home.luguber.info/inful/csmon/internal/memory"
	"git.home.luguber.info/inful/csmon/internal/tables"
)

// TablesCmd groups region table subcommands.
type TablesCmd struct {
	Check TablesCheckCmd `cmd:"" help:"Validate the region table against the memory map and byte budget"`
}

// TablesCheckCmd implements 'tables check'.
type TablesCheckCmd struct {
	File string `arg:"" optional:"" help:"Region table to check (defaults to tables.path)"`
}

func (c *TablesCheckCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	return RunTablesCheck(os.Stdout, cfg, c.File)
}

// RunTablesCheck validates a table and prints a per-type summary.
func RunTablesCheck(out io.Writer, cfg *config.Config, file string) error {
	if file == "" {
		file = cfg.Tables.Path
	}
	set, err := tables.Load(file)
	if err != nil {
		return err
	}
	space, err := memory.NewFileSpace(cfg.Memory.Mappings)
	if err != nil {
		return err
	}
	if err := tables.Check(set, space, cfg.Scheduler.ByteBudget); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tREGIONS\tBYTES\tSEGMENTS")
	for _, t := range catalog.AllTypes() {
		var bytes, segments uint64
		for _, d := range set[t] {
			bytes += d.Length
			seg := min(d.SegmentSize, d.Length)
			if seg > 0 {
				segments += (d.Length + seg - 1) / seg
			}
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", t, len(set[t]), bytes, segments)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: OK\n", file)
	return nil
}
