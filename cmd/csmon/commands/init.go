package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/csmon/internal/catalog"
	"git.home.luguber.info/inful/csmon/internal/config"
	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
	"git.home.luguber.info/inful/csmon/internal/tables"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing files"`
	Output string `short:"o" name:"output" help:"Directory for csmon.yaml and tables.yaml"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	cfgPath := root.Config
	if i.Output != "" {
		cfgPath = filepath.Join(i.Output, "csmon.yaml")
	}
	return RunInit(os.Stdout, cfgPath, i.Force)
}

// RunInit writes the example configuration and, next to it, an example region table.
func RunInit(out io.Writer, cfgPath string, force bool) error {
	fmt.Fprintf(out, "Writing configuration to %s\n", cfgPath)
	if err := config.Init(cfgPath, force); err != nil {
		return err
	}

	tablePath := filepath.Join(filepath.Dir(cfgPath), "tables.yaml")
	if _, err := os.Stat(tablePath); err == nil && !force {
		fmt.Fprintf(out, "Keeping existing region table %s\n", tablePath)
		return nil
	}
	data, err := tables.Marshal(exampleTables())
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal example tables").Build()
	}
	if err := os.WriteFile(tablePath, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to write region table").
			WithContext("path", tablePath).Build()
	}
	fmt.Fprintf(out, "Writing region table to %s\n", tablePath)
	return nil
}

func exampleTables() tables.Set {
	return tables.Set{
		catalog.EEPROM: {
			{Name: "boot", Start: 0x10000, Length: 0x2000, SegmentSize: 0x400},
		},
		catalog.Apps: {
			{Name: "sample_app", Start: 0x12000, Length: 0x1000, SegmentSize: 0x400},
		},
	}
}
