package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/csmon/internal/catalog"
	"git.home.luguber.info/inful/csmon/internal/checksum"
	"git.home.luguber.info/inful/csmon/internal/config"
	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
	"git.home.luguber.info/inful/csmon/internal/memory"
	"git.home.luguber.info/inful/csmon/internal/tables"
)

// ComputeCmd implements the 'compute' command: a one-shot checksum outside the daemon.
type ComputeCmd struct {
	Start  string `help:"Start address (decimal or 0x hex)" xor:"target"`
	Length string `help:"Length in bytes (decimal or 0x hex)"`
	Region string `help:"Region as type/name from the region table" xor:"target"`
}

func (c *ComputeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	return RunCompute(os.Stdout, cfg, c.Start, c.Length, c.Region)
}

// RunCompute prints the checksum of [start, start+length) or of a named region.
func RunCompute(out io.Writer, cfg *config.Config, start, length, region string) error {
	space, err := memory.NewFileSpace(cfg.Memory.Mappings)
	if err != nil {
		return err
	}
	prim, err := checksum.New(cfg.Scheduler.Checksum)
	if err != nil {
		return err
	}

	var addr, n uint64
	label := ""
	if region != "" {
		r, err := lookupRegion(cfg, region)
		if err != nil {
			return err
		}
		addr, n, label = r.Start, r.Length, region
	} else {
		if addr, err = parseNumber("start", start); err != nil {
			return err
		}
		if n, err = parseNumber("length", length); err != nil {
			return err
		}
		label = fmt.Sprintf("0x%x+%d", addr, n)
	}
	if n == 0 {
		return ferrors.ValidationError("length must be positive").Build()
	}

	sum, err := fold(space, prim, addr, n, cfg.Scheduler.ByteBudget)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s 0x%016x\n", prim.Name(), label, sum)
	return nil
}

// fold checksums the range in byte-budget sized reads, the same chunking the scheduler uses.
func fold(space memory.Reader, prim checksum.Primitive, addr, n, chunk uint64) (uint64, error) {
	state := prim.Initial()
	for done := uint64(0); done < n; {
		step := min(chunk, n-done)
		data, err := space.ReadBytes(addr+done, step)
		if err != nil {
			return 0, err
		}
		state = prim.Fold(state, data)
		done += step
	}
	return prim.Finalize(state), nil
}

func lookupRegion(cfg *config.Config, ref string) (catalog.Definition, error) {
	typeName, name, ok := strings.Cut(ref, "/")
	if !ok {
		return catalog.Definition{}, ferrors.ValidationError("region must be type/name").WithContext("region", ref).Build()
	}
	t, err := catalog.ParseResourceType(typeName)
	if err != nil {
		return catalog.Definition{}, err
	}
	if cfg.Tables.Path == "" {
		return catalog.Definition{}, ferrors.ConfigError("tables.path is not configured").Build()
	}
	set, err := tables.Load(cfg.Tables.Path)
	if err != nil {
		return catalog.Definition{}, err
	}
	for _, d := range set[t] {
		if d.Name == name {
			return d, nil
		}
	}
	return catalog.Definition{}, catalog.ErrNotFound.WithContext("resource_type", t.String()).WithContext("region", name)
}

func parseNumber(field, raw string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 0, 64)
	if err != nil {
		return 0, ferrors.ValidationError("invalid number").WithContext("field", field).WithContext("value", raw).Build()
	}
	return v, nil
}
