// Package command is the operator-facing surface of the scanner.
//
// Every method is one command: it either succeeds and bumps the command counter, or
// returns a classified error and bumps the error counter. Transports (HTTP, CLI) call
// these methods and never touch the scheduler directly.
package command

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/csmon/internal/catalog"
	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
	"git.home.luguber.info/inful/csmon/internal/logfields"
	"git.home.luguber.info/inful/csmon/internal/metrics"
	"git.home.luguber.info/inful/csmon/internal/scheduler"
)

// Command names, used for counters and logs.
const (
	CmdNoop              = "noop"
	CmdResetCounters     = "reset_counters"
	CmdEnableAll         = "enable_all"
	CmdDisableAll        = "disable_all"
	CmdEnableType        = "enable_type"
	CmdDisableType       = "disable_type"
	CmdEnableEntry       = "enable_entry"
	CmdDisableEntry      = "disable_entry"
	CmdReportBaseline    = "report_baseline"
	CmdRecomputeBaseline = "recompute_baseline"
	CmdOneShot           = "oneshot"
	CmdCancelOneShot     = "cancel_oneshot"
	CmdGetEntryID        = "get_entry_id"
	CmdSetByteBudget     = "set_byte_budget"
)

// ErrNoEntry is returned by GetEntryID when no region contains the address.
var ErrNoEntry = ferrors.NotFoundError("no region contains address").Build()

// Facade is the CommandFacade.
type Facade struct {
	sched    *scheduler.Scheduler
	recorder metrics.Recorder
	logger   *slog.Logger

	mu       sync.Mutex
	commands uint64
	errors   uint64
}

// New wraps sched.
func New(sched *scheduler.Scheduler, recorder metrics.Recorder, logger *slog.Logger) *Facade {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Facade{sched: sched, recorder: recorder, logger: logger}
}

func (f *Facade) run(ctx context.Context, name string, fn func() error) error {
	err := fn()

	f.mu.Lock()
	if err != nil {
		f.errors++
	} else {
		f.commands++
	}
	f.mu.Unlock()

	f.recorder.IncCommand(name, err == nil)
	if err != nil {
		f.logger.LogAttrs(ctx, slog.LevelWarn, "Command rejected", slog.String("command", name), logfields.Error(err))
	} else {
		f.logger.LogAttrs(ctx, slog.LevelDebug, "Command accepted", slog.String("command", name))
	}
	return err
}

// Noop only proves the command path is alive.
func (f *Facade) Noop(ctx context.Context) error {
	return f.run(ctx, CmdNoop, func() error { return nil })
}

// ResetCounters zeroes the housekeeping counters, including the command counters.
func (f *Facade) ResetCounters(ctx context.Context) error {
	f.sched.ResetCounters()
	f.mu.Lock()
	f.commands, f.errors = 0, 0
	f.mu.Unlock()
	f.recorder.IncCommand(CmdResetCounters, true)
	f.logger.LogAttrs(ctx, slog.LevelInfo, "Counters reset")
	return nil
}

// EnableAll turns the master checksum switch on.
func (f *Facade) EnableAll(ctx context.Context) error {
	return f.run(ctx, CmdEnableAll, func() error {
		f.sched.SetMasterEnabled(ctx, true)
		return nil
	})
}

// DisableAll turns the master checksum switch off. One-shot and recompute requests
// still run.
func (f *Facade) DisableAll(ctx context.Context) error {
	return f.run(ctx, CmdDisableAll, func() error {
		f.sched.SetMasterEnabled(ctx, false)
		return nil
	})
}

// EnableType enables checksumming of one resource type.
func (f *Facade) EnableType(ctx context.Context, t catalog.ResourceType) error {
	return f.run(ctx, CmdEnableType, func() error { return f.sched.SetEnabled(ctx, t, true) })
}

// DisableType disables checksumming of one resource type.
func (f *Facade) DisableType(ctx context.Context, t catalog.ResourceType) error {
	return f.run(ctx, CmdDisableType, func() error { return f.sched.SetEnabled(ctx, t, false) })
}

// EnableEntry enables routine scanning of one region.
func (f *Facade) EnableEntry(ctx context.Context, t catalog.ResourceType, entry int) error {
	return f.run(ctx, CmdEnableEntry, func() error { return f.sched.SetEntryEnabled(ctx, t, entry, true) })
}

// DisableEntry disables routine scanning of one region.
func (f *Facade) DisableEntry(ctx context.Context, t catalog.ResourceType, entry int) error {
	return f.run(ctx, CmdDisableEntry, func() error { return f.sched.SetEntryEnabled(ctx, t, entry, false) })
}

// Ref selects a region by name or, when Name is empty, by entry ID.
type Ref struct {
	Type  catalog.ResourceType
	Name  string
	Entry int
}

func (f *Facade) resolve(ref Ref) (scheduler.RegionBaseline, error) {
	if ref.Name != "" {
		return f.sched.Baseline(ref.Type, ref.Name)
	}
	return f.sched.Entry(ref.Type, ref.Entry)
}

// ReportBaseline returns the baseline of one region.
func (f *Facade) ReportBaseline(ctx context.Context, ref Ref) (scheduler.RegionBaseline, error) {
	var out scheduler.RegionBaseline
	err := f.run(ctx, CmdReportBaseline, func() error {
		var err error
		out, err = f.resolve(ref)
		return err
	})
	return out, err
}

// RecomputeBaseline clears and recomputes the baseline of one region.
func (f *Facade) RecomputeBaseline(ctx context.Context, ref Ref) error {
	return f.run(ctx, CmdRecomputeBaseline, func() error {
		if ref.Name != "" {
			return f.sched.RequestRecompute(ctx, ref.Type, ref.Name)
		}
		return f.sched.RequestRecomputeEntry(ctx, ref.Type, ref.Entry)
	})
}

// OneShot starts a raw checksum of an arbitrary address range.
func (f *Facade) OneShot(ctx context.Context, addr, length, maxPerTick uint64) error {
	return f.run(ctx, CmdOneShot, func() error { return f.sched.RequestOneShot(ctx, addr, length, maxPerTick) })
}

// CancelOneShot stops the active one-shot. Cancelling when none is active succeeds.
func (f *Facade) CancelOneShot(ctx context.Context) error {
	return f.run(ctx, CmdCancelOneShot, func() error {
		f.sched.CancelOneShot()
		return nil
	})
}

// GetEntryID lists the regions of t containing addr.
func (f *Facade) GetEntryID(ctx context.Context, t catalog.ResourceType, addr uint64) ([]scheduler.RegionBaseline, error) {
	var out []scheduler.RegionBaseline
	err := f.run(ctx, CmdGetEntryID, func() error {
		out = f.sched.EntriesAt(t, addr)
		if len(out) == 0 {
			return ErrNoEntry.WithContext("resource_type", t.String()).WithContext("address", addr)
		}
		return nil
	})
	return out, err
}

// SetByteBudget changes the per-tick byte budget.
func (f *Facade) SetByteBudget(ctx context.Context, n uint64) error {
	return f.run(ctx, CmdSetByteBudget, func() error { return f.sched.SetByteBudget(n) })
}

// Housekeeping is the scheduler status plus command counters.
type Housekeeping struct {
	scheduler.Status
	CommandCount      uint64 `json:"command_count"`
	CommandErrorCount uint64 `json:"command_error_count"`
}

// Housekeeping returns a snapshot. It is not counted as a command.
func (f *Facade) Housekeeping(context.Context) Housekeeping {
	st := f.sched.Status()
	f.mu.Lock()
	defer f.mu.Unlock()
	return Housekeeping{Status: st, CommandCount: f.commands, CommandErrorCount: f.errors}
}

// Regions lists the baselines of every region of t. Like Housekeeping it is a read and
// not counted.
func (f *Facade) Regions(_ context.Context, t catalog.ResourceType) ([]scheduler.RegionBaseline, error) {
	return f.sched.Baselines(t)
}
