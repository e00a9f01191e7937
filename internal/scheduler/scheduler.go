// Package scheduler is the incremental checksum state machine.
//
// Each call to Advance folds at most one byte budget worth of whole segments. Work is
// picked by strict precedence every tick: an active one-shot owns the tick, otherwise
// pending recomputes share it round-robin, otherwise the routine cursor walks the
// enabled resource types in fixed order. Commands and Advance are serialised by one
// mutex; reports produced while holding it are delivered after it is released.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/csmon/internal/baseline"
	"git.home.luguber.info/inful/csmon/internal/catalog"
	"git.home.luguber.info/inful/csmon/internal/checksum"
	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
	"git.home.luguber.info/inful/csmon/internal/memory"
	"git.home.luguber.info/inful/csmon/internal/metrics"
	"git.home.luguber.info/inful/csmon/internal/persist"
	"git.home.luguber.info/inful/csmon/internal/report"
)

// State is the scheduler state derived at the start of a tick.
type State int

const (
	Idle State = iota
	RoutineScanning
	OneShotScanning
	RecomputeScanning
)

func (s State) String() string {
	switch s {
	case RoutineScanning:
		return "routine"
	case OneShotScanning:
		return "oneshot"
	case RecomputeScanning:
		return "recompute"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	for _, v := range []State{Idle, RoutineScanning, OneShotScanning, RecomputeScanning} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return ferrors.ValidationError("unknown scheduler state").WithContext("state", string(b)).Build()
}

// Options wires a Scheduler to its collaborators. Catalog, Baselines and Memory are
// required; everything else has a usable default.
type Options struct {
	Catalog    *catalog.Catalog
	Baselines  *baseline.Store
	Memory     memory.Reader
	Persist    *persist.Store
	Defaults   persist.EnableState
	Reporter   report.Reporter
	Recorder   metrics.Recorder
	Logger     *slog.Logger
	ByteBudget uint64
	Now        func() time.Time
}

// TickResult describes one Advance call.
type TickResult struct {
	State         State
	Bytes         uint64
	Segments      int
	CycleComplete bool
}

// Scheduler is the ScanScheduler. It owns the routine cursor and every pending task.
type Scheduler struct {
	mu sync.Mutex

	cat      *catalog.Catalog
	base     *baseline.Store
	mem      memory.Reader
	persist  *persist.Store
	reporter report.Reporter
	recorder metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time

	budget  uint64
	enabled persist.EnableState
	master  bool

	cursor     cursor
	oneShot    *oneShotTask
	recomputes []*recomputeTask
	rrStart    int

	lastOneShot *OneShotResult
	counters    counters
	downgraded  bool

	pending []report.Event
}

type cursor struct {
	typ     catalog.ResourceType
	region  int
	segment int
	running checksum.State
}

// discard drops the in-flight partial checksum of the current region.
func (c *cursor) discard() {
	c.segment = 0
	c.running = nil
}

type counters struct {
	pass         uint64
	bytes        uint64
	mismatches   [catalog.NumResourceTypes]uint64
	taskFailures uint64
}

// New creates a scheduler. Call Restore before the first tick to apply persisted state.
func New(opts Options) (*Scheduler, error) {
	if opts.Catalog == nil || opts.Baselines == nil || opts.Memory == nil {
		return nil, ferrors.ConfigError("scheduler requires catalog, baselines and memory").Build()
	}
	if opts.ByteBudget == 0 {
		return nil, ErrInvalidBudget.WithContext("byte_budget", 0)
	}
	s := &Scheduler{
		cat:      opts.Catalog,
		base:     opts.Baselines,
		mem:      opts.Memory,
		persist:  opts.Persist,
		reporter: opts.Reporter,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		now:      opts.Now,
		budget:   opts.ByteBudget,
		enabled:  opts.Defaults,
		master:   true,
	}
	if s.persist != nil {
		s.enabled = s.persist.Defaults()
	}
	if s.reporter == nil {
		s.reporter = report.Nop{}
	}
	if s.recorder == nil {
		s.recorder = metrics.NoopRecorder{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.recorder.SetByteBudget(s.budget)
	return s, nil
}

// Restore loads the persisted enable state, falling back to power-on defaults.
func (s *Scheduler) Restore(ctx context.Context) persist.EnableState {
	s.mu.Lock()
	if s.persist != nil {
		state, err := s.persist.Restore(ctx)
		s.enabled = state
		if err != nil {
			s.noteDowngrade(err)
		}
		s.recorder.SetPersistenceHealth(s.persist.Health().String())
	}
	for _, t := range catalog.AllTypes() {
		s.recorder.SetTypeEnabled(t.String(), s.enabled[t])
	}
	enabled := s.enabled
	s.unlockAndFlush(ctx)
	return enabled
}

// Tick advances with the configured byte budget.
func (s *Scheduler) Tick(ctx context.Context) TickResult {
	s.mu.Lock()
	budget := s.budget
	s.mu.Unlock()
	return s.Advance(ctx, budget)
}

// Advance performs at most budget bytes of checksum work, stopping only at segment
// boundaries. It never returns an error: failures become reports.
func (s *Scheduler) Advance(ctx context.Context, budget uint64) TickResult {
	started := time.Now()
	s.mu.Lock()

	t := &tick{remaining: budget}
	t.result.State = s.stateLocked()
	switch t.result.State {
	case OneShotScanning:
		s.advanceOneShot(t)
	case RecomputeScanning:
		s.advanceRecomputes(t)
	case RoutineScanning:
		s.advanceRoutine(t)
	}
	s.counters.bytes += t.result.Bytes
	result := t.result

	s.unlockAndFlush(ctx)
	s.recorder.ObserveTick(time.Since(started), result.State.String())
	return result
}

// State returns the state the next tick would run in.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Scheduler) stateLocked() State {
	switch {
	case s.oneShot != nil:
		return OneShotScanning
	case len(s.recomputes) > 0:
		return RecomputeScanning
	case s.master && s.hasRoutineWork():
		return RoutineScanning
	default:
		return Idle
	}
}

type tick struct {
	remaining uint64
	result    TickResult
}

func (t *tick) fits(n uint64) bool { return n <= t.remaining }

func (t *tick) consume(n uint64) {
	t.remaining -= n
	t.result.Bytes += n
	t.result.Segments++
}

// fold reads [addr, addr+n) and folds it into running.
func (s *Scheduler) fold(running checksum.State, addr, n uint64) (checksum.State, error) {
	data, err := s.mem.ReadBytes(addr, n)
	if err != nil {
		return nil, err
	}
	if running == nil {
		running = s.base.Initial()
	}
	return s.base.Accumulate(running, data), nil
}

func (s *Scheduler) emit(ev report.Event) {
	s.pending = append(s.pending, ev)
}

func (s *Scheduler) meta() report.Meta {
	return report.NewMeta(s.now())
}

// unlockAndFlush releases the lock and then delivers the reports collected under it.
func (s *Scheduler) unlockAndFlush(ctx context.Context) {
	out := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, ev := range out {
		s.reporter.Report(ctx, ev)
	}
}
