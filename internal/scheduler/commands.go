package scheduler

import (
	"context"

	"git.home.luguber.info/inful/csmon/internal/baseline"
	"git.home.luguber.info/inful/csmon/internal/catalog"
	"git.home.luguber.info/inful/csmon/internal/persist"
	"git.home.luguber.info/inful/csmon/internal/report"
)

// SetEnabled changes the enable flag of a resource type and persists the new state.
// Persistence is best effort: a failed save is reported and the change still applies.
// Disabling the type under the routine cursor discards its partial checksum.
func (s *Scheduler) SetEnabled(ctx context.Context, t catalog.ResourceType, enabled bool) error {
	if !t.Valid() {
		return ErrInvalidResourceType.WithContext("resource_type", int(t))
	}

	s.mu.Lock()
	s.enabled = s.enabled.With(t, enabled)
	if !enabled && s.cursor.typ == t {
		s.cursor.discard()
	}
	persisted := s.saveLocked(ctx)
	s.recorder.SetTypeEnabled(t.String(), enabled)
	s.emit(report.EnableChanged{
		Meta:         s.meta(),
		Scope:        report.ScopeType,
		ResourceType: t,
		Enabled:      enabled,
		Persisted:    persisted,
	})
	s.unlockAndFlush(ctx)
	return nil
}

// Enabled returns the current enable flags.
func (s *Scheduler) Enabled() persist.EnableState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// saveLocked makes one persistence attempt and reports whether it succeeded.
func (s *Scheduler) saveLocked(ctx context.Context) bool {
	if s.persist == nil {
		return false
	}
	err := s.persist.Save(ctx, s.enabled)
	s.recorder.SetPersistenceHealth(s.persist.Health().String())
	if err != nil {
		s.noteDowngrade(err)
		return false
	}
	return true
}

// noteDowngrade reports the first persistence failure of the run.
func (s *Scheduler) noteDowngrade(err error) {
	if s.downgraded || s.persist == nil || s.persist.Health() != persist.HealthDisabled {
		return
	}
	s.downgraded = true
	s.emit(report.PersistenceDowngraded{Meta: s.meta(), Backend: s.backendName(), Reason: err.Error()})
}

func (s *Scheduler) backendName() string {
	if s.persist == nil {
		return "none"
	}
	return s.persist.BackendName()
}

// SetMasterEnabled toggles routine scanning as a whole. It is not persisted and does
// not affect one-shot or recompute tasks.
func (s *Scheduler) SetMasterEnabled(ctx context.Context, enabled bool) {
	s.mu.Lock()
	s.master = enabled
	if !enabled {
		s.cursor.discard()
	}
	s.emit(report.EnableChanged{Meta: s.meta(), Scope: report.ScopeMaster, Enabled: enabled})
	s.unlockAndFlush(ctx)
}

// SetEntryEnabled toggles routine scanning of a single region by entry ID.
func (s *Scheduler) SetEntryEnabled(ctx context.Context, t catalog.ResourceType, entry int, enabled bool) error {
	s.mu.Lock()
	r, err := s.cat.LookupByEntry(t, entry)
	if err == nil {
		err = s.cat.SetRegionEnabled(r.Handle, enabled)
	}
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if !enabled && s.cursorOn(r.Handle) {
		s.cursor.discard()
	}
	s.emit(report.EnableChanged{
		Meta:         s.meta(),
		Scope:        report.ScopeEntry,
		ResourceType: t,
		Region:       r.Name,
		Enabled:      enabled,
	})
	s.unlockAndFlush(ctx)
	return nil
}

// SetByteBudget changes the per-tick budget used by Tick. The budget must fit the
// largest loaded segment.
func (s *Scheduler) SetByteBudget(n uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if largest := s.cat.MaxSegmentSize(); n == 0 || n < largest {
		return ErrInvalidBudget.WithContext("byte_budget", n).WithContext("max_segment", largest)
	}
	s.budget = n
	s.recorder.SetByteBudget(n)
	return nil
}

// ByteBudget returns the configured per-tick budget.
func (s *Scheduler) ByteBudget() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budget
}

// LoadRegions replaces the regions of t. Every segment must fit the byte budget. On
// success the baselines of t start over, the routine cursor leaves t, and pending
// recomputes of t are dropped.
func (s *Scheduler) LoadRegions(t catalog.ResourceType, defs []catalog.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRegions(t, defs); err != nil {
		return err
	}
	return s.replaceRegions(t, defs)
}

// ReloadRegions replaces several types at once. Every type is validated before any is
// replaced, so a rejected table leaves all types and their baselines as they were.
func (s *Scheduler) ReloadRegions(set map[catalog.ResourceType][]catalog.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range catalog.AllTypes() {
		if defs, ok := set[t]; ok {
			if err := s.checkRegions(t, defs); err != nil {
				return err
			}
		}
	}
	for _, t := range catalog.AllTypes() {
		if defs, ok := set[t]; ok {
			if err := s.replaceRegions(t, defs); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Scheduler) checkRegions(t catalog.ResourceType, defs []catalog.Definition) error {
	for i, d := range defs {
		if seg := min(d.SegmentSize, d.Length); seg > s.budget {
			return catalog.ErrInvalidRegion.
				WithContext("resource_type", t.String()).
				WithContext("entry_id", i).
				WithContext("region", d.Name).
				WithContext("reason", "segment larger than byte budget").
				WithContext("byte_budget", s.budget)
		}
	}
	return s.cat.Validate(t, defs)
}

func (s *Scheduler) replaceRegions(t catalog.ResourceType, defs []catalog.Definition) error {
	gen, err := s.cat.Load(t, defs)
	if err != nil {
		return err
	}
	s.base.Reset(t, gen, len(defs))

	if s.cursor.typ == t {
		s.cursor = cursor{typ: t}
	}
	live := s.recomputes[:0]
	for _, task := range s.recomputes {
		if task.region.Type() != t {
			live = append(live, task)
		}
	}
	clear(s.recomputes[len(live):])
	s.recomputes = live
	return nil
}

// ResetCounters zeroes the pass, byte, mismatch and failure counters.
func (s *Scheduler) ResetCounters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = counters{}
}

// RegionBaseline pairs a region with its baseline record.
type RegionBaseline struct {
	ResourceType catalog.ResourceType `json:"resource_type"`
	Region       string               `json:"region"`
	EntryID      int                  `json:"entry_id"`
	Start        uint64               `json:"start"`
	Length       uint64               `json:"length"`
	Enabled      bool                 `json:"enabled"`
	Recomputing  bool                 `json:"recomputing"`
	Baseline     baseline.Record      `json:"baseline"`
}

// Baseline returns the baseline of a named region.
func (s *Scheduler) Baseline(t catalog.ResourceType, name string) (RegionBaseline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.cat.LookupByName(t, name)
	if err != nil {
		return RegionBaseline{}, err
	}
	return s.regionBaseline(r)
}

// Baselines lists every region of t with its baseline.
func (s *Scheduler) Baselines(t catalog.ResourceType) ([]RegionBaseline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []RegionBaseline
	for _, r := range s.cat.AllRegions(t) {
		rb, err := s.regionBaseline(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rb)
	}
	return out, nil
}

func (s *Scheduler) regionBaseline(r catalog.Region) (RegionBaseline, error) {
	rec, err := s.base.Get(r.Handle)
	if err != nil {
		return RegionBaseline{}, err
	}
	return RegionBaseline{
		ResourceType: r.Type(),
		Region:       r.Name,
		EntryID:      r.Handle.Index,
		Start:        r.Start,
		Length:       r.Length,
		Enabled:      r.Enabled,
		Recomputing:  s.recomputeFor(r.Handle) != nil,
		Baseline:     rec,
	}, nil
}

// Entry returns the baseline of a region by entry ID.
func (s *Scheduler) Entry(t catalog.ResourceType, entry int) (RegionBaseline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.cat.LookupByEntry(t, entry)
	if err != nil {
		return RegionBaseline{}, err
	}
	return s.regionBaseline(r)
}

// EntriesAt lists the regions of t containing addr.
func (s *Scheduler) EntriesAt(t catalog.ResourceType, addr uint64) []RegionBaseline {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []RegionBaseline
	for _, r := range s.cat.LookupByAddress(t, addr) {
		if rb, err := s.regionBaseline(r); err == nil {
			out = append(out, rb)
		}
	}
	return out
}
