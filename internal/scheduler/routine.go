package scheduler

import (
	"git.home.luguber.info/inful/csmon/internal/baseline"
	"git.home.luguber.info/inful/csmon/internal/catalog"
	"git.home.luguber.info/inful/csmon/internal/logfields"
	"git.home.luguber.info/inful/csmon/internal/metrics"
	"git.home.luguber.info/inful/csmon/internal/report"
)

// hasRoutineWork reports whether at least one region can be scanned by the routine
// cursor. Without it, advanceRoutine would spin through empty cycles.
func (s *Scheduler) hasRoutineWork() bool {
	for _, t := range catalog.AllTypes() {
		if !s.enabled[t] {
			continue
		}
		for _, r := range s.cat.AllRegions(t) {
			if s.routineEligible(r) {
				return true
			}
		}
	}
	return false
}

func (s *Scheduler) routineEligible(r catalog.Region) bool {
	return r.Enabled && s.recomputeFor(r.Handle) == nil
}

// advanceRoutine walks the cursor until the budget cannot fit the next segment or the
// cursor wraps. Wrapping ends the tick so CycleComplete fires once per traversal.
func (s *Scheduler) advanceRoutine(t *tick) {
	c := &s.cursor
	for {
		if !s.enabled[c.typ] || c.region >= s.cat.Count(c.typ) {
			if s.nextType() {
				s.counters.pass++
				t.result.CycleComplete = true
				s.emit(report.CycleComplete{Meta: s.meta(), Pass: s.counters.pass})
				return
			}
			continue
		}

		r, err := s.cat.LookupByEntry(c.typ, c.region)
		if err != nil || !s.routineEligible(r) {
			s.nextRegion()
			continue
		}

		seg := r.Segment(c.segment)
		if !t.fits(seg.Length) {
			return
		}

		running, err := s.fold(c.running, r.Start+seg.Offset, seg.Length)
		if err != nil {
			s.counters.taskFailures++
			s.emit(report.TaskFailed{
				Meta:         s.meta(),
				Task:         report.TaskRoutine,
				ResourceType: r.Type(),
				Region:       r.Name,
				Address:      r.Start + seg.Offset,
				Length:       seg.Length,
				Error:        err.Error(),
			})
			s.nextRegion()
			continue
		}
		t.consume(seg.Length)
		s.recorder.AddBytesFolded(metrics.TaskRoutine, seg.Length)
		s.recorder.IncSegmentsFolded(metrics.TaskRoutine)
		c.running = running
		c.segment++

		if c.segment == r.NumSegments() {
			s.finishRoutineRegion(r, s.base.Finalize(c.running))
			s.nextRegion()
		}
	}
}

// finishRoutineRegion commits a first baseline or compares against the existing one.
// Regions without a baseline never produce a mismatch.
func (s *Scheduler) finishRoutineRegion(r catalog.Region, value uint64) {
	rec, err := s.base.Get(r.Handle)
	if err != nil {
		s.logger.Warn("Baseline lookup failed", logfields.Region(r.Name), logfields.Error(err))
		return
	}
	if !rec.IsSet {
		if err := s.base.Commit(r.Handle, value); err != nil {
			s.logger.Warn("Baseline commit failed", logfields.Region(r.Name), logfields.Error(err))
			return
		}
		s.recorder.IncBaselineCommitted(r.Type().String())
		return
	}

	outcome, err := s.base.Compare(r.Handle, value)
	if err != nil {
		s.logger.Warn("Baseline compare failed", logfields.Region(r.Name), logfields.Error(err))
		return
	}
	if outcome == baseline.Mismatch {
		s.counters.mismatches[r.Type()]++
		s.emit(report.Anomaly{
			Meta:         s.meta(),
			ResourceType: r.Type(),
			Region:       r.Name,
			EntryID:      r.Handle.Index,
			Start:        r.Start,
			Length:       r.Length,
			Expected:     rec.Checksum,
			Actual:       value,
		})
	}
}

func (s *Scheduler) nextRegion() {
	s.cursor.region++
	s.cursor.discard()
}

// nextType moves the cursor to the first region of the next resource type and reports
// whether that wrapped past the last type.
func (s *Scheduler) nextType() bool {
	next := s.cursor.typ.Next()
	s.cursor = cursor{typ: next}
	return next == catalog.AllTypes()[0]
}

// cursorOn reports whether the routine cursor is inside region h.
func (s *Scheduler) cursorOn(h catalog.Handle) bool {
	return s.cursor.typ == h.Type && s.cursor.region == h.Index
}
