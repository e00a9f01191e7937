package scheduler

import (
	"context"
	"time"

	"git.home.luguber.info/inful/csmon/internal/catalog"
	"git.home.luguber.info/inful/csmon/internal/checksum"
	"git.home.luguber.info/inful/csmon/internal/logfields"
	"git.home.luguber.info/inful/csmon/internal/memory"
	"git.home.luguber.info/inful/csmon/internal/metrics"
	"git.home.luguber.info/inful/csmon/internal/report"
)

type oneShotTask struct {
	start      uint64
	length     uint64
	maxPerTick uint64
	done       uint64
	running    checksum.State
}

type recomputeTask struct {
	region  catalog.Region
	segment int
	running checksum.State
	done    bool
}

// OneShotResult is the outcome of the last finished one-shot.
type OneShotResult struct {
	Start    uint64    `json:"start"`
	Length   uint64    `json:"length"`
	Checksum uint64    `json:"checksum"`
	Failed   bool      `json:"failed"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

// RequestOneShot starts a raw checksum over [start, start+length). maxPerTick caps the
// bytes folded per tick below the byte budget; zero means the whole budget.
func (s *Scheduler) RequestOneShot(_ context.Context, start, length, maxPerTick uint64) error {
	if length == 0 || start+length < start {
		return ErrInvalidRange.WithContext("address", start).WithContext("length", length)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.oneShot != nil {
		return ErrAlreadyInProgress.
			WithContext("task", report.TaskOneShot).
			WithContext("address", s.oneShot.start)
	}
	if v, ok := s.mem.(memory.Validator); ok {
		if err := v.Validate(start, length); err != nil {
			return err
		}
	}
	s.oneShot = &oneShotTask{start: start, length: length, maxPerTick: maxPerTick}
	return nil
}

// CancelOneShot drops the active one-shot and its partial result. It reports whether
// one was active.
func (s *Scheduler) CancelOneShot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := s.oneShot != nil
	s.oneShot = nil
	return active
}

func (s *Scheduler) advanceOneShot(t *tick) {
	o := s.oneShot
	n := min(t.remaining, o.length-o.done)
	if o.maxPerTick > 0 {
		n = min(n, o.maxPerTick)
	}
	if n == 0 {
		return
	}

	addr := o.start + o.done
	running, err := s.fold(o.running, addr, n)
	if err != nil {
		s.oneShot = nil
		s.counters.taskFailures++
		s.lastOneShot = &OneShotResult{Start: o.start, Length: o.length, Failed: true, Error: err.Error(), At: s.now()}
		s.emit(report.TaskFailed{
			Meta:    s.meta(),
			Task:    report.TaskOneShot,
			Address: addr,
			Length:  n,
			Error:   err.Error(),
		})
		return
	}
	t.consume(n)
	s.recorder.AddBytesFolded(metrics.TaskOneShot, n)
	s.recorder.IncSegmentsFolded(metrics.TaskOneShot)
	o.running = running
	o.done += n

	if o.done == o.length {
		value := s.base.Finalize(o.running)
		s.oneShot = nil
		s.lastOneShot = &OneShotResult{Start: o.start, Length: o.length, Checksum: value, At: s.now()}
		s.emit(report.OneShotComplete{Meta: s.meta(), Start: o.start, Length: o.length, Checksum: value})
	}
}

// RequestRecompute clears the baseline of a region and queues it for recomputation.
func (s *Scheduler) RequestRecompute(_ context.Context, t catalog.ResourceType, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.cat.LookupByName(t, name)
	if err != nil {
		return err
	}
	return s.queueRecompute(r)
}

// RequestRecomputeEntry is RequestRecompute addressed by entry ID. The lookup and the
// queueing happen under one lock, so a concurrent table reload cannot retarget it.
func (s *Scheduler) RequestRecomputeEntry(_ context.Context, t catalog.ResourceType, entry int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.cat.LookupByEntry(t, entry)
	if err != nil {
		return err
	}
	return s.queueRecompute(r)
}

func (s *Scheduler) queueRecompute(r catalog.Region) error {
	if s.recomputeFor(r.Handle) != nil {
		return ErrAlreadyInProgress.
			WithContext("task", report.TaskRecompute).
			WithContext("resource_type", r.Type().String()).
			WithContext("region", r.Name)
	}
	if s.oneShot != nil && r.Overlaps(s.oneShot.start, s.oneShot.length) {
		return ErrAlreadyInProgress.
			WithContext("task", report.TaskOneShot).
			WithContext("resource_type", r.Type().String()).
			WithContext("region", r.Name)
	}
	if err := s.base.BeginRecompute(r.Handle); err != nil {
		return err
	}
	if s.cursorOn(r.Handle) {
		s.cursor.discard()
	}
	s.recomputes = append(s.recomputes, &recomputeTask{region: r})
	return nil
}

func (s *Scheduler) recomputeFor(h catalog.Handle) *recomputeTask {
	for _, task := range s.recomputes {
		if task.region.Handle == h {
			return task
		}
	}
	return nil
}

// advanceRecomputes gives every pending recompute one segment per round, starting
// with a task that rotates every tick, until no pending segment fits the budget.
func (s *Scheduler) advanceRecomputes(t *tick) {
	n := len(s.recomputes)
	first := s.rrStart % n
	s.rrStart = (s.rrStart + 1) % n
	order := append(append([]*recomputeTask(nil), s.recomputes[first:]...), s.recomputes[:first]...)

	for progress := true; progress; {
		progress = false
		for _, task := range order {
			if task.done {
				continue
			}
			seg := task.region.Segment(task.segment)
			if !t.fits(seg.Length) {
				continue
			}
			s.stepRecompute(t, task, seg)
			progress = true
		}
	}

	live := s.recomputes[:0]
	for _, task := range s.recomputes {
		if !task.done {
			live = append(live, task)
		}
	}
	clear(s.recomputes[len(live):])
	s.recomputes = live
}

func (s *Scheduler) stepRecompute(t *tick, task *recomputeTask, seg catalog.Segment) {
	r := task.region
	running, err := s.fold(task.running, r.Start+seg.Offset, seg.Length)
	if err != nil {
		task.done = true
		s.counters.taskFailures++
		s.emit(report.TaskFailed{
			Meta:         s.meta(),
			Task:         report.TaskRecompute,
			ResourceType: r.Type(),
			Region:       r.Name,
			Address:      r.Start + seg.Offset,
			Length:       seg.Length,
			Error:        err.Error(),
		})
		return
	}
	t.consume(seg.Length)
	s.recorder.AddBytesFolded(metrics.TaskRecompute, seg.Length)
	s.recorder.IncSegmentsFolded(metrics.TaskRecompute)
	task.running = running
	task.segment++

	if task.segment < r.NumSegments() {
		return
	}
	task.done = true
	value := s.base.Finalize(task.running)
	if err := s.base.Commit(r.Handle, value); err != nil {
		s.logger.Warn("Baseline commit failed", logfields.Region(r.Name), logfields.Error(err))
		return
	}
	s.emit(report.RecomputeComplete{
		Meta:         s.meta(),
		ResourceType: r.Type(),
		Region:       r.Name,
		EntryID:      r.Handle.Index,
		Checksum:     value,
	})
}
