package scheduler

import (
	"git.home.luguber.info/inful/csmon/internal/catalog"
)

// Status is a housekeeping snapshot.
type Status struct {
	State         State             `json:"state"`
	ByteBudget    uint64            `json:"byte_budget"`
	MasterEnabled bool              `json:"master_enabled"`
	Enabled       map[string]bool   `json:"enabled"`
	Persistence   string            `json:"persistence"`
	Pass          uint64            `json:"pass"`
	BytesFolded   uint64            `json:"bytes_folded"`
	TaskFailures  uint64            `json:"task_failures"`
	Mismatches    map[string]uint64 `json:"mismatches"`
	Cursor        CursorStatus      `json:"cursor"`
	OneShot       *OneShotStatus    `json:"oneshot,omitempty"`
	LastOneShot   *OneShotResult    `json:"last_oneshot,omitempty"`
	Recomputes    []RecomputeStatus `json:"recomputes"`
	Regions       map[string]int    `json:"regions"`
}

// CursorStatus is the position of the routine cursor.
type CursorStatus struct {
	ResourceType catalog.ResourceType `json:"resource_type"`
	EntryID      int                  `json:"entry_id"`
	Segment      int                  `json:"segment"`
}

// OneShotStatus describes the active one-shot.
type OneShotStatus struct {
	Start      uint64 `json:"start"`
	Length     uint64 `json:"length"`
	Done       uint64 `json:"done"`
	MaxPerTick uint64 `json:"max_per_tick"`
}

// RecomputeStatus describes one pending recompute.
type RecomputeStatus struct {
	ResourceType catalog.ResourceType `json:"resource_type"`
	Region       string               `json:"region"`
	EntryID      int                  `json:"entry_id"`
	Segment      int                  `json:"segment"`
	Segments     int                  `json:"segments"`
}

// Status returns a consistent snapshot of the scheduler.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:         s.stateLocked(),
		ByteBudget:    s.budget,
		MasterEnabled: s.master,
		Enabled:       s.enabled.Map(),
		Persistence:   "none",
		Pass:          s.counters.pass,
		BytesFolded:   s.counters.bytes,
		TaskFailures:  s.counters.taskFailures,
		Mismatches:    make(map[string]uint64, catalog.NumResourceTypes),
		Regions:       make(map[string]int, catalog.NumResourceTypes),
		Cursor: CursorStatus{
			ResourceType: s.cursor.typ,
			EntryID:      s.cursor.region,
			Segment:      s.cursor.segment,
		},
		Recomputes: make([]RecomputeStatus, 0, len(s.recomputes)),
	}
	if s.persist != nil {
		st.Persistence = s.persist.Health().String()
	}
	for _, t := range catalog.AllTypes() {
		st.Mismatches[t.String()] = s.counters.mismatches[t]
		st.Regions[t.String()] = s.cat.Count(t)
	}
	if o := s.oneShot; o != nil {
		st.OneShot = &OneShotStatus{Start: o.start, Length: o.length, Done: o.done, MaxPerTick: o.maxPerTick}
	}
	if s.lastOneShot != nil {
		last := *s.lastOneShot
		st.LastOneShot = &last
	}
	for _, task := range s.recomputes {
		st.Recomputes = append(st.Recomputes, RecomputeStatus{
			ResourceType: task.region.Type(),
			Region:       task.region.Name,
			EntryID:      task.region.Handle.Index,
			Segment:      task.segment,
			Segments:     task.region.NumSegments(),
		})
	}
	return st
}
