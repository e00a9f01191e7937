// Package report carries what the scanner observes to the outside world.
//
// The scheduler produces Events and hands them to a Reporter after releasing its
// lock. Reporters must not block for long and never fail the caller: each sink
// logs or counts its own delivery problems.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/csmon/internal/catalog"
)

// Kind names an event type on the wire and in logs.
type Kind string

const (
	KindAnomaly               Kind = "anomaly"
	KindCycleComplete         Kind = "cycle_complete"
	KindOneShotComplete       Kind = "oneshot_complete"
	KindRecomputeComplete     Kind = "recompute_complete"
	KindTaskFailed            Kind = "task_failed"
	KindEnableChanged         Kind = "enable_changed"
	KindPersistenceDowngraded Kind = "persistence_downgraded"
)

// Event is implemented by every report type.
type Event interface {
	Kind() Kind
	Header() Meta
}

// Meta identifies one report.
type Meta struct {
	ID string    `json:"id"`
	At time.Time `json:"at"`
}

// NewMeta stamps a fresh report ID.
func NewMeta(at time.Time) Meta {
	return Meta{ID: uuid.NewString(), At: at}
}

func (m Meta) Header() Meta { return m }

// Anomaly is a baseline mismatch.
type Anomaly struct {
	Meta
	ResourceType catalog.ResourceType `json:"resource_type"`
	Region       string               `json:"region"`
	EntryID      int                  `json:"entry_id"`
	Start        uint64               `json:"start"`
	Length       uint64               `json:"length"`
	Expected     uint64               `json:"expected"`
	Actual       uint64               `json:"actual"`
}

func (Anomaly) Kind() Kind { return KindAnomaly }

// CycleComplete marks one full routine traversal.
type CycleComplete struct {
	Meta
	Pass uint64 `json:"pass"`
}

func (CycleComplete) Kind() Kind { return KindCycleComplete }

// OneShotComplete carries the raw checksum of a caller-specified range.
type OneShotComplete struct {
	Meta
	Start    uint64 `json:"start"`
	Length   uint64 `json:"length"`
	Checksum uint64 `json:"checksum"`
}

func (OneShotComplete) Kind() Kind { return KindOneShotComplete }

// RecomputeComplete reports a freshly committed baseline.
type RecomputeComplete struct {
	Meta
	ResourceType catalog.ResourceType `json:"resource_type"`
	Region       string               `json:"region"`
	EntryID      int                  `json:"entry_id"`
	Checksum     uint64               `json:"checksum"`
}

func (RecomputeComplete) Kind() Kind { return KindRecomputeComplete }

// Task names used in TaskFailed.
const (
	TaskRoutine   = "routine"
	TaskOneShot   = "oneshot"
	TaskRecompute = "recompute"
)

// TaskFailed reports a memory access failure. Routine failures skip the region;
// one-shot and recompute failures abort the task.
type TaskFailed struct {
	Meta
	Task         string               `json:"task"`
	ResourceType catalog.ResourceType `json:"resource_type"`
	Region       string               `json:"region,omitempty"`
	Address      uint64               `json:"address"`
	Length       uint64               `json:"length"`
	Error        string               `json:"error"`
}

func (TaskFailed) Kind() Kind { return KindTaskFailed }

// Scopes used in EnableChanged.
const (
	ScopeType   = "type"
	ScopeMaster = "master"
	ScopeEntry  = "entry"
)

// EnableChanged acknowledges an enable or disable command.
type EnableChanged struct {
	Meta
	Scope        string               `json:"scope"`
	ResourceType catalog.ResourceType `json:"resource_type"`
	Region       string               `json:"region,omitempty"`
	Enabled      bool                 `json:"enabled"`
	Persisted    bool                 `json:"persisted"`
}

func (EnableChanged) Kind() Kind { return KindEnableChanged }

// PersistenceDowngraded is emitted once when persistence stops for the run.
type PersistenceDowngraded struct {
	Meta
	Backend string `json:"backend"`
	Reason  string `json:"reason"`
}

func (PersistenceDowngraded) Kind() Kind { return KindPersistenceDowngraded }

// Reporter receives events.
type Reporter interface {
	Report(ctx context.Context, ev Event)
}

// Nop discards events.
type Nop struct{}

func (Nop) Report(context.Context, Event) {}

// Multi fans events out to several reporters in order.
type Multi []Reporter

func (m Multi) Report(ctx context.Context, ev Event) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, ev)
		}
	}
}
