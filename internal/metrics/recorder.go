package metrics

import "time"

// Task labels used for per-task counters.
const (
	TaskRoutine   = "routine"
	TaskOneShot   = "oneshot"
	TaskRecompute = "recompute"
)

// Recorder defines observability hooks for the scan scheduler and its surroundings.
type Recorder interface {
	ObserveTick(d time.Duration, state string)
	AddBytesFolded(task string, n uint64)
	IncSegmentsFolded(task string)
	IncCycleComplete()
	IncAnomaly(resourceType string)
	IncBaselineCommitted(resourceType string)
	IncTaskFailure(task string)
	SetTypeEnabled(resourceType string, enabled bool)
	SetByteBudget(n uint64)
	SetPersistenceHealth(health string)
	IncCommand(command string, ok bool)
	IncReportDropped(sink string)
	SetBreakerState(breaker, state string)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveTick(time.Duration, string) {}
func (NoopRecorder) AddBytesFolded(string, uint64)     {}
func (NoopRecorder) IncSegmentsFolded(string)          {}
func (NoopRecorder) IncCycleComplete()                 {}
func (NoopRecorder) IncAnomaly(string)                 {}
func (NoopRecorder) IncBaselineCommitted(string)       {}
func (NoopRecorder) IncTaskFailure(string)             {}
func (NoopRecorder) SetTypeEnabled(string, bool)       {}
func (NoopRecorder) SetByteBudget(uint64)              {}
func (NoopRecorder) SetPersistenceHealth(string)       {}
func (NoopRecorder) IncCommand(string, bool)           {}
func (NoopRecorder) IncReportDropped(string)           {}
func (NoopRecorder) SetBreakerState(string, string)    {}
