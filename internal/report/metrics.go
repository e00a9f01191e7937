package report

import (
	"context"

	"git.home.luguber.info/inful/csmon/internal/metrics"
)

// MetricsReporter turns events into counter updates.
type MetricsReporter struct {
	recorder metrics.Recorder
}

func NewMetricsReporter(recorder metrics.Recorder) *MetricsReporter {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &MetricsReporter{recorder: recorder}
}

func (m *MetricsReporter) Report(_ context.Context, ev Event) {
	switch e := ev.(type) {
	case Anomaly:
		m.recorder.IncAnomaly(e.ResourceType.String())
	case CycleComplete:
		m.recorder.IncCycleComplete()
	case RecomputeComplete:
		m.recorder.IncBaselineCommitted(e.ResourceType.String())
	case TaskFailed:
		m.recorder.IncTaskFailure(e.Task)
	case EnableChanged:
		if e.Scope == ScopeType {
			m.recorder.SetTypeEnabled(e.ResourceType.String(), e.Enabled)
		}
	case PersistenceDowngraded:
		m.recorder.SetPersistenceHealth("disabled")
	}
}
