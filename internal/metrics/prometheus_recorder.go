package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "csmon"

var (
	persistenceHealthStates = []string{"unknown", "healthy", "disabled"}
	breakerStates           = []string{"closed", "half-open", "open"}
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once              sync.Once
	tickDuration      *prom.HistogramVec
	bytesFolded       *prom.CounterVec
	segmentsFolded    *prom.CounterVec
	cycles            prom.Counter
	anomalies         *prom.CounterVec
	baselines         *prom.CounterVec
	taskFailures      *prom.CounterVec
	typeEnabled       *prom.GaugeVec
	byteBudget        prom.Gauge
	persistenceHealth *prom.GaugeVec
	commands          *prom.CounterVec
	reportsDropped    *prom.CounterVec
	breakerState      *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers the monitor metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.tickDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent inside one scheduler tick",
			Buckets:   []float64{.00005, .0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"state"})
		pr.bytesFolded = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_folded_total",
			Help:      "Bytes folded into running checksums",
		}, []string{"task"})
		pr.segmentsFolded = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "segments_folded_total",
			Help:      "Segments folded into running checksums",
		}, []string{"task"})
		pr.cycles = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_completed_total",
			Help:      "Completed routine scan cycles",
		})
		pr.anomalies = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_total",
			Help:      "Baseline mismatches by resource type",
		}, []string{"resource_type"})
		pr.baselines = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "baselines_committed_total",
			Help:      "Baselines committed by resource type",
		}, []string{"resource_type"})
		pr.taskFailures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "task_failures_total",
			Help:      "Memory read failures by task",
		}, []string{"task"})
		pr.typeEnabled = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "resource_type_enabled",
			Help:      "1 when checksumming of the resource type is enabled",
		}, []string{"resource_type"})
		pr.byteBudget = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "byte_budget",
			Help:      "Bytes the scheduler may fold per tick",
		})
		pr.persistenceHealth = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "persistence_health",
			Help:      "1 for the current persistence health state",
		}, []string{"state"})
		pr.commands = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands handled by result",
		}, []string{"command", "result"})
		pr.reportsDropped = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reports_dropped_total",
			Help:      "Reports a sink could not accept",
		}, []string{"sink"})
		pr.breakerState = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "1 for the current state of a report publisher circuit breaker",
		}, []string{"breaker", "state"})
		reg.MustRegister(pr.tickDuration, pr.bytesFolded, pr.segmentsFolded, pr.cycles, pr.anomalies,
			pr.baselines, pr.taskFailures, pr.typeEnabled, pr.byteBudget, pr.persistenceHealth,
			pr.commands, pr.reportsDropped, pr.breakerState)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveTick(d time.Duration, state string) {
	if p == nil || p.tickDuration == nil {
		return
	}
	p.tickDuration.WithLabelValues(state).Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddBytesFolded(task string, n uint64) {
	if p == nil || p.bytesFolded == nil || n == 0 {
		return
	}
	p.bytesFolded.WithLabelValues(task).Add(float64(n))
}

func (p *PrometheusRecorder) IncSegmentsFolded(task string) {
	if p == nil || p.segmentsFolded == nil {
		return
	}
	p.segmentsFolded.WithLabelValues(task).Inc()
}

func (p *PrometheusRecorder) IncCycleComplete() {
	if p == nil || p.cycles == nil {
		return
	}
	p.cycles.Inc()
}

func (p *PrometheusRecorder) IncAnomaly(resourceType string) {
	if p == nil || p.anomalies == nil {
		return
	}
	p.anomalies.WithLabelValues(resourceType).Inc()
}

func (p *PrometheusRecorder) IncBaselineCommitted(resourceType string) {
	if p == nil || p.baselines == nil {
		return
	}
	p.baselines.WithLabelValues(resourceType).Inc()
}

func (p *PrometheusRecorder) IncTaskFailure(task string) {
	if p == nil || p.taskFailures == nil {
		return
	}
	p.taskFailures.WithLabelValues(task).Inc()
}

func (p *PrometheusRecorder) SetTypeEnabled(resourceType string, enabled bool) {
	if p == nil || p.typeEnabled == nil {
		return
	}
	v := 0.0
	if enabled {
		v = 1
	}
	p.typeEnabled.WithLabelValues(resourceType).Set(v)
}

func (p *PrometheusRecorder) SetByteBudget(n uint64) {
	if p == nil || p.byteBudget == nil {
		return
	}
	p.byteBudget.Set(float64(n))
}

func (p *PrometheusRecorder) SetPersistenceHealth(health string) {
	if p == nil || p.persistenceHealth == nil {
		return
	}
	for _, s := range persistenceHealthStates {
		v := 0.0
		if s == health {
			v = 1
		}
		p.persistenceHealth.WithLabelValues(s).Set(v)
	}
}

func (p *PrometheusRecorder) IncCommand(command string, ok bool) {
	if p == nil || p.commands == nil {
		return
	}
	res := "error"
	if ok {
		res = "ok"
	}
	p.commands.WithLabelValues(command, res).Inc()
}

func (p *PrometheusRecorder) IncReportDropped(sink string) {
	if p == nil || p.reportsDropped == nil {
		return
	}
	p.reportsDropped.WithLabelValues(sink).Inc()
}

func (p *PrometheusRecorder) SetBreakerState(breaker, state string) {
	if p == nil || p.breakerState == nil {
		return
	}
	for _, s := range breakerStates {
		v := 0.0
		if s == state {
			v = 1
		}
		p.breakerState.WithLabelValues(breaker, s).Set(v)
	}
}
