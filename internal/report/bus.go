package report

import (
	"context"

	"git.home.luguber.info/inful/csmon/internal/events"
	"git.home.luguber.info/inful/csmon/internal/metrics"
)

// BusReporter publishes events on an in-process bus without ever blocking.
// Subscribe to report.Event to receive everything, or to a concrete type.
type BusReporter struct {
	bus      *events.Bus
	recorder metrics.Recorder
}

func NewBusReporter(bus *events.Bus, recorder metrics.Recorder) *BusReporter {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &BusReporter{bus: bus, recorder: recorder}
}

func (b *BusReporter) Report(_ context.Context, ev Event) {
	for range b.bus.TryPublish(ev) {
		b.recorder.IncReportDropped("bus")
	}
}
