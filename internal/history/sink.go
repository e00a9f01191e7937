package history

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/csmon/internal/logfields"
	"git.home.luguber.info/inful/csmon/internal/report"
)

// Sink records reports into a Store. Cycle completions are skipped unless asked for
// since they would dominate the table.
type Sink struct {
	store        *Store
	logger       *slog.Logger
	recordCycles bool
}

func NewSink(store *Store, logger *slog.Logger, recordCycles bool) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{store: store, logger: logger, recordCycles: recordCycles}
}

func (s *Sink) Report(ctx context.Context, ev report.Event) {
	if ev.Kind() == report.KindCycleComplete && !s.recordCycles {
		return
	}
	if err := s.store.Append(ctx, ev); err != nil {
		s.logger.Warn("Failed to record report",
			logfields.ReportID(ev.Header().ID),
			logfields.Error(err))
	}
}
