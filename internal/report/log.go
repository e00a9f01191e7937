package report

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/csmon/internal/logfields"
)

// LogReporter writes events to a slog logger.
type LogReporter struct {
	logger *slog.Logger
}

func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

func (l *LogReporter) Report(ctx context.Context, ev Event) {
	id := logfields.ReportID(ev.Header().ID)
	switch e := ev.(type) {
	case Anomaly:
		l.logger.LogAttrs(ctx, slog.LevelWarn, "Checksum mismatch",
			id,
			logfields.ResourceType(e.ResourceType.String()),
			logfields.Region(e.Region),
			logfields.EntryID(e.EntryID),
			logfields.Address(e.Start),
			logfields.Expected(e.Expected),
			logfields.Actual(e.Actual))
	case CycleComplete:
		l.logger.LogAttrs(ctx, slog.LevelDebug, "Checksum cycle complete", id, logfields.Pass(e.Pass))
	case OneShotComplete:
		l.logger.LogAttrs(ctx, slog.LevelInfo, "One-shot checksum complete",
			id,
			logfields.Address(e.Start),
			logfields.Length(e.Length),
			logfields.Checksum(e.Checksum))
	case RecomputeComplete:
		l.logger.LogAttrs(ctx, slog.LevelInfo, "Baseline recomputed",
			id,
			logfields.ResourceType(e.ResourceType.String()),
			logfields.Region(e.Region),
			logfields.EntryID(e.EntryID),
			logfields.Checksum(e.Checksum))
	case TaskFailed:
		attrs := []slog.Attr{id, logfields.Task(e.Task), logfields.Address(e.Address), logfields.Length(e.Length),
			slog.String(logfields.KeyError, e.Error)}
		if e.Region != "" {
			attrs = append(attrs, logfields.ResourceType(e.ResourceType.String()), logfields.Region(e.Region))
		}
		l.logger.LogAttrs(ctx, slog.LevelWarn, "Checksum task failed", attrs...)
	case EnableChanged:
		attrs := []slog.Attr{id, slog.String("scope", e.Scope), slog.Bool("enabled", e.Enabled), slog.Bool("persisted", e.Persisted)}
		if e.Scope != ScopeMaster {
			attrs = append(attrs, logfields.ResourceType(e.ResourceType.String()))
		}
		if e.Region != "" {
			attrs = append(attrs, logfields.Region(e.Region))
		}
		l.logger.LogAttrs(ctx, slog.LevelInfo, "Checksum enable state changed", attrs...)
	case PersistenceDowngraded:
		l.logger.LogAttrs(ctx, slog.LevelWarn, "Enable state persistence disabled",
			id, logfields.Backend(e.Backend), slog.String("reason", e.Reason))
	default:
		l.logger.LogAttrs(ctx, slog.LevelInfo, "Report", id, slog.String("kind", string(ev.Kind())))
	}
}
