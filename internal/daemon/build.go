package daemon

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/csmon/internal/config"
	"git.home.luguber.info/inful/csmon/internal/events"
	"git.home.luguber.info/inful/csmon/internal/history"
	"git.home.luguber.info/inful/csmon/internal/logfields"
	"git.home.luguber.info/inful/csmon/internal/metrics"
	"git.home.luguber.info/inful/csmon/internal/persist"
	"git.home.luguber.info/inful/csmon/internal/report"
)

// openBackend builds the configured persistence backend. A backend that cannot be
// opened is logged and replaced by none, which starts the store disabled.
func openBackend(ctx context.Context, cfg config.PersistenceConfig, logger *slog.Logger) (persist.Backend, func() error) {
	var (
		backend persist.Backend
		closer  func() error
		err     error
	)
	switch cfg.Backend {
	case config.PersistenceMemory:
		backend = persist.NewMemoryBackend()
	case config.PersistenceFile:
		backend, err = persist.NewFileBackend(cfg.Path)
	case config.PersistenceSQLite:
		var b *persist.SQLiteBackend
		if b, err = persist.NewSQLiteBackend(cfg.Path); err == nil {
			backend, closer = b, b.Close
		}
	case config.PersistenceNATSKV:
		var b *persist.KVBackend
		if b, err = persist.NewKVBackend(ctx, persist.KVConfig{URL: cfg.NATS.URL, Bucket: cfg.NATS.Bucket}); err == nil {
			backend, closer = b, b.Close
		}
	}
	if err != nil {
		logger.Warn("Persistence backend unavailable; enable state will not survive restarts",
			logfields.Backend(string(cfg.Backend)),
			logfields.Error(err))
		return nil, nil
	}
	return backend, closer
}

// reporters assembles the report fan-out. The log, metrics and bus sinks are always
// present; history and NATS follow the configuration.
type reporters struct {
	multi   report.Multi
	history *history.Store
	nats    *report.NATSReporter
}

func buildReporters(cfg config.ReportsConfig, bus *events.Bus, recorder metrics.Recorder, logger *slog.Logger) (*reporters, error) {
	r := &reporters{multi: report.Multi{
		report.NewLogReporter(logger),
		report.NewMetricsReporter(recorder),
		report.NewBusReporter(bus, recorder),
	}}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		r.history = store
		r.multi = append(r.multi, history.NewSink(store, logger, cfg.History.RecordCycles))
	}

	if n := cfg.NATS; n != nil {
		pub, err := report.DialNATS(report.NATSConfig{
			URL:           n.URL,
			SubjectPrefix: n.SubjectPrefix,
			QueueSize:     n.QueueSize,
		}, recorder, logger)
		if err != nil {
			logger.Warn("NATS report sink unavailable", slog.String("url", n.URL), logfields.Error(err))
		} else {
			r.nats = pub
			r.multi = append(r.multi, pub)
		}
	}
	return r, nil
}

func (r *reporters) close() {
	if r.nats != nil {
		r.nats.Close()
	}
	if r.history != nil {
		_ = r.history.Close()
	}
}
