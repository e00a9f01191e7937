// Package daemon wires the scan scheduler to its collaborators and runs it.
package daemon

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/csmon/internal/baseline"
	"git.home.luguber.info/inful/csmon/internal/catalog"
	"git.home.luguber.info/inful/csmon/internal/checksum"
	"git.home.luguber.info/inful/csmon/internal/command"
	"git.home.luguber.info/inful/csmon/internal/config"
	"git.home.luguber.info/inful/csmon/internal/events"
	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
	"git.home.luguber.info/inful/csmon/internal/logfields"
	"git.home.luguber.info/inful/csmon/internal/memory"
	"git.home.luguber.info/inful/csmon/internal/metrics"
	"git.home.luguber.info/inful/csmon/internal/persist"
	"git.home.luguber.info/inful/csmon/internal/scheduler"
	"git.home.luguber.info/inful/csmon/internal/server"
	"git.home.luguber.info/inful/csmon/internal/tables"
)

// Daemon owns every long-running component of csmon.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	startTime time.Time

	sched   *scheduler.Scheduler
	facade  *command.Facade
	persist *persist.Store
	bus     *events.Bus
	ticker  *Ticker
	server  *server.Server
	watcher *tables.Watcher
	reports *reporters
	closers []func() error
}

// New builds a daemon from cfg. Nothing runs until Run.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, ferrors.ConfigError("configuration is required").Build()
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &Daemon{cfg: cfg, logger: logger, startTime: time.Now(), bus: events.NewBus()}
	if err := d.build(ctx); err != nil {
		d.close()
		return nil, err
	}
	return d, nil
}

func (d *Daemon) build(ctx context.Context) error {
	cfg := d.cfg

	space, err := memory.NewFileSpace(cfg.Memory.Mappings)
	if err != nil {
		return err
	}
	prim, err := checksum.New(cfg.Scheduler.Checksum)
	if err != nil {
		return err
	}
	defaults, err := cfg.Scheduler.Defaults()
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)

	d.reports, err = buildReporters(cfg.Reports, d.bus, recorder, d.logger)
	if err != nil {
		return err
	}

	backend, closer := openBackend(ctx, cfg.Persistence, d.logger)
	if closer != nil {
		d.closers = append(d.closers, closer)
	}
	d.persist = persist.NewStore(backend, defaults,
		persist.WithKey(cfg.Persistence.Key),
		persist.WithTimeout(cfg.Persistence.Timeout),
		persist.WithLogger(d.logger))

	d.sched, err = scheduler.New(scheduler.Options{
		Catalog:    catalog.New(space),
		Baselines:  baseline.New(prim),
		Memory:     space,
		Persist:    d.persist,
		Defaults:   defaults,
		Reporter:   d.reports.multi,
		Recorder:   recorder,
		Logger:     d.logger,
		ByteBudget: cfg.Scheduler.ByteBudget,
	})
	if err != nil {
		return err
	}
	d.sched.Restore(ctx)

	if err := d.loadTables(); err != nil {
		return err
	}

	d.facade = command.New(d.sched, recorder, d.logger)
	d.ticker, err = NewTicker(cfg.Scheduler.TickPeriod, d.sched, d.logger)
	if err != nil {
		return err
	}

	opts := server.Options{
		Addr:      cfg.HTTP.Addr,
		Commands:  d.facade,
		Health:    d,
		Bus:       d.bus,
		Metrics:   metrics.HTTPHandler(reg),
		RateLimit: cfg.HTTP.RateLimit,
		Burst:     cfg.HTTP.Burst,
		Logger:    d.logger,
	}
	if d.reports.history != nil {
		opts.History = d.reports.history
	}
	d.server = server.New(opts)
	return nil
}

// loadTables applies the region table file, if any, and prepares its watcher.
func (d *Daemon) loadTables() error {
	path := d.cfg.Tables.Path
	if path == "" {
		return nil
	}
	set, err := tables.Load(path)
	if err != nil {
		return err
	}
	if _, err := tables.Apply(context.Background(), d.sched, nil, set); err != nil {
		return err
	}
	d.logger.Info("Region table loaded", logfields.Path(path))

	if d.cfg.Tables.Watch {
		d.watcher, err = tables.NewWatcher(path, d.sched, set, d.logger)
		if err != nil {
			return err
		}
	}
	return nil
}

// Run starts the ticker, admin server, table watcher and NATS publisher and blocks
// until ctx is done or one of them fails.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.ticker.Run(gctx) })
	g.Go(func() error { return d.server.Run(gctx) })
	if d.watcher != nil {
		g.Go(func() error { return d.watcher.Run(gctx) })
	}
	if d.reports.nats != nil {
		g.Go(func() error { return d.reports.nats.Run(gctx) })
	}

	d.logger.Info("csmon daemon started",
		logfields.Budget(d.cfg.Scheduler.ByteBudget),
		slog.Duration("tick_period", d.cfg.Scheduler.TickPeriod),
		logfields.Backend(d.persist.BackendName()))

	err := g.Wait()
	d.logger.Info("csmon daemon stopped")
	return err
}

func (d *Daemon) close() {
	if d.reports != nil {
		d.reports.close()
	}
	for _, c := range d.closers {
		if err := c(); err != nil {
			d.logger.Warn("Failed to close resource", logfields.Error(err))
		}
	}
	d.bus.Close()
}

// Commands exposes the command facade.
func (d *Daemon) Commands() *command.Facade { return d.facade }

// Scheduler exposes the scan scheduler.
func (d *Daemon) Scheduler() *scheduler.Scheduler { return d.sched }

// StartTime implements handlers.HealthSource.
func (d *Daemon) StartTime() time.Time { return d.startTime }

// SchedulerState implements handlers.HealthSource.
func (d *Daemon) SchedulerState() string { return d.sched.State().String() }

// PersistenceHealth implements handlers.HealthSource.
func (d *Daemon) PersistenceHealth() string { return d.persist.Health().String() }
