package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/csmon/internal/logfields"
	"git.home.luguber.info/inful/csmon/internal/scheduler"
)

// Advancer is the part of the scan scheduler driven by the ticker.
type Advancer interface {
	Tick(ctx context.Context) scheduler.TickResult
}

// Ticker runs Advancer.Tick on a fixed period through gocron. Singleton mode keeps a
// slow tick from overlapping the next one.
type Ticker struct {
	scheduler gocron.Scheduler
	target    Advancer
	period    time.Duration
	logger    *slog.Logger

	mu  sync.Mutex
	ctx context.Context
}

// NewTicker creates a stopped ticker.
func NewTicker(period time.Duration, target Advancer, logger *slog.Logger) (*Ticker, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	t := &Ticker{scheduler: s, target: target, period: period, logger: logger, ctx: context.Background()}

	_, err = s.NewJob(
		gocron.DurationJob(period),
		gocron.NewTask(t.tick),
		gocron.WithName("csmon-tick"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create tick job: %w", err)
	}
	return t, nil
}

// Run starts ticking and blocks until ctx is done.
func (t *Ticker) Run(ctx context.Context) error {
	t.mu.Lock()
	t.ctx = ctx
	t.mu.Unlock()

	t.logger.Info("Starting scan ticker", slog.Duration("period", t.period))
	t.scheduler.Start()
	<-ctx.Done()

	t.logger.Info("Stopping scan ticker")
	return t.scheduler.Shutdown()
}

func (t *Ticker) tick() {
	t.mu.Lock()
	ctx := t.ctx
	t.mu.Unlock()

	res := t.target.Tick(ctx)
	if res.Bytes > 0 {
		t.logger.LogAttrs(ctx, slog.LevelDebug, "Tick",
			logfields.State(res.State.String()),
			logfields.Bytes(res.Bytes),
			slog.Int("segments", res.Segments))
	}
}
