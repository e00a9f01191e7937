package command

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/csmon/internal/baseline"
	"git.home.luguber.info/inful/csmon/internal/catalog"
	"git.home.luguber.info/inful/csmon/internal/checksum"
	"git.home.luguber.info/inful/csmon/internal/memory"
	"git.home.luguber.info/inful/csmon/internal/persist"
	"git.home.luguber.info/inful/csmon/internal/report"
	"git.home.luguber.info/inful/csmon/internal/scheduler"
)

const base = 0x4000

func newFacade(t *testing.T) (*Facade, *scheduler.Scheduler, *report.Collector) {
	t.Helper()
	img := memory.NewImage()
	require.NoError(t, img.Map(base, make([]byte, 16*1024)))

	reports := &report.Collector{}
	cat := catalog.New(img)
	s, err := scheduler.New(scheduler.Options{
		Catalog:    cat,
		Baselines:  baseline.New(checksum.CRC32{}),
		Memory:     img,
		Persist:    persist.NewStore(persist.NewMemoryBackend(), persist.AllEnabled()),
		Reporter:   reports,
		Logger:     slog.New(slog.DiscardHandler),
		ByteBudget: 1024,
	})
	require.NoError(t, err)
	s.Restore(context.Background())
	require.NoError(t, s.LoadRegions(catalog.Apps, []catalog.Definition{
		{Name: "sample_app", Start: base, Length: 2048, SegmentSize: 512},
		{Name: "lc", Start: base + 4096, Length: 1024, SegmentSize: 1024},
	}))
	return New(s, nil, slog.New(slog.DiscardHandler)), s, reports
}

func TestFacade_CountsCommandsAndErrors(t *testing.T) {
	ctx := context.Background()
	f, _, _ := newFacade(t)

	require.NoError(t, f.Noop(ctx))
	require.NoError(t, f.DisableType(ctx, catalog.Apps))
	require.Error(t, f.EnableType(ctx, catalog.ResourceType(42)))
	require.Error(t, f.RecomputeBaseline(ctx, Ref{Type: catalog.Apps, Name: "ghost"}))

	hk := f.Housekeeping(ctx)
	assert.Equal(t, uint64(2), hk.CommandCount)
	assert.Equal(t, uint64(2), hk.CommandErrorCount)
	assert.False(t, hk.Enabled["apps"])

	require.NoError(t, f.ResetCounters(ctx))
	hk = f.Housekeeping(ctx)
	assert.Zero(t, hk.CommandCount)
	assert.Zero(t, hk.CommandErrorCount)
}

func TestFacade_RecomputeByNameAndEntry(t *testing.T) {
	ctx := context.Background()
	f, s, reports := newFacade(t)

	require.NoError(t, f.RecomputeBaseline(ctx, Ref{Type: catalog.Apps, Entry: 1}))
	require.ErrorIs(t, f.RecomputeBaseline(ctx, Ref{Type: catalog.Apps, Name: "lc"}), scheduler.ErrAlreadyInProgress)

	s.Advance(ctx, 1024)
	done := report.Of[report.RecomputeComplete](reports)
	require.Len(t, done, 1)
	assert.Equal(t, "lc", done[0].Region)

	rb, err := f.ReportBaseline(ctx, Ref{Type: catalog.Apps, Name: "lc"})
	require.NoError(t, err)
	assert.True(t, rb.Baseline.IsSet)
	assert.Equal(t, done[0].Checksum, rb.Baseline.Checksum)
}

func TestFacade_OneShotLifecycle(t *testing.T) {
	ctx := context.Background()
	f, s, reports := newFacade(t)

	require.NoError(t, f.OneShot(ctx, base, 3000, 0))
	require.ErrorIs(t, f.OneShot(ctx, base, 10, 0), scheduler.ErrAlreadyInProgress)
	require.NoError(t, f.CancelOneShot(ctx))
	require.NoError(t, f.CancelOneShot(ctx))
	require.NoError(t, f.OneShot(ctx, base, 100, 0))

	s.Advance(ctx, 1024)
	assert.Len(t, report.Of[report.OneShotComplete](reports), 1)
	assert.NotNil(t, f.Housekeeping(ctx).LastOneShot)

	err := f.OneShot(ctx, 0x100000, 16, 0)
	require.ErrorIs(t, err, memory.ErrUnmapped)
}

func TestFacade_EntriesAndSwitches(t *testing.T) {
	ctx := context.Background()
	f, s, _ := newFacade(t)

	hits, err := f.GetEntryID(ctx, catalog.Apps, base+4096+10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "lc", hits[0].Region)

	_, err = f.GetEntryID(ctx, catalog.Apps, base+3000)
	require.ErrorIs(t, err, ErrNoEntry)

	require.NoError(t, f.DisableEntry(ctx, catalog.Apps, 0))
	rb, err := f.ReportBaseline(ctx, Ref{Type: catalog.Apps, Entry: 0})
	require.NoError(t, err)
	assert.False(t, rb.Enabled)
	require.NoError(t, f.EnableEntry(ctx, catalog.Apps, 0))

	require.NoError(t, f.DisableAll(ctx))
	assert.Equal(t, scheduler.Idle, s.State())
	require.NoError(t, f.EnableAll(ctx))
	assert.Equal(t, scheduler.RoutineScanning, s.State())

	require.ErrorIs(t, f.SetByteBudget(ctx, 100), scheduler.ErrInvalidBudget)
	require.NoError(t, f.SetByteBudget(ctx, 4096))
	assert.Equal(t, uint64(4096), f.Housekeeping(ctx).ByteBudget)
}
