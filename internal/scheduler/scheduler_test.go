package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/csmon/internal/baseline"
	"git.home.luguber.info/inful/csmon/internal/catalog"
	"git.home.luguber.info/inful/csmon/internal/memory"
	"git.home.luguber.info/inful/csmon/internal/persist"
	"git.home.luguber.info/inful/csmon/internal/report"
)

func TestRecompute_TakesThreeTicksForTenThousandBytes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 4096)
	f.load(t, catalog.Tables, def("big", 0, 10000, 4096))

	require.NoError(t, f.s.RequestRecompute(ctx, catalog.Tables, "big"))

	for i, want := range []uint64{4096, 4096, 1808} {
		rb, err := f.s.Baseline(catalog.Tables, "big")
		require.NoError(t, err)
		require.False(t, rb.Baseline.IsSet, "baseline set before tick %d", i+1)

		res := f.s.Advance(ctx, 4096)
		assert.Equal(t, RecomputeScanning, res.State)
		assert.Equal(t, want, res.Bytes, "tick %d", i+1)
		assert.Equal(t, 1, res.Segments)
	}

	rb, err := f.s.Baseline(catalog.Tables, "big")
	require.NoError(t, err)
	assert.True(t, rb.Baseline.IsSet)
	assert.Equal(t, f.sum(t, 0, 10000), rb.Baseline.Checksum)

	done := report.Of[report.RecomputeComplete](f.reports)
	require.Len(t, done, 1)
	assert.Equal(t, "big", done[0].Region)
	assert.Equal(t, rb.Baseline.Checksum, done[0].Checksum)

	// Unchanged bytes verify against the recomputed baseline.
	r, err := f.cat.LookupByName(catalog.Tables, "big")
	require.NoError(t, err)
	outcome, err := f.base.Compare(r.Handle, f.sum(t, 0, 10000))
	require.NoError(t, err)
	assert.Equal(t, baseline.Match, outcome)

	f.runUntilCycle(t, 4096)
	assert.Empty(t, report.Of[report.Anomaly](f.reports))
}

func TestRequestRecomputeEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	f.load(t, catalog.Apps, def("a", 0, 1000, 1000), def("b", 2000, 1000, 1000))
	f.runUntilCycle(t, 1000)

	require.NoError(t, f.s.RequestRecomputeEntry(ctx, catalog.Apps, 1))
	rb, err := f.s.Baseline(catalog.Apps, "b")
	require.NoError(t, err)
	assert.True(t, rb.Recomputing)
	assert.False(t, rb.Baseline.IsSet)

	rb, err = f.s.Baseline(catalog.Apps, "a")
	require.NoError(t, err)
	assert.False(t, rb.Recomputing)

	require.ErrorIs(t, f.s.RequestRecomputeEntry(ctx, catalog.Apps, 1), ErrAlreadyInProgress)
	require.ErrorIs(t, f.s.RequestRecomputeEntry(ctx, catalog.Apps, 2), catalog.ErrNotFound)

	// After a reload the entry ID addresses the new table.
	f.load(t, catalog.Apps, def("c", 4000, 1000, 1000))
	require.NoError(t, f.s.RequestRecomputeEntry(ctx, catalog.Apps, 0))
	st := f.s.Status()
	require.Len(t, st.Recomputes, 1)
	assert.Equal(t, "c", st.Recomputes[0].Region)
}

func TestRecompute_RoundRobinFinishesBothWithinFourTicks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	f.load(t, catalog.Tables, def("a", 0, 2000, 1000), def("b", 4096, 2000, 1000))

	require.NoError(t, f.s.RequestRecompute(ctx, catalog.Tables, "a"))
	require.NoError(t, f.s.RequestRecompute(ctx, catalog.Tables, "b"))

	for tick := 1; tick <= 4; tick++ {
		res := f.s.Advance(ctx, 1000)
		require.Equal(t, RecomputeScanning, res.State)
		require.Equal(t, uint64(1000), res.Bytes)

		if tick == 2 {
			st := f.s.Status()
			require.Len(t, st.Recomputes, 2)
			for _, rc := range st.Recomputes {
				assert.Equal(t, 1, rc.Segment, "region %s starved", rc.Region)
			}
		}
	}

	assert.Len(t, report.Of[report.RecomputeComplete](f.reports), 2)
	for _, name := range []string{"a", "b"} {
		rb, err := f.s.Baseline(catalog.Tables, name)
		require.NoError(t, err)
		assert.True(t, rb.Baseline.IsSet, name)
	}
	assert.Equal(t, RoutineScanning, f.s.State())
}

func TestRecompute_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	f.load(t, catalog.Apps, def("a", 0, 2000, 1000), def("b", 8192, 2000, 1000))

	err := f.s.RequestRecompute(ctx, catalog.Apps, "missing")
	require.ErrorIs(t, err, catalog.ErrNotFound)

	require.NoError(t, f.s.RequestOneShot(ctx, memBase+1500, 100, 0))
	err = f.s.RequestRecompute(ctx, catalog.Apps, "a")
	require.ErrorIs(t, err, ErrAlreadyInProgress)

	require.NoError(t, f.s.RequestRecompute(ctx, catalog.Apps, "b"))
	err = f.s.RequestRecompute(ctx, catalog.Apps, "b")
	require.ErrorIs(t, err, ErrAlreadyInProgress)

	assert.Len(t, f.s.Status().Recomputes, 1)
}

func TestRecompute_ReadFailureAbortsTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	f.load(t, catalog.Apps, def("a", 0, 3000, 1000))
	f.img.InjectFault(memBase+1500, 1)

	require.NoError(t, f.s.RequestRecompute(ctx, catalog.Apps, "a"))
	f.s.Advance(ctx, 1000)
	res := f.s.Advance(ctx, 1000)
	assert.Zero(t, res.Bytes)

	failed := report.Of[report.TaskFailed](f.reports)
	require.Len(t, failed, 1)
	assert.Equal(t, report.TaskRecompute, failed[0].Task)
	assert.Equal(t, "a", failed[0].Region)
	assert.Empty(t, f.s.Status().Recomputes)

	rb, err := f.s.Baseline(catalog.Apps, "a")
	require.NoError(t, err)
	assert.False(t, rb.Baseline.IsSet)
}

func TestOneShot_ChunksAndReportsRawChecksum(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 4096)

	require.NoError(t, f.s.RequestOneShot(ctx, memBase+100, 2500, 1000))
	for _, want := range []uint64{1000, 1000, 500} {
		res := f.s.Advance(ctx, 4096)
		assert.Equal(t, OneShotScanning, res.State)
		assert.Equal(t, want, res.Bytes)
	}

	done := report.Of[report.OneShotComplete](f.reports)
	require.Len(t, done, 1)
	assert.Equal(t, f.sum(t, 100, 2500), done[0].Checksum)

	st := f.s.Status()
	assert.Nil(t, st.OneShot)
	require.NotNil(t, st.LastOneShot)
	assert.Equal(t, done[0].Checksum, st.LastOneShot.Checksum)
	assert.Equal(t, Idle, f.s.State())
}

func TestOneShot_ExcludesRoutineAndRecompute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	f.load(t, catalog.EEPROM, def("boot", 0, 3000, 1000))
	f.load(t, catalog.Tables, def("tbl", 4096, 2000, 1000))
	require.NoError(t, f.s.RequestRecompute(ctx, catalog.Tables, "tbl"))

	require.NoError(t, f.s.RequestOneShot(ctx, memBase+0x8000, 4500, 0))
	f.mem.reset()
	for range 5 {
		res := f.s.Advance(ctx, 1000)
		assert.Equal(t, OneShotScanning, res.State)
	}

	assert.False(t, f.mem.touched(memBase, 3000), "routine progressed during one-shot")
	assert.False(t, f.mem.touched(memBase+4096, 2000), "recompute progressed during one-shot")
	assert.Len(t, report.Of[report.OneShotComplete](f.reports), 1)
	assert.Equal(t, RecomputeScanning, f.s.State())
}

func TestOneShot_AlreadyInProgressAndCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)

	require.NoError(t, f.s.RequestOneShot(ctx, memBase, 5000, 0))
	require.ErrorIs(t, f.s.RequestOneShot(ctx, memBase, 10, 0), ErrAlreadyInProgress)

	f.s.Advance(ctx, 1000)
	assert.True(t, f.s.CancelOneShot())
	assert.False(t, f.s.CancelOneShot())

	require.NoError(t, f.s.RequestOneShot(ctx, memBase+2000, 800, 0))
	res := f.s.Advance(ctx, 1000)
	assert.Equal(t, uint64(800), res.Bytes)

	done := report.Of[report.OneShotComplete](f.reports)
	require.Len(t, done, 1)
	assert.Equal(t, f.sum(t, 2000, 800), done[0].Checksum)
}

func TestOneShot_InvalidRequests(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)

	require.ErrorIs(t, f.s.RequestOneShot(ctx, memBase, 0, 0), ErrInvalidRange)
	require.ErrorIs(t, f.s.RequestOneShot(ctx, ^uint64(0), 2, 0), ErrInvalidRange)
}

func TestOneShot_ReadFailureAborts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	f.img.InjectFault(memBase+1200, 4)

	require.NoError(t, f.s.RequestOneShot(ctx, memBase, 3000, 0))
	f.s.Advance(ctx, 1000)
	f.s.Advance(ctx, 1000)

	failed := report.Of[report.TaskFailed](f.reports)
	require.Len(t, failed, 1)
	assert.Equal(t, report.TaskOneShot, failed[0].Task)
	st := f.s.Status()
	assert.Nil(t, st.OneShot)
	require.NotNil(t, st.LastOneShot)
	assert.True(t, st.LastOneShot.Failed)
	assert.NoError(t, f.s.RequestOneShot(ctx, memBase, 10, 0))
}

func TestRoutine_CommitsThenComparesAndReportsMismatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	f.load(t, catalog.EEPROM, def("boot", 0, 3000, 1000))

	assert.Equal(t, 3, f.runUntilCycle(t, 1000))
	rb, err := f.s.Baseline(catalog.EEPROM, "boot")
	require.NoError(t, err)
	require.True(t, rb.Baseline.IsSet)
	original := rb.Baseline.Checksum

	f.runUntilCycle(t, 1000)
	assert.Empty(t, report.Of[report.Anomaly](f.reports))

	f.corrupt(t, 1500, 16)
	f.runUntilCycle(t, 1000)

	anomalies := report.Of[report.Anomaly](f.reports)
	require.Len(t, anomalies, 1)
	assert.Equal(t, catalog.EEPROM, anomalies[0].ResourceType)
	assert.Equal(t, "boot", anomalies[0].Region)
	assert.Equal(t, original, anomalies[0].Expected)
	assert.Equal(t, f.sum(t, 0, 3000), anomalies[0].Actual)
	assert.Equal(t, uint64(1), f.s.Status().Mismatches["eeprom"])

	res := f.s.Advance(ctx, 1000)
	assert.Equal(t, RoutineScanning, res.State)
	assert.Equal(t, uint64(1000), res.Bytes)
}

func TestRoutine_EverySegmentOncePerCycle(t *testing.T) {
	f := newFixture(t, 1000)
	f.load(t, catalog.EEPROM, def("a", 0, 1500, 500), def("b", 2000, 700, 300))
	f.load(t, catalog.Apps, def("c", 4000, 1000, 1000))
	segments := []uint64{0, 500, 1000, 2000, 2300, 2600, 4000}

	for cycle := 1; cycle <= 3; cycle++ {
		f.runUntilCycle(t, 1000)
		for _, off := range segments {
			assert.Equal(t, cycle, f.mem.reads[memBase+off], "segment at +%d in cycle %d", off, cycle)
		}
		assert.Len(t, f.mem.reads, len(segments))
	}
	assert.Len(t, report.Of[report.CycleComplete](f.reports), 3)
	assert.Equal(t, uint64(3), f.s.Status().Pass)
}

func TestRoutine_ReadFailureSkipsRegion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	f.load(t, catalog.Memory, def("a", 0, 1000, 500), def("b", 2000, 1000, 500))
	f.img.InjectFault(memBase+10, 1)

	res := f.s.Advance(ctx, 1000)
	assert.Equal(t, uint64(1000), res.Bytes)

	failed := report.Of[report.TaskFailed](f.reports)
	require.Len(t, failed, 1)
	assert.Equal(t, report.TaskRoutine, failed[0].Task)
	assert.Equal(t, "a", failed[0].Region)

	a, err := f.s.Baseline(catalog.Memory, "a")
	require.NoError(t, err)
	assert.False(t, a.Baseline.IsSet)
	b, err := f.s.Baseline(catalog.Memory, "b")
	require.NoError(t, err)
	assert.True(t, b.Baseline.IsSet)
}

func TestRoutine_DisableTypeMidCycleStopsFolds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	f.load(t, catalog.EEPROM, def("boot", 0, 3000, 1000))
	f.load(t, catalog.Apps, def("app", 4096, 3000, 1000))

	f.s.Advance(ctx, 1000)
	require.NoError(t, f.s.SetEnabled(ctx, catalog.EEPROM, false))
	f.mem.reset()

	for range 20 {
		f.s.Advance(ctx, 1000)
	}
	assert.False(t, f.mem.touched(memBase, 3000))
	assert.True(t, f.mem.touched(memBase+4096, 3000))

	boot, err := f.s.Baseline(catalog.EEPROM, "boot")
	require.NoError(t, err)
	assert.False(t, boot.Baseline.IsSet)

	changed := report.Of[report.EnableChanged](f.reports)
	require.Len(t, changed, 1)
	assert.True(t, changed[0].Persisted)

	require.NoError(t, f.s.SetEnabled(ctx, catalog.EEPROM, true))
	f.runUntilCycle(t, 1000)
	f.runUntilCycle(t, 1000)
	boot, err = f.s.Baseline(catalog.EEPROM, "boot")
	require.NoError(t, err)
	assert.True(t, boot.Baseline.IsSet)
	assert.Equal(t, f.sum(t, 0, 3000), boot.Baseline.Checksum)
	assert.Empty(t, report.Of[report.Anomaly](f.reports))
}

func TestRoutine_EntryDisableSkipsRegion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	f.load(t, catalog.Tables, def("a", 0, 1000, 1000), def("b", 2000, 1000, 1000))

	require.NoError(t, f.s.SetEntryEnabled(ctx, catalog.Tables, 0, false))
	require.ErrorIs(t, f.s.SetEntryEnabled(ctx, catalog.Tables, 5, false), catalog.ErrNotFound)

	f.runUntilCycle(t, 1000)
	assert.False(t, f.mem.touched(memBase, 1000))
	assert.True(t, f.mem.touched(memBase+2000, 1000))
}

func TestRoutine_SkipsRegionUnderRecomputeAndSuppressesMismatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	f.load(t, catalog.Tables, def("a", 0, 2000, 1000))

	f.runUntilCycle(t, 1000)
	f.corrupt(t, 100, 8)
	require.NoError(t, f.s.RequestRecompute(ctx, catalog.Tables, "a"))

	f.runUntilCycle(t, 1000)
	f.runUntilCycle(t, 1000)

	assert.Empty(t, report.Of[report.Anomaly](f.reports))
	rb, err := f.s.Baseline(catalog.Tables, "a")
	require.NoError(t, err)
	assert.Equal(t, f.sum(t, 0, 2000), rb.Baseline.Checksum)
}

func TestRoutine_IdleWithoutWork(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)

	res := f.s.Advance(ctx, 1000)
	assert.Equal(t, Idle, res.State)
	assert.False(t, res.CycleComplete)

	f.load(t, catalog.OS, def("kernel", 0, 1000, 1000))
	require.NoError(t, f.s.SetEnabled(ctx, catalog.OS, false))
	res = f.s.Advance(ctx, 1000)
	assert.Equal(t, Idle, res.State)
	assert.Empty(t, report.Of[report.CycleComplete](f.reports))
}

func TestMasterSwitch_StopsRoutineOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	f.load(t, catalog.Tables, def("a", 0, 1000, 1000), def("b", 2000, 1000, 1000))

	f.s.SetMasterEnabled(ctx, false)
	res := f.s.Advance(ctx, 1000)
	assert.Equal(t, Idle, res.State)
	assert.Zero(t, res.Bytes)

	require.NoError(t, f.s.RequestRecompute(ctx, catalog.Tables, "b"))
	res = f.s.Advance(ctx, 1000)
	assert.Equal(t, RecomputeScanning, res.State)
	assert.Equal(t, uint64(1000), res.Bytes)

	f.s.SetMasterEnabled(ctx, true)
	assert.Equal(t, RoutineScanning, f.s.State())
	assert.Equal(t, persist.AllEnabled(), f.s.Enabled())
}

func TestLoadRegions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	f.load(t, catalog.Apps, def("a", 0, 2000, 1000))
	f.runUntilCycle(t, 1000)
	require.NoError(t, f.s.RequestRecompute(ctx, catalog.Apps, "a"))
	f.s.Advance(ctx, 1000)

	err := f.s.LoadRegions(catalog.Apps, []catalog.Definition{def("huge", 0, 4000, 2000)})
	require.ErrorIs(t, err, catalog.ErrInvalidRegion)
	assert.Len(t, f.s.Status().Recomputes, 1, "failed load keeps state")

	f.load(t, catalog.Apps, def("a", 0, 2000, 1000), def("z", 4000, 500, 500))
	st := f.s.Status()
	assert.Empty(t, st.Recomputes)
	assert.Equal(t, 2, st.Regions["apps"])

	rb, err := f.s.Baseline(catalog.Apps, "a")
	require.NoError(t, err)
	assert.False(t, rb.Baseline.IsSet)
}

func TestReloadRegions_AllOrNothing(t *testing.T) {
	f := newFixture(t, 1000)
	f.load(t, catalog.Memory, def("a", 0, 2000, 1000))
	f.runUntilCycle(t, 1000)

	err := f.s.ReloadRegions(map[catalog.ResourceType][]catalog.Definition{
		catalog.Memory: {def("b", 0, 2000, 1000)},
		catalog.Tables: {def("empty", 4000, 0, 1000)},
	})
	require.ErrorIs(t, err, catalog.ErrInvalidRegion)

	rb, err := f.s.Baseline(catalog.Memory, "a")
	require.NoError(t, err)
	assert.True(t, rb.Baseline.IsSet, "earlier type keeps its baseline")
	_, err = f.s.Baseline(catalog.Memory, "b")
	require.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Equal(t, 0, f.s.Status().Regions["tables"])

	require.NoError(t, f.s.ReloadRegions(map[catalog.ResourceType][]catalog.Definition{
		catalog.Memory: {def("b", 0, 2000, 1000)},
		catalog.Tables: {def("t", 4000, 500, 500)},
	}))
	st := f.s.Status()
	assert.Equal(t, 1, st.Regions["memory"])
	assert.Equal(t, 1, st.Regions["tables"])
}

func TestSetByteBudget(t *testing.T) {
	f := newFixture(t, 4096)
	f.load(t, catalog.Memory, def("ram", 0, 8192, 2048))

	require.ErrorIs(t, f.s.SetByteBudget(0), ErrInvalidBudget)
	require.ErrorIs(t, f.s.SetByteBudget(1024), ErrInvalidBudget)
	require.NoError(t, f.s.SetByteBudget(2048))
	assert.Equal(t, uint64(2048), f.s.ByteBudget())

	res := f.s.Tick(context.Background())
	assert.Equal(t, uint64(2048), res.Bytes)
}

func TestPersistence_SaveFailsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	f.backend.FailNextSets(1)

	require.NoError(t, f.s.SetEnabled(ctx, catalog.EEPROM, false))
	calls := f.backend.SetCalls()

	require.NoError(t, f.s.SetEnabled(ctx, catalog.Apps, false))
	require.NoError(t, f.s.SetEnabled(ctx, catalog.EEPROM, true))

	assert.Equal(t, calls, f.backend.SetCalls(), "no save attempted after the failure")
	assert.Equal(t, persist.AllEnabled().With(catalog.Apps, false), f.s.Enabled())
	assert.Equal(t, "disabled", f.s.Status().Persistence)
	assert.Len(t, report.Of[report.PersistenceDowngraded](f.reports), 1)
	for _, ev := range report.Of[report.EnableChanged](f.reports) {
		assert.False(t, ev.Persisted)
	}

	defaults := persist.AllEnabled().With(catalog.OS, false)
	restarted, err := New(Options{
		Catalog:    f.cat,
		Baselines:  f.base,
		Memory:     f.mem,
		Defaults:   defaults,
		Logger:     quietLogger(),
		ByteBudget: 1000,
	})
	require.NoError(t, err)
	assert.Equal(t, defaults, restarted.Restore(ctx))
}

func TestPersistence_RoundTripAcrossRestart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)

	require.NoError(t, f.s.SetEnabled(ctx, catalog.OS, false))
	require.NoError(t, f.s.SetEnabled(ctx, catalog.Memory, false))
	want := f.s.Enabled()

	store := persist.NewStore(f.backend, persist.AllEnabled(), persist.WithLogger(quietLogger()))
	restarted := f.newScheduler(t, store, 1000)
	assert.Equal(t, want, restarted.Restore(ctx))
	assert.False(t, restarted.Enabled().Enabled(catalog.OS))
}

func TestPersistence_CorruptRecordReportsDowngrade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	f.backend.Put(persist.DefaultKey, []byte{7})

	store := persist.NewStore(f.backend, persist.AllEnabled(), persist.WithLogger(quietLogger()))
	s := f.newScheduler(t, store, 1000)
	assert.Equal(t, persist.AllEnabled(), s.Restore(ctx))
	assert.Len(t, report.Of[report.PersistenceDowngraded](f.reports), 1)
}

func TestEntriesAtAndBaselines(t *testing.T) {
	f := newFixture(t, 1000)
	f.load(t, catalog.Memory, def("low", 0, 1000, 500), def("high", 1000, 1000, 500))

	hits := f.s.EntriesAt(catalog.Memory, memBase+1000)
	require.Len(t, hits, 1)
	assert.Equal(t, "high", hits[0].Region)
	assert.Equal(t, 1, hits[0].EntryID)
	assert.Empty(t, f.s.EntriesAt(catalog.Memory, memBase+2000))

	all, err := f.s.Baselines(catalog.Memory)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	low, err := f.s.Entry(catalog.Memory, 0)
	require.NoError(t, err)
	assert.Equal(t, "low", low.Region)
	_, err = f.s.Entry(catalog.Memory, 2)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestResetCounters(t *testing.T) {
	f := newFixture(t, 1000)
	f.load(t, catalog.Memory, def("ram", 0, 1000, 1000))
	f.runUntilCycle(t, 1000)
	require.NotZero(t, f.s.Status().Pass)

	f.s.ResetCounters()
	st := f.s.Status()
	assert.Zero(t, st.Pass)
	assert.Zero(t, st.BytesFolded)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{ByteBudget: 1})
	require.Error(t, err)

	_, err = New(Options{Catalog: catalog.New(nil), Baselines: nil, Memory: memory.NewImage(), ByteBudget: 1})
	require.Error(t, err)
}
