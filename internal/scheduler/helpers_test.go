package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/csmon/internal/baseline"
	"git.home.luguber.info/inful/csmon/internal/catalog"
	"git.home.luguber.info/inful/csmon/internal/checksum"
	"git.home.luguber.info/inful/csmon/internal/memory"
	"git.home.luguber.info/inful/csmon/internal/persist"
	"git.home.luguber.info/inful/csmon/internal/report"
)

const (
	memBase = 0x10000
	memSize = 64 * 1024
)

// countingReader records every read so tests can check what the scheduler touched.
type countingReader struct {
	inner memory.Reader
	mu    sync.Mutex
	reads map[uint64]int
	log   []readOp
}

type readOp struct{ addr, n uint64 }

func (c *countingReader) ReadBytes(addr, n uint64) ([]byte, error) {
	c.mu.Lock()
	c.reads[addr]++
	c.log = append(c.log, readOp{addr, n})
	c.mu.Unlock()
	return c.inner.ReadBytes(addr, n)
}

func (c *countingReader) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads = map[uint64]int{}
	c.log = nil
}

// touched reports whether any read since the last reset intersected [start, start+n).
func (c *countingReader) touched(start, n uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, op := range c.log {
		if op.addr < start+n && start < op.addr+op.n {
			return true
		}
	}
	return false
}

type fixture struct {
	img     *memory.Image
	mem     *countingReader
	cat     *catalog.Catalog
	base    *baseline.Store
	backend *persist.MemoryBackend
	store   *persist.Store
	reports *report.Collector
	s       *Scheduler
}

func quietLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func newFixture(t *testing.T, budget uint64) *fixture {
	t.Helper()
	img := memory.NewImage()
	data := make([]byte, memSize)
	for i := range data {
		data[i] = byte(i*7 + i>>8)
	}
	require.NoError(t, img.Map(memBase, data))

	f := &fixture{
		img:     img,
		mem:     &countingReader{inner: img, reads: map[uint64]int{}},
		cat:     catalog.New(img),
		base:    baseline.New(checksum.XXHash{}),
		backend: persist.NewMemoryBackend(),
		reports: &report.Collector{},
	}
	f.store = persist.NewStore(f.backend, persist.AllEnabled(), persist.WithLogger(quietLogger()))
	f.s = f.newScheduler(t, f.store, budget)
	f.s.Restore(context.Background())
	return f
}

func (f *fixture) newScheduler(t *testing.T, store *persist.Store, budget uint64) *Scheduler {
	t.Helper()
	s, err := New(Options{
		Catalog:    f.cat,
		Baselines:  f.base,
		Memory:     f.mem,
		Persist:    store,
		Defaults:   persist.AllEnabled(),
		Reporter:   f.reports,
		Logger:     quietLogger(),
		ByteBudget: budget,
	})
	require.NoError(t, err)
	return s
}

func (f *fixture) load(t *testing.T, rt catalog.ResourceType, defs ...catalog.Definition) {
	t.Helper()
	require.NoError(t, f.s.LoadRegions(rt, defs))
}

func (f *fixture) sum(t *testing.T, off, n uint64) uint64 {
	t.Helper()
	data, err := f.img.ReadBytes(memBase+off, n)
	require.NoError(t, err)
	return xxhash.Sum64(data)
}

// corrupt flips the bytes at [off, off+n).
func (f *fixture) corrupt(t *testing.T, off, n uint64) {
	t.Helper()
	data, err := f.img.ReadBytes(memBase+off, n)
	require.NoError(t, err)
	for i := range data {
		data[i] ^= 0xFF
	}
	require.NoError(t, f.img.Write(memBase+off, data))
}

// runUntilCycle advances until a cycle completes and returns the number of ticks.
func (f *fixture) runUntilCycle(t *testing.T, budget uint64) int {
	t.Helper()
	for i := 1; i <= 1000; i++ {
		if f.s.Advance(context.Background(), budget).CycleComplete {
			return i
		}
	}
	t.Fatal("no cycle completed within 1000 ticks")
	return 0
}

func def(name string, off, length, seg uint64) catalog.Definition {
	return catalog.Definition{Name: name, Start: memBase + off, Length: length, SegmentSize: seg}
}
