package tables

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/csmon/internal/catalog"
	"git.home.luguber.info/inful/csmon/internal/memory"
)

const doc = `
regions:
  eeprom:
    - {name: boot, start: 0x1000, length: 2048, segment_size: 512}
  apps:
    - {name: sample_app, start: 0x2000, length: 1024, segment_size: 1024}
    - {name: lc, start: 0x2400, length: 512, segment_size: 256, enabled: false}
`

type recordingLoader struct {
	mu     sync.Mutex
	loads  map[catalog.ResourceType][]catalog.Definition
	calls  []catalog.ResourceType
	reject error
}

func newRecordingLoader() *recordingLoader {
	return &recordingLoader{loads: map[catalog.ResourceType][]catalog.Definition{}}
}

func (r *recordingLoader) ReloadRegions(set map[catalog.ResourceType][]catalog.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reject != nil {
		return r.reject
	}
	for _, t := range catalog.AllTypes() {
		if defs, ok := set[t]; ok {
			r.loads[t] = defs
			r.calls = append(r.calls, t)
		}
	}
	return nil
}

func (r *recordingLoader) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestParse(t *testing.T) {
	set, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, set[catalog.EEPROM], 1)
	require.Len(t, set[catalog.Apps], 2)
	assert.Equal(t, uint64(0x2400), set[catalog.Apps][1].Start)
	require.NotNil(t, set[catalog.Apps][1].Enabled)
	assert.False(t, *set[catalog.Apps][1].Enabled)

	_, err = Parse([]byte("regions:\n  flash: []\n"))
	require.Error(t, err)
	_, err = Parse([]byte("regions:\n  apps: []\n  app: []\n"))
	require.Error(t, err)
}

func TestMarshal_RoundTrip(t *testing.T) {
	set, err := Parse([]byte(doc))
	require.NoError(t, err)
	data, err := Marshal(set)
	require.NoError(t, err)
	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, set, again)
}

func TestCheck(t *testing.T) {
	img := memory.NewImage()
	require.NoError(t, img.Map(0x1000, make([]byte, 8192)))
	set, err := Parse([]byte(doc))
	require.NoError(t, err)

	require.NoError(t, Check(set, img, 1024))
	require.ErrorIs(t, Check(set, img, 512), catalog.ErrInvalidRegion)

	set[catalog.OS] = []catalog.Definition{{Name: "kernel", Start: 0x90000, Length: 16, SegmentSize: 16}}
	require.Error(t, Check(set, img, 1024))
}

func TestApply_OnlyChangedTypes(t *testing.T) {
	ctx := context.Background()
	set, err := Parse([]byte(doc))
	require.NoError(t, err)

	l := newRecordingLoader()
	changed, err := Apply(ctx, l, nil, set)
	require.NoError(t, err)
	assert.Len(t, changed, int(catalog.NumResourceTypes))

	next, err := Parse([]byte(doc))
	require.NoError(t, err)
	next[catalog.EEPROM][0].Length = 1024
	changed, err = Apply(ctx, l, set, next)
	require.NoError(t, err)
	assert.Equal(t, []catalog.ResourceType{catalog.EEPROM}, changed)

	delete(next, catalog.Apps)
	changed, err = Apply(ctx, l, set, next)
	require.NoError(t, err)
	assert.Contains(t, changed, catalog.Apps)
	assert.Empty(t, l.loads[catalog.Apps])
}

func TestApply_RejectedBatchReportsNothing(t *testing.T) {
	l := newRecordingLoader()
	l.reject = catalog.ErrInvalidRegion

	prev := Set{catalog.Memory: {{Name: "a", Start: 0x1000, Length: 64, SegmentSize: 64}}}
	next := Set{
		catalog.Memory: {{Name: "b", Start: 0x1000, Length: 64, SegmentSize: 64}},
		catalog.Tables: {{Name: "empty", Start: 0x2000, SegmentSize: 64}},
	}
	changed, err := Apply(context.Background(), l, prev, next)
	require.ErrorIs(t, err, catalog.ErrInvalidRegion)
	assert.Nil(t, changed)
	assert.Zero(t, l.callCount())
}

func TestWatcher_RejectedTableKeepsCurrent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	initial := Set{catalog.EEPROM: {{Name: "old", Start: 0x1000, Length: 512, SegmentSize: 512}}}
	l := newRecordingLoader()
	l.reject = catalog.ErrInvalidRegion
	w, err := NewWatcher(path, l, initial, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.watcher.Close() })

	require.ErrorIs(t, w.Reload(context.Background()), catalog.ErrInvalidRegion)

	// Once the loader accepts, the types that differ from the old set load again.
	l.reject = nil
	require.NoError(t, w.Reload(context.Background()))
	assert.Equal(t, []catalog.ResourceType{catalog.EEPROM, catalog.Apps}, l.calls)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	initial, err := Load(path)
	require.NoError(t, err)
	l := newRecordingLoader()
	w, err := NewWatcher(path, l, initial, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	w.SetDebounce(100 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	updated := doc + "  os:\n    - {name: kernel, start: 0x3000, length: 256, segment_size: 256}\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	require.Eventually(t, func() bool { return l.callCount() > 0 }, 3*time.Second, 20*time.Millisecond)
	l.mu.Lock()
	assert.Equal(t, []catalog.ResourceType{catalog.OS}, l.calls)
	l.mu.Unlock()

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_BadFileKeepsRegions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte("regions: [\n"), 0o600))

	l := newRecordingLoader()
	w, err := NewWatcher(path, l, Set{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.watcher.Close() })
	require.Error(t, w.Reload(context.Background()))
	assert.Zero(t, l.callCount())
}
