package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/csmon/internal/memory"
)

func def(name string, start, length, seg uint64) Definition {
	return Definition{Name: name, Start: start, Length: length, SegmentSize: seg}
}

func TestCatalog_LoadSegmentsRegions(t *testing.T) {
	c := New(nil)
	gen, err := c.Load(Memory, []Definition{def("ram", 0x1000, 10000, 4096)})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)

	r, err := c.LookupByName(Memory, "ram")
	require.NoError(t, err)
	require.Equal(t, 3, r.NumSegments())
	assert.Equal(t, []Segment{{0, 4096}, {4096, 4096}, {8192, 1808}}, r.Segments())

	var total uint64
	for _, s := range r.Segments() {
		total += s.Length
	}
	assert.Equal(t, r.Length, total)
}

func TestCatalog_LoadRejectsInvalidDefinitions(t *testing.T) {
	img := memory.NewImage()
	require.NoError(t, img.Map(0, make([]byte, 1024)))

	tests := []struct {
		name string
		defs []Definition
	}{
		{"zero length", []Definition{def("a", 0, 0, 16)}},
		{"zero segment size", []Definition{def("a", 0, 64, 0)}},
		{"missing name", []Definition{def("", 0, 64, 16)}},
		{"duplicate name", []Definition{def("a", 0, 64, 16), def("a", 64, 64, 16)}},
		{"unmapped range", []Definition{def("a", 2048, 64, 16)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(img)
			_, err := c.Load(Tables, []Definition{def("keep", 0, 32, 16)})
			require.NoError(t, err)

			_, err = c.Load(Tables, tt.defs)
			require.ErrorIs(t, err, ErrInvalidRegion)

			regions := c.AllRegions(Tables)
			require.Len(t, regions, 1, "previous catalog must be retained")
			assert.Equal(t, "keep", regions[0].Name)
			assert.Equal(t, uint64(1), c.Generation(Tables))
		})
	}
}

func TestCatalog_LookupAndOrdering(t *testing.T) {
	c := New(nil)
	_, err := c.Load(Apps, []Definition{def("sch", 0, 100, 50), def("hk", 200, 100, 50), def("ds", 400, 100, 50)})
	require.NoError(t, err)

	all := c.AllRegions(Apps)
	require.Len(t, all, 3)
	for i, r := range all {
		assert.Equal(t, i, r.Handle.Index)
	}
	assert.Equal(t, []string{"sch", "hk", "ds"}, []string{all[0].Name, all[1].Name, all[2].Name})

	_, err = c.LookupByName(Apps, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	r, err := c.LookupByEntry(Apps, 1)
	require.NoError(t, err)
	assert.Equal(t, "hk", r.Name)

	_, err = c.LookupByEntry(Apps, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_StaleHandles(t *testing.T) {
	c := New(nil)
	_, err := c.Load(EEPROM, []Definition{def("boot", 0, 64, 16)})
	require.NoError(t, err)
	r, err := c.LookupByName(EEPROM, "boot")
	require.NoError(t, err)

	_, err = c.Load(EEPROM, []Definition{def("boot", 0, 64, 16)})
	require.NoError(t, err)

	_, err = c.Get(r.Handle)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, c.SetRegionEnabled(r.Handle, false), ErrNotFound)
}

func TestCatalog_LookupByAddress(t *testing.T) {
	c := New(nil)
	_, err := c.Load(Memory, []Definition{def("a", 0, 100, 50), def("b", 50, 100, 50), def("c", 300, 10, 10)})
	require.NoError(t, err)

	names := func(rs []Region) []string {
		var out []string
		for _, r := range rs {
			out = append(out, r.Name)
		}
		return out
	}

	assert.Equal(t, []string{"a", "b"}, names(c.LookupByAddress(Memory, 60)))
	assert.Equal(t, []string{"b"}, names(c.LookupByAddress(Memory, 100)))
	assert.Empty(t, c.LookupByAddress(Memory, 310), "ranges are half-open")
}

func TestCatalog_SetRegionEnabled(t *testing.T) {
	c := New(nil)
	off := false
	_, err := c.Load(Tables, []Definition{def("a", 0, 10, 10), {Name: "b", Start: 10, Length: 10, SegmentSize: 10, Enabled: &off}})
	require.NoError(t, err)

	all := c.AllRegions(Tables)
	assert.True(t, all[0].Enabled)
	assert.False(t, all[1].Enabled)

	require.NoError(t, c.SetRegionEnabled(all[0].Handle, false))
	r, err := c.Get(all[0].Handle)
	require.NoError(t, err)
	assert.False(t, r.Enabled)
}

func TestCatalog_MaxSegmentSize(t *testing.T) {
	c := New(nil)
	assert.Zero(t, c.MaxSegmentSize())
	_, err := c.Load(OS, []Definition{def("kernel", 0, 300, 1024)})
	require.NoError(t, err)
	_, err = c.Load(Memory, []Definition{def("ram", 0, 4096, 512)})
	require.NoError(t, err)
	assert.Equal(t, uint64(512), c.MaxSegmentSize())
}

func TestParseResourceType(t *testing.T) {
	for _, rt := range AllTypes() {
		parsed, err := ParseResourceType(rt.String())
		require.NoError(t, err)
		assert.Equal(t, rt, parsed)
	}
	_, err := ParseResourceType("flash")
	assert.Error(t, err)
	assert.Equal(t, EEPROM, OS.Next())
}
