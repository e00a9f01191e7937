// Package catalog holds the checksum-able regions of every resource type.
//
// Regions are stored per type in load order; that order defines both the scan order and
// the entry IDs reported to operators. A reload replaces the whole table of one type and
// bumps its generation so handles taken earlier are recognised as stale.
package catalog

import (
	"sync"

	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
	"git.home.luguber.info/inful/csmon/internal/memory"
)

var (
	// ErrInvalidRegion rejects a malformed table; the previous table is retained.
	ErrInvalidRegion = ferrors.CatalogError("invalid region definition").Build()

	// ErrNotFound reports an unknown region, entry ID, or stale handle.
	ErrNotFound = ferrors.NotFoundError("region not found").Build()
)

// Catalog is the RegionCatalog.
type Catalog struct {
	mu        sync.RWMutex
	validator memory.Validator
	tables    [NumResourceTypes]table
}

type table struct {
	gen     uint64
	regions []Region
}

// New creates an empty catalog. validator may be nil, in which case address ranges are
// not checked against the memory map.
func New(validator memory.Validator) *Catalog {
	return &Catalog{validator: validator}
}

// Load replaces every region of t. On error nothing changes.
func (c *Catalog) Load(t ResourceType, defs []Definition) (uint64, error) {
	if !t.Valid() {
		return 0, ErrInvalidRegion.WithContext("resource_type", int(t))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	gen := c.tables[t].gen + 1
	regions := make([]Region, 0, len(defs))
	seen := make(map[string]struct{}, len(defs))

	for i, d := range defs {
		if err := c.validate(t, i, d, seen); err != nil {
			return 0, err
		}
		seen[d.Name] = struct{}{}
		enabled := true
		if d.Enabled != nil {
			enabled = *d.Enabled
		}
		regions = append(regions, Region{
			Handle:      Handle{Type: t, Index: i, Gen: gen},
			Name:        d.Name,
			Start:       d.Start,
			Length:      d.Length,
			SegmentSize: d.SegmentSize,
			Enabled:     enabled,
			segments:    segmentize(d.Length, d.SegmentSize),
		})
	}

	c.tables[t] = table{gen: gen, regions: regions}
	return gen, nil
}

// Validate runs the checks of Load without replacing anything.
func (c *Catalog) Validate(t ResourceType, defs []Definition) error {
	if !t.Valid() {
		return ErrInvalidRegion.WithContext("resource_type", int(t))
	}
	seen := make(map[string]struct{}, len(defs))
	for i, d := range defs {
		if err := c.validate(t, i, d, seen); err != nil {
			return err
		}
		seen[d.Name] = struct{}{}
	}
	return nil
}

func (c *Catalog) validate(t ResourceType, i int, d Definition, seen map[string]struct{}) error {
	invalid := func(reason string) error {
		return ErrInvalidRegion.
			WithContext("resource_type", t.String()).
			WithContext("entry_id", i).
			WithContext("region", d.Name).
			WithContext("reason", reason)
	}

	switch {
	case d.Name == "":
		return invalid("missing name")
	case d.Length == 0:
		return invalid("zero-length range")
	case d.SegmentSize == 0:
		return invalid("zero segment size")
	case d.Start+d.Length < d.Start:
		return invalid("range wraps the address space")
	}
	if _, dup := seen[d.Name]; dup {
		return invalid("duplicate name")
	}
	if c.validator != nil {
		if err := c.validator.Validate(d.Start, d.Length); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryCatalog, ErrInvalidRegion.Message()).
				WithContext("resource_type", t.String()).
				WithContext("entry_id", i).
				WithContext("region", d.Name).
				WithContext("reason", "range not accessible").
				Build()
		}
	}
	return nil
}

// LookupByName finds a region of t by identifier.
func (c *Catalog) LookupByName(t ResourceType, name string) (Region, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if t.Valid() {
		for _, r := range c.tables[t].regions {
			if r.Name == name {
				return r, nil
			}
		}
	}
	return Region{}, ErrNotFound.WithContext("resource_type", t.String()).WithContext("region", name)
}

// LookupByEntry finds a region of t by its entry ID (load position).
func (c *Catalog) LookupByEntry(t ResourceType, entry int) (Region, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if t.Valid() && entry >= 0 && entry < len(c.tables[t].regions) {
		return c.tables[t].regions[entry], nil
	}
	return Region{}, ErrNotFound.WithContext("resource_type", t.String()).WithContext("entry_id", entry)
}

// Get resolves a handle. Handles from an earlier generation are reported as not found.
func (c *Catalog) Get(h Handle) (Region, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if h.Type.Valid() {
		tbl := c.tables[h.Type]
		if h.Gen == tbl.gen && h.Index >= 0 && h.Index < len(tbl.regions) {
			return tbl.regions[h.Index], nil
		}
	}
	return Region{}, ErrNotFound.WithContext("resource_type", h.Type.String()).WithContext("entry_id", h.Index)
}

// AllRegions returns the regions of t in load order.
func (c *Catalog) AllRegions(t ResourceType) []Region {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !t.Valid() {
		return nil
	}
	return append([]Region(nil), c.tables[t].regions...)
}

// Count returns the number of regions of t.
func (c *Catalog) Count(t ResourceType) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !t.Valid() {
		return 0
	}
	return len(c.tables[t].regions)
}

// Generation returns the current table generation of t.
func (c *Catalog) Generation(t ResourceType) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !t.Valid() {
		return 0
	}
	return c.tables[t].gen
}

// LookupByAddress lists the regions of t whose range contains addr.
func (c *Catalog) LookupByAddress(t ResourceType, addr uint64) []Region {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !t.Valid() {
		return nil
	}
	var out []Region
	for _, r := range c.tables[t].regions {
		if r.Contains(addr) {
			out = append(out, r)
		}
	}
	return out
}

// SetRegionEnabled toggles routine scanning of one region.
func (c *Catalog) SetRegionEnabled(h Handle, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h.Type.Valid() {
		tbl := &c.tables[h.Type]
		if h.Gen == tbl.gen && h.Index >= 0 && h.Index < len(tbl.regions) {
			tbl.regions[h.Index].Enabled = enabled
			return nil
		}
	}
	return ErrNotFound.WithContext("resource_type", h.Type.String()).WithContext("entry_id", h.Index)
}

// MaxSegmentSize returns the largest segment length across all loaded regions.
func (c *Catalog) MaxSegmentSize() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var largest uint64
	for _, tbl := range c.tables {
		for _, r := range tbl.regions {
			if n := min(r.SegmentSize, r.Length); n > largest {
				largest = n
			}
		}
	}
	return largest
}
