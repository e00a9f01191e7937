package catalog

// Segment is one fixed-size slice of a region, relative to the region start.
type Segment struct {
	Offset uint64 `json:"offset"`
	Length uint64 `json:"length"`
}

// Handle is a stable reference to a loaded region. Gen changes on every reload of the
// type, which invalidates handles taken before the reload.
type Handle struct {
	Type  ResourceType `json:"resource_type"`
	Index int          `json:"entry_id"`
	Gen   uint64       `json:"generation"`
}

// Definition describes one region as supplied by the table loader.
type Definition struct {
	Name        string `yaml:"name" json:"name"`
	Start       uint64 `yaml:"start" json:"start"`
	Length      uint64 `yaml:"length" json:"length"`
	SegmentSize uint64 `yaml:"segment_size" json:"segment_size"`
	Enabled     *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// Region is an immutable, loaded checksum target.
type Region struct {
	Handle      Handle
	Name        string
	Start       uint64
	Length      uint64
	SegmentSize uint64
	Enabled     bool

	segments []Segment
}

// Type returns the region's resource type.
func (r Region) Type() ResourceType { return r.Handle.Type }

// NumSegments returns the number of segments.
func (r Region) NumSegments() int { return len(r.segments) }

// Segment returns the i-th segment.
func (r Region) Segment(i int) Segment { return r.segments[i] }

// Segments returns a copy of the segment list.
func (r Region) Segments() []Segment {
	return append([]Segment(nil), r.segments...)
}

// End returns the first address past the region.
func (r Region) End() uint64 { return r.Start + r.Length }

// Contains reports whether addr falls inside [Start, End).
func (r Region) Contains(addr uint64) bool {
	return addr >= r.Start && addr < r.End()
}

// Overlaps reports whether [start, start+length) intersects the region.
func (r Region) Overlaps(start, length uint64) bool {
	return length > 0 && start < r.End() && r.Start < start+length
}

func segmentize(length, size uint64) []Segment {
	n := (length + size - 1) / size
	segs := make([]Segment, 0, n)
	for off := uint64(0); off < length; off += size {
		segs = append(segs, Segment{Offset: off, Length: min(size, length-off)})
	}
	return segs
}
