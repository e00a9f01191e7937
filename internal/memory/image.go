package memory

import (
	"sort"
	"sync"

	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
)

// Image is an in-memory address space.
type Image struct {
	mu     sync.RWMutex
	areas  []imageArea
	faults []imageArea
}

type imageArea struct {
	base uint64
	data []byte
}

// NewImage returns an empty address space.
func NewImage() *Image {
	return &Image{}
}

// Map places a copy of data at base. Overlapping an existing area is rejected.
func (m *Image) Map(base uint64, data []byte) error {
	if len(data) == 0 {
		return ferrors.ValidationError("cannot map an empty area").WithContext("address", base).Build()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.areas {
		if overlaps(a.base, uint64(len(a.data)), base, uint64(len(data))) {
			return ferrors.ValidationError("area overlaps an existing mapping").
				WithContext("address", base).
				WithContext("existing", a.base).
				Build()
		}
	}
	m.areas = append(m.areas, imageArea{base: base, data: append([]byte(nil), data...)})
	sort.Slice(m.areas, func(i, j int) bool { return m.areas[i].base < m.areas[j].base })
	return nil
}

// Unmap removes the area starting at base.
func (m *Image) Unmap(base uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.areas {
		if a.base == base {
			m.areas = append(m.areas[:i], m.areas[i+1:]...)
			return
		}
	}
}

// Write overwrites bytes in place. The range must be mapped.
func (m *Image) Write(addr uint64, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.find(addr, uint64(len(p)))
	if !ok {
		return unmapped(addr, uint64(len(p)))
	}
	copy(a.data[addr-a.base:], p)
	return nil
}

// InjectFault makes reads touching [addr, addr+n) fail with ErrAccessFault.
func (m *Image) InjectFault(addr, n uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults = append(m.faults, imageArea{base: addr, data: make([]byte, n)})
}

// ClearFaults removes every injected fault.
func (m *Image) ClearFaults() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults = nil
}

// ReadBytes returns a copy of [addr, addr+n).
func (m *Image) ReadBytes(addr, n uint64) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.find(addr, n)
	if !ok {
		return nil, unmapped(addr, n)
	}
	for _, f := range m.faults {
		if overlaps(f.base, uint64(len(f.data)), addr, n) {
			return nil, ErrAccessFault.WithContext("address", addr).WithContext("length", n)
		}
	}
	off := addr - a.base
	return append([]byte(nil), a.data[off:off+n]...), nil
}

// Validate checks that [addr, addr+n) is mapped.
func (m *Image) Validate(addr, n uint64) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.find(addr, n); !ok {
		return unmapped(addr, n)
	}
	return nil
}

func (m *Image) find(addr, n uint64) (imageArea, bool) {
	for _, a := range m.areas {
		if contains(a.base, uint64(len(a.data)), addr, n) {
			return a, true
		}
	}
	return imageArea{}, false
}
