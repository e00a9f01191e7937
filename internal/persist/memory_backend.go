package persist

import (
	"context"
	"errors"
	"sync"
)

// ErrInjected is returned by a MemoryBackend told to fail.
var ErrInjected = errors.New("injected backend failure")

// MemoryBackend keeps buffers in process memory. It survives Store re-creation,
// which makes it a stand-in for battery-backed storage in tests and dry runs.
type MemoryBackend struct {
	mu       sync.Mutex
	data     map[string][]byte
	failGet  bool
	failSets int
	setCalls int
	getCalls int
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.failGet {
		return nil, false, ErrInjected
	}
	buf, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), buf...), true, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.failSets > 0 {
		m.failSets--
		return ErrInjected
	}
	m.data[key] = append([]byte(nil), buf...)
	return nil
}

// FailNextSets makes the next n Set calls fail.
func (m *MemoryBackend) FailNextSets(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSets = n
}

// FailGets makes every Get fail.
func (m *MemoryBackend) FailGets(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failGet = fail
}

// Put stores buf directly, bypassing failure injection.
func (m *MemoryBackend) Put(key string, buf []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), buf...)
}

// Delete removes key.
func (m *MemoryBackend) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

// SetCalls returns how many Set attempts were made.
func (m *MemoryBackend) SetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setCalls
}

// GetCalls returns how many Get attempts were made.
func (m *MemoryBackend) GetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}
