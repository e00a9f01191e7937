// Package baseline stores the expected checksum of every cataloged region.
//
// A record becomes usable only after a complete pass over its region has been committed.
// Comparing against a record that was never committed (or was cleared for recompute) is a
// caller error and returns ErrBaselineNotSet.
package baseline

import (
	"sync"

	"git.home.luguber.info/inful/csmon/internal/catalog"
	"git.home.luguber.info/inful/csmon/internal/checksum"
	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
)

// ErrBaselineNotSet guards Compare before Commit.
var ErrBaselineNotSet = ferrors.BaselineError("baseline not set").Build()

// Record is the baseline of one region.
type Record struct {
	Checksum uint64 `json:"checksum"`
	IsSet    bool   `json:"is_set"`
}

// Outcome is the result of Compare.
type Outcome int

const (
	Match Outcome = iota
	Mismatch
)

func (o Outcome) String() string {
	if o == Match {
		return "match"
	}
	return "mismatch"
}

// Store is the BaselineStore.
type Store struct {
	mu        sync.RWMutex
	primitive checksum.Primitive
	tables    [catalog.NumResourceTypes]records
}

type records struct {
	gen  uint64
	recs []Record
}

// New creates an empty store folding with p.
func New(p checksum.Primitive) *Store {
	return &Store{primitive: p}
}

// Primitive returns the checksum primitive used by Accumulate.
func (s *Store) Primitive() checksum.Primitive { return s.primitive }

// Reset discards every record of t and sizes the table for a freshly loaded catalog.
func (s *Store) Reset(t catalog.ResourceType, gen uint64, count int) {
	if !t.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t] = records{gen: gen, recs: make([]Record, count)}
}

// Get returns the record for h.
func (s *Store) Get(h catalog.Handle) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.lookup(h)
	if !ok {
		return Record{}, notFound(h)
	}
	return *rec, nil
}

// BeginRecompute clears the baseline of h. Calling it repeatedly is harmless.
func (s *Store) BeginRecompute(h catalog.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.lookup(h)
	if !ok {
		return notFound(h)
	}
	*rec = Record{}
	return nil
}

// Initial returns a fresh running checksum.
func (s *Store) Initial() checksum.State {
	return s.primitive.Initial()
}

// Accumulate folds one segment into running. It has no side effects.
func (s *Store) Accumulate(running checksum.State, segment []byte) checksum.State {
	return s.primitive.Fold(running, segment)
}

// Finalize converts a running checksum into its final value.
func (s *Store) Finalize(running checksum.State) uint64 {
	return s.primitive.Finalize(running)
}

// Commit stores value as the baseline of h.
func (s *Store) Commit(h catalog.Handle, value uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.lookup(h)
	if !ok {
		return notFound(h)
	}
	*rec = Record{Checksum: value, IsSet: true}
	return nil
}

// Compare checks value against the committed baseline of h.
func (s *Store) Compare(h catalog.Handle, value uint64) (Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.lookup(h)
	if !ok {
		return Mismatch, notFound(h)
	}
	if !rec.IsSet {
		return Mismatch, ErrBaselineNotSet.
			WithContext("resource_type", h.Type.String()).
			WithContext("entry_id", h.Index)
	}
	if rec.Checksum != value {
		return Mismatch, nil
	}
	return Match, nil
}

func (s *Store) lookup(h catalog.Handle) (*Record, bool) {
	if !h.Type.Valid() {
		return nil, false
	}
	tbl := &s.tables[h.Type]
	if tbl.gen != h.Gen || h.Index < 0 || h.Index >= len(tbl.recs) {
		return nil, false
	}
	return &tbl.recs[h.Index], true
}

func notFound(h catalog.Handle) error {
	return catalog.ErrNotFound.
		WithContext("resource_type", h.Type.String()).
		WithContext("entry_id", h.Index)
}
