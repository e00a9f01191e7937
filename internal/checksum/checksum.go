// Package checksum defines the incremental checksum primitive folded over region segments.
package checksum

import (
	"hash/crc32"

	"github.com/cespare/xxhash/v2"

	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
)

// State is an opaque running checksum value. Implementations must treat it as a value:
// Fold never mutates its input.
type State any

// Primitive is an algorithm-agnostic incremental checksum.
type Primitive interface {
	Name() string
	Initial() State
	Fold(s State, data []byte) State
	Finalize(s State) uint64
}

// Algorithm names accepted by New.
const (
	AlgorithmXXHash = "xxhash64"
	AlgorithmCRC32  = "crc32"
)

// New returns the primitive registered under name. An empty name selects xxhash64.
func New(name string) (Primitive, error) {
	switch name {
	case "", AlgorithmXXHash:
		return XXHash{}, nil
	case AlgorithmCRC32:
		return CRC32{}, nil
	default:
		return nil, ferrors.ConfigError("unknown checksum algorithm").WithContext("algorithm", name).Build()
	}
}

// XXHash folds segments through a 64-bit xxhash digest.
type XXHash struct{}

func (XXHash) Name() string { return AlgorithmXXHash }

func (XXHash) Initial() State { return *xxhash.New() }

func (XXHash) Fold(s State, data []byte) State {
	d := s.(xxhash.Digest) // copy; the caller's state stays untouched
	_, _ = d.Write(data)
	return d
}

func (XXHash) Finalize(s State) uint64 {
	d := s.(xxhash.Digest)
	return d.Sum64()
}

// CRC32 folds segments through an IEEE CRC-32, matching the checksum flight software uses.
type CRC32 struct{}

func (CRC32) Name() string { return AlgorithmCRC32 }

func (CRC32) Initial() State { return uint32(0) }

func (CRC32) Fold(s State, data []byte) State {
	return crc32.Update(s.(uint32), crc32.IEEETable, data)
}

func (CRC32) Finalize(s State) uint64 { return uint64(s.(uint32)) }
