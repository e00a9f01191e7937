// Package memory provides the memory-access collaborator used by the checksum scheduler.
//
// An address space is a set of non-overlapping mapped areas. Reads must fall entirely inside
// one area; anything else is reported as ErrUnmapped. Areas can be backed by process memory
// (Image) or by files on disk (FileSpace), which lets the daemon watch firmware images, table
// dumps and application binaries for unexpected change.
package memory

import (
	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
)

var (
	// ErrUnmapped is returned when a range is not fully covered by a mapped area.
	ErrUnmapped = ferrors.MemoryError("address range is unmapped").Build()

	// ErrAccessFault is returned when a mapped area cannot be read.
	ErrAccessFault = ferrors.MemoryError("memory access fault").Build()
)

// Reader reads bytes from an address space.
type Reader interface {
	ReadBytes(addr, n uint64) ([]byte, error)
}

// Validator checks that a range is mapped without reading it.
type Validator interface {
	Validate(addr, n uint64) error
}

// Space is both a Reader and a Validator.
type Space interface {
	Reader
	Validator
}

func unmapped(addr, n uint64) error {
	return ErrUnmapped.WithContext("address", addr).WithContext("length", n)
}

func fault(addr, n uint64, cause error) error {
	return ferrors.WrapError(cause, ferrors.CategoryMemory, ErrAccessFault.Message()).
		WithContext("address", addr).
		WithContext("length", n).
		Build()
}

// contains reports whether [addr, addr+n) lies within [base, base+size).
func contains(base, size, addr, n uint64) bool {
	if addr < base {
		return false
	}
	end := addr + n
	if end < addr { // overflow
		return false
	}
	return end <= base+size
}

func overlaps(aBase, aSize, bBase, bSize uint64) bool {
	return aBase < bBase+bSize && bBase < aBase+aSize
}
