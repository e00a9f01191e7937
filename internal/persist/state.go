// Package persist keeps the per-resource-type enable flags across restarts.
//
// The persisted payload is exactly one byte per resource type, laid out in storage
// slot order (eeprom, memory, apps, tables, os, cfe_core) rather than scan order.
// Each byte is a state value: 1 for enabled, 2 for disabled. Any other byte value,
// or a payload of the wrong size, is treated as corrupt.
package persist

import (
	"git.home.luguber.info/inful/csmon/internal/catalog"
	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
)

// PayloadSize is the size of an encoded EnableState.
const PayloadSize = catalog.NumResourceTypes

var (
	// ErrCorruptState is returned when a stored payload cannot be decoded.
	ErrCorruptState = ferrors.PersistenceError("corrupt persisted state").Build()
	// ErrPersistenceDisabled is returned by Save once persistence has been downgraded.
	ErrPersistenceDisabled = ferrors.PersistenceError("persistence disabled for this run").Build()
)

// Stored state values.
const (
	stateEnabled  byte = 1
	stateDisabled byte = 2
)

// slots maps each storage slot to the resource type it holds.
var slots = [PayloadSize]catalog.ResourceType{
	catalog.EEPROM,
	catalog.Memory,
	catalog.Apps,
	catalog.Tables,
	catalog.OS,
	catalog.CfeCore,
}

// EnableState holds one flag per resource type.
type EnableState [catalog.NumResourceTypes]bool

// AllEnabled returns a state with every type enabled.
func AllEnabled() EnableState {
	var s EnableState
	for i := range s {
		s[i] = true
	}
	return s
}

// Enabled reports whether t is enabled. Unknown types are never enabled.
func (s EnableState) Enabled(t catalog.ResourceType) bool {
	return t.Valid() && s[t]
}

// With returns a copy of s with t set to enabled.
func (s EnableState) With(t catalog.ResourceType, enabled bool) EnableState {
	if t.Valid() {
		s[t] = enabled
	}
	return s
}

// Map renders the state keyed by resource type name.
func (s EnableState) Map() map[string]bool {
	out := make(map[string]bool, len(s))
	for _, t := range catalog.AllTypes() {
		out[t.String()] = s[t]
	}
	return out
}

// Encode returns the six-byte payload for s.
func (s EnableState) Encode() []byte {
	buf := make([]byte, PayloadSize)
	for slot, t := range slots {
		buf[slot] = stateDisabled
		if s[t] {
			buf[slot] = stateEnabled
		}
	}
	return buf
}

// Decode parses a payload produced by Encode.
func Decode(buf []byte) (EnableState, error) {
	var s EnableState
	if len(buf) != PayloadSize {
		return s, ErrCorruptState.WithContext("size", len(buf))
	}
	for slot, b := range buf {
		t := slots[slot]
		switch b {
		case stateEnabled:
			s[t] = true
		case stateDisabled:
		default:
			return EnableState{}, ErrCorruptState.
				WithContext("resource_type", t.String()).
				WithContext("value", int(b))
		}
	}
	return s, nil
}
