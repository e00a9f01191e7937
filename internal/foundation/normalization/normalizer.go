// Package normalization maps loosely written configuration strings onto enum values.
package normalization

import (
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
)

// Normalizer resolves case-insensitive, whitespace-tolerant spellings (and aliases) of an enum.
type Normalizer[T comparable] struct {
	field    string
	values   map[string]T
	fallback T
	keys     []string
}

// New builds a normalizer for the named config field. Several keys may map to one value.
func New[T comparable](field string, values map[string]T, fallback T) *Normalizer[T] {
	n := &Normalizer[T]{
		field:    field,
		values:   make(map[string]T, len(values)),
		fallback: fallback,
		keys:     make([]string, 0, len(values)),
	}
	for k, v := range values {
		k = Clean(k)
		n.values[k] = v
		n.keys = append(n.keys, k)
	}
	slices.Sort(n.keys)
	return n
}

// Clean is the canonical folding applied before lookup.
func Clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Lookup reports the value for raw, if any.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	v, ok := n.values[Clean(raw)]
	return v, ok
}

// Normalize returns the fallback for empty or unknown input.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.Lookup(raw); ok {
		return v
	}
	return n.fallback
}

// Parse is Normalize without the fallback: unknown input is a config error.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	if v, ok := n.Lookup(raw); ok {
		return v, nil
	}
	var zero T
	return zero, ferrors.ConfigError("invalid "+n.field).
		WithContext("value", raw).
		WithContext("valid", strings.Join(n.keys, ", ")).
		Build()
}

// Keys lists accepted spellings in sorted order.
func (n *Normalizer[T]) Keys() []string {
	return slices.Clone(n.keys)
}
