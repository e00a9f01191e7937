// Package tables loads region definitions from YAML and keeps a scheduler in sync with
// the file on disk.
package tables

import (
	"context"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/csmon/internal/catalog"
	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
	"git.home.luguber.info/inful/csmon/internal/memory"
)

// Set is a complete region table keyed by resource type. Types missing from the file
// have no regions.
type Set map[catalog.ResourceType][]catalog.Definition

type file struct {
	Regions map[string][]catalog.Definition `yaml:"regions"`
}

// Loader is satisfied by *scheduler.Scheduler.
type Loader interface {
	ReloadRegions(set map[catalog.ResourceType][]catalog.Definition) error
}

// Load reads a region table file.
func Load(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read region table").
			WithContext("path", path).
			Build()
	}
	return Parse(data)
}

// Parse decodes a region table document.
func Parse(data []byte) (Set, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal region table").Build()
	}
	set := make(Set, len(f.Regions))
	for name, defs := range f.Regions {
		t, err := catalog.ParseResourceType(name)
		if err != nil {
			return nil, err
		}
		if _, dup := set[t]; dup {
			return nil, ferrors.ConfigError("resource type listed twice").WithContext("resource_type", name).Build()
		}
		set[t] = defs
	}
	return set, nil
}

// Marshal renders a set in the file format.
func Marshal(set Set) ([]byte, error) {
	f := file{Regions: make(map[string][]catalog.Definition, len(set))}
	for t, defs := range set {
		f.Regions[t.String()] = defs
	}
	return yaml.Marshal(f)
}

// Check validates a set against an address space and byte budget without touching a
// live scheduler.
func Check(set Set, space memory.Validator, budget uint64) error {
	cat := catalog.New(space)
	for _, t := range catalog.AllTypes() {
		defs := set[t]
		for i, d := range defs {
			if min(d.SegmentSize, d.Length) > budget {
				return catalog.ErrInvalidRegion.
					WithContext("resource_type", t.String()).
					WithContext("entry_id", i).
					WithContext("region", d.Name).
					WithContext("reason", "segment larger than byte budget")
			}
		}
		if _, err := cat.Load(t, defs); err != nil {
			return err
		}
	}
	return nil
}

// Apply loads every type of next whose definitions differ from prev, all or nothing.
// A nil prev loads all types. Unchanged types keep their baselines. On error nothing
// was loaded and changed is nil.
func Apply(_ context.Context, l Loader, prev, next Set) ([]catalog.ResourceType, error) {
	var changed []catalog.ResourceType
	batch := make(map[catalog.ResourceType][]catalog.Definition)
	for _, t := range catalog.AllTypes() {
		if prev != nil && reflect.DeepEqual(prev[t], next[t]) {
			continue
		}
		batch[t] = next[t]
		changed = append(changed, t)
	}
	if len(batch) == 0 {
		return nil, nil
	}
	if err := l.ReloadRegions(batch); err != nil {
		return nil, err
	}
	return changed, nil
}
