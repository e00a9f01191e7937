package catalog

import (
	"strings"

	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
)

// ResourceType identifies one class of checksummed objects.
type ResourceType int

// Resource types in their fixed cyclic scan order.
const (
	EEPROM ResourceType = iota
	Memory
	Tables
	Apps
	CfeCore
	OS
)

// NumResourceTypes is the number of independent resource types.
const NumResourceTypes = 6

var typeNames = [NumResourceTypes]string{"eeprom", "memory", "tables", "apps", "cfe_core", "os"}

// AllTypes returns every resource type in scan order.
func AllTypes() []ResourceType {
	return []ResourceType{EEPROM, Memory, Tables, Apps, CfeCore, OS}
}

func (t ResourceType) String() string {
	if !t.Valid() {
		return "unknown"
	}
	return typeNames[t]
}

// Valid reports whether t is one of the defined resource types.
func (t ResourceType) Valid() bool {
	return t >= EEPROM && t <= OS
}

// Next returns the following type in cyclic order.
func (t ResourceType) Next() ResourceType {
	return (t + 1) % NumResourceTypes
}

// ParseResourceType accepts the canonical names plus a few common spellings.
func ParseResourceType(s string) (ResourceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "eeprom":
		return EEPROM, nil
	case "memory", "mem":
		return Memory, nil
	case "tables", "table":
		return Tables, nil
	case "apps", "app", "applications":
		return Apps, nil
	case "cfe_core", "cfecore", "cfe-core", "core":
		return CfeCore, nil
	case "os":
		return OS, nil
	}
	return 0, ferrors.ValidationError("unknown resource type").WithContext("resource_type", s).Build()
}

// MarshalText implements encoding.TextMarshaler so types render by name in JSON and YAML.
func (t ResourceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ResourceType) UnmarshalText(b []byte) error {
	parsed, err := ParseResourceType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
