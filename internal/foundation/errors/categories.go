package errors

import "maps"

// ErrorCategory classifies an error for routing to an exit code or HTTP status.
type ErrorCategory string

const (
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryInProgress ErrorCategory = "in_progress"

	// CategoryCatalog covers malformed region definitions.
	CategoryCatalog  ErrorCategory = "catalog"
	CategoryBaseline ErrorCategory = "baseline"
	CategoryMemory   ErrorCategory = "memory"

	// CategoryPersistence covers enable-state storage. It never stops the scheduler.
	CategoryPersistence ErrorCategory = "persistence"
	CategoryStorage     ErrorCategory = "storage"
	CategoryTransport   ErrorCategory = "transport"

	CategoryRuntime  ErrorCategory = "runtime"
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity is the impact on the operation that produced the error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
	SeverityInfo    ErrorSeverity = "info"
)

// profile is the severity and retry behaviour a category starts with.
type profile struct {
	severity  ErrorSeverity
	retryable bool
}

var profiles = map[ErrorCategory]profile{
	CategoryConfig:      {SeverityFatal, false},
	CategoryValidation:  {SeverityError, false},
	CategoryNotFound:    {SeverityError, false},
	CategoryInProgress:  {SeverityError, true},
	CategoryCatalog:     {SeverityError, false},
	CategoryBaseline:    {SeverityError, false},
	CategoryMemory:      {SeverityError, false},
	CategoryPersistence: {SeverityWarning, false},
	CategoryStorage:     {SeverityError, true},
	CategoryTransport:   {SeverityError, true},
	CategoryRuntime:     {SeverityFatal, false},
	CategoryDaemon:      {SeverityFatal, false},
	CategoryInternal:    {SeverityFatal, false},
}

func profileFor(c ErrorCategory) profile {
	if p, ok := profiles[c]; ok {
		return p
	}
	return profile{severity: SeverityError}
}

// ErrorContext carries structured fields such as the resource type or address involved.
type ErrorContext map[string]any

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// with returns a copy of c carrying key.
func (c ErrorContext) with(key string, value any) ErrorContext {
	out := make(ErrorContext, len(c)+1)
	maps.Copy(out, c)
	out[key] = value
	return out
}
