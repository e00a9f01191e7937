package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
)

// ClassifiedError is an error with a category, a severity and structured context.
// Values are immutable: WithContext returns a copy, so package-level sentinels are safe to share.
type ClassifiedError struct {
	category  ErrorCategory
	severity  ErrorSeverity
	retryable bool
	message   string
	cause     error
	context   ErrorContext
}

func (e *ClassifiedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.category, e.severity, e.message, e.cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory { return e.category }

func (e *ClassifiedError) Severity() ErrorSeverity { return e.severity }

// Retryable reports whether repeating the request later may succeed.
func (e *ClassifiedError) Retryable() bool { return e.retryable }

// Message is the error text without category, severity or cause.
func (e *ClassifiedError) Message() string { return e.message }

func (e *ClassifiedError) Context() ErrorContext { return e.context }

// WithContext returns a copy of e carrying one more context field.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	cp := *e
	cp.context = e.context.with(key, value)
	return &cp
}

// Is matches on category and message, so errors derived from a sentinel through
// WithContext still satisfy errors.Is against it.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	return ok && e.category == other.category && e.message == other.message
}

// Attrs renders the error as slog attributes, context keys sorted.
func (e *ClassifiedError) Attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("category", string(e.category))}
	if e.retryable {
		attrs = append(attrs, slog.Bool("retryable", true))
	}
	if e.cause != nil {
		attrs = append(attrs, slog.String("cause", e.cause.Error()))
	}
	keys := make([]string, 0, len(e.context))
	for k := range e.context {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, e.context[k]))
	}
	return attrs
}

// IsClassified reports whether any error in the chain is a ClassifiedError.
func IsClassified(err error) bool {
	_, ok := AsClassified(err)
	return ok
}

// AsClassified extracts the first ClassifiedError in the chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// HasCategory checks the first classified error in the chain.
func HasCategory(err error, category ErrorCategory) bool {
	return GetCategory(err) == category && IsClassified(err)
}

// GetCategory returns CategoryInternal for unclassified errors.
func GetCategory(err error) ErrorCategory {
	if classified, ok := AsClassified(err); ok {
		return classified.category
	}
	return CategoryInternal
}

func slogLevel(s ErrorSeverity) slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
