package errors

import (
	"context"
	"log/slog"
)

var exitCodeByCategory = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryNotFound:   3,
	CategoryConfig:     7,
	CategoryCatalog:    7,
	CategoryTransport:  8,
	CategoryStorage:    8,
	CategoryMemory:     9,
	CategoryInternal:   10,
	CategoryDaemon:     12,
	CategoryRuntime:    12,
}

// CLIErrorAdapter turns errors into exit codes and operator-facing text.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor returns 0 for nil, 1 for unclassified errors.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	c, ok := AsClassified(err)
	if !ok {
		return 1
	}
	if code, ok := exitCodeByCategory[c.category]; ok {
		return code
	}
	return 1
}

// FormatError hides internal error detail unless verbose.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	if c, ok := AsClassified(err); ok && c.category == CategoryInternal && !a.verbose {
		return "Internal error occurred (use -v for details)"
	}
	return "Error: " + err.Error()
}

// Log records the error at a level derived from its severity.
func (a *CLIErrorAdapter) Log(err error) {
	if err == nil {
		return
	}
	c, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}
	a.logger.LogAttrs(context.Background(), slogLevel(c.severity), c.message, c.Attrs()...)
}
