// Package errors is csmon's classified error model.
//
// Every failure that crosses a package boundary is a *ClassifiedError: a category
// (catalog, baseline, memory, persistence, ...), a severity, a retry hint and a
// context map. The HTTP and CLI adapters map categories onto status and exit codes.
//
//	err := errors.NotFoundError("region not found").
//		WithContext("resource_type", "tables").
//		WithContext("region", name).
//		Build()
//
// Severities describe the impact on the single operation that produced the error.
// Nothing classified here stops the scan scheduler.
package errors
