package errors

// ErrorBuilder assembles a ClassifiedError. Severity and retry behaviour start from the
// category's profile and may be overridden.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts a builder for category.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	p := profileFor(category)
	return &ErrorBuilder{err: ClassifiedError{
		category:  category,
		severity:  p.severity,
		retryable: p.retryable,
		message:   message,
	}}
}

// WrapError starts a builder whose cause is err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.with(key, value)
	return b
}

// Retryable marks the error as worth repeating.
func (b *ErrorBuilder) Retryable() *ErrorBuilder {
	b.err.retryable = true
	return b
}

func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	return &out
}

func ConfigError(message string) *ErrorBuilder { return NewError(CategoryConfig, message) }

func ValidationError(message string) *ErrorBuilder { return NewError(CategoryValidation, message) }

// NotFoundError reports an unknown region, entry or handle.
func NotFoundError(message string) *ErrorBuilder { return NewError(CategoryNotFound, message) }

// InProgressError reports a request that conflicts with an active task.
func InProgressError(message string) *ErrorBuilder { return NewError(CategoryInProgress, message) }

func CatalogError(message string) *ErrorBuilder { return NewError(CategoryCatalog, message) }

func BaselineError(message string) *ErrorBuilder { return NewError(CategoryBaseline, message) }

// MemoryError reports a failed read of the monitored address space.
func MemoryError(message string) *ErrorBuilder { return NewError(CategoryMemory, message) }

func PersistenceError(message string) *ErrorBuilder { return NewError(CategoryPersistence, message) }

func StorageError(message string) *ErrorBuilder { return NewError(CategoryStorage, message) }

func TransportError(message string) *ErrorBuilder { return NewError(CategoryTransport, message) }

func RuntimeError(message string) *ErrorBuilder { return NewError(CategoryRuntime, message) }

func DaemonError(message string) *ErrorBuilder { return NewError(CategoryDaemon, message) }

func InternalError(message string) *ErrorBuilder { return NewError(CategoryInternal, message) }
