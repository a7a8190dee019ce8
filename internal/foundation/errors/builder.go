package errors

// ErrorBuilder assembles a ClassifiedError. Start from NewError, WrapError or
// one of the category constructors below and finish with Build.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of the given category. Severity defaults to
// SeverityError and nothing is retried.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		context:  ErrorContext{},
	}}
}

// WrapError starts an error of the given category caused by err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

// WithCategory reclassifies the error, e.g. a git failure recognised as an auth problem.
func (b *ErrorBuilder) WithCategory(category ErrorCategory) *ErrorBuilder {
	b.err.category = category
	return b
}

// WithRetry sets the retry strategy.
func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.err.retry = strategy
	return b
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

// Fatal marks the error as ending the whole session.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	b.err.severity = SeverityFatal
	return b
}

func (b *ErrorBuilder) Retryable() *ErrorBuilder  { return b.WithRetry(RetryBackoff) }
func (b *ErrorBuilder) RateLimit() *ErrorBuilder  { return b.WithRetry(RetryRateLimit) }
func (b *ErrorBuilder) UserAction() *ErrorBuilder { return b.WithRetry(RetryUserAction) }

// Build returns the error. The builder may be reused afterwards; later calls
// do not affect errors already built.
func (b *ErrorBuilder) Build() *ClassifiedError {
	e := b.err
	e.context = make(ErrorContext, len(b.err.context))
	for k, v := range b.err.context {
		e.context[k] = v
	}
	return &e
}

// ConfigError reports an unusable configuration file or flag. Fatal.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

// ValidationError reports a malformed request or argument. Fatal.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal()
}

// AuthError reports rejected credentials; retrying needs new credentials.
func AuthError(message string) *ErrorBuilder {
	return NewError(CategoryAuth, message).UserAction()
}

// NetworkError reports a transient transport failure.
func NetworkError(message string) *ErrorBuilder {
	return NewError(CategoryNetwork, message).Retryable()
}

// GitError reports a failed clone, fetch or checkout. Retried by default;
// ClassifyGitError narrows it down.
func GitError(message string) *ErrorBuilder {
	return NewError(CategoryGit, message).Retryable()
}

// BuildError reports a generator that could not be started or set up.
func BuildError(message string) *ErrorBuilder {
	return NewError(CategoryBuild, message)
}

// CacheError reports an unreadable or unwritable cache table. Fatal.
func CacheError(message string) *ErrorBuilder {
	return NewError(CategoryCache, message).Fatal()
}

// FileSystemError reports a failure in the output tree.
func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message)
}

// InternalError reports a broken contract inside docversions. Fatal.
func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
