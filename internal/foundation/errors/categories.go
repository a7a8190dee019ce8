package errors

import "sort"

// ErrorCategory says which part of a build session failed. Exit codes and
// history records are derived from it.
type ErrorCategory string

const (
	// Input the user controls.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryAuth       ErrorCategory = "auth"
	CategoryNotFound   ErrorCategory = "not_found"

	// Remote repository access.
	CategoryNetwork ErrorCategory = "network"
	CategoryGit     ErrorCategory = "git"

	// Generator runs and the output tree.
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryCache      ErrorCategory = "cache"

	// Broken invariants inside docversions itself, such as a task result
	// field filled twice.
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity separates errors that end the session from errors that only
// end the current operation.
type ErrorSeverity string

const (
	SeverityFatal ErrorSeverity = "fatal"
	SeverityError ErrorSeverity = "error"
)

// RetryStrategy tells the git retry loop whether another attempt can help.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryBackoff    RetryStrategy = "backoff"
	RetryRateLimit  RetryStrategy = "rate_limit" // back off longer than for plain failures
	RetryUserAction RetryStrategy = "user"       // credentials or config must change first
)

// ErrorContext carries the values that identify what failed (ref, path, url).
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Keys returns the context keys in sorted order.
func (c ErrorContext) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
