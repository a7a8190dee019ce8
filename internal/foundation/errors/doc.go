// Package errors provides the classified error primitives used across docversions.
//
// Errors carry a category (config, git, cache, build, ...), a severity and a
// retry strategy so that callers can decide between "drop this version",
// "retry the git operation" and "abort the run" without parsing messages.
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryGit, "fetch failed").
//		Retryable().
//		WithContext("url", repoURL).
//		WithCause(originalErr).
//		Build()
package errors
