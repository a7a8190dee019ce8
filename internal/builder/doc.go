// Package builder runs a documentation generator over one checked-out
// version of a project.
//
// Contract:
//
//	Build(ctx, source, output) (Result, error)
//
// Result.Failure reports the expected "this version produced no
// documentation" outcome (no configuration found, generator exited non-zero).
// The returned error is reserved for infrastructure failures such as an output
// directory that cannot be created; callers abort the run on it.
package builder
