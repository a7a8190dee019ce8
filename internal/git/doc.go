// Package git is the checkout source for docversions: it materializes a
// project's clone, enumerates remote branches and tags, switches the clone
// to a ref and reports the commit identity of what is checked out.
//
// This package handles Git operations including:
//   - Repository cloning and fetching with authentication (SSH, token, basic)
//   - Stable per-URL clone directory names
//   - Forced detached checkouts of branches and (peeled) tags
//   - Retry logic for transient failures
//   - Typed errors for structured error handling
package git
