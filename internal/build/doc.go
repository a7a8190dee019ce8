// Package build runs build sessions.
//
// A session resolves the repository, opens its build cache, expands the
// configured versioning strategy into tasks and hands them to the
// Orchestrator, which runs them one at a time:
//
//	INIT -> (per task: RUNNING -> COMPLETED | FAILED) -> DONE
//
// A task that fails with task.ErrBuildFailed is logged and dropped from the
// manifest. Any other error aborts the session with the manifest built so far;
// the cache table is still written on the way out. All execution paths (CLI,
// scheduler, watcher) go through Service.
package build
