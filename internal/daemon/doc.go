// Package daemon runs build sessions repeatedly: on a fixed interval
// (Scheduler, used by `serve`) or whenever a working tree changes
// (Watcher, used by `watch`). Both call a RunFunc and never run two
// sessions at the same time.
package daemon
