// Package eventstore keeps the history of build sessions in SQLite.
//
// Every session appends a small stream of events keyed by its run id
// (RunStarted, RepositorySynced, VersionBuilt, VersionFailed, then RunCompleted
// or RunFailed). Summaries folds the streams back into one line per run.
package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, e Event) error

	// GetByRunID retrieves all events of one run, oldest first.
	GetByRunID(ctx context.Context, runID string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// RecentRunIDs returns the ids of the newest runs, newest first.
	RecentRunIDs(ctx context.Context, limit int) ([]string, error)

	// Close closes the store and releases resources.
	Close() error
}
