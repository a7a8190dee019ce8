package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/docversions/internal/config"
	"git.home.luguber.info/inful/docversions/internal/git"
	"git.home.luguber.info/inful/docversions/internal/manifest"
	"git.home.luguber.info/inful/docversions/internal/versioning"
)

// Service is the canonical interface for executing build sessions.
type Service interface {
	// Run executes one session: resolve -> enumerate -> build -> manifest.
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request contains all inputs of one session.
type Request struct {
	// Config is the loaded configuration for this session.
	Config *config.Config

	// Location is a repository URL or a path inside a local working tree.
	Location string

	// OutputDir overrides Config.OutputDir when set.
	OutputDir string

	// Ephemeral builds in a throwaway data directory that is removed afterwards.
	Ephemeral bool
}

// Result contains the outcome of a session.
type Result struct {
	// Status indicates overall outcome.
	Status Status

	// Repository is the resolved repository; nil when resolution failed.
	Repository *git.Repository

	// Manifest holds the versions built so far; complete when Status is success.
	Manifest *manifest.Manifest

	// ManifestPath is where the manifest was written (success only).
	ManifestPath string

	// Failed lists versions dropped after an expected build failure.
	Failed []versioning.Version

	// StartTime is when the session started.
	StartTime time.Time

	// EndTime is when the session completed.
	EndTime time.Time

	// Duration is the total execution time.
	Duration time.Duration
}

// Status represents the outcome of a session.
type Status string

const (
	// StatusSuccess indicates every task ran (some may have been dropped).
	StatusSuccess Status = "success"

	// StatusFailed indicates an infrastructure failure aborted the session.
	StatusFailed Status = "failed"

	// StatusCancelled indicates the context was cancelled.
	StatusCancelled Status = "cancelled"
)

// IsTerminal returns true if the status represents a final state.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

// IsSuccess returns true if the session completed.
func (s Status) IsSuccess() bool { return s == StatusSuccess }
