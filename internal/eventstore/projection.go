package eventstore

import (
	"context"
	"time"
)

const (
	runStatusRunning   = "running"
	runStatusCompleted = "completed"
	runStatusFailed    = "failed"
)

// RunSummary is a read model of one session.
type RunSummary struct {
	RunID       string        `json:"run_id"`
	Repository  string        `json:"repository"`
	Status      string        `json:"status"` // "running", "completed", "failed"
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Built       []string      `json:"built"`
	Reused      int           `json:"reused"`
	Failed      []string      `json:"failed,omitempty"`
	Error       string        `json:"error,omitempty"`
	Manifest    string        `json:"manifest,omitempty"`
}

// Summarize folds the events of one run into a summary. Events of other runs
// are ignored.
func Summarize(runID string, events []Event) (*RunSummary, error) {
	s := &RunSummary{RunID: runID, Status: runStatusRunning, Built: []string{}}
	for _, e := range events {
		if e.RunID() != runID {
			continue
		}
		if s.StartedAt.IsZero() {
			s.StartedAt = e.Timestamp()
		}
		switch e.Type() {
		case TypeRunStarted:
			var p RunStarted
			if err := Decode(e, &p); err != nil {
				return nil, err
			}
			s.Repository = p.Repository
			s.StartedAt = e.Timestamp()
		case TypeVersionBuilt:
			var p VersionBuilt
			if err := Decode(e, &p); err != nil {
				return nil, err
			}
			s.Built = append(s.Built, p.Type+":"+p.Slug)
			if p.Reused {
				s.Reused++
			}
		case TypeVersionFailed:
			var p VersionFailed
			if err := Decode(e, &p); err != nil {
				return nil, err
			}
			s.Failed = append(s.Failed, p.Type+":"+p.Slug)
		case TypeRunCompleted:
			var p RunCompleted
			if err := Decode(e, &p); err != nil {
				return nil, err
			}
			s.finish(e.Timestamp(), runStatusCompleted)
			s.Manifest = p.ManifestPath
		case TypeRunFailed:
			var p RunFailed
			if err := Decode(e, &p); err != nil {
				return nil, err
			}
			s.finish(e.Timestamp(), runStatusFailed)
			s.Error = p.Error
		}
	}
	return s, nil
}

func (s *RunSummary) finish(at time.Time, status string) {
	s.Status = status
	s.CompletedAt = &at
	s.Duration = at.Sub(s.StartedAt)
}

// Summaries returns summaries of the newest runs, newest first.
func Summaries(ctx context.Context, store Store, limit int) ([]*RunSummary, error) {
	ids, err := store.RecentRunIDs(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*RunSummary, 0, len(ids))
	for _, id := range ids {
		events, err := store.GetByRunID(ctx, id)
		if err != nil {
			return nil, err
		}
		s, err := Summarize(id, events)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
