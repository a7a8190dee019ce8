package build

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docversions/internal/eventstore"
	"git.home.luguber.info/inful/docversions/internal/logfields"
)

// EventSink receives the events of one session. Recording is best effort:
// history must never fail a build.
type EventSink interface {
	Record(ctx context.Context, eventType string, payload any)
}

type nopSink struct{}

func (nopSink) Record(context.Context, string, any) {}

// storeSink appends events to an eventstore under one run id.
type storeSink struct {
	store eventstore.Store
	runID string
}

func newSink(store eventstore.Store, runID string) EventSink {
	if store == nil {
		return nopSink{}
	}
	return storeSink{store: store, runID: runID}
}

func (s storeSink) Record(ctx context.Context, eventType string, payload any) {
	e, err := eventstore.NewEvent(s.runID, eventType, payload)
	if err == nil {
		// cancelled sessions still get their closing event
		err = s.store.Append(context.WithoutCancel(ctx), e)
	}
	if err != nil {
		slog.Warn("Failed to record history event",
			logfields.RunID(s.runID),
			slog.String("event_type", eventType),
			logfields.Error(err))
	}
}
