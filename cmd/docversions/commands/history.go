package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docversions/internal/eventstore"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	RunID   string `name:"run" help:"Show the events of one session"`
	Limit   int    `help:"Number of sessions to list" default:"20"`
	JSON    bool   `name:"json" help:"Print JSON instead of a table"`
	DataDir string `name:"data-dir" short:"d" help:"Directory holding clones, cache and history"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, &BuildFlags{DataDir: h.DataDir})
	if err != nil {
		return err
	}
	path := cfg.History.Path
	if path == "" {
		path = filepath.Join(cfg.DataDir, "history.db")
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		_, _ = fmt.Fprintf(g.out(), "no history recorded at %s\n", path)
		return nil
	}
	store, err := eventstore.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if h.RunID != "" {
		events, err := store.GetByRunID(g.ctx(), h.RunID)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return errors.NewError(errors.CategoryNotFound, "no such session").WithContext("run_id", h.RunID).Build()
		}
		if h.JSON {
			return writeJSON(g.out(), eventRecords(events))
		}
		return printEvents(g.out(), events)
	}

	summaries, err := eventstore.Summaries(g.ctx(), store, h.Limit)
	if err != nil {
		return err
	}
	if h.JSON {
		return writeJSON(g.out(), summaries)
	}
	return printSummaries(g.out(), summaries)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type eventRecord struct {
	Time    time.Time       `json:"time"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func eventRecords(events []eventstore.Event) []eventRecord {
	out := make([]eventRecord, 0, len(events))
	for _, e := range events {
		out = append(out, eventRecord{Time: e.Timestamp(), Type: e.Type(), Payload: json.RawMessage(e.Payload())})
	}
	return out
}

func printSummaries(w io.Writer, summaries []*eventstore.RunSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tSTATUS\tREPOSITORY\tBUILT\tREUSED\tFAILED\tDURATION")
	for _, s := range summaries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			s.RunID,
			s.StartedAt.Local().Format(time.DateTime),
			s.Status,
			s.Repository,
			len(s.Built),
			s.Reused,
			len(s.Failed),
			s.Duration.Round(time.Millisecond))
	}
	return tw.Flush()
}

func printEvents(w io.Writer, events []eventstore.Event) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tEVENT\tPAYLOAD")
	for _, e := range events {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Timestamp().Local().Format(time.RFC3339), e.Type(), e.Payload())
	}
	return tw.Flush()
}
