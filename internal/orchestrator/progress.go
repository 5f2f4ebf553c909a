// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"fmt"
	"io"
)

// ProgressEvent is one status update pushed while a search session
// accumulates results. Within a session, ItemsFound never decreases and no
// event follows the one carrying Complete.
type ProgressEvent struct {
	// Session is the token of the session the event belongs to.
	Session string `json:"session"`

	// Source names the archive whose batch triggered the event, empty for
	// session-level events.
	Source string `json:"source,omitempty"`

	// ItemsFound is the merged item count so far.
	ItemsFound int `json:"items_found"`

	// TotalAvailable sums the totals the sources have reported so far.
	TotalAvailable int `json:"total_available"`

	// Message is a human-readable status line.
	Message string `json:"message"`

	// Warning carries a partial-failure notice, empty otherwise.
	Warning string `json:"warning,omitempty"`

	// Complete marks the session's final event.
	Complete bool `json:"complete"`
}

// Reporter receives progress events. The orchestrator pushes into it; a UI
// is just one implementation. Report must not block for long; it runs on
// the session's merge path.
type Reporter interface {
	Report(ev ProgressEvent)
}

// WriterReporter prints progress events as human-readable lines.
type WriterReporter struct {
	W io.Writer
}

// Report writes one status line per event.
func (r *WriterReporter) Report(ev ProgressEvent) {
	switch {
	case ev.Warning != "":
		fmt.Fprintf(r.W, "warning: %s\n", ev.Warning)
	case ev.Complete:
		fmt.Fprintf(r.W, "done: %d items (%d reported available)\n", ev.ItemsFound, ev.TotalAvailable)
	default:
		fmt.Fprintf(r.W, "%s\n", ev.Message)
	}
}
