// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/pdiddy/curio/pkg/types"
)

// State is a session's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateDispatched
	StateAccumulating
	StateComplete
	StateSuperseded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatched:
		return "dispatched"
	case StateAccumulating:
		return "accumulating"
	case StateComplete:
		return "complete"
	case StateSuperseded:
		return "superseded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is a snapshot of a session's merged output.
type Result struct {
	Items          []types.Item `json:"items"`
	TotalAvailable int          `json:"total_available"`
	Warnings       []string     `json:"warnings,omitempty"`
	Complete       bool         `json:"complete"`
}

// subscriberBuffer bounds how many undelivered events one subscriber may
// pile up before further events are dropped for it.
const subscriberBuffer = 64

// Session is one logical search and its lifecycle. The orchestrator owns
// the accumulation; callers read through Items, Result, View, and
// Subscribe. Every in-flight operation carries the session token, and a
// result whose token no longer matches the active session is discarded
// before it can touch the accumulation.
type Session struct {
	token  string
	query  string
	cancel context.CancelFunc

	mu       sync.Mutex
	state    State
	items    []types.Item
	seen     map[string]struct{}
	totals   map[string]int
	warnings []string
	subs     []chan ProgressEvent
	reporter Reporter
	done     chan struct{}
}

func newSession(token, query string, cancel context.CancelFunc, reporter Reporter) *Session {
	return &Session{
		token:    token,
		query:    query,
		cancel:   cancel,
		state:    StateIdle,
		seen:     make(map[string]struct{}),
		totals:   make(map[string]int),
		reporter: reporter,
		done:     make(chan struct{}),
	}
}

// Token returns the session identity token.
func (s *Session) Token() string { return s.token }

// Query returns the query the session was started with.
func (s *Session) Query() string { return s.query }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Items returns a copy of the merged items accumulated so far.
func (s *Session) Items() []types.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Item(nil), s.items...)
}

// Warnings returns a copy of the partial-failure warnings so far.
func (s *Session) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.warnings...)
}

// Result snapshots the session's current output.
func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resultLocked()
}

func (s *Session) resultLocked() Result {
	total := 0
	for _, t := range s.totals {
		total += t
	}
	return Result{
		Items:          append([]types.Item(nil), s.items...),
		TotalAvailable: total,
		Warnings:       append([]string(nil), s.warnings...),
		Complete:       s.state == StateComplete,
	}
}

// Done returns a channel closed when the session completes or is
// superseded.
func (s *Session) Done() <-chan struct{} { return s.done }

// Subscribe returns a channel of progress events. The channel closes when
// the session terminates. Subscribing to an already-terminated session
// returns a closed channel. A subscriber that stops reading loses events
// once its buffer fills; it never blocks the search.
func (s *Session) Subscribe() <-chan ProgressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan ProgressEvent, subscriberBuffer)
	if s.state == StateComplete || s.state == StateSuperseded {
		close(ch)
		return ch
	}
	s.subs = append(s.subs, ch)
	return ch
}

// emitLocked delivers an event to every subscriber and the reporter.
// Callers hold s.mu, which is what serializes delivery and keeps
// ItemsFound non-decreasing on every channel.
func (s *Session) emitLocked(ev ProgressEvent) {
	ev.Session = s.token
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	if s.reporter != nil {
		s.reporter.Report(ev)
	}
}

// dispatch moves the session out of IDLE.
func (s *Session) dispatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		s.state = StateDispatched
	}
}

// merge folds a normalized batch into the accumulation and reports
// progress. Items already present under the same (source, id) identity are
// discarded. Returns false when the token no longer matches a live
// session, in which case nothing was merged.
func (s *Session) merge(token, sourceName string, items []types.Item, sourceTotal int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.token || s.state == StateComplete || s.state == StateSuperseded {
		return false
	}
	s.state = StateAccumulating

	for _, it := range items {
		key := it.Key()
		if _, dup := s.seen[key]; dup {
			continue
		}
		s.seen[key] = struct{}{}
		s.items = append(s.items, it)
	}
	if sourceTotal > s.totals[sourceName] {
		s.totals[sourceName] = sourceTotal
	}

	total := 0
	for _, t := range s.totals {
		total += t
	}
	s.emitLocked(ProgressEvent{
		Source:         sourceName,
		ItemsFound:     len(s.items),
		TotalAvailable: total,
		Message:        fmt.Sprintf("found %d items (%d reported by %s)", len(s.items), total, sourceName),
	})
	return true
}

// warn records a partial-failure warning and reports it. Superseded and
// completed sessions ignore it.
func (s *Session) warn(token, warning string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.token || s.state == StateComplete || s.state == StateSuperseded {
		return
	}
	s.warnings = append(s.warnings, warning)

	total := 0
	for _, t := range s.totals {
		total += t
	}
	s.emitLocked(ProgressEvent{
		ItemsFound:     len(s.items),
		TotalAvailable: total,
		Message:        warning,
		Warning:        warning,
	})
}

// finish transitions to COMPLETE, emits the final event, and closes the
// subscription channels. It reports whether the transition happened and,
// when it did, the final result; a superseded session stays superseded.
func (s *Session) finish() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateComplete || s.state == StateSuperseded {
		return Result{}, false
	}
	s.state = StateComplete
	res := s.resultLocked()

	s.emitLocked(ProgressEvent{
		ItemsFound:     len(s.items),
		TotalAvailable: res.TotalAvailable,
		Message:        fmt.Sprintf("search complete: %d items", len(s.items)),
		Complete:       true,
	})
	s.closeSubsLocked()
	close(s.done)
	return res, true
}

// completeFromCache seeds the session with a cached result and terminates
// it without any network activity.
func (s *Session) completeFromCache(res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = res.Items
	for _, it := range res.Items {
		s.seen[it.Key()] = struct{}{}
	}
	s.totals["cache"] = res.TotalAvailable
	s.warnings = res.Warnings
	s.state = StateComplete

	s.emitLocked(ProgressEvent{
		ItemsFound:     len(s.items),
		TotalAvailable: res.TotalAvailable,
		Message:        fmt.Sprintf("cached result: %d items", len(s.items)),
		Complete:       true,
	})
	s.closeSubsLocked()
	close(s.done)
}

// supersede terminates the session because a newer search arrived for the
// same identity. In-flight repository calls are canceled and their late
// results will fail the token check in merge. Partial results are dropped;
// subscribers see their channel close without a completing event.
func (s *Session) supersede() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateComplete || s.state == StateSuperseded {
		return
	}
	s.state = StateSuperseded
	s.items = nil
	s.seen = make(map[string]struct{})
	s.closeSubsLocked()
	close(s.done)

	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Session) closeSubsLocked() {
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}
