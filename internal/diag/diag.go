// Package diag provides construction-time tracing for a Dag: hash-cons
// hits/misses, Checkpoint allocations, Loop.Drop tombstones and the freeze
// transition are recorded for inspection by tests, the demo CLI, and
// (optionally) internal/buildwatch's live dashboard. Factories that
// allocate without hash-consing (the loop/control kinds and Temporal)
// record nothing.
package diag

import (
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
)

// EventKind classifies a single trace event.
type EventKind uint8

const (
	FactoryHit EventKind = iota
	FactoryMiss
	Freeze
	LoopDrop
)

func (k EventKind) String() string {
	switch k {
	case FactoryHit:
		return "factory-hit"
	case FactoryMiss:
		return "factory-miss"
	case Freeze:
		return "freeze"
	case LoopDrop:
		return "loop-drop"
	default:
		return "event(?)"
	}
}

// Event is one recorded construction-time occurrence.
type Event struct {
	Kind    EventKind
	Node    string // kind tag of the node involved, empty for Dag-wide events
	ID      uint64
	Detail  string
}

// Trace accumulates Events for one Dag's lifetime. The zero value is ready
// to use; a nil *Trace is valid and silently drops every record, so callers
// that don't care about tracing can skip allocating one.
type Trace struct {
	mu     sync.Mutex
	events []Event
	subs   []chan<- Event
}

func NewTrace() *Trace { return &Trace{} }

// Record appends an event and fans it out to any subscribers (buildwatch's
// websocket bridge subscribes this way).
func (t *Trace) Record(ev Event) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.events = append(t.events, ev)
	subs := append([]chan<- Event(nil), t.subs...)
	t.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default: // a slow dashboard subscriber never blocks construction
		}
	}
}

// Subscribe registers ch to receive every future Event. Unsubscribe with
// Unsubscribe once the caller is done (buildwatch does this when a
// websocket client disconnects).
func (t *Trace) Subscribe(ch chan<- Event) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subs = append(t.subs, ch)
}

func (t *Trace) Unsubscribe(ch chan<- Event) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.subs {
		if s == ch {
			t.subs = append(t.subs[:i], t.subs[i+1:]...)
			return
		}
	}
}

// Events returns a snapshot of every recorded event.
func (t *Trace) Events() []Event {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event(nil), t.events...)
}

// FootprintDetail renders a focal mask's footprint for a FactoryMiss event
// in the teacher's human-readable-size style, e.g. "focal mask: 9 cells, 36 B".
func FootprintDetail(label string, cells int, bytes uint64) string {
	return fmt.Sprintf("%s: %d cells, %s", label, cells, humanize.Bytes(bytes))
}
