package query

import (
	"sync"

	"github.com/collabnext/backend/pkg/common"
)

type TraceEventKind string

const (
	TraceEventDispatch       TraceEventKind = "dispatch"
	TraceEventPrimaryLookup  TraceEventKind = "primary_lookup"
	TraceEventFederation     TraceEventKind = "federation_lookup"
	TraceEventRespond        TraceEventKind = "respond"
	TraceEventRespondEmpty   TraceEventKind = "respond_empty"
	TraceEventErrorResponse  TraceEventKind = "error_response"
	TraceEventBatchEntry     TraceEventKind = "batch_entry"
	TraceEventDuplicateNodes TraceEventKind = "duplicate_nodes"
)

// TraceEvent is one state transition of a resolution. Additive changes to
// this struct are backward compatible for implementers.
type TraceEvent struct {
	Kind    TraceEventKind
	Shape   Shape
	Outcome common.OutcomeKind
	Entry   string
	IDs     []string
	Error   string
}

// Tracer is a sink for resolution events.
//
// Implementers can forward events to logs, telemetry, or tests.
type Tracer interface {
	Record(event TraceEvent)
}

// MultiTracer fan-outs trace events to multiple tracers.
type MultiTracer []Tracer

func (m MultiTracer) Record(event TraceEvent) {
	for _, t := range m {
		if t == nil {
			continue
		}
		t.Record(event)
	}
}

func recordLookup(t Tracer, kind TraceEventKind, shape Shape, outcome common.OutcomeKind, err error) {
	if t == nil {
		return
	}
	ev := TraceEvent{Kind: kind, Shape: shape, Outcome: outcome}
	if err != nil {
		ev.Error = err.Error()
	}
	t.Record(ev)
}

func recordKind(t Tracer, kind TraceEventKind, shape Shape) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: kind, Shape: shape})
}

// QueryTrace collects the events of resolutions in the order they were
// recorded.
//
// QueryTrace is safe for concurrent use.
type QueryTrace struct {
	mu     sync.Mutex
	events []TraceEvent
}

func NewQueryTrace() *QueryTrace {
	return &QueryTrace{}
}

func (t *QueryTrace) Record(event TraceEvent) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

// Snapshot returns a copy of the recorded events.
func (t *QueryTrace) Snapshot() []TraceEvent {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEvent, len(t.events))
	copy(out, t.events)
	return out
}

// Kinds returns the kinds of the recorded events in order.
func (t *QueryTrace) Kinds() []TraceEventKind {
	events := t.Snapshot()
	out := make([]TraceEventKind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

// Lookups returns the outcome of every lookup of kind, in order.
func (t *QueryTrace) Lookups(kind TraceEventKind) []common.OutcomeKind {
	var out []common.OutcomeKind
	for _, ev := range t.Snapshot() {
		if ev.Kind == kind {
			out = append(out, ev.Outcome)
		}
	}
	return out
}
