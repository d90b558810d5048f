package scheduler

import (
	"fmt"
	"sync"
)

// EventKind discriminates scheduler events.
type EventKind uint8

const (
	EventScheduled EventKind = iota + 1
	EventCanceled
	EventDispatched
	EventPriorityChanged
	EventCallUnavailable
	EventPermanentlyOverweight
)

// String returns the string representation of the EventKind.
func (k EventKind) String() string {
	switch k {
	case EventScheduled:
		return "Scheduled"
	case EventCanceled:
		return "Canceled"
	case EventDispatched:
		return "Dispatched"
	case EventPriorityChanged:
		return "PriorityChanged"
	case EventCallUnavailable:
		return "CallUnavailable"
	case EventPermanentlyOverweight:
		return "PermanentlyOverweight"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is a notification about a task. Fields not relevant to Kind are zero.
type Event struct {
	Kind EventKind
	Task TaskAddress

	// ID is set for named tasks on Dispatched, CallUnavailable and
	// PermanentlyOverweight.
	ID *TaskName

	// Result is the call's own outcome on Dispatched; nil means success.
	Result error

	// Priority is the new priority on PriorityChanged.
	Priority Priority

	// Tick is the tick being serviced when the event was produced, or the
	// current tick for placement operations.
	Tick Tick
}

func (e Event) String() string {
	switch e.Kind {
	case EventDispatched:
		res := "ok"
		if e.Result != nil {
			res = e.Result.Error()
		}
		return fmt.Sprintf("%s %s%s: %s", e.Kind, e.Task, nameSuffix(e.ID), res)
	case EventPriorityChanged:
		return fmt.Sprintf("%s %s -> %d", e.Kind, e.Task, e.Priority)
	default:
		return fmt.Sprintf("%s %s%s", e.Kind, e.Task, nameSuffix(e.ID))
	}
}

func nameSuffix(id *TaskName) string {
	if id == nil {
		return ""
	}
	return " (" + id.String() + ")"
}

// EventSink receives events after the state change producing them has been
// committed. Emit must not block for long and must not call back into the
// scheduler.
type EventSink interface {
	Emit(ev Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ev Event)

func (f EventSinkFunc) Emit(ev Event) { f(ev) }

// NopSink discards events.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// MultiSink fans events out to several sinks in order.
type MultiSink []EventSink

func (m MultiSink) Emit(ev Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}

// ChannelSink forwards events to a buffered channel. When the buffer is
// full the event is dropped and counted.
type ChannelSink struct {
	ch      chan Event
	mu      sync.Mutex
	dropped uint64
}

// NewChannelSink creates a sink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan Event, buffer)}
}

func (c *ChannelSink) Emit(ev Event) {
	select {
	case c.ch <- ev:
	default:
		c.mu.Lock()
		c.dropped++
		c.mu.Unlock()
	}
}

// C returns the receive side of the sink.
func (c *ChannelSink) C() <-chan Event { return c.ch }

// Close closes the channel. Emit must not be called afterwards.
func (c *ChannelSink) Close() { close(c.ch) }

// Dropped returns the number of events lost to a full buffer.
func (c *ChannelSink) Dropped() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Recorder keeps every event in memory. Used by tests and the CLI.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Reset forgets all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// OfKind returns the recorded events of kind k.
func (r *Recorder) OfKind(k EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}
