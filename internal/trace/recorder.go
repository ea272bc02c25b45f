package trace

import (
	"fmt"
	"io"
	"slices"
	"sync/atomic"
)

// Clock supplies strictly increasing sequence numbers.
type Clock interface {
	Next() int64
}

// counter is the default Clock, starting at 1.
type counter struct {
	seq atomic.Int64
}

func (c *counter) Next() int64 {
	return c.seq.Add(1)
}

// Recorder accumulates the events of one run in sequence order.
type Recorder struct {
	clock  Clock
	events []Event
}

// NewRecorder creates a Recorder stamping events from clock.
// A nil clock selects an internal counter starting at 1.
func NewRecorder(clock Clock) *Recorder {
	if clock == nil {
		clock = &counter{}
	}
	return &Recorder{clock: clock}
}

// Record stamps e with the next sequence number, appends it and returns it.
func (r *Recorder) Record(e Event) Event {
	e.Seq = r.clock.Next()
	r.events = append(r.events, e)
	return e
}

// Op records an operation and its rendered result.
func (r *Recorder) Op(op, target, object, result string) Event {
	return r.Record(Event{Kind: KindOp, Op: op, Target: target, Object: object, Result: result})
}

// Destroyed records a destructor firing for the named object.
func (r *Recorder) Destroyed(object string) Event {
	return r.Record(Event{Kind: KindDestroyed, Object: object})
}

// Violation records a recovered contract violation.
func (r *Recorder) Violation(op, target, object, detail string) Event {
	return r.Record(Event{Kind: KindViolation, Op: op, Target: target, Object: object, Detail: detail})
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	return slices.Clone(r.events)
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	return len(r.events)
}

// Count returns how many events of kind concern object. An empty object
// matches every event of that kind.
func (r *Recorder) Count(kind Kind, object string) int {
	n := 0
	for _, e := range r.events {
		if e.Kind == kind && (object == "" || e.Object == object) {
			n++
		}
	}
	return n
}

// WriteJSONL writes events as canonical JSON, one per line.
func WriteJSONL(w io.Writer, events []Event) error {
	for _, e := range events {
		data, err := e.Canonical()
		if err != nil {
			return err
		}
		data = append(data, '\n')
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write event %d: %w", e.Seq, err)
		}
	}
	return nil
}
