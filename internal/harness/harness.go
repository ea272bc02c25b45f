package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/clumsy/internal/object"
	"github.com/roach88/clumsy/internal/store"
	"github.com/roach88/clumsy/internal/trace"
)

// Harness runs scenarios and persists their traces.
//
// Every run gets a fresh runtime (its own pool stack and object names), so
// runs sharing a Harness never observe each other's objects.
type Harness struct {
	store  *store.Store
	runIDs RunIDGenerator
	clock  func() trace.Clock
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithStore persists runs into st instead of a private in-memory store.
// The caller keeps ownership of st.
func WithStore(st *store.Store) Option {
	return func(h *Harness) {
		h.store = st
	}
}

// WithRunIDGenerator replaces UUIDv7 run IDs for scenarios that don't fix
// their own run_id.
func WithRunIDGenerator(gen RunIDGenerator) Option {
	return func(h *Harness) {
		h.runIDs = gen
	}
}

// WithClock supplies the clock each run stamps its events with.
// The default starts every run at seq 1.
func WithClock(newClock func() trace.Clock) Option {
	return func(h *Harness) {
		h.clock = newClock
	}
}

// WithLogger sets the logger for run progress. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		runIDs: UUIDv7Generator{},
		clock:  func() trace.Clock { return nil },
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes scenario against a fresh runtime with a default Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run executes scenario and returns its result.
//
// Execution flow:
//  1. Validate the scenario and pick its run ID
//  2. Execute every step, recovering contract violations per step
//  3. Persist the run and its trace
//  4. Evaluate assertions (destructor counts come from the store)
//  5. Record the outcome on the run row
//
// A failed expectation or assertion marks the result as failed; an error
// is returned only when the scenario is invalid or the store fails.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	st := h.store
	if st == nil {
		var err error
		st, err = store.Open(store.MemoryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
	}

	runID := scenario.RunID
	if runID == "" {
		runID = h.runIDs.Generate()
	}
	result := NewResult(runID, scenario.Name)

	if err := st.WriteRun(ctx, store.Run{ID: runID, Scenario: scenario.Name}); err != nil {
		return nil, err
	}

	rt := newRuntime()
	rec := trace.NewRecorder(h.clock())
	for i, step := range scenario.Steps {
		if msg := h.execute(rt, rec, step); msg != "" {
			result.AddError(fmt.Sprintf("steps[%d] (%s): %s", i, step.Op, msg))
		}
	}
	result.Trace = rec.Events()

	if err := st.WriteEvents(ctx, runID, result.Trace); err != nil {
		return nil, err
	}

	actx := &AssertionContext{Ctx: ctx, Store: st, RunID: runID, runtime: rt}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}

	run := store.Run{ID: runID, Scenario: scenario.Name, Passed: result.Pass, Failures: len(result.Errors)}
	if err := st.WriteRun(ctx, run); err != nil {
		return nil, err
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"run_id", runID,
		"events", len(result.Trace),
		"pass", result.Pass,
	)
	return result, nil
}

// execute runs one step, records it, and returns a failure message if an
// expectation did not hold.
func (h *Harness) execute(rt *runtime, rec *trace.Recorder, step Step) string {
	var out outcome
	err := object.Guard(func() {
		out = rt.apply(step)
	})

	subject := step.Object
	if step.Op == OpNew || step.Op == OpCollection {
		subject = step.Name
	}

	code := object.CodeOf(err)
	if err != nil {
		rec.Violation(step.Op, step.Target, subject, string(code))
		h.logger.Debug("contract violation", "op", step.Op, "error", err)
	} else {
		rec.Op(step.Op, step.Target, subject, out.String())
	}
	for _, name := range rt.drain() {
		rec.Destroyed(name)
	}

	return checkExpectations(step, out, code)
}

// checkExpectations compares a step's outcome with its expect_* fields.
func checkExpectations(step Step, out outcome, code object.ContractCode) string {
	if code != "" {
		if step.ExpectViolation == string(code) {
			return ""
		}
		return fmt.Sprintf("unexpected violation %s", code)
	}
	if step.ExpectViolation != "" {
		return fmt.Sprintf("expected violation %s, got none", step.ExpectViolation)
	}

	mismatch := func(field string, kind outcomeKind) string {
		if out.kind != kind {
			return fmt.Sprintf("%s does not apply to %s", field, step.Op)
		}
		return ""
	}

	switch {
	case step.ExpectIndex != nil:
		if msg := mismatch("expect_index", outcomeIndex); msg != "" {
			return msg
		}
		if out.index != *step.ExpectIndex {
			return fmt.Sprintf("expected index %d, got %d", *step.ExpectIndex, out.index)
		}
	case step.ExpectObject != nil:
		if msg := mismatch("expect_object", outcomeObject); msg != "" {
			return msg
		}
		if out.object != *step.ExpectObject {
			return fmt.Sprintf("expected object %q, got %q", *step.ExpectObject, out.object)
		}
	case step.ExpectCount != nil:
		if msg := mismatch("expect_count", outcomeCount); msg != "" {
			return msg
		}
		if out.count != *step.ExpectCount {
			return fmt.Sprintf("expected count %d, got %d", *step.ExpectCount, out.count)
		}
	case step.ExpectBool != nil:
		if msg := mismatch("expect_bool", outcomeBool); msg != "" {
			return msg
		}
		if out.flag != *step.ExpectBool {
			return fmt.Sprintf("expected %t, got %t", *step.ExpectBool, out.flag)
		}
	}
	return ""
}
