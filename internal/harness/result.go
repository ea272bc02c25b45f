package harness

import "github.com/roach88/clumsy/internal/trace"

// Result is the outcome of a scenario run.
type Result struct {
	// RunID identifies the run in the trace store.
	RunID string `json:"run_id"`

	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds every recorded event in seq order.
	Trace []trace.Event `json:"trace"`

	// Errors holds one message per failed expectation or assertion.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result for a run.
func NewResult(runID, scenario string) *Result {
	return &Result{
		RunID:    runID,
		Scenario: scenario,
		Pass:     true,
		Trace:    []trace.Event{},
		Errors:   []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
