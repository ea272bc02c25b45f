package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/clumsy/internal/trace"
)

// Run is the summary row of one scenario run.
type Run struct {
	ID       string `json:"id"`
	Scenario string `json:"scenario"`
	Passed   bool   `json:"passed"`
	Failures int    `json:"failures"`
}

// WriteRun inserts a run, or updates its outcome if the ID already exists.
// The harness writes a run before its events and again once assertions
// have been evaluated.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("write run: empty run id")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, passed, failures)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			passed = excluded.passed,
			failures = excluded.failures
	`,
		run.ID,
		run.Scenario,
		run.Passed,
		run.Failures,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	return nil
}

// WriteEvent appends one event to a run's trace.
// Uses ON CONFLICT DO NOTHING, so rewriting the same (run, seq) is a no-op.
// The run must exist (foreign key constraint).
func (s *Store) WriteEvent(ctx context.Context, runID string, e trace.Event) error {
	if err := writeEvent(ctx, s.db, runID, e); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// WriteEvents appends a whole trace in one transaction: either every event
// is stored or none is.
func (s *Store) WriteEvents(ctx context.Context, runID string, events []trace.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write events: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, e := range events {
		if err := writeEvent(ctx, tx, runID, e); err != nil {
			return fmt.Errorf("write events: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write events: commit: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func writeEvent(ctx context.Context, db execer, runID string, e trace.Event) error {
	payload, err := marshalEvent(e)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO events (run_id, seq, kind, object, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		runID,
		e.Seq,
		string(e.Kind),
		e.Object,
		payload,
	)
	if err != nil {
		return fmt.Errorf("event %d: %w", e.Seq, err)
	}
	return nil
}
