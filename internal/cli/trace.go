package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/clumsy/internal/store"
	"github.com/roach88/clumsy/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - without it, runs are listed
	Kind     string // optional - filter to one event kind
	Object   string // optional - filter to one object name
}

// TraceResult holds the trace of one run.
type TraceResult struct {
	Run      store.Run     `json:"run"`
	Timeline []trace.Event `json:"timeline"`
	Stats    TraceStats    `json:"stats"`
}

// TraceStats holds summary statistics for a run, computed before filtering.
type TraceStats struct {
	TotalEvents int `json:"total_events"`
	Ops         int `json:"ops"`
	Destroyed   int `json:"destroyed"`
	Violations  int `json:"violations"`
}

// RunList holds the runs recorded in a database.
type RunList struct {
	Runs []store.Run `json:"runs"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded runs",
		Long: `Inspect runs recorded by "clumsy run --db".

Without --run, lists every recorded run. With --run, prints the run's
timeline of operations, destructor firings and contract violations.

Examples:
  clumsy trace --db ./runs.db
  clumsy trace --db ./runs.db --run 0192f7c4-...
  clumsy trace --db ./runs.db --run 0192f7c4-... --kind destroyed
  clumsy trace --db ./runs.db --run 0192f7c4-... --object o1 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to trace")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to events of one kind (op|destroyed|violation)")
	cmd.Flags().StringVar(&opts.Object, "object", "", "filter to events about one object")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	var kind trace.Kind
	if opts.Kind != "" {
		k, err := trace.ParseKind(opts.Kind)
		if err != nil {
			_ = formatter.Error(ErrCodeInvalidInput, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid --kind", err)
		}
		kind = k
	}

	// store.Open would create a missing database.
	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, "failed to open database", err.Error())
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.RunID == "" {
		return listRuns(ctx, st, formatter)
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, sql.ErrNoRows) {
		_ = formatter.Error(ErrCodeRunNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	events, err := st.ReadEvents(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	result := TraceResult{
		Run:      run,
		Timeline: filterEvents(events, kind, opts.Object),
		Stats:    buildStats(events),
	}

	if opts.Format == "json" {
		return formatter.Respond(CLIResponse{Status: "ok", Data: result, RunID: run.ID})
	}
	writeTraceText(formatter.Writer, result)
	return nil
}

func listRuns(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(RunList{Runs: runs})
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(w, "%s  %-6s  %s\n", run.ID, runStatus(run), run.Scenario)
	}
	return nil
}

// filterEvents keeps events matching kind and object; empty values match all.
func filterEvents(events []trace.Event, kind trace.Kind, object string) []trace.Event {
	filtered := make([]trace.Event, 0, len(events))
	for _, e := range events {
		if kind != "" && e.Kind != kind {
			continue
		}
		if object != "" && e.Object != object && e.Target != object {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

func buildStats(events []trace.Event) TraceStats {
	stats := TraceStats{TotalEvents: len(events)}
	for _, e := range events {
		switch e.Kind {
		case trace.KindOp:
			stats.Ops++
		case trace.KindDestroyed:
			stats.Destroyed++
		case trace.KindViolation:
			stats.Violations++
		}
	}
	return stats
}

func writeTraceText(w io.Writer, result TraceResult) {
	fmt.Fprintf(w, "Run: %s\n", result.Run.ID)
	fmt.Fprintf(w, "Scenario: %s\n", result.Run.Scenario)
	fmt.Fprintf(w, "Status: %s\n", runStatus(result.Run))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, e := range result.Timeline {
		fmt.Fprintf(w, "  %s\n", e)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Operations:   %d\n", result.Stats.Ops)
	fmt.Fprintf(w, "  Destroyed:    %d\n", result.Stats.Destroyed)
	fmt.Fprintf(w, "  Violations:   %d\n", result.Stats.Violations)
}

func runStatus(run store.Run) string {
	if run.Passed {
		return "passed"
	}
	return "failed"
}
