package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/clumsy/internal/harness"
	"github.com/roach88/clumsy/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Filter   string // scenario filter (glob pattern) for directories

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, the harness generates UUIDv7s.
	RunIDs harness.RunIDGenerator
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	RunID  string   `json:"run_id,omitempty"`
	Pass   bool     `json:"pass"`
	Events int      `json:"events"`
	Errors []string `json:"errors,omitempty"`
}

// RunSummary holds the overall result of a run command.
type RunSummary struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario|dir>...",
		Short: "Run scenarios and report their traces",
		Long: `Run one or more scenario files.

Directories are searched recursively for .yaml and .yml files. Each
scenario runs against a fresh runtime. With --db, runs and their traces
are persisted to a SQLite database for later inspection with "trace".

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing paths, unusable database, etc.)

Examples:
  clumsy run ./scenarios
  clumsy run ./scenarios --filter "pool-*"
  clumsy run --db ./runs.db array.yaml pool.yaml
  clumsy run ./scenarios --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: in-memory per run)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios in directories by glob pattern")

	return cmd
}

func runScenarios(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	files, err := findScenarioFiles(paths, opts.Filter)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return err
	}

	summary := RunSummary{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	if len(files) == 0 {
		if opts.Format == "json" {
			return formatter.Success(summary)
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	hopts := []harness.Option{harness.WithLogger(slog.Default())}
	if opts.RunIDs != nil {
		hopts = append(hopts, harness.WithRunIDGenerator(opts.RunIDs))
	}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, "failed to open database", err.Error())
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		hopts = append(hopts, harness.WithStore(st))
	}
	h := harness.New(hopts...)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	for _, file := range files {
		formatter.VerboseLog("Running %s", file)
		res := runScenarioFile(ctx, h, file)
		summary.Scenarios = append(summary.Scenarios, res)
		if res.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
		if opts.Format != "json" {
			writeScenarioText(formatter, res)
		}
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: summary}
		if summary.Failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeRunFailed,
				Message: fmt.Sprintf("%d scenario(s) failed", summary.Failed),
			}
		}
		if err := formatter.Respond(resp); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintf(formatter.Writer, "Summary: %d passed, %d failed, %d total\n", summary.Passed, summary.Failed, summary.Total)
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", summary.Failed))
	}
	return nil
}

// runScenarioFile loads and runs one scenario. Load and execution errors
// count as a failed scenario rather than aborting the command.
func runScenarioFile(ctx context.Context, h *harness.Harness, file string) ScenarioResult {
	res := ScenarioResult{Name: filepath.Base(file), File: file}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		res.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return res
	}
	res.Name = scenario.Name

	result, err := h.Run(ctx, scenario)
	if err != nil {
		res.Errors = []string{fmt.Sprintf("failed to run scenario: %v", err)}
		return res
	}

	res.RunID = result.RunID
	res.Pass = result.Pass
	res.Events = len(result.Trace)
	if !result.Pass {
		res.Errors = result.Errors
	}
	return res
}

func writeScenarioText(f *OutputFormatter, res ScenarioResult) {
	if res.Pass {
		fmt.Fprintf(f.Writer, "✓ %s (%d events)\n", res.Name, res.Events)
		if f.Verbose && res.RunID != "" {
			fmt.Fprintf(f.Writer, "  run: %s\n", res.RunID)
		}
		return
	}

	fmt.Fprintf(f.Writer, "✗ %s\n", res.Name)
	for _, msg := range res.Errors {
		fmt.Fprintf(f.Writer, "  %s\n", msg)
	}
}
