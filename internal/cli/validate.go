package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/clumsy/internal/harness"
)

// ValidationError describes one scenario file that did not validate.
type ValidationError struct {
	File    string   `json:"file"`
	Message string   `json:"message"`
	Issues  []string `json:"issues,omitempty"` // schema violations, when the schema rejected it
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario|dir>...",
		Short: "Validate scenarios without running them",
		Long: `Validate scenario files without running them.

Checks each file against the scenario schema, then checks that every
step has the fields its operation needs and only refers to names bound
by earlier steps.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	files, err := findScenarioFiles(paths, "")
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return err
	}
	if len(files) == 0 {
		_ = formatter.Error(ErrCodeNotFound, "no scenario files found", nil)
		return NewExitError(ExitCommandError, "no scenario files found")
	}

	formatter.VerboseLog("Found %d scenario file(s)", len(files))

	result := ValidationResult{Valid: true, Files: len(files)}
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)
		if _, err := harness.LoadScenario(file); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, toValidationError(file, err))
		}
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

func toValidationError(file string, err error) ValidationError {
	verr := ValidationError{File: file, Message: err.Error()}
	var schemaErr *harness.SchemaError
	if errors.As(err, &schemaErr) {
		verr.Message = "schema violation"
		verr.Issues = schemaErr.Issues
	}
	return verr
}

func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d scenario(s) valid\n", result.Files)
	return nil
}

func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		err := formatter.Respond(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeInvalid,
				Message: result.Errors[0].Message,
			},
		})
		if err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, verr := range result.Errors {
		fmt.Fprintf(formatter.Writer, "%s\n", verr.File)
		fmt.Fprintf(formatter.Writer, "  %s\n", verr.Message)
		for _, issue := range verr.Issues {
			fmt.Fprintf(formatter.Writer, "    %s\n", issue)
		}
		fmt.Fprintln(formatter.Writer)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
