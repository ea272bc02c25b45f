package harness

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// SchemaError reports every schema violation found in a scenario document.
type SchemaError struct {
	File   string
	Issues []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: schema violation: %s", e.File, strings.Join(e.Issues, "; "))
}

// ValidateSchema checks scenario YAML against the embedded CUE schema.
func ValidateSchema(data []byte, filename string) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc == nil {
		return &SchemaError{File: filename, Issues: []string{"empty document"}}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}

	v := ctx.Encode(doc)
	if err := v.Err(); err != nil {
		return formatCUEError(filename, err)
	}

	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(filename, err)
	}
	return nil
}

// formatCUEError flattens CUE's error list into path-qualified messages.
func formatCUEError(filename string, err error) error {
	var issues []string
	for _, e := range errors.Errors(err) {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if path := strings.Join(e.Path(), "."); path != "" {
			msg = path + ": " + msg
		}
		issues = append(issues, msg)
	}
	if len(issues) == 0 {
		issues = []string{err.Error()}
	}
	return &SchemaError{File: filename, Issues: issues}
}
