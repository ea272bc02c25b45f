package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/clumsy/internal/collection"
	"github.com/roach88/clumsy/internal/object"
)

// Scenario is a scripted sequence of runtime operations plus the assertions
// that must hold once every step has run.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RunID optionally fixes the run identifier for deterministic output.
	// If empty, the harness generates a UUIDv7.
	RunID string `yaml:"run_id,omitempty"`

	// Steps are executed in order against a fresh runtime.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one runtime operation.
//
// Objects and collections are referred to by the names scenario steps give
// them; which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op"`

	// Name binds the object produced by new, collection or pick.
	Name string `yaml:"name,omitempty"`

	// Target names the collection an operation applies to.
	Target string `yaml:"target,omitempty"`

	// Object names the object argument.
	Object string `yaml:"object,omitempty"`

	// Index is the position argument of insert, get, delete and find (start).
	Index *int `yaml:"index,omitempty"`

	// Key orders objects under the "key" comparator.
	Key int64 `yaml:"key,omitempty"`

	// Raw creates an object with count 0 instead of 1.
	Raw bool `yaml:"raw,omitempty"`

	// Chunk is the chunk size of a new collection (0 selects the default).
	Chunk int `yaml:"chunk,omitempty"`

	// Caps are capability names: the object's own caps for new, the element
	// caps for collection.
	Caps []string `yaml:"caps,omitempty"`

	// Flags are collection flag names.
	Flags []string `yaml:"flags,omitempty"`

	// Comparator selects "identity", "key" or "name" ordering.
	Comparator string `yaml:"comparator,omitempty"`

	ExpectIndex     *int    `yaml:"expect_index,omitempty"`
	ExpectObject    *string `yaml:"expect_object,omitempty"`
	ExpectCount     *int    `yaml:"expect_count,omitempty"`
	ExpectBool      *bool   `yaml:"expect_bool,omitempty"`
	ExpectViolation string  `yaml:"expect_violation,omitempty"`
}

// Assertion checks the final state of a named object.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Object names the object or collection under test.
	Object string `yaml:"object"`

	// Count is the expected destructor count, reference count, capacity or
	// element count.
	Count int `yaml:"count,omitempty"`

	// Contents is the expected element names of a collection, in index order.
	Contents []string `yaml:"contents,omitempty"`

	// Alive is the expected liveness.
	Alive *bool `yaml:"alive,omitempty"`
}

// Step operations.
const (
	OpNew            = "new"
	OpCollection     = "collection"
	OpRetain         = "retain"
	OpRelease        = "release"
	OpAdd            = "add"
	OpInsert         = "insert"
	OpFind           = "find"
	OpGet            = "get"
	OpCheck          = "check"
	OpPick           = "pick"
	OpRemove         = "remove"
	OpDelete         = "delete"
	OpFlagSet        = "flag_set"
	OpFlagUnset      = "flag_unset"
	OpFlagCheck      = "flag_check"
	OpComparator     = "comparator"
	OpPush           = "push"
	OpPop            = "pop"
	OpAutorelease    = "autorelease"
	OpReleaseDeleted = "release_deleted"
)

// Assertion types.
const (
	AssertDestroyed = "destroyed"
	AssertRefs      = "refs"
	AssertCapacity  = "capacity"
	AssertCount     = "count"
	AssertContents  = "contents"
	AssertAlive     = "alive"
)

// Comparator names.
const (
	CompareIdentity = "identity"
	CompareKey      = "key"
	CompareName     = "name"
)

// LoadScenario reads, schema-checks and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Base(path))
}

// ParseScenario parses scenario YAML. filename is used in error messages.
func ParseScenario(data []byte, filename string) (*Scenario, error) {
	if err := ValidateSchema(data, filename); err != nil {
		return nil, err
	}

	// Strict decoding catches typos the schema would report less precisely.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks what the schema cannot: per-op required fields,
// parseable caps and flags, and references to names never bound.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	bound := make(map[string]bool)
	for i, step := range s.Steps {
		if err := validateStep(step, bound); err != nil {
			return fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
		}
		if step.Name != "" {
			bound[step.Name] = true
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, bound); err != nil {
			return fmt.Errorf("assertions[%d] (%s): %w", i, a.Type, err)
		}
	}

	return nil
}

func validateStep(step Step, bound map[string]bool) error {
	need := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("%s is required", field)
		}
		if field != "name" && !bound[value] {
			return fmt.Errorf("%s %q is not bound by an earlier step", field, value)
		}
		return nil
	}

	var errs []error
	switch step.Op {
	case OpNew:
		errs = append(errs, need("name", step.Name))
		if _, err := object.ParseCapability(step.Caps...); err != nil {
			errs = append(errs, err)
		}
	case OpCollection:
		errs = append(errs, need("name", step.Name))
		if step.Chunk < 0 {
			errs = append(errs, fmt.Errorf("chunk must be non-negative"))
		}
		if _, err := object.ParseCapability(step.Caps...); err != nil {
			errs = append(errs, err)
		}
		if _, err := collection.ParseFlags(step.Flags...); err != nil {
			errs = append(errs, err)
		}
		errs = append(errs, validateComparator(step.Comparator))
	case OpRetain, OpRelease, OpAutorelease:
		errs = append(errs, need("object", step.Object))
	case OpAdd, OpRemove:
		errs = append(errs, need("target", step.Target), need("object", step.Object))
	case OpInsert:
		errs = append(errs, need("target", step.Target), need("object", step.Object))
		if step.Index == nil {
			errs = append(errs, fmt.Errorf("index is required"))
		}
	case OpFind:
		errs = append(errs, need("target", step.Target), need("object", step.Object))
	case OpGet, OpDelete:
		errs = append(errs, need("target", step.Target))
		if step.Index == nil {
			errs = append(errs, fmt.Errorf("index is required"))
		}
	case OpCheck, OpPick, OpReleaseDeleted:
		errs = append(errs, need("target", step.Target))
	case OpFlagSet, OpFlagUnset, OpFlagCheck:
		errs = append(errs, need("target", step.Target))
		if _, err := collection.ParseFlags(step.Flags...); err != nil {
			errs = append(errs, err)
		}
	case OpComparator:
		errs = append(errs, need("target", step.Target), validateComparator(step.Comparator))
	case OpPush, OpPop:
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	if step.ExpectViolation != "" && !validContractCode(step.ExpectViolation) {
		errs = append(errs, fmt.Errorf("unknown violation code %q", step.ExpectViolation))
	}

	return errors.Join(errs...)
}

func validateComparator(name string) error {
	switch name {
	case "", CompareIdentity, CompareKey, CompareName:
		return nil
	}
	return fmt.Errorf("unknown comparator %q", name)
}

func validContractCode(code string) bool {
	switch object.ContractCode(code) {
	case object.ErrCodeInvalidHandle, object.ErrCodeCapabilityMismatch,
		object.ErrCodeBadAllocation, object.ErrCodeNoPool, object.ErrCodeBadArgument:
		return true
	}
	return false
}

func validateAssertion(a Assertion, bound map[string]bool) error {
	if a.Object == "" {
		return fmt.Errorf("object is required")
	}
	if !bound[a.Object] {
		return fmt.Errorf("object %q is not bound by any step", a.Object)
	}

	switch a.Type {
	case AssertDestroyed, AssertRefs, AssertCapacity, AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative")
		}
	case AssertContents:
	case AssertAlive:
		if a.Alive == nil {
			return fmt.Errorf("alive is required")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
