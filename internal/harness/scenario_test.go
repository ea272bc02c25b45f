package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "array_lifecycle.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "array_lifecycle", s.Name)
	require.NotEmpty(t, s.Steps)
	assert.Equal(t, Step{Op: OpCollection, Name: "c", Chunk: 3, Caps: []string{"object"}}, s.Steps[0])

	require.NotNil(t, s.Steps[8].ExpectIndex)
	assert.Equal(t, -1, *s.Steps[8].ExpectIndex)
	assert.Len(t, s.Assertions, 8)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: minimal
description: push and pop
steps:
  - op: push
  - op: pop
`), "minimal.yaml")
	require.NoError(t, err)

	assert.Equal(t, []Step{{Op: OpPush}, {Op: OpPop}}, s.Steps)
	assert.Empty(t, s.Assertions)
}

func TestParseScenario_EmptyExpectObject(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: empty_check
description: check on an empty collection
steps:
  - op: collection
    name: c
  - op: check
    target: c
    expect_object: ""
`), "empty_check.yaml")
	require.NoError(t, err)

	require.NotNil(t, s.Steps[1].ExpectObject)
	assert.Equal(t, "", *s.Steps[1].ExpectObject)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unbound target",
			yaml: `
name: unbound
description: x
steps:
  - op: add
    target: c
    object: o
`,
			want: `steps[0] (add): target "c" is not bound by an earlier step`,
		},
		{
			name: "name used before bound",
			yaml: `
name: order
description: x
steps:
  - op: retain
    object: o
  - op: new
    name: o
`,
			want: `object "o" is not bound`,
		},
		{
			name: "missing index",
			yaml: `
name: no_index
description: x
steps:
  - op: collection
    name: c
  - op: delete
    target: c
`,
			want: "steps[1] (delete): index is required",
		},
		{
			name: "missing name",
			yaml: `
name: anonymous
description: x
steps:
  - op: new
`,
			want: "name is required",
		},
		{
			name: "alive without value",
			yaml: `
name: alive
description: x
steps:
  - op: new
    name: o
assertions:
  - type: alive
    object: o
`,
			want: "assertions[0] (alive): alive is required",
		},
		{
			name: "assertion on unbound object",
			yaml: `
name: ghost
description: x
steps:
  - op: push
assertions:
  - type: refs
    object: ghost
    count: 1
`,
			want: `object "ghost" is not bound by any step`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml), "test.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateStep_JoinsErrors(t *testing.T) {
	err := validateStep(Step{Op: OpInsert}, map[string]bool{})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "target is required")
	assert.Contains(t, err.Error(), "object is required")
	assert.Contains(t, err.Error(), "index is required")
}

func TestValidateStep_BadNames(t *testing.T) {
	bound := map[string]bool{"c": true}

	err := validateStep(Step{Op: OpFlagSet, Target: "c", Flags: []string{"sticky"}}, bound)
	assert.Error(t, err)

	err = validateStep(Step{Op: OpComparator, Target: "c", Comparator: "random"}, bound)
	assert.EqualError(t, err, `unknown comparator "random"`)

	err = validateStep(Step{Op: OpPop, ExpectViolation: "SEGFAULT"}, bound)
	assert.EqualError(t, err, `unknown violation code "SEGFAULT"`)

	err = validateStep(Step{Op: "teleport"}, bound)
	assert.EqualError(t, err, `unknown op "teleport"`)
}
