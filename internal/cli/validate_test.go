package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeValidate(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidate_Valid(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pool.yaml", passingScenario)
	// A failing assertion is still a valid scenario.
	writeScenario(t, dir, "wrong.yaml", failingScenario)

	out, err := executeValidate(t, "text", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "✓ 2 scenario(s) valid")
}

func TestValidate_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pool.yaml", passingScenario)
	broken := writeScenario(t, dir, "broken.yaml", invalidScenario)

	out, err := executeValidate(t, "text", dir)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, broken)
	assert.Contains(t, out, `target "c" is not bound by an earlier step`)
}

func TestValidate_SchemaIssues(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "typo.yaml", `
name: typo
description: misspelled op
steps:
  - op: autorelase
    object: o
`)

	out, err := executeValidate(t, "json", dir)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, "schema violation", resp.Data.Errors[0].Message)
	assert.NotEmpty(t, resp.Data.Errors[0].Issues)
}

func TestValidate_JSONSuccess(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "pool.yaml", passingScenario)

	out, err := executeValidate(t, "json", path)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Files)
}

func TestValidate_NoFiles(t *testing.T) {
	_, err := executeValidate(t, "text", t.TempDir())

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_MissingPath(t *testing.T) {
	_, err := executeValidate(t, "text", "/nonexistent/x.yaml")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
