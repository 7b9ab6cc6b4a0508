package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

const passingScenario = `
name: two_sizes
description: "Two sizes generate two variants"
prefix: TEE
steps:
  - op: add_attribute
    name: Size
    values: [S, M]
  - op: generate
assertions:
  - type: variant_count
    count: 2
`

const failingScenario = `
name: wrong_count
description: "Asserts the wrong count"
steps:
  - op: add_attribute
    name: Size
    values: [S, M]
  - op: generate
assertions:
  - type: variant_count
    count: 3
`

func TestTestCommandMissingArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "test", t.TempDir())
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := execute(t, "test", harnessScenarios, "--golden-dir", "../harness/testdata/golden")
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ golden_small")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilterJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "test", harnessScenarios, "--filter", "golden_*")
	require.NoError(t, err, out)

	var response struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, 1, response.Data.Total)
	assert.Equal(t, "golden_small", response.Data.Scenarios[0].Name)
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pass.yaml", passingScenario)
	writeFile(t, dir, "fail.yaml", failingScenario)

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ two_sizes")
	assert.Contains(t, out, "✗ wrong_count")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFailingScenarioJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fail.yaml", failingScenario)

	out, err := execute(t, "--format", "json", "test", dir)
	require.Error(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "error", response.Status)
	require.NotNil(t, response.Error)
	assert.Equal(t, ErrCodeTestFailed, response.Error.Code)
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "name: broken\n")

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "two_sizes.yaml", passingScenario)

	out, err := execute(t, "test", dir, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ two_sizes (golden updated)")

	goldenPath := filepath.Join(dir, "golden", "two_sizes.golden")
	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"two_sizes"`)

	out, err = execute(t, "test", dir)
	require.NoError(t, err, out)

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"stale":true}`), 0644))
	out, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "matrix does not match golden file")
}

func TestFindScenarioFiles(t *testing.T) {
	tmpDir := t.TempDir()

	writeFile(t, tmpDir, "test1.yaml", "")
	writeFile(t, tmpDir, "test2.yml", "")
	writeFile(t, tmpDir, "ignore.txt", "")

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFindScenarioFilesWithFilter(t *testing.T) {
	tmpDir := t.TempDir()

	writeFile(t, tmpDir, "bulk-price.yaml", "")
	writeFile(t, tmpDir, "bulk-stock.yaml", "")
	writeFile(t, tmpDir, "presets.yaml", "")

	files, err := findScenarioFiles(tmpDir, "bulk-*")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	for _, f := range files {
		assert.Contains(t, filepath.Base(f), "bulk-")
	}
}

func TestFindScenarioFilesSubdirectories(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "subdir")
	require.NoError(t, os.MkdirAll(subDir, 0755))

	writeFile(t, tmpDir, "root.yaml", "")
	writeFile(t, subDir, "sub.yaml", "")

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
