package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/varmatrix/internal/matrix"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	content := `
name: test_scenario
description: "Test scenario for validation"
prefix: TEE
config:
  hard_limit: 50
  soft_limit: 10
steps:
  - op: add_attribute
    name: Size
    values: [S, M]
  - op: generate
  - op: bulk
    bulk: {action: set_price, value: "10"}
    expect_error: EMPTY_SELECTION
assertions:
  - type: variant_count
    count: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "TEE", scenario.Prefix)
	require.NotNil(t, scenario.Config)
	assert.Equal(t, 50, scenario.Config.HardLimit)
	require.Len(t, scenario.Steps, 3)
	assert.Equal(t, []string{"S", "M"}, scenario.Steps[0].Values)
	assert.Equal(t, "set_price", scenario.Steps[2].Bulk.Action)
	assert.Equal(t, "EMPTY_SELECTION", scenario.Steps[2].ExpectError)
	require.NotNil(t, scenario.Assertions[0].Count)
	assert.Equal(t, 2, *scenario.Assertions[0].Count)
}

func TestParseScenario_ConfigDecodesOverDefaults(t *testing.T) {
	content := `
name: zero_threshold
description: "Explicit zero threshold is kept"
config:
  low_stock_threshold: 0
steps:
  - op: generate
assertions:
  - type: variant_count
    count: 0
`
	scenario, err := ParseScenario([]byte(content))
	require.NoError(t, err)
	require.NotNil(t, scenario.Config)
	assert.Equal(t, int64(0), scenario.Config.LowStockThreshold)
	assert.Equal(t, matrix.DefaultHardLimit, scenario.Config.HardLimit)
	assert.Equal(t, matrix.DefaultSKUDebounce, scenario.Config.SKUDebounce)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario("testdata/does-not-exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownFieldRejected(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "typo in assertions"
steps:
  - op: generate
assertion:
  - type: no_errors
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_UnknownConfigKeyRejected(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "typo in config"
config:
  hard_limt: 5
steps:
  - op: generate
assertions:
  - type: no_errors
`))
	require.Error(t, err)
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nsteps: [{op: generate}]\nassertions: [{type: no_errors}]",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nsteps: [{op: generate}]\nassertions: [{type: no_errors}]",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			yaml:    "name: n\ndescription: d\nassertions: [{type: no_errors}]",
			wantErr: "steps list is required",
		},
		{
			name:    "no assertions",
			yaml:    "name: n\ndescription: d\nsteps: [{op: generate}]",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown op",
			yaml:    "name: n\ndescription: d\nsteps: [{op: explode}]\nassertions: [{type: no_errors}]",
			wantErr: `unknown op "explode"`,
		},
		{
			name:    "missing op",
			yaml:    "name: n\ndescription: d\nsteps: [{name: Size}]\nassertions: [{type: no_errors}]",
			wantErr: "op is required",
		},
		{
			name:    "rename without name",
			yaml:    "name: n\ndescription: d\nsteps: [{op: rename_attribute, attribute: Size}]\nassertions: [{type: no_errors}]",
			wantErr: "name is required for rename_attribute",
		},
		{
			name:    "move without positions",
			yaml:    "name: n\ndescription: d\nsteps: [{op: move_attribute, from: 0}]\nassertions: [{type: no_errors}]",
			wantErr: "from and to is required",
		},
		{
			name:    "update without set",
			yaml:    "name: n\ndescription: d\nsteps: [{op: update, variant: {Size: S}}]\nassertions: [{type: no_errors}]",
			wantErr: "set is required",
		},
		{
			name:    "bulk without action",
			yaml:    "name: n\ndescription: d\nsteps: [{op: bulk}]\nassertions: [{type: no_errors}]",
			wantErr: "bulk.action is required",
		},
		{
			name:    "count missing",
			yaml:    "name: n\ndescription: d\nsteps: [{op: generate}]\nassertions: [{type: variant_count}]",
			wantErr: "count is required",
		},
		{
			name:    "variant without expect",
			yaml:    "name: n\ndescription: d\nsteps: [{op: generate}]\nassertions: [{type: variant, options: {Size: S}}]",
			wantErr: "expect or absent is required",
		},
		{
			name:    "error without target",
			yaml:    "name: n\ndescription: d\nsteps: [{op: generate}]\nassertions: [{type: error}]",
			wantErr: "key or options is required",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: n\ndescription: d\nsteps: [{op: generate}]\nassertions: [{type: trace_contains}]",
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name:    "product without name",
			yaml:    "name: n\ndescription: d\nproducts: [{id: p}]\nsteps: [{op: generate}]\nassertions: [{type: no_errors}]",
			wantErr: "products[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDir(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for i := 1; i < len(scenarios); i++ {
		assert.NotEqual(t, scenarios[i-1].Name, scenarios[i].Name)
	}
}

func TestLoadDir_Empty(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scenario files")
}
