package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/varmatrix/internal/ir"
)

// Snapshot returns the canonical JSON of a finished run: the scenario name,
// the final matrix and the error map. Ids come from the harness's sequential
// generator, so equal runs produce byte-identical snapshots.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	doc := ir.CanonicalMatrix(result.Attributes, result.Variants)
	doc["scenario_name"] = scenarioName

	errs := make(map[string]any, len(result.MatrixErrors))
	for k, v := range result.MatrixErrors {
		errs[k] = v
	}
	doc["errors"] = errs

	return ir.MarshalCanonical(doc)
}

// RunWithGolden executes a scenario and compares the final matrix against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the matrix doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
