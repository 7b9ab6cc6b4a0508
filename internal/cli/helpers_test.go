package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const teeDefinition = `
id: tee
name: Basic Tee
prefix: TEE
attributes:
  - name: Size
    values: [S, M]
  - name: Color
    values: [Red, Blue]
`

// execute runs the root command with args and returns stdout. Log output
// is captured separately and discarded.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// writeFile writes content to name inside dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// matrixResponse is a CLIResponse carrying a MatrixView.
type matrixResponse struct {
	Status string     `json:"status"`
	Data   MatrixView `json:"data"`
	Error  *CLIError  `json:"error"`
}

func decodeMatrix(t *testing.T, out string) matrixResponse {
	t.Helper()
	var resp matrixResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func skus(view MatrixView) []string {
	out := make([]string, len(view.Variants))
	for i, v := range view.Variants {
		out[i] = v.SKU
	}
	return out
}
