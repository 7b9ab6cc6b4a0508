// Command varmatrix generates, edits and persists product variant matrices.
//
// Build with: go build -o bin/varmatrix ./cmd/varmatrix
// Usage: varmatrix <command> [options]
package main

import (
	"fmt"
	"os"

	"github.com/roach88/varmatrix/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
