package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/varmatrix/internal/ir"
)

// PresetsOptions holds flags for the presets command.
type PresetsOptions struct {
	*RootOptions
	Dir string
}

// NewPresetsCommand creates the presets command.
func NewPresetsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PresetsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List attribute presets",
		Long: `List the attribute presets a definition can name with "preset:".

The builtin catalog is always available. --dir adds the CUE catalog in a
directory; a preset there with a builtin id replaces the builtin.

Examples:
  varmatrix presets
  varmatrix presets --dir ./catalog --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPresets(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "", "directory of additional CUE preset catalogs")

	return cmd
}

func runPresets(opts *PresetsOptions, cmd *cobra.Command) error {
	catalog, err := loadCatalog(opts.Dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load presets", err)
	}

	list := catalog.List()
	return opts.formatter(cmd).Success(list, func(w io.Writer) {
		writePresets(w, list)
	})
}

func writePresets(w io.Writer, list []ir.Preset) {
	for _, p := range list {
		fmt.Fprintf(w, "%s - %s\n", p.ID, p.Name)
		if p.Description != "" {
			fmt.Fprintf(w, "  %s\n", p.Description)
		}
		for _, a := range p.Attributes {
			fmt.Fprintf(w, "  %s: %s\n", a.Name, strings.Join(a.Values, ", "))
		}
	}
}
