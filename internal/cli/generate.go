package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/varmatrix/internal/matrix"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	PresetDir string
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <matrix.yaml>",
		Short: "Preview the variants of a matrix definition",
		Long: `Expand a matrix definition into its variants without saving anything.

Prints every variant with its generated SKU, the combination count against
the configured limits and the inventory summary.

Exit codes:
  0 - Variants generated
  1 - Generation refused (too many combinations, too many attributes)
  2 - Command error (unreadable definition, unknown preset, etc.)

Examples:
  varmatrix generate tee.yaml
  varmatrix generate tee.yaml --format json
  varmatrix generate tee.yaml --config limits.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.PresetDir, "presets", "", "directory of additional CUE preset catalogs")

	return cmd
}

func runGenerate(opts *GenerateOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}
	def, err := LoadDefinition(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load definition", err)
	}
	catalog, err := loadCatalog(opts.PresetDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load presets", err)
	}

	ed := matrix.NewEditor(nil, nil,
		matrix.WithConfig(cfg),
		matrix.WithLogger(logger),
	)
	if err := def.Apply(ed, catalog); err != nil {
		return definitionError(out, err)
	}

	out.VerboseLog("generating %d combinations", ed.Capacity().Count)
	if _, err := ed.Generate(def.Prefix); err != nil {
		return definitionError(out, err)
	}
	ed.Validate()

	view := newMatrixView(def.Name, ed)
	return out.Success(view, view.writeText)
}

// definitionError reports a matrix error raised while applying a
// definition. Capacity and attribute limits exit with ExitFailure; anything
// else is a problem with the definition itself.
func definitionError(out *OutputFormatter, err error) error {
	var me *matrix.MatrixError
	if !errors.As(err, &me) || me.Code == matrix.ErrCodeNotFound {
		return WrapExitError(ExitCommandError, "invalid definition", err)
	}

	var details interface{}
	if len(me.Details) > 0 {
		details = me.Details
	}
	if outErr := out.Error(ErrCodeCapacity, me.Message, details); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitFailure, "generation refused", err)
}
