package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/varmatrix/internal/ir"
	"github.com/roach88/varmatrix/internal/matrix"
	"github.com/roach88/varmatrix/internal/store"
)

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	*RootOptions
	Database  string
	PresetDir string
	Yes       bool
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <matrix.yaml>",
		Short: "Generate a matrix and persist it",
		Long: `Generate the variants of a matrix definition and save them to SQLite.

When the definition carries an id that is already stored, the stored matrix
is loaded first and regenerated from the definition: variants whose option
tuple survives keep their id, SKU, price and stock. Without an id a new
product is created on every save.

Regenerating a stored matrix can drop variants whose option tuple no longer
exists, along with their prices and stock. Such a save is refused unless
--yes confirms it.

The save is rejected when a variant fails validation or a SKU is already
used by another product. Nothing is written in that case.

Exit codes:
  0 - Matrix saved
  1 - Generation refused, unconfirmed drop, validation failed or SKU conflict
  2 - Command error (unreadable definition, database error, etc.)

Examples:
  varmatrix save --db ./catalog.db tee.yaml
  varmatrix save --db ./catalog.db tee.yaml --format json
  varmatrix save --db ./catalog.db tee-no-xl.yaml --yes`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.PresetDir, "presets", "", "directory of additional CUE preset catalogs")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "confirm dropping stored variants")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runSave(opts *SaveOptions, path string, cmd *cobra.Command) error {
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

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := commandContext(cmd)
	product, err := ensureProduct(ctx, st, def, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to prepare product", err)
	}

	pm := st.Product(product.ID)
	attrs, variants, err := pm.LoadMatrix(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load stored matrix", err)
	}

	ed := matrix.NewEditor(attrs, variants,
		matrix.WithConfig(cfg),
		matrix.WithLogger(logger),
		matrix.WithPersister(pm),
	)
	if err := def.Apply(ed, catalog); err != nil {
		return definitionError(out, err)
	}

	prefix := def.Prefix
	if prefix == "" {
		prefix = product.SKUPrefix
	}
	preview, err := ed.PreviewGeneration()
	if err != nil {
		return definitionError(out, err)
	}
	if preview.NeedsConfirmation() && !opts.Yes {
		return confirmError(out, preview)
	}
	if _, err := ed.Generate(prefix); err != nil {
		return definitionError(out, err)
	}

	if err := ed.Save(ctx); err != nil {
		return saveError(out, ed, err)
	}

	view := newMatrixView(product.Name, ed)
	view.ProductID = product.ID
	return out.Success(view, view.writeText)
}

// confirmError reports a regeneration that would drop stored variants.
func confirmError(out *OutputFormatter, preview matrix.GenerateResult) error {
	msg := fmt.Sprintf("regeneration would drop %d stored variant(s); rerun with --yes to confirm", preview.Dropped)
	details := map[string]string{
		"dropped": fmt.Sprint(preview.Dropped),
		"kept":    fmt.Sprint(preview.Reused),
		"created": fmt.Sprint(preview.Created),
	}
	if outErr := out.Error(ErrCodeConfirm, msg, details); outErr != nil {
		return outErr
	}
	return NewExitError(ExitFailure, "save not confirmed")
}

// ensureProduct returns the stored product for def.ID, creating it when
// missing. An empty def.ID always creates a product.
func ensureProduct(ctx context.Context, st *store.Store, def *MatrixDefinition, logger *slog.Logger) (store.Product, error) {
	if def.ID != "" {
		p, err := st.GetProduct(ctx, def.ID)
		if err == nil {
			logger.Debug("updating stored product", "product_id", p.ID)
			return p, nil
		}
		if !errors.Is(err, store.ErrProductNotFound) {
			return store.Product{}, err
		}
	}

	p, err := st.CreateProduct(ctx, store.Product{
		ID:        def.ID,
		Name:      def.Name,
		SKUPrefix: def.Prefix,
	})
	if err != nil {
		return store.Product{}, err
	}
	logger.Debug("created product", "product_id", p.ID)
	return p, nil
}

// saveError reports a rejected save. Field validation failures are listed
// per variant label.
func saveError(out *OutputFormatter, ed *matrix.Editor, err error) error {
	var conflict *store.SKUConflictError
	switch {
	case matrix.IsValidationError(err):
		failures := labelled(ed, ed.Errors())
		if outErr := out.Error(ErrCodeValidation, "validation failed", failures); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "save rejected", err)
	case errors.As(err, &conflict):
		msg := fmt.Sprintf("SKU %q is already used by %s", conflict.SKU, conflict.ConflictingOwnerName)
		if outErr := out.Error(ErrCodeSKU, msg, nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "save rejected", err)
	default:
		if outErr := out.Error(ErrCodePersist, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "save failed", err)
	}
}

// labelled re-keys a variant error map by variant label.
func labelled(ed *matrix.Editor, errs map[string]string) map[string]string {
	out := make(map[string]string, len(errs))
	for id, msg := range errs {
		if id == ir.GlobalErrorKey {
			out[id] = msg
			continue
		}
		if v, ok := ed.Variant(id); ok {
			out[v.Label(ed.Attributes())] = msg
			continue
		}
		out[id] = msg
	}
	return out
}

// commandContext returns the command's context, or Background when the
// command runs outside ExecuteContext.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
