package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/varmatrix/internal/ir"
	"github.com/roach88/varmatrix/internal/matrix"
	"github.com/roach88/varmatrix/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	Page     int
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <product-id>",
		Short: "Show a stored matrix",
		Long: `Load a product's matrix from SQLite and print it with its summary.

Stored variants are re-validated; failures are listed next to the variant.
--page limits the variant list to one page of the configured page size.

Examples:
  varmatrix show --db ./catalog.db tee
  varmatrix show --db ./catalog.db tee --page 2 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "page number to show (1-based, 0 shows all)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runShow(opts *ShowOptions, productID string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}

	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.Database))
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
	product, err := st.GetProduct(ctx, productID)
	if errors.Is(err, store.ErrProductNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("product not found: %s", productID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load product", err)
	}

	attrs, variants, err := st.LoadMatrix(ctx, product.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load matrix", err)
	}

	ed := matrix.NewEditor(attrs, variants,
		matrix.WithConfig(cfg),
		matrix.WithLogger(logger),
	)
	ed.Validate()

	view := newMatrixView(product.Name, ed)
	view.ProductID = product.ID
	if product.MatrixHash != "" && view.MatrixHash != product.MatrixHash {
		logger.Warn("stored matrix hash does not match loaded matrix",
			"product_id", product.ID,
			"stored", product.MatrixHash,
			"loaded", view.MatrixHash,
		)
	}
	if opts.Page > 0 {
		view.Variants = ed.Page(opts.Page)
		if view.Variants == nil {
			view.Variants = []ir.Variant{}
		}
	}

	out.VerboseLog("loaded %d attributes and %d variants", len(attrs), len(variants))
	return out.Success(view, view.writeText)
}
