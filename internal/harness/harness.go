package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/varmatrix/internal/ir"
	"github.com/roach88/varmatrix/internal/matrix"
	"github.com/roach88/varmatrix/internal/presets"
	"github.com/roach88/varmatrix/internal/store"
	"github.com/roach88/varmatrix/internal/testutil"
)

// ProductID is the id of the product the scenario edits.
const ProductID = "scenario-product"

var (
	errNothingToUndo = errors.New("NOTHING_TO_UNDO: nothing to undo")
	errNothingToRedo = errors.New("NOTHING_TO_REDO: nothing to redo")
)

// Harness is the test execution engine.
// It runs scenarios with deterministic ids and clocks.
type Harness struct {
	store     *store.Store
	product   *store.ProductMatrix
	editor    *matrix.Editor
	validator *matrix.SKUValidator
	catalog   *presets.Catalog
	prefix    string
	logger    *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database and seed fixture products
// 2. Create the scenario product and an editor bound to it
// 3. Execute steps, checking expect_error on each
// 4. Evaluate assertions against the final state
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:", store.WithClock(testutil.NewStepClock().Now))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := seedProducts(ctx, st, scenario.Products); err != nil {
		return nil, err
	}
	if _, err := st.CreateProduct(ctx, store.Product{ID: ProductID, Name: scenario.Name, SKUPrefix: scenario.Prefix}); err != nil {
		return nil, fmt.Errorf("failed to create scenario product: %w", err)
	}

	catalog, err := presets.Builtin()
	if err != nil {
		return nil, fmt.Errorf("failed to load presets: %w", err)
	}

	// Suppress logs in tests
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := matrix.DefaultConfig()
	if scenario.Config != nil {
		cfg = *scenario.Config
	}
	product := st.Product(ProductID)
	editor := matrix.NewEditor(nil, nil,
		matrix.WithConfig(cfg),
		matrix.WithIDGenerator(testutil.NewSequentialIDs("id")),
		matrix.WithClock(testutil.NewStepClock().Now),
		matrix.WithPersister(product),
		matrix.WithLogger(logger),
	)
	if err := editor.Config().Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario config: %w", err)
	}

	h := &Harness{
		store:   st,
		product: product,
		editor:  editor,
		validator: matrix.NewSKUValidator(st, ProductID,
			matrix.WithDebounce(0),
			matrix.WithValidatorLogger(logger),
		),
		catalog: catalog,
		prefix:  scenario.Prefix,
		logger:  logger,
	}

	result := NewResult()
	h.executeSteps(ctx, scenario.Steps, result)

	result.Attributes = editor.Attributes()
	result.Variants = editor.Variants()
	result.MatrixErrors = editor.Errors()
	result.Summary = editor.Summary()

	actx := &AssertionContext{
		Editor:  editor,
		Product: product,
		Ctx:     ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}
	return result, nil
}

// seedProducts stores fixture products with one single-option variant per SKU.
func seedProducts(ctx context.Context, st *store.Store, products []ProductFixture) error {
	for _, p := range products {
		if _, err := st.CreateProduct(ctx, store.Product{ID: p.ID, Name: p.Name}); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
		variants := make([]ir.Variant, len(p.SKUs))
		for i, sku := range p.SKUs {
			variants[i] = ir.Variant{
				ID:          fmt.Sprintf("%s-v%d", p.ID, i+1),
				Options:     ir.Options{"Index": strconv.Itoa(i + 1)},
				SKU:         sku,
				IsAvailable: true,
			}
		}
		if err := st.SaveMatrix(ctx, p.ID, nil, variants); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
	}
	return nil
}

// executeSteps runs steps in order. The first unexpected outcome fails the
// result and stops the run; later steps would act on a diverged state.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) {
	for i, step := range steps {
		err := h.executeStep(ctx, step)
		result.AddStep(i, step.Op, err)

		switch {
		case step.ExpectError != "" && err == nil:
			result.AddError(fmt.Sprintf("step %d (%s): expected error %q, got none", i, step.Op, step.ExpectError))
			return
		case step.ExpectError != "" && !errorMatches(err, step.ExpectError):
			result.AddError(fmt.Sprintf("step %d (%s): expected error %q, got: %v", i, step.Op, step.ExpectError, err))
			return
		case step.ExpectError == "" && err != nil:
			result.AddError(fmt.Sprintf("step %d (%s): unexpected error: %v", i, step.Op, err))
			return
		}

		h.logger.Info("step completed", "step", i, "op", step.Op, "error", err)
	}
}

// errorMatches reports whether err carries the matrix error code want or
// contains want in its message.
func errorMatches(err error, want string) bool {
	var me *matrix.MatrixError
	if errors.As(err, &me) && string(me.Code) == want {
		return true
	}
	return strings.Contains(err.Error(), want)
}

func (h *Harness) executeStep(ctx context.Context, st Step) error {
	e := h.editor

	switch st.Op {
	case OpAddAttribute:
		id, err := e.AddAttribute(st.Name)
		if err != nil {
			return err
		}
		for _, v := range st.Values {
			if _, err := e.AddValue(id, v); err != nil {
				return err
			}
		}
		return nil

	case OpRemoveAttribute:
		id, err := h.attributeID(st.Attribute)
		if err != nil {
			return err
		}
		return e.RemoveAttribute(id)

	case OpRenameAttribute:
		id, err := h.attributeID(st.Attribute)
		if err != nil {
			return err
		}
		return e.RenameAttribute(id, st.Name)

	case OpAddValue:
		id, err := h.attributeID(st.Attribute)
		if err != nil {
			return err
		}
		_, err = e.AddValue(id, st.Value)
		return err

	case OpRemoveValue:
		attrID, valueID, err := h.valueID(st.Attribute, st.Value)
		if err != nil {
			return err
		}
		return e.RemoveValue(attrID, valueID)

	case OpRenameValue:
		attrID, valueID, err := h.valueID(st.Attribute, st.Value)
		if err != nil {
			return err
		}
		return e.RenameValue(attrID, valueID, st.Name)

	case OpMoveAttribute:
		e.MoveAttribute(*st.From, *st.To)
		return nil

	case OpMoveValue:
		id, err := h.attributeID(st.Attribute)
		if err != nil {
			return err
		}
		return e.MoveValue(id, *st.From, *st.To)

	case OpPreset:
		p, ok := h.catalog.Get(st.Preset)
		if !ok {
			return fmt.Errorf("preset %q not found", st.Preset)
		}
		return e.ApplyPreset(p)

	case OpGenerate:
		prefix := h.prefix
		if st.Prefix != nil {
			prefix = *st.Prefix
		}
		_, err := e.Generate(prefix)
		return err

	case OpSelect:
		e.Select(h.matching(st.Match)...)
		return nil

	case OpDeselect:
		e.Deselect(h.matching(st.Match)...)
		return nil

	case OpSelectAll:
		e.SelectAll()
		return nil

	case OpClearSelection:
		e.ClearSelection()
		return nil

	case OpBulk:
		action, err := parseBulk(*st.Bulk)
		if err != nil {
			return err
		}
		_, err = e.ApplyBulk(action)
		return err

	case OpUpdate:
		v, err := h.variant(st.Variant)
		if err != nil {
			return err
		}
		patch, err := st.Set.patch()
		if err != nil {
			return err
		}
		return e.UpdateVariant(v.ID, patch)

	case OpUndo:
		if !e.Undo() {
			return errNothingToUndo
		}
		return nil

	case OpRedo:
		if !e.Redo() {
			return errNothingToRedo
		}
		return nil

	case OpValidate:
		if failures, ok := e.Validate(); !ok {
			return matrix.NewValidationError(failures)
		}
		return nil

	case OpSave:
		return e.Save(ctx)

	case OpCheckSKU:
		return h.checkSKU(ctx, st)

	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
}

// checkSKU runs the asynchronous SKU check to completion and folds the
// verdict into the editor. An invalid verdict is reported as the step error.
func (h *Harness) checkSKU(ctx context.Context, st Step) error {
	v, err := h.variant(st.Variant)
	if err != nil {
		return err
	}
	sku := v.SKU
	if st.SKU != nil {
		sku = *st.SKU
		if err := h.editor.UpdateVariant(v.ID, matrix.VariantPatch{SKU: &sku}); err != nil {
			return err
		}
	}

	verdict, ok := <-h.validator.ValidateSKU(ctx, sku, v.ID, h.editor.Variants())
	if !ok {
		return fmt.Errorf("sku check for %s was cancelled", v.ID)
	}
	h.editor.ApplySKUVerdict(verdict)
	if !verdict.Valid {
		return fmt.Errorf("SKU_CONFLICT: %s", verdict.Message)
	}
	return nil
}

// attributeID resolves an attribute name to its id.
func (h *Harness) attributeID(name string) (string, error) {
	for _, a := range h.editor.Attributes() {
		if a.Name == name {
			return a.ID, nil
		}
	}
	return "", fmt.Errorf("NOT_FOUND: attribute %q", name)
}

// valueID resolves an attribute name and value text to their ids.
func (h *Harness) valueID(attr, value string) (string, string, error) {
	for _, a := range h.editor.Attributes() {
		if a.Name != attr {
			continue
		}
		for _, v := range a.Values {
			if v.Value == value {
				return a.ID, v.ID, nil
			}
		}
		return "", "", fmt.Errorf("NOT_FOUND: value %q of attribute %q", value, attr)
	}
	return "", "", fmt.Errorf("NOT_FOUND: attribute %q", attr)
}

// variant finds the variant with exactly the given option tuple.
func (h *Harness) variant(options map[string]string) (ir.Variant, error) {
	return findVariant(h.editor.Variants(), options)
}

func findVariant(variants []ir.Variant, options map[string]string) (ir.Variant, error) {
	want := ir.TupleKey(ir.Options(options))
	for _, v := range variants {
		if ir.TupleKey(v.Options) == want {
			return v, nil
		}
	}
	return ir.Variant{}, fmt.Errorf("NOT_FOUND: variant %s", want)
}

// matching returns the ids of variants whose options contain every pair of
// at least one pattern.
func (h *Harness) matching(patterns []map[string]string) []string {
	var ids []string
	for _, v := range h.editor.Variants() {
		for _, p := range patterns {
			if containsOptions(v.Options, p) {
				ids = append(ids, v.ID)
				break
			}
		}
	}
	return ids
}

func containsOptions(options ir.Options, pattern map[string]string) bool {
	for k, want := range pattern {
		if options[k] != want {
			return false
		}
	}
	return true
}

// parseBulk converts a scenario bulk step into a matrix.BulkAction.
func parseBulk(b BulkStep) (matrix.BulkAction, error) {
	mode := matrix.AdjustMode(b.Mode)

	switch b.Action {
	case "set_price":
		d, err := parseDecimal("value", b.Value)
		if err != nil {
			return nil, err
		}
		return matrix.SetPrice{Value: d}, nil
	case "adjust_price":
		d, err := parseDecimal("value", b.Value)
		if err != nil {
			return nil, err
		}
		return matrix.AdjustPrice{Value: d, Mode: mode}, nil
	case "set_stock":
		n, err := parseInt("value", b.Value)
		if err != nil {
			return nil, err
		}
		return matrix.SetStock{Value: n}, nil
	case "adjust_stock":
		n, err := parseInt("value", b.Value)
		if err != nil {
			return nil, err
		}
		return matrix.AdjustStock{Value: n, Mode: mode}, nil
	case "set_availability":
		ok, err := strconv.ParseBool(b.Value)
		if err != nil {
			return nil, fmt.Errorf("bulk value %q: %w", b.Value, err)
		}
		return matrix.SetAvailability{Value: ok}, nil
	case "generate_skus":
		return matrix.GenerateSKUs{Prefix: b.Prefix}, nil
	case "set_weight":
		d, err := parseDecimal("value", b.Value)
		if err != nil {
			return nil, err
		}
		return matrix.SetWeight{Value: d}, nil
	default:
		return nil, &matrix.MatrixError{
			Code:    matrix.ErrCodeUnknownAction,
			Message: fmt.Sprintf("unknown bulk action %q", b.Action),
		}
	}
}

// patch converts scenario fields into a matrix.VariantPatch.
func (f *VariantFields) patch() (matrix.VariantPatch, error) {
	p := matrix.VariantPatch{
		SKU:               f.SKU,
		Stock:             f.Stock,
		IsAvailable:       f.IsAvailable,
		MediaID:           f.MediaID,
		LowStockThreshold: f.LowStockThreshold,
		ClearPrice:        f.ClearPrice,
		ClearStock:        f.ClearStock,
	}
	var err error
	if p.Price, err = optionalDecimal("price", f.Price); err != nil {
		return p, err
	}
	if p.CompareAtPrice, err = optionalDecimal("compare_at_price", f.CompareAtPrice); err != nil {
		return p, err
	}
	if p.Weight, err = optionalDecimal("weight", f.Weight); err != nil {
		return p, err
	}
	return p, nil
}

func optionalDecimal(field string, s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := parseDecimal(field, *s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s %q: %w", field, s, err)
	}
	return d, nil
}

func parseInt(field, s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", field, s, err)
	}
	return n, nil
}
