package harness

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/varmatrix/internal/ir"
	"github.com/roach88/varmatrix/internal/matrix"
	"github.com/roach88/varmatrix/internal/store"
)

// AssertionContext gives assertions access to live state beyond Result.
type AssertionContext struct {
	Editor  *matrix.Editor
	Product *store.ProductMatrix
	Ctx     context.Context
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Variants []ir.Variant
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Variants) > 0 {
		fmt.Fprintf(&buf, "\nVariants:\n")
		for i, v := range e.Variants {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", i+1, ir.TupleKey(v.Options), v.SKU)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return failures
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertVariantCount:
		return assertCount(a.Type, *a.Count, len(result.Variants), result.Variants)
	case AssertSelectionCount:
		return assertCount(a.Type, *a.Count, len(actx.Editor.Selection()), nil)
	case AssertStoredVariantCount:
		_, stored, err := actx.Product.LoadMatrix(actx.Ctx)
		if err != nil {
			return fmt.Errorf("load stored matrix: %w", err)
		}
		return assertCount(a.Type, *a.Count, len(stored), nil)
	case AssertVariant:
		return assertVariant(result.Variants, a)
	case AssertSummary:
		return assertSummary(result.Summary, a.Expect)
	case AssertError:
		return assertError(result, a)
	case AssertNoErrors:
		if len(result.MatrixErrors) > 0 {
			return &AssertionError{
				Type:     a.Type,
				Expected: "empty error map",
				Actual:   fmt.Sprintf("%v", result.MatrixErrors),
			}
		}
		return nil
	case AssertCanUndo:
		return assertFlag(a.Type, *a.Value, actx.Editor.CanUndo())
	case AssertCanRedo:
		return assertFlag(a.Type, *a.Value, actx.Editor.CanRedo())
	case AssertAttributes:
		return assertAttributes(result.Attributes, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertCount(kind string, want, got int, variants []ir.Variant) error {
	if want == got {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("%d", want),
		Actual:   fmt.Sprintf("%d", got),
		Variants: variants,
	}
}

func assertFlag(kind string, want, got bool) error {
	if want == got {
		return nil
	}
	return &AssertionError{Type: kind, Expected: fmt.Sprint(want), Actual: fmt.Sprint(got)}
}

func assertVariant(variants []ir.Variant, a Assertion) error {
	v, err := findVariant(variants, a.Options)
	if a.Absent {
		if err == nil {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("no variant %v", a.Options),
				Actual:   fmt.Sprintf("variant %s exists", v.ID),
			}
		}
		return nil
	}
	if err != nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("variant %v", a.Options),
			Actual:   "not found",
			Variants: variants,
		}
	}

	actual := variantFields(v)
	for _, field := range sortedKeys(a.Expect) {
		if err := matchField(a.Type, field, a.Expect[field], actual); err != nil {
			return err
		}
	}
	return nil
}

// variantFields flattens a variant for field-wise comparison. Unset
// optional fields map to nil.
func variantFields(v ir.Variant) map[string]any {
	return map[string]any{
		"id":                  v.ID,
		"sku":                 v.SKU,
		"price":               decimalOrNil(v.Price),
		"compare_at_price":    decimalOrNil(v.CompareAtPrice),
		"stock":               intOrNil(v.Stock),
		"is_available":        v.IsAvailable,
		"weight":              decimalOrNil(v.Weight),
		"media_id":            v.MediaID,
		"low_stock_threshold": intOrNil(v.LowStockThreshold),
	}
}

func summaryFields(s matrix.Summary) map[string]any {
	return map[string]any{
		"total":           int64(s.Total),
		"in_stock":        int64(s.InStock),
		"low_stock":       int64(s.LowStock),
		"out_of_stock":    int64(s.OutOfStock),
		"unavailable":     int64(s.Unavailable),
		"unlimited":       int64(s.Unlimited),
		"price_min":       decimalOrNil(s.PriceMin),
		"price_max":       decimalOrNil(s.PriceMax),
		"inventory_value": s.InventoryValue,
		"inventory_count": s.InventoryCount,
	}
}

func assertSummary(s matrix.Summary, expect map[string]interface{}) error {
	actual := summaryFields(s)
	for _, field := range sortedKeys(expect) {
		if err := matchField(AssertSummary, field, expect[field], actual); err != nil {
			return err
		}
	}
	return nil
}

// matchField compares one expected YAML value against an actual field.
// Decimals compare by value, so 10, "10" and "10.00" are equal.
func matchField(kind, field string, want any, actual map[string]any) error {
	got, known := actual[field]
	if !known {
		return fmt.Errorf("%s: unknown field %q", kind, field)
	}

	fail := func() error {
		return &AssertionError{
			Type:     kind,
			Expected: fmt.Sprintf("%s = %v", field, want),
			Actual:   fmt.Sprintf("%s = %v", field, got),
		}
	}

	if want == nil || got == nil {
		if want == nil && got == nil {
			return nil
		}
		return fail()
	}

	switch g := got.(type) {
	case decimal.Decimal:
		w, err := decimal.NewFromString(fmt.Sprint(want))
		if err != nil || !w.Equal(g) {
			return fail()
		}
	case int64:
		if !intEquals(want, g) {
			return fail()
		}
	default:
		if !reflect.DeepEqual(want, got) {
			return fail()
		}
	}
	return nil
}

func intEquals(want any, got int64) bool {
	switch w := want.(type) {
	case int:
		return int64(w) == got
	case int64:
		return w == got
	case float64:
		return w == float64(got)
	default:
		return false
	}
}

func assertError(result *Result, a Assertion) error {
	key := a.Key
	if len(a.Options) > 0 {
		v, err := findVariant(result.Variants, a.Options)
		if err != nil {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("variant %v", a.Options),
				Actual:   "not found",
				Variants: result.Variants,
			}
		}
		key = v.ID
	}

	msg, ok := result.MatrixErrors[key]
	switch {
	case a.Absent && ok:
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("no error for %s", key), Actual: msg}
	case a.Absent:
		return nil
	case !ok:
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("error for %s", key), Actual: "none"}
	case !strings.Contains(msg, a.Message):
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("message containing %q", a.Message), Actual: msg}
	}
	return nil
}

func assertAttributes(attrs []ir.Attribute, a Assertion) error {
	if len(a.Names) > 0 {
		names := make([]string, len(attrs))
		for i, attr := range attrs {
			names[i] = attr.Name
		}
		if !reflect.DeepEqual(names, a.Names) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%v", a.Names),
				Actual:   fmt.Sprintf("%v", names),
			}
		}
	}
	if a.Attribute == "" {
		return nil
	}
	for _, attr := range attrs {
		if attr.Name != a.Attribute {
			continue
		}
		values := make([]string, len(attr.Values))
		for i, v := range attr.Values {
			values[i] = v.Value
		}
		if !reflect.DeepEqual(values, a.Values) && !(len(values) == 0 && len(a.Values) == 0) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s values %v", a.Attribute, a.Values),
				Actual:   fmt.Sprintf("%v", values),
			}
		}
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("attribute %q", a.Attribute), Actual: "not found"}
}

func decimalOrNil(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return *d
}

func intOrNil(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
