package matrix

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/roach88/varmatrix/internal/ir"
)

// BulkAction is a selection-wide edit. The set of actions is closed: only
// types in this file implement it, and ApplyBulk dispatches over them with a
// type switch.
type BulkAction interface {
	bulkAction()
	// Kind returns a stable name for logging and scenario files.
	Kind() string
}

// AdjustMode selects how an adjust action combines with the current value.
type AdjustMode string

const (
	AdjustAdd        AdjustMode = "add"
	AdjustSubtract   AdjustMode = "subtract"
	AdjustPercentage AdjustMode = "percentage"
)

// SetPrice sets the price of every selected variant.
type SetPrice struct{ Value decimal.Decimal }

// AdjustPrice adds, subtracts or scales the price by a percentage.
type AdjustPrice struct {
	Value decimal.Decimal
	Mode  AdjustMode
}

// SetStock sets the stock of every selected variant.
type SetStock struct{ Value int64 }

// AdjustStock adds to or subtracts from the stock. Percentage is not allowed.
type AdjustStock struct {
	Value int64
	Mode  AdjustMode
}

// SetAvailability toggles whether the selected variants can be sold.
type SetAvailability struct{ Value bool }

// GenerateSKUs regenerates SKUs from each variant's position in the store.
type GenerateSKUs struct{ Prefix string }

// SetWeight sets the shipping weight. Negative weights are ignored.
type SetWeight struct{ Value decimal.Decimal }

func (SetPrice) bulkAction()        {}
func (AdjustPrice) bulkAction()     {}
func (SetStock) bulkAction()        {}
func (AdjustStock) bulkAction()     {}
func (SetAvailability) bulkAction() {}
func (GenerateSKUs) bulkAction()    {}
func (SetWeight) bulkAction()       {}

func (SetPrice) Kind() string        { return "set_price" }
func (AdjustPrice) Kind() string     { return "adjust_price" }
func (SetStock) Kind() string        { return "set_stock" }
func (AdjustStock) Kind() string     { return "adjust_stock" }
func (SetAvailability) Kind() string { return "set_availability" }
func (GenerateSKUs) Kind() string    { return "generate_skus" }
func (SetWeight) Kind() string       { return "set_weight" }

// pricePlaces is the rounding precision of every price result.
const pricePlaces = 2

// BulkResult is the outcome of ApplyBulk.
type BulkResult struct {
	Variants []ir.Variant
	// Changed counts selected variants whose record was rewritten.
	Changed int
}

// ApplyBulk applies action to every variant whose id is in selection.
//
// Unselected variants are copied through unchanged; since variant pointees
// are immutable they share all field storage with the input. attrs supplies
// attribute order for SKU regeneration. ApplyBulk is a pure reduce and never
// writes to variants.
func ApplyBulk(variants []ir.Variant, attrs []ir.Attribute, selection map[string]bool, action BulkAction) (BulkResult, error) {
	if len(selection) == 0 {
		return BulkResult{Variants: variants}, ErrEmptySelection
	}
	if err := checkAction(action); err != nil {
		return BulkResult{Variants: variants}, err
	}

	out := make([]ir.Variant, len(variants))
	changed := 0
	for i, v := range variants {
		if !selection[v.ID] {
			out[i] = v
			continue
		}
		nv, ok := applyAction(v, i+1, attrs, action)
		out[i] = nv
		if ok {
			changed++
		}
	}
	return BulkResult{Variants: out, Changed: changed}, nil
}

// checkAction rejects unknown action types and invalid modes up front so a
// batch is never half-applied.
func checkAction(action BulkAction) error {
	switch a := action.(type) {
	case SetPrice, SetStock, SetAvailability, GenerateSKUs, SetWeight:
		return nil
	case AdjustPrice:
		switch a.Mode {
		case AdjustAdd, AdjustSubtract, AdjustPercentage:
			return nil
		}
		return unknownAction(fmt.Sprintf("adjust_price mode %q", a.Mode))
	case AdjustStock:
		switch a.Mode {
		case AdjustAdd, AdjustSubtract:
			return nil
		}
		return unknownAction(fmt.Sprintf("adjust_stock mode %q", a.Mode))
	default:
		return unknownAction(fmt.Sprintf("%T", action))
	}
}

func unknownAction(what string) *MatrixError {
	return &MatrixError{Code: ErrCodeUnknownAction, Message: "unsupported bulk action: " + what}
}

// applyAction returns the edited variant and whether it changed. position is
// the 1-based index of v in the whole store.
func applyAction(v ir.Variant, position int, attrs []ir.Attribute, action BulkAction) (ir.Variant, bool) {
	switch a := action.(type) {
	case SetPrice:
		if a.Value.IsNegative() {
			return v, false
		}
		v.Price = ir.Dec(a.Value.Round(pricePlaces))
	case AdjustPrice:
		v.Price = ir.Dec(adjustPrice(v.Price, a))
	case SetStock:
		if a.Value < 0 {
			return v, false
		}
		v.Stock = ir.Int(a.Value)
	case AdjustStock:
		v.Stock = ir.Int(adjustStock(v.Stock, a))
	case SetAvailability:
		v.IsAvailable = a.Value
	case GenerateSKUs:
		v.SKU = VariantSKU(a.Prefix, attrs, v.Options, position)
	case SetWeight:
		if a.Value.IsNegative() {
			return v, false
		}
		v.Weight = ir.Dec(a.Value)
	default:
		return v, false
	}
	return v, true
}

// adjustPrice combines the current price (0 if unset) with the action and
// rounds to two places. Results never go below zero.
func adjustPrice(current *decimal.Decimal, a AdjustPrice) decimal.Decimal {
	base := decimal.Zero
	if current != nil {
		base = *current
	}

	var next decimal.Decimal
	switch a.Mode {
	case AdjustAdd:
		next = base.Add(a.Value)
	case AdjustSubtract:
		next = base.Sub(a.Value)
	case AdjustPercentage:
		factor := decimal.NewFromInt(1).Add(a.Value.Div(decimal.NewFromInt(100)))
		next = base.Mul(factor)
	}
	if next.IsNegative() {
		next = decimal.Zero
	}
	return next.Round(pricePlaces)
}

// adjustStock combines the current stock (0 if unlimited) with the action.
// Results never go below zero.
func adjustStock(current *int64, a AdjustStock) int64 {
	var base int64
	if current != nil {
		base = *current
	}

	next := base
	switch a.Mode {
	case AdjustAdd:
		next = base + a.Value
	case AdjustSubtract:
		next = base - a.Value
	}
	return max(next, 0)
}
