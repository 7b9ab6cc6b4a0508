package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/varmatrix/internal/ir"
	"github.com/roach88/varmatrix/internal/matrix"
)

// MatrixView is the JSON and text rendering of a matrix.
type MatrixView struct {
	ProductID       string            `json:"product_id,omitempty"`
	Name            string            `json:"name"`
	Attributes      []ir.Attribute    `json:"attributes"`
	Variants        []ir.Variant      `json:"variants"`
	Capacity        matrix.Capacity   `json:"capacity"`
	CapacityWarning bool              `json:"capacity_warning"`
	Summary         matrix.Summary    `json:"summary"`
	Errors          map[string]string `json:"errors,omitempty"`
	MatrixHash      string            `json:"matrix_hash,omitempty"`
}

// newMatrixView snapshots ed's current state.
func newMatrixView(name string, ed *matrix.Editor) MatrixView {
	capacity := ed.Capacity()
	view := MatrixView{
		Name:            name,
		Attributes:      ed.Attributes(),
		Variants:        ed.Variants(),
		Capacity:        capacity,
		CapacityWarning: capacity.Warning(),
		Summary:         ed.Summary(),
		Errors:          ed.Errors(),
	}
	if view.Attributes == nil {
		view.Attributes = []ir.Attribute{}
	}
	if view.Variants == nil {
		view.Variants = []ir.Variant{}
	}
	if len(view.Errors) == 0 {
		view.Errors = nil
	}
	if hash, err := ir.MatrixHash(view.Attributes, view.Variants); err == nil {
		view.MatrixHash = hash
	}
	return view
}

// writeText renders the view as a human-readable table.
func (v MatrixView) writeText(w io.Writer) {
	if v.ProductID != "" {
		fmt.Fprintf(w, "%s (%s)\n", v.Name, v.ProductID)
	} else {
		fmt.Fprintln(w, v.Name)
	}

	for _, a := range v.Attributes {
		values := make([]string, len(a.Values))
		for i, val := range a.Values {
			values[i] = val.Value
		}
		fmt.Fprintf(w, "  %s: %s\n", a.Name, strings.Join(values, ", "))
	}

	fmt.Fprintf(w, "\nVariants: %d (soft limit %d, hard limit %d)\n",
		v.Capacity.Count, v.Capacity.SoftLimit, v.Capacity.HardLimit)
	if v.CapacityWarning {
		fmt.Fprintf(w, "Warning: %d combinations exceeds the soft limit of %d\n",
			v.Capacity.Count, v.Capacity.SoftLimit)
	}

	for _, variant := range v.Variants {
		fmt.Fprintf(w, "  %-24s %-20s %8s %6s\n",
			variant.Label(v.Attributes),
			orDash(variant.SKU),
			priceText(variant),
			stockText(variant),
		)
		if msg, ok := v.Errors[variant.ID]; ok {
			fmt.Fprintf(w, "    ! %s\n", msg)
		}
	}
	if msg, ok := v.Errors[ir.GlobalErrorKey]; ok {
		fmt.Fprintf(w, "! %s\n", msg)
	}

	s := v.Summary
	fmt.Fprintf(w, "\nSummary: %d in stock, %d low, %d out, %d unavailable, %d unlimited\n",
		s.InStock, s.LowStock, s.OutOfStock, s.Unavailable, s.Unlimited)
	if s.PriceMin != nil && s.PriceMax != nil {
		fmt.Fprintf(w, "Price range: %s - %s\n", s.PriceMin.StringFixed(2), s.PriceMax.StringFixed(2))
	}
	fmt.Fprintf(w, "Inventory: %d units, value %s\n", s.InventoryCount, s.InventoryValue.StringFixed(2))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func priceText(v ir.Variant) string {
	if v.Price == nil {
		return "-"
	}
	return v.Price.StringFixed(2)
}

func stockText(v ir.Variant) string {
	if v.Stock == nil {
		return "∞"
	}
	return fmt.Sprintf("%d", *v.Stock)
}
