package ir

import (
	"time"

	"github.com/shopspring/decimal"
)

// GlobalErrorKey is the error-map key for errors that are not tied to a
// single variant (capacity and persistence failures).
const GlobalErrorKey = "global"

// AttributeValue is one selectable value of an attribute, e.g. "Red".
type AttributeValue struct {
	ID    string `json:"id" yaml:"id"`
	Value string `json:"value" yaml:"value"`
}

// Attribute is a named axis of variation with an ordered list of values.
//
// Names are not required to be unique, but Options keys are attribute names,
// so two attributes sharing a name collapse into one tuple key.
type Attribute struct {
	ID     string           `json:"id" yaml:"id"`
	Name   string           `json:"name" yaml:"name"`
	Values []AttributeValue `json:"values" yaml:"values"`
}

// HasValues reports whether the attribute takes part in generation.
func (a Attribute) HasValues() bool {
	return len(a.Values) > 0
}

// ValueIndex returns the position of the value with the given id, or -1.
func (a Attribute) ValueIndex(valueID string) int {
	for i, v := range a.Values {
		if v.ID == valueID {
			return i
		}
	}
	return -1
}

// Options maps attribute name to the chosen value. It is the option tuple
// that identifies a variant's position in the matrix.
type Options map[string]string

// Clone returns an independent copy of the tuple.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Variant is one purchasable combination of attribute values.
//
// A nil Stock means unlimited inventory. A nil Price means "not priced yet".
// Pointees are never mutated; edits build a new Variant with new pointers.
type Variant struct {
	ID                string           `json:"id"`
	Options           Options          `json:"options"`
	SKU               string           `json:"sku,omitempty"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	CompareAtPrice    *decimal.Decimal `json:"compare_at_price,omitempty"`
	Stock             *int64           `json:"stock,omitempty"`
	IsAvailable       bool             `json:"is_available"`
	Weight            *decimal.Decimal `json:"weight,omitempty"`
	MediaID           string           `json:"media_id,omitempty"`
	LowStockThreshold *int64           `json:"low_stock_threshold,omitempty"`
}

// Label renders the tuple in attribute order, e.g. "M / Red".
func (v Variant) Label(attrs []Attribute) string {
	label := ""
	for _, a := range attrs {
		val, ok := v.Options[a.Name]
		if !ok {
			continue
		}
		if label != "" {
			label += " / "
		}
		label += val
	}
	return label
}

// Snapshot is an immutable copy of the matrix used for undo/redo.
//
// Seq is a logical sequence number; Timestamp is informational only.
type Snapshot struct {
	Attributes []Attribute `json:"attributes"`
	Variants   []Variant   `json:"variants"`
	Seq        int64       `json:"seq"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Preset is a predefined group of attributes from the preset catalog.
type Preset struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Attributes  []PresetAttribute `json:"attributes"`
}

// PresetAttribute is one {name, values} group of a preset.
type PresetAttribute struct {
	Name   string   `json:"name" yaml:"name"`
	Values []string `json:"values" yaml:"values"`
}

// Int returns a pointer to n. Convenience for optional int64 fields.
func Int(n int64) *int64 {
	return &n
}

// Money returns a pointer to a decimal parsed from s. It panics on invalid
// input and is intended for literals in tests and fixtures.
func Money(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// Dec returns a pointer to d.
func Dec(d decimal.Decimal) *decimal.Decimal {
	return &d
}
