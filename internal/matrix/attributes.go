package matrix

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/varmatrix/internal/ir"
)

// Attribute store operations.
//
// Every function here is pure: it returns a new slice and never writes to the
// input, so a slice captured in a history snapshot stays valid. Unchanged
// attributes are shared between input and output. The changed result is false
// when the operation was a no-op (duplicate value, unknown id, out-of-range
// index); callers use it to avoid pushing empty history entries.

// foldKey returns the case-folded form used for duplicate detection.
func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// EqualFold reports whether a and b are equal under the comparison the
// engine uses for attribute names and values: trimmed, Unicode case-folded.
func EqualFold(a, b string) bool {
	return foldKey(a) == foldKey(b)
}

// IndexOfAttribute returns the position of the attribute with id, or -1.
func IndexOfAttribute(attrs []ir.Attribute, id string) int {
	for i, a := range attrs {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// NextAttributeName returns the first "Option N" name not already used
// (case-insensitive) by an attribute.
func NextAttributeName(attrs []ir.Attribute) string {
	for n := len(attrs) + 1; ; n++ {
		name := fmt.Sprintf("Option %d", n)
		if !hasAttributeName(attrs, name) {
			return name
		}
	}
}

func hasAttributeName(attrs []ir.Attribute, name string) bool {
	return hasAttributeNameExcept(attrs, name, "")
}

// hasAttributeNameExcept is hasAttributeName ignoring the attribute exceptID.
func hasAttributeNameExcept(attrs []ir.Attribute, name, exceptID string) bool {
	for _, a := range attrs {
		if a.ID != exceptID && EqualFold(a.Name, name) {
			return true
		}
	}
	return false
}

// uniqueAttributeName returns name, or "name 2", "name 3"... if taken.
func uniqueAttributeName(attrs []ir.Attribute, name string) string {
	return uniqueAttributeNameExcept(attrs, name, "")
}

func uniqueAttributeNameExcept(attrs []ir.Attribute, name, exceptID string) string {
	if !hasAttributeNameExcept(attrs, name, exceptID) {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s %d", name, n)
		if !hasAttributeNameExcept(attrs, candidate, exceptID) {
			return candidate
		}
	}
}

// AddAttribute appends an attribute with no values. An empty name is replaced
// by NextAttributeName; a name already taken (case-insensitive) gets a
// numeric suffix, since option tuples are keyed by attribute name. Returns a
// max-attributes error, leaving attrs untouched, when the list is already at
// maxAttrs.
func AddAttribute(attrs []ir.Attribute, id, name string, maxAttrs int) ([]ir.Attribute, error) {
	if len(attrs) >= maxAttrs {
		return attrs, NewMaxAttributesError(len(attrs), 1, maxAttrs)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = NextAttributeName(attrs)
	}
	name = uniqueAttributeName(attrs, name)
	out := make([]ir.Attribute, len(attrs), len(attrs)+1)
	copy(out, attrs)
	return append(out, ir.Attribute{ID: id, Name: name, Values: []ir.AttributeValue{}}), nil
}

// RemoveAttribute drops the attribute with id. Variants are not touched.
func RemoveAttribute(attrs []ir.Attribute, id string) ([]ir.Attribute, bool) {
	idx := IndexOfAttribute(attrs, id)
	if idx < 0 {
		return attrs, false
	}
	out := make([]ir.Attribute, 0, len(attrs)-1)
	out = append(out, attrs[:idx]...)
	return append(out, attrs[idx+1:]...), true
}

// RenameAttribute sets the attribute's name. Blank names are ignored; a name
// held by another attribute gets a numeric suffix.
func RenameAttribute(attrs []ir.Attribute, id, name string) ([]ir.Attribute, bool) {
	name = strings.TrimSpace(name)
	idx := IndexOfAttribute(attrs, id)
	if idx < 0 || name == "" {
		return attrs, false
	}
	name = uniqueAttributeNameExcept(attrs, name, id)
	if attrs[idx].Name == name {
		return attrs, false
	}
	return replaceAttribute(attrs, idx, func(a ir.Attribute) ir.Attribute {
		a.Name = name
		return a
	}), true
}

// AddValue appends a value to the attribute. Adding a value that already
// exists under a case-insensitive compare, or a blank value, is a no-op.
func AddValue(attrs []ir.Attribute, attrID, valueID, value string) ([]ir.Attribute, bool) {
	value = strings.TrimSpace(value)
	idx := IndexOfAttribute(attrs, attrID)
	if idx < 0 || value == "" || hasValue(attrs[idx], value, "") {
		return attrs, false
	}
	return replaceAttribute(attrs, idx, func(a ir.Attribute) ir.Attribute {
		values := make([]ir.AttributeValue, len(a.Values), len(a.Values)+1)
		copy(values, a.Values)
		a.Values = append(values, ir.AttributeValue{ID: valueID, Value: value})
		return a
	}), true
}

// RemoveValue drops one value from the attribute.
func RemoveValue(attrs []ir.Attribute, attrID, valueID string) ([]ir.Attribute, bool) {
	idx := IndexOfAttribute(attrs, attrID)
	if idx < 0 {
		return attrs, false
	}
	vIdx := attrs[idx].ValueIndex(valueID)
	if vIdx < 0 {
		return attrs, false
	}
	return replaceAttribute(attrs, idx, func(a ir.Attribute) ir.Attribute {
		values := make([]ir.AttributeValue, 0, len(a.Values)-1)
		values = append(values, a.Values[:vIdx]...)
		a.Values = append(values, a.Values[vIdx+1:]...)
		return a
	}), true
}

// RenameValue changes a value's text. Renaming to a value another entry of
// the same attribute already holds (case-insensitive) is a no-op; changing
// only the case of the value itself is allowed.
func RenameValue(attrs []ir.Attribute, attrID, valueID, value string) ([]ir.Attribute, bool) {
	value = strings.TrimSpace(value)
	idx := IndexOfAttribute(attrs, attrID)
	if idx < 0 || value == "" {
		return attrs, false
	}
	vIdx := attrs[idx].ValueIndex(valueID)
	if vIdx < 0 || attrs[idx].Values[vIdx].Value == value || hasValue(attrs[idx], value, valueID) {
		return attrs, false
	}
	return replaceAttribute(attrs, idx, func(a ir.Attribute) ir.Attribute {
		values := make([]ir.AttributeValue, len(a.Values))
		copy(values, a.Values)
		values[vIdx].Value = value
		a.Values = values
		return a
	}), true
}

// MoveAttribute moves the attribute at from to position to.
func MoveAttribute(attrs []ir.Attribute, from, to int) ([]ir.Attribute, bool) {
	out, ok := move(attrs, from, to)
	return out, ok
}

// MoveValue reorders the values of one attribute.
func MoveValue(attrs []ir.Attribute, attrID string, from, to int) ([]ir.Attribute, bool) {
	idx := IndexOfAttribute(attrs, attrID)
	if idx < 0 {
		return attrs, false
	}
	values, ok := move(attrs[idx].Values, from, to)
	if !ok {
		return attrs, false
	}
	return replaceAttribute(attrs, idx, func(a ir.Attribute) ir.Attribute {
		a.Values = values
		return a
	}), true
}

// ApplyPreset appends every attribute group of the preset. The preset is
// rejected in full when it would push the count over maxAttrs. Names that
// collide with existing attributes get a numeric suffix; duplicate and blank
// values inside a group are dropped.
func ApplyPreset(attrs []ir.Attribute, preset ir.Preset, ids IDGenerator, maxAttrs int) ([]ir.Attribute, error) {
	if len(attrs)+len(preset.Attributes) > maxAttrs {
		return attrs, NewMaxAttributesError(len(attrs), len(preset.Attributes), maxAttrs)
	}

	out := make([]ir.Attribute, len(attrs), len(attrs)+len(preset.Attributes))
	copy(out, attrs)
	for _, group := range preset.Attributes {
		name := strings.TrimSpace(group.Name)
		if name == "" {
			name = NextAttributeName(out)
		}
		attr := ir.Attribute{
			ID:     ids.Generate(),
			Name:   uniqueAttributeName(out, name),
			Values: make([]ir.AttributeValue, 0, len(group.Values)),
		}
		for _, v := range group.Values {
			v = strings.TrimSpace(v)
			if v == "" || hasValue(attr, v, "") {
				continue
			}
			attr.Values = append(attr.Values, ir.AttributeValue{ID: ids.Generate(), Value: v})
		}
		out = append(out, attr)
	}
	return out, nil
}

// hasValue reports whether the attribute holds value (case-insensitive),
// ignoring the entry with id exceptID.
func hasValue(a ir.Attribute, value, exceptID string) bool {
	key := foldKey(value)
	for _, v := range a.Values {
		if v.ID != exceptID && foldKey(v.Value) == key {
			return true
		}
	}
	return false
}

// replaceAttribute returns a copy of attrs with attrs[idx] replaced by fn's result.
func replaceAttribute(attrs []ir.Attribute, idx int, fn func(ir.Attribute) ir.Attribute) []ir.Attribute {
	out := make([]ir.Attribute, len(attrs))
	copy(out, attrs)
	out[idx] = fn(attrs[idx])
	return out
}

// move returns a copy of s with the element at from relocated to to.
func move[T any](s []T, from, to int) ([]T, bool) {
	if from < 0 || from >= len(s) || to < 0 || to >= len(s) || from == to {
		return s, false
	}
	out := make([]T, 0, len(s))
	out = append(out, s[:from]...)
	out = append(out, s[from+1:]...)
	elem := s[from]
	out = append(out[:to], append([]T{elem}, out[to:]...)...)
	return out, true
}
