// Package ir provides the canonical data model for the variant matrix.
//
// This package contains type definitions and canonical serialization only.
// All other internal packages import ir; ir imports nothing internal. This
// keeps the data model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Values are immutable once built. Optional Variant fields are pointers
//     whose pointees are never written after construction, so copying a
//     Variant (or a slice of them) shares data safely.
//   - Money and weight use decimal.Decimal, never float64.
//   - Option tuples are compared through TupleKey, never by map iteration.
//   - All JSON tags use snake_case.
package ir
