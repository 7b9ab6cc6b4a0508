// Package matrix implements the product variant matrix engine.
//
// The engine turns a short ordered list of attributes (Size: S, M, L;
// Color: Red, Blue) into the full set of purchasable variants, lets an
// operator bulk-edit a selection of them and keeps a bounded undo/redo
// history of the whole matrix.
//
// ARCHITECTURE:
//
// Pure core, stateful shell:
// Everything except Editor and SKUValidator is a pure function over
// immutable values. Attribute operations, Regenerate and ApplyBulk return
// new slices and never write to their inputs. Editor sequences those
// functions, records the previous state in History and swaps in the result.
//
// Generation:
//  1. Attributes without values are ignored
//  2. Combination count above the hard limit aborts with a capacity error
//  3. Attributes are expanded attribute-outer, value-inner
//  4. Existing variants are indexed once by canonical tuple key
//  5. Surviving tuples reuse their variant verbatim; new tuples get defaults
//  6. The variant list is replaced; vanished tuples are dropped
//
// Snapshots:
// History snapshots share slices with the live state. Variant optional
// fields are pointers whose pointees are never written, so a shallow
// Variant copy is an independent value.
//
// Async SKU checks:
// SKUValidator debounces per variant id and keeps one cancel handle per id.
// A newer check supersedes the pending one, whose channel closes without a
// verdict. Editor.ApplySKUVerdict drops verdicts for SKUs that changed in
// the meantime.
//
// Editor is single-writer. SKUValidator is safe for concurrent use.
package matrix
