// Package harness runs YAML scenarios against the variant matrix editor.
//
// # Scenario Format
//
//	name: tee_bulk_price
//	description: "Bulk price edits round to cents"
//	prefix: TEE
//	config:
//	  hard_limit: 50
//	products:
//	  - id: hoodie
//	    name: Hoodie
//	    skus: [HOOD-001]
//	steps:
//	  - op: add_attribute
//	    name: Size
//	    values: [S, M, L]
//	  - op: generate
//	  - op: select
//	    match: [{Size: M}]
//	  - op: bulk
//	    bulk: {action: set_price, value: "19.99"}
//	  - op: undo
//	    expect_error: NOTHING_TO_UNDO
//	assertions:
//	  - type: variant_count
//	    count: 3
//	  - type: variant
//	    options: {Size: M}
//	    expect: {price: "19.99", sku: TEE-M-002}
//
// Attributes and values are referenced by name; variants by their option
// tuple. A step with expect_error must fail with that matrix error code or a
// message containing it; any other step must succeed. The first mismatch
// stops the run.
//
// # Assertion Types
//
//   - variant_count, selection_count, stored_variant_count: exact counts
//   - variant: field subset match on one variant, or absent: true
//   - summary: field subset match on the summary statistics
//   - error, no_errors: entries of the editor error map
//   - can_undo, can_redo: history availability
//   - attributes: attribute order and one attribute's value order
//
// # Deterministic Testing
//
// Every run gets a fresh in-memory SQLite store, sequential ids
// ("id-0001", ...) and step clocks, so the final matrix is byte-identical
// across runs and can be compared with a golden snapshot.
package harness
