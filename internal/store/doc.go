// Package store provides SQLite-backed persistence for variant matrices.
//
// The store holds one matrix per product:
//   - Products: name, SKU prefix and the hash of the last saved matrix
//   - Attributes and attribute values, with their display positions
//   - Variants, keyed by id and unique per (product, option tuple)
//
// # Critical Patterns
//
// All-or-nothing saves:
//   - SaveMatrix replaces a product's attributes and variants in one
//     transaction; on any error nothing is written
//
// Deterministic reads:
//   - All list queries order by position ASC, id ASC COLLATE BINARY
//
// Case-insensitive SKUs:
//   - Each variant row carries sku_key (trimmed, case-folded) so SKU
//     lookups across products use an index instead of LOWER() scans
//
// Canonical tuples:
//   - options is stored as canonical JSON (ir.TupleKey) next to its
//     domain-separated hash, which backs the uniqueness constraint
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait up to 5s for locks
//   - foreign_keys=ON: Deleting a product cascades to its matrix
package store
