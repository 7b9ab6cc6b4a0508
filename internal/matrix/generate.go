package matrix

import "github.com/roach88/varmatrix/internal/ir"

// GenerateResult describes the outcome of a regeneration.
type GenerateResult struct {
	// Variants is the new ordered variant list.
	Variants []ir.Variant

	// Reused counts variants carried over verbatim by tuple identity.
	Reused int

	// Created counts freshly synthesized variants.
	Created int

	// Dropped counts prior variants whose tuple no longer exists.
	Dropped int

	// Capacity reports the combination count against the limits.
	Capacity Capacity
}

// Regenerate rebuilds the variant list from the attributes.
//
// Algorithm:
//  1. Attributes without values are ignored. If none remain the result is
//     an empty matrix, which is valid.
//  2. If the combination count exceeds cfg.HardLimit a capacity error is
//     returned and existing is left untouched.
//  3. The attributes are expanded (attribute-outer, value-inner).
//  4. Existing variants are indexed by TupleKey, computed once per variant.
//  5. A combination whose key matches an existing variant reuses that record
//     verbatim, preserving operator edits. Otherwise a new variant is built
//     with a fresh id, SKU(prefix, tuple, position+1), IsAvailable=true and
//     the configured low-stock threshold.
//  6. Existing variants whose tuple does not occur are dropped.
//
// Merging is O(n) in the number of variants.
func Regenerate(attrs []ir.Attribute, existing []ir.Variant, prefix string, ids IDGenerator, cfg Config) (GenerateResult, error) {
	active := activeAttributes(attrs)
	if len(active) == 0 {
		return GenerateResult{Variants: []ir.Variant{}, Dropped: len(existing)}, nil
	}

	capacity := CheckCapacity(CombinationCount(active), cfg)
	combos, err := Expand(active, cfg.HardLimit)
	if err != nil {
		return GenerateResult{Capacity: capacity}, err
	}

	byKey := indexByTuple(existing)
	result := GenerateResult{
		Variants: make([]ir.Variant, 0, len(combos)),
		Capacity: capacity,
	}
	used := make(map[string]bool, len(combos))

	for i, tuple := range combos {
		key := ir.TupleKey(tuple)
		if prior, ok := byKey[key]; ok && !used[key] {
			used[key] = true
			result.Variants = append(result.Variants, prior)
			result.Reused++
			continue
		}
		result.Variants = append(result.Variants, newVariant(ids.Generate(), tuple, VariantSKU(prefix, active, tuple, i+1), cfg))
		result.Created++
	}
	result.Dropped = len(existing) - result.Reused
	return result, nil
}

// PreviewGeneration computes what Regenerate would do without building
// variants or minting ids. Callers use it to confirm destructive runs.
func PreviewGeneration(attrs []ir.Attribute, existing []ir.Variant, cfg Config) (GenerateResult, error) {
	active := activeAttributes(attrs)
	if len(active) == 0 {
		return GenerateResult{Dropped: len(existing)}, nil
	}

	capacity := CheckCapacity(CombinationCount(active), cfg)
	combos, err := Expand(active, cfg.HardLimit)
	if err != nil {
		return GenerateResult{Capacity: capacity}, err
	}

	byKey := indexByTuple(existing)
	result := GenerateResult{Capacity: capacity}
	for _, tuple := range combos {
		key := ir.TupleKey(tuple)
		if _, ok := byKey[key]; ok {
			delete(byKey, key)
			result.Reused++
			continue
		}
		result.Created++
	}
	result.Dropped = len(existing) - result.Reused
	return result, nil
}

// NeedsConfirmation reports whether the preview would discard variants the
// operator may have edited.
func (r GenerateResult) NeedsConfirmation() bool {
	return r.Dropped > 0
}

// indexByTuple maps TupleKey to the first variant carrying that tuple.
func indexByTuple(variants []ir.Variant) map[string]ir.Variant {
	idx := make(map[string]ir.Variant, len(variants))
	for _, v := range variants {
		key := ir.TupleKey(v.Options)
		if _, dup := idx[key]; !dup {
			idx[key] = v
		}
	}
	return idx
}

func newVariant(id string, tuple ir.Options, sku string, cfg Config) ir.Variant {
	return ir.Variant{
		ID:                id,
		Options:           tuple,
		SKU:               sku,
		IsAvailable:       true,
		LowStockThreshold: ir.Int(cfg.LowStockThreshold),
	}
}
