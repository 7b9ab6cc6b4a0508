package matrix

import (
	"fmt"
	"strings"

	"github.com/roach88/varmatrix/internal/ir"
)

// Validation messages, one per rule.
const (
	msgNegativePrice     = "price cannot be negative"
	msgNegativeCompareAt = "compare-at price cannot be negative"
	msgInvalidStock      = "stock must be a non-negative whole number"
	msgDuplicateSKU      = "SKU %q is already used by another variant"
)

// ValidateAll checks every variant and returns a map of variant id to the
// first failing rule's message. An empty map means the matrix is valid.
//
// Rules, in order: negative price, negative compare-at price, negative
// stock, duplicate non-empty SKU. SKUs compare case-insensitively after
// trimming, and every variant in a colliding group is flagged.
func ValidateAll(variants []ir.Variant) map[string]string {
	errs := make(map[string]string)

	skuCount := make(map[string]int, len(variants))
	for _, v := range variants {
		if key := SKUKey(v.SKU); key != "" {
			skuCount[key]++
		}
	}

	for _, v := range variants {
		if msg := validateVariant(v, skuCount); msg != "" {
			errs[v.ID] = msg
		}
	}
	return errs
}

func validateVariant(v ir.Variant, skuCount map[string]int) string {
	switch {
	case v.Price != nil && v.Price.IsNegative():
		return msgNegativePrice
	case v.CompareAtPrice != nil && v.CompareAtPrice.IsNegative():
		return msgNegativeCompareAt
	case v.Stock != nil && *v.Stock < 0:
		return msgInvalidStock
	}
	if key := SKUKey(v.SKU); key != "" && skuCount[key] > 1 {
		return fmt.Sprintf(msgDuplicateSKU, strings.TrimSpace(v.SKU))
	}
	return ""
}

// SKUKey is the comparison form of a SKU: trimmed and Unicode case-folded.
// An empty key means "no SKU". Stores index this form.
func SKUKey(sku string) string {
	return foldKey(sku)
}

// FindDuplicateSKU returns the first variant other than exceptID whose SKU
// equals sku under the same comparison ValidateAll uses.
func FindDuplicateSKU(variants []ir.Variant, sku, exceptID string) (ir.Variant, bool) {
	key := SKUKey(sku)
	if key == "" {
		return ir.Variant{}, false
	}
	for _, v := range variants {
		if v.ID != exceptID && SKUKey(v.SKU) == key {
			return v, true
		}
	}
	return ir.Variant{}, false
}
