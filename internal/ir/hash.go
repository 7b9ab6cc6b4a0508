package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainTuple  = "varmatrix/tuple/v1"
	DomainMatrix = "varmatrix/matrix/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TupleKey returns the canonical serialized form of an option tuple.
//
// Two tuples have equal keys iff they hold the same attribute/value pairs,
// regardless of map iteration order or Unicode composition form. Compute it
// once per variant; comparing keys is O(1) per lookup in a map.
func TupleKey(options Options) string {
	if options == nil {
		return "{}"
	}
	data, err := MarshalCanonical(options)
	if err != nil {
		// Options holds only strings, which always marshal.
		panic(fmt.Sprintf("TupleKey: %v", err))
	}
	return string(data)
}

// TupleHash is a fixed-width digest of TupleKey, used as an indexed column.
func TupleHash(options Options) string {
	return hashWithDomain(DomainTuple, []byte(TupleKey(options)))
}

// MatrixHash computes a digest over a canonical matrix document (see
// CanonicalMatrix). Equal hashes mean equal attributes and variants.
func MatrixHash(attrs []Attribute, variants []Variant) (string, error) {
	data, err := MarshalCanonical(CanonicalMatrix(attrs, variants))
	if err != nil {
		return "", fmt.Errorf("MatrixHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainMatrix, data), nil
}

// CanonicalMatrix converts attributes and variants into a plain document
// suitable for MarshalCanonical. Money is rendered with two decimals, weight
// with its natural precision, and absent optional fields are omitted.
func CanonicalMatrix(attrs []Attribute, variants []Variant) map[string]any {
	attrList := make([]any, len(attrs))
	for i, a := range attrs {
		values := make([]any, len(a.Values))
		for j, v := range a.Values {
			values[j] = map[string]any{"id": v.ID, "value": v.Value}
		}
		attrList[i] = map[string]any{"id": a.ID, "name": a.Name, "values": values}
	}

	variantList := make([]any, len(variants))
	for i, v := range variants {
		variantList[i] = CanonicalVariant(v)
	}

	return map[string]any{
		"attributes": attrList,
		"variants":   variantList,
	}
}

// CanonicalVariant renders a single variant for canonical serialization.
func CanonicalVariant(v Variant) map[string]any {
	m := map[string]any{
		"id":           v.ID,
		"options":      v.Options.Clone(),
		"is_available": v.IsAvailable,
	}
	if v.SKU != "" {
		m["sku"] = v.SKU
	}
	if v.Price != nil {
		m["price"] = v.Price.StringFixed(2)
	}
	if v.CompareAtPrice != nil {
		m["compare_at_price"] = v.CompareAtPrice.StringFixed(2)
	}
	if v.Stock != nil {
		m["stock"] = *v.Stock
	}
	if v.Weight != nil {
		m["weight"] = v.Weight.String()
	}
	if v.MediaID != "" {
		m["media_id"] = v.MediaID
	}
	if v.LowStockThreshold != nil {
		m["low_stock_threshold"] = *v.LowStockThreshold
	}
	return m
}
