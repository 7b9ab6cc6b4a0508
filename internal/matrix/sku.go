package matrix

import (
	"fmt"
	"strings"

	"github.com/roach88/varmatrix/internal/ir"
)

// skuTokenLen is the maximum length of one per-attribute SKU segment.
const skuTokenLen = 4

// GenerateSKU builds a deterministic SKU from ordered option values.
//
// Format: PREFIX-TOK1-TOK2-NNN, e.g. GenerateSKU("RING", {"M", "Red"}, 3)
// yields "RING-M-RED-003". Each token is the value uppercased, stripped to
// [A-Z0-9] and truncated to four characters; tokens that strip to nothing are
// skipped. The prefix is omitted when empty and the index segment when
// index <= 0.
func GenerateSKU(prefix string, values []string, index int) string {
	parts := make([]string, 0, len(values)+2)
	if prefix != "" {
		parts = append(parts, prefix)
	}
	for _, v := range values {
		if tok := skuToken(v); tok != "" {
			parts = append(parts, tok)
		}
	}
	if index > 0 {
		parts = append(parts, fmt.Sprintf("%03d", index))
	}
	return strings.Join(parts, "-")
}

func skuToken(value string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(value) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() >= skuTokenLen {
				break
			}
		}
	}
	return b.String()
}

// OrderedValues returns the tuple's values in attribute order. Keys that no
// longer match an attribute (stale after a removal) follow in canonical key
// order so the result stays deterministic.
func OrderedValues(attrs []ir.Attribute, options ir.Options) []string {
	values := make([]string, 0, len(options))
	seen := make(map[string]bool, len(options))
	for _, a := range attrs {
		if v, ok := options[a.Name]; ok && !seen[a.Name] {
			values = append(values, v)
			seen[a.Name] = true
		}
	}
	for _, k := range ir.SortedKeys(options) {
		if !seen[k] {
			values = append(values, options[k])
		}
	}
	return values
}

// VariantSKU generates the SKU for a variant at the given 1-based position.
func VariantSKU(prefix string, attrs []ir.Attribute, options ir.Options, position int) string {
	return GenerateSKU(prefix, OrderedValues(attrs, options), position)
}
