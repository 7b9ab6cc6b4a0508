package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTupleKey_OrderIndependent(t *testing.T) {
	a := Options{"Size": "M", "Color": "Red"}
	b := Options{"Color": "Red", "Size": "M"}

	assert.Equal(t, TupleKey(a), TupleKey(b))
	assert.Equal(t, `{"Color":"Red","Size":"M"}`, TupleKey(a))
}

func TestTupleKey_DistinguishesTuples(t *testing.T) {
	tests := []struct {
		name string
		a, b Options
	}{
		{"different value", Options{"Size": "M"}, Options{"Size": "L"}},
		{"different key", Options{"Size": "M"}, Options{"Fit": "M"}},
		{"extra attribute", Options{"Size": "M"}, Options{"Size": "M", "Color": "Red"}},
		{"case matters", Options{"Size": "M"}, Options{"Size": "m"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, TupleKey(tt.a), TupleKey(tt.b))
		})
	}
}

func TestTupleKey_NilAndEmpty(t *testing.T) {
	assert.Equal(t, "{}", TupleKey(nil))
	assert.Equal(t, "{}", TupleKey(Options{}))
}

func TestTupleHash(t *testing.T) {
	h := TupleHash(Options{"Size": "M"})

	assert.Len(t, h, 64)
	assert.Equal(t, h, TupleHash(Options{"Size": "M"}))
	assert.NotEqual(t, h, TupleHash(Options{"Size": "L"}))
	assert.Equal(t, strings.ToLower(h), h, "hex is lowercase")
}

func TestHashWithDomain_Separation(t *testing.T) {
	data := []byte(`{"Size":"M"}`)
	assert.NotEqual(t, hashWithDomain(DomainTuple, data), hashWithDomain(DomainMatrix, data))
	assert.Equal(t, hashWithDomain(DomainTuple, data), TupleHash(Options{"Size": "M"}))
}

func TestMatrixHash(t *testing.T) {
	attrs := []Attribute{{ID: "a1", Name: "Size", Values: []AttributeValue{{ID: "v1", Value: "M"}}}}
	variants := []Variant{{ID: "x1", Options: Options{"Size": "M"}, SKU: "M-001", Price: Money("10"), IsAvailable: true}}

	h1, err := MatrixHash(attrs, variants)
	require.NoError(t, err)
	h2, err := MatrixHash(attrs, variants)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	changed := []Variant{variants[0]}
	changed[0].Price = Money("11")
	h3, err := MatrixHash(attrs, changed)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)

	sameValue := []Variant{variants[0]}
	sameValue[0].Price = Money("10.00")
	h4, err := MatrixHash(attrs, sameValue)
	require.NoError(t, err)
	assert.Equal(t, h1, h4, "money is rendered with fixed precision")
}

func TestCanonicalVariant(t *testing.T) {
	t.Run("minimal", func(t *testing.T) {
		m := CanonicalVariant(Variant{ID: "x", Options: Options{"Size": "S"}})
		data, err := MarshalCanonical(m)
		require.NoError(t, err)
		assert.Equal(t, `{"id":"x","is_available":false,"options":{"Size":"S"}}`, string(data))
	})

	t.Run("all fields", func(t *testing.T) {
		v := Variant{
			ID:                "x",
			Options:           Options{"Size": "S"},
			SKU:               "S-001",
			Price:             Money("9.5"),
			CompareAtPrice:    Money("12"),
			Stock:             Int(4),
			IsAvailable:       true,
			Weight:            Money("0.250"),
			MediaID:           "img-1",
			LowStockThreshold: Int(5),
		}
		data, err := MarshalCanonical(CanonicalVariant(v))
		require.NoError(t, err)
		assert.Equal(t,
			`{"compare_at_price":"12.00","id":"x","is_available":true,"low_stock_threshold":5,"media_id":"img-1","options":{"Size":"S"},"price":"9.50","sku":"S-001","stock":4,"weight":"0.25"}`,
			string(data))
	})
}
