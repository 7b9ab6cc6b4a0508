package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantJSONFieldNaming(t *testing.T) {
	v := Variant{
		ID:                "x",
		Options:           Options{"Size": "M"},
		SKU:               "M-001",
		Price:             Money("10.5"),
		CompareAtPrice:    Money("12"),
		Stock:             Int(3),
		IsAvailable:       true,
		MediaID:           "img",
		LowStockThreshold: Int(5),
	}

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, key := range []string{"id", "options", "sku", "price", "compare_at_price", "stock", "is_available", "media_id", "low_stock_threshold"} {
		assert.Contains(t, m, key)
	}
	assert.NotContains(t, m, "weight", "absent optional fields are omitted")
}

func TestVariantJSONRoundTrip(t *testing.T) {
	v := Variant{ID: "x", Options: Options{"Size": "M"}, Price: Money("10.50"), Stock: Int(0), IsAvailable: true}

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var back Variant
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Price.Equal(*v.Price))
	require.NotNil(t, back.Stock, "zero stock is not unlimited")
	assert.Equal(t, int64(0), *back.Stock)
}

func TestVariantLabel(t *testing.T) {
	attrs := []Attribute{{Name: "Size"}, {Name: "Color"}}
	v := Variant{Options: Options{"Color": "Red", "Size": "M"}}

	assert.Equal(t, "M / Red", v.Label(attrs))
	assert.Equal(t, "", Variant{}.Label(attrs))
}

func TestAttributeHelpers(t *testing.T) {
	a := Attribute{ID: "a", Name: "Size", Values: []AttributeValue{{ID: "s", Value: "S"}, {ID: "m", Value: "M"}}}

	assert.True(t, a.HasValues())
	assert.False(t, Attribute{}.HasValues())
	assert.Equal(t, 1, a.ValueIndex("m"))
	assert.Equal(t, -1, a.ValueIndex("xl"))
}

func TestOptionsClone(t *testing.T) {
	o := Options{"Size": "M"}
	c := o.Clone()
	c["Size"] = "L"
	assert.Equal(t, "M", o["Size"])
}
