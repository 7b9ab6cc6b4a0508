package matrix

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/varmatrix/internal/ir"
)

// StockStatus is the stock bucket of a single variant.
type StockStatus string

const (
	StatusInStock     StockStatus = "in_stock"
	StatusLowStock    StockStatus = "low_stock"
	StatusOutOfStock  StockStatus = "out_of_stock"
	StatusUnavailable StockStatus = "unavailable"
	StatusUnlimited   StockStatus = "unlimited"
)

// Summary holds statistics derived from the variant list.
type Summary struct {
	Total       int `json:"total"`
	InStock     int `json:"in_stock"`
	LowStock    int `json:"low_stock"`
	OutOfStock  int `json:"out_of_stock"`
	Unavailable int `json:"unavailable"`

	// Unlimited counts available variants without a stock figure. They are
	// not part of the four buckets above.
	Unlimited int `json:"unlimited"`

	// PriceMin and PriceMax span the positive prices; nil when none are set.
	PriceMin *decimal.Decimal `json:"price_min,omitempty"`
	PriceMax *decimal.Decimal `json:"price_max,omitempty"`

	// InventoryValue is the sum of stock*price over variants with both set.
	InventoryValue decimal.Decimal `json:"inventory_value"`

	// InventoryCount is the sum of stock over variants with stock set.
	InventoryCount int64 `json:"inventory_count"`
}

// Status classifies one variant. defaultThreshold applies when the variant
// carries no threshold of its own.
func Status(v ir.Variant, defaultThreshold int64) StockStatus {
	if !v.IsAvailable {
		return StatusUnavailable
	}
	if v.Stock == nil {
		return StatusUnlimited
	}
	threshold := defaultThreshold
	if v.LowStockThreshold != nil {
		threshold = *v.LowStockThreshold
	}
	switch stock := *v.Stock; {
	case stock <= 0:
		return StatusOutOfStock
	case stock <= threshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Summarize computes the summary of variants in one pass.
func Summarize(variants []ir.Variant, defaultThreshold int64) Summary {
	s := Summary{Total: len(variants), InventoryValue: decimal.Zero}

	for _, v := range variants {
		switch Status(v, defaultThreshold) {
		case StatusInStock:
			s.InStock++
		case StatusLowStock:
			s.LowStock++
		case StatusOutOfStock:
			s.OutOfStock++
		case StatusUnavailable:
			s.Unavailable++
		case StatusUnlimited:
			s.Unlimited++
		}

		if v.Price != nil && v.Price.IsPositive() {
			if s.PriceMin == nil || v.Price.LessThan(*s.PriceMin) {
				s.PriceMin = v.Price
			}
			if s.PriceMax == nil || v.Price.GreaterThan(*s.PriceMax) {
				s.PriceMax = v.Price
			}
		}

		if v.Stock != nil {
			s.InventoryCount += *v.Stock
			if v.Price != nil {
				s.InventoryValue = s.InventoryValue.Add(v.Price.Mul(decimal.NewFromInt(*v.Stock)))
			}
		}
	}
	return s
}
