package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/varmatrix/internal/ir"
)

// createTestStore creates a new store in a temp directory with a fixed clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := Open(path, WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestProduct inserts a product and fails the test on error.
func createTestProduct(t *testing.T, s *Store, id, name string) Product {
	t.Helper()
	p, err := s.CreateProduct(context.Background(), Product{ID: id, Name: name, SKUPrefix: "TST"})
	if err != nil {
		t.Fatalf("CreateProduct(%q) failed: %v", id, err)
	}
	return p
}

// sizeColorMatrix returns a 2x2 matrix with a mix of set and unset fields.
func sizeColorMatrix() ([]ir.Attribute, []ir.Variant) {
	attrs := []ir.Attribute{
		{ID: "size", Name: "Size", Values: []ir.AttributeValue{{ID: "s", Value: "S"}, {ID: "m", Value: "M"}}},
		{ID: "color", Name: "Color", Values: []ir.AttributeValue{{ID: "red", Value: "Red"}, {ID: "blue", Value: "Blue"}}},
	}
	variants := []ir.Variant{
		{
			ID: "v1", Options: ir.Options{"Size": "S", "Color": "Red"}, SKU: "TEE-S-RED-001",
			Price: ir.Money("19.90"), CompareAtPrice: ir.Money("24.00"), Stock: ir.Int(10),
			IsAvailable: true, Weight: ir.Money("0.25"), MediaID: "img-1", LowStockThreshold: ir.Int(3),
		},
		{ID: "v2", Options: ir.Options{"Size": "S", "Color": "Blue"}, SKU: "TEE-S-BLU-002", IsAvailable: true},
		{ID: "v3", Options: ir.Options{"Size": "M", "Color": "Red"}, Stock: ir.Int(0), IsAvailable: false},
		{ID: "v4", Options: ir.Options{"Size": "M", "Color": "Blue"}, Price: ir.Money("21"), IsAvailable: true},
	}
	return attrs, variants
}
