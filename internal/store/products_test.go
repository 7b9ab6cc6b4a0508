package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCreateProduct_GeneratesUUIDv7(t *testing.T) {
	s := createTestStore(t)

	p, err := s.CreateProduct(context.Background(), Product{Name: "Tee"})
	if err != nil {
		t.Fatalf("CreateProduct() failed: %v", err)
	}

	id, err := uuid.Parse(p.ID)
	if err != nil {
		t.Fatalf("product id %q is not a UUID: %v", p.ID, err)
	}
	if id.Version() != 7 {
		t.Errorf("product id version = %d, want 7", id.Version())
	}
}

func TestCreateProduct_RequiresName(t *testing.T) {
	s := createTestStore(t)

	if _, err := s.CreateProduct(context.Background(), Product{ID: "p1"}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestCreateProduct_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	createTestProduct(t, s, "p1", "Tee")

	if _, err := s.CreateProduct(context.Background(), Product{ID: "p1", Name: "Other"}); err == nil {
		t.Error("expected error for duplicate product id")
	}
}

func TestGetProduct(t *testing.T) {
	s := createTestStore(t)
	created := createTestProduct(t, s, "p1", "Tee")

	got, err := s.GetProduct(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetProduct() failed: %v", err)
	}
	if got.Name != "Tee" || got.SKUPrefix != "TST" {
		t.Errorf("GetProduct() = %+v", got)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created.CreatedAt)
	}
	if got.MatrixHash != "" {
		t.Errorf("MatrixHash = %q, want empty before first save", got.MatrixHash)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetProduct(context.Background(), "missing")
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("GetProduct() error = %v, want ErrProductNotFound", err)
	}
}

func TestListProducts_OrderedByCreation(t *testing.T) {
	s := createTestStore(t)

	empty, err := s.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts() failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("ListProducts() on empty store = %v, want empty non-nil slice", empty)
	}

	createTestProduct(t, s, "zz", "First")
	createTestProduct(t, s, "aa", "Second")

	products, err := s.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts() failed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("ListProducts() returned %d products, want 2", len(products))
	}
	if products[0].ID != "zz" || products[1].ID != "aa" {
		t.Errorf("order = [%s %s], want [zz aa]", products[0].ID, products[1].ID)
	}
}
