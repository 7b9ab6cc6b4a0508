package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrProductNotFound is returned when a product id has no row.
var ErrProductNotFound = errors.New("product not found")

// Product is the owner of one variant matrix.
type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SKUPrefix  string    `json:"sku_prefix"`
	MatrixHash string    `json:"matrix_hash"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateProduct inserts a product. An empty p.ID is replaced by a UUIDv7.
// Returns the stored product.
func (s *Store) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if p.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return Product{}, fmt.Errorf("generate product id: %w", err)
		}
		p.ID = id.String()
	}
	if p.Name == "" {
		return Product{}, fmt.Errorf("write product: name is required")
	}

	now := s.now()
	p.CreatedAt = now.UTC()
	p.UpdatedAt = now.UTC()
	p.MatrixHash = ""

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, sku_prefix, matrix_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.SKUPrefix, p.MatrixHash, formatTime(now), formatTime(now))
	if err != nil {
		return Product{}, fmt.Errorf("write product %s: %w", p.ID, err)
	}
	return p, nil
}

// GetProduct returns the product with the given id or ErrProductNotFound.
func (s *Store) GetProduct(ctx context.Context, id string) (Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, sku_prefix, matrix_hash, created_at, updated_at
		FROM products
		WHERE id = ?
	`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if err != nil {
		return Product{}, fmt.Errorf("read product %s: %w", id, err)
	}
	return p, nil
}

// ListProducts returns every product ordered by creation time, then id.
func (s *Store) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, sku_prefix, matrix_hash, created_at, updated_at
		FROM products
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(r rowScanner) (Product, error) {
	var p Product
	var created, updated string
	if err := r.Scan(&p.ID, &p.Name, &p.SKUPrefix, &p.MatrixHash, &created, &updated); err != nil {
		return Product{}, err
	}
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return Product{}, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return Product{}, err
	}
	return p, nil
}
