package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/varmatrix/internal/ir"
	"github.com/roach88/varmatrix/internal/matrix"
)

// SKUConflictError reports a SKU already owned by another product.
type SKUConflictError struct {
	SKU                  string
	VariantID            string
	ConflictingOwnerID   string
	ConflictingOwnerName string
}

func (e *SKUConflictError) Error() string {
	return fmt.Sprintf("sku %q of variant %s is already used by product %s (%s)",
		e.SKU, e.VariantID, e.ConflictingOwnerID, e.ConflictingOwnerName)
}

// IsSKUConflict reports whether err is or wraps a SKUConflictError.
func IsSKUConflict(err error) bool {
	var conflict *SKUConflictError
	return errors.As(err, &conflict)
}

// SaveMatrix replaces the stored matrix of productID with attrs and variants.
//
// The write is a single transaction: the previous attributes and variants are
// deleted, the new ones inserted in slice order and the product's
// matrix_hash updated. A SKU held by another product aborts the save with a
// SKUConflictError and leaves the stored matrix untouched.
func (s *Store) SaveMatrix(ctx context.Context, productID string, attrs []ir.Attribute, variants []ir.Variant) error {
	hash, err := ir.MatrixHash(attrs, variants)
	if err != nil {
		return fmt.Errorf("save matrix %s: %w", productID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `
		UPDATE products SET matrix_hash = ?, updated_at = ? WHERE id = ?
	`, hash, formatTime(s.now()), productID)
	if err != nil {
		return fmt.Errorf("write product %s: %w", productID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("write product %s: %w", productID, err)
	} else if n == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}

	if err := checkConflicts(ctx, tx, productID, variants); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM variants WHERE product_id = ?`, productID); err != nil {
		return fmt.Errorf("delete variants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM attributes WHERE product_id = ?`, productID); err != nil {
		return fmt.Errorf("delete attributes: %w", err)
	}

	if err := insertAttributes(ctx, tx, productID, attrs); err != nil {
		return err
	}
	if err := insertVariants(ctx, tx, productID, variants); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit matrix %s: %w", productID, err)
	}
	return nil
}

func checkConflicts(ctx context.Context, tx *sql.Tx, productID string, variants []ir.Variant) error {
	for _, v := range variants {
		key := matrix.SKUKey(v.SKU)
		if key == "" {
			continue
		}
		var ownerID, ownerName string
		err := tx.QueryRowContext(ctx, `
			SELECT p.id, p.name
			FROM variants v
			JOIN products p ON p.id = v.product_id
			WHERE v.sku_key = ? AND v.product_id != ?
			ORDER BY p.id COLLATE BINARY ASC
			LIMIT 1
		`, key, productID).Scan(&ownerID, &ownerName)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("check sku %q: %w", v.SKU, err)
		}
		return &SKUConflictError{
			SKU:                  v.SKU,
			VariantID:            v.ID,
			ConflictingOwnerID:   ownerID,
			ConflictingOwnerName: ownerName,
		}
	}
	return nil
}

func insertAttributes(ctx context.Context, tx *sql.Tx, productID string, attrs []ir.Attribute) error {
	attrStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO attributes (id, product_id, position, name) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare attribute insert: %w", err)
	}
	defer attrStmt.Close()

	valueStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO attribute_values (id, attribute_id, position, value) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare value insert: %w", err)
	}
	defer valueStmt.Close()

	for i, a := range attrs {
		if _, err := attrStmt.ExecContext(ctx, a.ID, productID, i, a.Name); err != nil {
			return fmt.Errorf("write attribute %s: %w", a.ID, err)
		}
		for j, val := range a.Values {
			if _, err := valueStmt.ExecContext(ctx, val.ID, a.ID, j, val.Value); err != nil {
				return fmt.Errorf("write value %s of attribute %s: %w", val.ID, a.ID, err)
			}
		}
	}
	return nil
}

func insertVariants(ctx context.Context, tx *sql.Tx, productID string, variants []ir.Variant) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO variants (
			id, product_id, position, options, tuple_hash, sku, sku_key,
			price, compare_at_price, stock, is_available, weight, media_id,
			low_stock_threshold
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare variant insert: %w", err)
	}
	defer stmt.Close()

	for i, v := range variants {
		_, err := stmt.ExecContext(ctx,
			v.ID,
			productID,
			i,
			ir.TupleKey(v.Options),
			ir.TupleHash(v.Options),
			v.SKU,
			matrix.SKUKey(v.SKU),
			nullDecimal(v.Price),
			nullDecimal(v.CompareAtPrice),
			nullInt(v.Stock),
			boolToInt(v.IsAvailable),
			nullDecimal(v.Weight),
			v.MediaID,
			nullInt(v.LowStockThreshold),
		)
		if err != nil {
			return fmt.Errorf("write variant %s: %w", v.ID, err)
		}
	}
	return nil
}

// LoadMatrix reads the stored matrix of productID in saved order.
// Returns empty (non-nil) slices for a product that was never saved.
func (s *Store) LoadMatrix(ctx context.Context, productID string) ([]ir.Attribute, []ir.Variant, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, nil, err
	}

	attrs, err := s.loadAttributes(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	variants, err := s.loadVariants(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	return attrs, variants, nil
}

func (s *Store) loadAttributes(ctx context.Context, productID string) ([]ir.Attribute, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.name, v.id, v.value
		FROM attributes a
		LEFT JOIN attribute_values v ON v.attribute_id = a.id
		WHERE a.product_id = ?
		ORDER BY a.position ASC, a.id COLLATE BINARY ASC, v.position ASC, v.id COLLATE BINARY ASC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("query attributes: %w", err)
	}
	defer rows.Close()

	attrs := []ir.Attribute{}
	for rows.Next() {
		var attrID, name string
		var valueID, value sql.NullString
		if err := rows.Scan(&attrID, &name, &valueID, &value); err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		if n := len(attrs); n == 0 || attrs[n-1].ID != attrID {
			attrs = append(attrs, ir.Attribute{ID: attrID, Name: name, Values: []ir.AttributeValue{}})
		}
		if valueID.Valid {
			last := &attrs[len(attrs)-1]
			last.Values = append(last.Values, ir.AttributeValue{ID: valueID.String, Value: value.String})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attributes: %w", err)
	}
	return attrs, nil
}

func (s *Store) loadVariants(ctx context.Context, productID string) ([]ir.Variant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, options, sku, price, compare_at_price, stock, is_available,
		       weight, media_id, low_stock_threshold
		FROM variants
		WHERE product_id = ?
		ORDER BY position ASC, id COLLATE BINARY ASC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	variants := []ir.Variant{}
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variants: %w", err)
	}
	return variants, nil
}

func scanVariant(r rowScanner) (ir.Variant, error) {
	var (
		v                    ir.Variant
		options              string
		price, compareAt, wt sql.NullString
		stock, threshold     sql.NullInt64
		available            int
	)
	err := r.Scan(&v.ID, &options, &v.SKU, &price, &compareAt, &stock,
		&available, &wt, &v.MediaID, &threshold)
	if err != nil {
		return ir.Variant{}, err
	}

	if v.Options, err = unmarshalOptions(options); err != nil {
		return ir.Variant{}, err
	}
	if v.Price, err = scanDecimal(price, "price"); err != nil {
		return ir.Variant{}, err
	}
	if v.CompareAtPrice, err = scanDecimal(compareAt, "compare_at_price"); err != nil {
		return ir.Variant{}, err
	}
	if v.Weight, err = scanDecimal(wt, "weight"); err != nil {
		return ir.Variant{}, err
	}
	v.Stock = scanInt(stock)
	v.LowStockThreshold = scanInt(threshold)
	v.IsAvailable = available != 0
	return v, nil
}

// ProductMatrix binds a store to one product. It satisfies matrix.Persister
// and matrix.UniquenessChecker for an editor working on that product.
type ProductMatrix struct {
	store     *Store
	productID string
}

var (
	_ matrix.Persister         = (*ProductMatrix)(nil)
	_ matrix.UniquenessChecker = (*Store)(nil)
)

// Product returns a binding for productID. The product is not checked until
// the first read or write.
func (s *Store) Product(productID string) *ProductMatrix {
	return &ProductMatrix{store: s, productID: productID}
}

// ProductID returns the bound product id.
func (pm *ProductMatrix) ProductID() string {
	return pm.productID
}

// SaveMatrix implements matrix.Persister.
func (pm *ProductMatrix) SaveMatrix(ctx context.Context, attrs []ir.Attribute, variants []ir.Variant) error {
	return pm.store.SaveMatrix(ctx, pm.productID, attrs, variants)
}

// LoadMatrix reads the bound product's matrix.
func (pm *ProductMatrix) LoadMatrix(ctx context.Context) ([]ir.Attribute, []ir.Variant, error) {
	return pm.store.LoadMatrix(ctx, pm.productID)
}
