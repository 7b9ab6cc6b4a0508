package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/varmatrix/internal/matrix"
)

// CheckSKUUnique looks sku up across every product's saved variants,
// case-insensitively after trimming. Variants of ownerID and the variant
// excludingVariantID are ignored: the editor checks its live matrix itself,
// and the saved rows of the owner may be stale.
//
// An empty SKU is always unique.
func (s *Store) CheckSKUUnique(ctx context.Context, ownerID, sku, excludingVariantID string) (matrix.SKUCheck, error) {
	key := matrix.SKUKey(sku)
	if key == "" {
		return matrix.SKUCheck{IsValid: true}, nil
	}

	var conflictID, conflictName string
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.name
		FROM variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.sku_key = ? AND v.product_id != ? AND v.id != ?
		ORDER BY p.id COLLATE BINARY ASC
		LIMIT 1
	`, key, ownerID, excludingVariantID).Scan(&conflictID, &conflictName)
	if errors.Is(err, sql.ErrNoRows) {
		return matrix.SKUCheck{IsValid: true}, nil
	}
	if err != nil {
		return matrix.SKUCheck{}, fmt.Errorf("check sku %q: %w", sku, err)
	}
	return matrix.SKUCheck{
		IsValid:              false,
		IsDuplicate:          true,
		ConflictingOwnerID:   conflictID,
		ConflictingOwnerName: conflictName,
	}, nil
}
