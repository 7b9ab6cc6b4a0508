package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/varmatrix/internal/ir"
)

// timeLayout is the text form of created_at/updated_at. Fixed width keeps
// lexical and chronological order identical.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// nullDecimal renders an optional decimal as TEXT or NULL.
func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

// scanDecimal is the inverse of nullDecimal.
func scanDecimal(ns sql.NullString, column string) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, fmt.Errorf("parse %s %q: %w", column, ns.String, err)
	}
	return &d, nil
}

func nullInt(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}

func scanInt(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	n := ni.Int64
	return &n
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// unmarshalOptions decodes the canonical options column.
func unmarshalOptions(data string) (ir.Options, error) {
	opts := ir.Options{}
	if err := json.Unmarshal([]byte(data), &opts); err != nil {
		return nil, fmt.Errorf("unmarshal options: %w", err)
	}
	return opts, nil
}
